package models

import "time"

// Subscription status vocabulary. Imported rows default to active; source
// specific importers map their own status values onto these.
const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusOnHold    = "on_hold"
	SubscriptionStatusCanceled  = "canceled"
	SubscriptionStatusCompleted = "completed"
	SubscriptionStatusExpired   = "expired"
	SubscriptionStatusFailure   = "failure"
)

// Known subscription sources.
const (
	SubscriptionSourceImport      = "import"
	SubscriptionSourceMemberPress = "memberpress"
)

// Default payment method for imported subscriptions without one.
const DefaultPaymentMethod = "direct_debit"

// Subscription is a recurring payment agreement. It is identified either by
// its internal ID or by the (source, source_id) pair pointing at the system
// the record originated from. Key is a random identifier safe to expose in
// customer-facing URLs.
type Subscription struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	Key           string `gorm:"type:varchar(36);uniqueIndex" json:"key"`
	Description   string `gorm:"type:varchar(200)" json:"description"`
	Status        string `gorm:"type:varchar(32);not null;default:'active';index" json:"status"`
	Source        string `gorm:"type:varchar(50);not null;index:idx_subscriptions_source_source_id,priority:1" json:"source"`
	SourceID      string `gorm:"type:varchar(191);not null;index:idx_subscriptions_source_source_id,priority:2" json:"source_id"`
	PaymentMethod string `gorm:"type:varchar(50)" json:"payment_method"`
	ConfigID      uint   `gorm:"not null;default:0" json:"config_id"`

	CustomerUserID    uint   `gorm:"default:0" json:"customer_user_id"`
	CustomerEmail     string `gorm:"type:varchar(200)" json:"customer_email"`
	CustomerFirstName string `gorm:"type:varchar(100)" json:"customer_first_name"`
	CustomerLastName  string `gorm:"type:varchar(100)" json:"customer_last_name"`
	BillingEmail      string `gorm:"type:varchar(200)" json:"billing_email"`

	NextPaymentAt *time.Time `gorm:"type:timestamp;default:null" json:"next_payment_at,omitempty"`
	ExpiresAt     *time.Time `gorm:"type:timestamp;default:null" json:"expires_at,omitempty"`
	EndsAt        *time.Time `gorm:"type:timestamp;default:null" json:"ends_at,omitempty"`

	Phases []SubscriptionPhase `gorm:"foreignKey:SubscriptionID;constraint:OnDelete:CASCADE" json:"phases"`
	Meta   []SubscriptionMeta  `gorm:"foreignKey:SubscriptionID;constraint:OnDelete:CASCADE" json:"meta,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// CurrentPhase returns the first phase that has not been canceled, or nil.
// After an upsert at most one such phase exists.
func (s *Subscription) CurrentPhase() *SubscriptionPhase {
	for i := range s.Phases {
		if s.Phases[i].CanceledAt == nil {
			return &s.Phases[i]
		}
	}
	return nil
}

// FirstPhase returns the phase with the lowest sequence number, or nil.
func (s *Subscription) FirstPhase() *SubscriptionPhase {
	if len(s.Phases) == 0 {
		return nil
	}
	first := &s.Phases[0]
	for i := range s.Phases {
		if s.Phases[i].SequenceNumber < first.SequenceNumber {
			first = &s.Phases[i]
		}
	}
	return first
}

// MetaValue returns the stored metadata value for key, or "".
func (s *Subscription) MetaValue(key string) string {
	for _, m := range s.Meta {
		if m.Key == key {
			return m.Value
		}
	}
	return ""
}

// SubscriptionMeta stores opaque key/value pairs attached to a subscription,
// such as external gateway customer and mandate identifiers.
type SubscriptionMeta struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	SubscriptionID uint      `gorm:"not null;index:ux_subscription_meta_sub_key,unique,priority:1" json:"subscription_id"`
	Key            string    `gorm:"type:varchar(100);not null;index:ux_subscription_meta_sub_key,unique,priority:2" json:"key"`
	Value          string    `gorm:"type:varchar(500)" json:"value"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Gateway metadata keys.
const (
	MetaMollieCustomerID = "mollie_customer_id"
	MetaMollieMandateID  = "mollie_mandate_id"
)
