package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Billing interval units.
const (
	IntervalDay   = "day"
	IntervalWeek  = "week"
	IntervalMonth = "month"
	IntervalYear  = "year"
)

// SubscriptionPhase describes one billing regime of a subscription: when it
// starts, how often it repeats and for what amount. A phase stays active
// until its CanceledAt timestamp is set.
type SubscriptionPhase struct {
	ID             uint `gorm:"primaryKey" json:"id"`
	SubscriptionID uint `gorm:"not null;index" json:"subscription_id"`
	SequenceNumber int  `gorm:"not null;default:1" json:"sequence_number"`

	StartAt       time.Time       `gorm:"type:timestamp;not null" json:"start_at"`
	IntervalCount int             `gorm:"not null;default:1" json:"interval_count"`
	IntervalUnit  string          `gorm:"type:varchar(10);not null" json:"interval_unit"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,4);not null" json:"amount"`
	Currency      string          `gorm:"type:varchar(3);not null" json:"currency"`
	TaxAmount     decimal.Decimal `gorm:"type:decimal(12,4);not null;default:0" json:"tax_amount"`
	TotalPeriods  *int            `gorm:"default:null" json:"total_periods,omitempty"`
	CanceledAt    *time.Time      `gorm:"type:timestamp;default:null" json:"canceled_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// AddInterval returns t advanced by one repeat interval of the phase.
func (p *SubscriptionPhase) AddInterval(t time.Time) time.Time {
	switch p.IntervalUnit {
	case IntervalDay:
		return t.AddDate(0, 0, p.IntervalCount)
	case IntervalWeek:
		return t.AddDate(0, 0, 7*p.IntervalCount)
	case IntervalMonth:
		return t.AddDate(0, p.IntervalCount, 0)
	case IntervalYear:
		return t.AddDate(p.IntervalCount, 0, 0)
	}
	return t
}

// EndAt returns the date reached after n successive interval boundaries
// counted from the phase start.
func (p *SubscriptionPhase) EndAt(n int) time.Time {
	end := p.StartAt
	for i := 0; i < n; i++ {
		end = p.AddInterval(end)
	}
	return end
}
