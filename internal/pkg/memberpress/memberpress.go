// Package memberpress gives the importer read access to subscription records
// of a MemberPress installation. The membership system's own data model stays
// opaque: the importer consumes the Source interface and treats an absent
// implementation as a soft, optional dependency.
package memberpress

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Source exposes the external membership records the importer reads. A nil
// Source means MemberPress is not available in this deployment; the importer
// checks that once at pipeline construction and degrades to a logged no-op.
type Source interface {
	Subscription(ctx context.Context, id string) (*Subscription, error)
	Product(ctx context.Context, id string) (*Product, error)
}

// Subscription is one MemberPress subscription record.
type Subscription struct {
	ID             string
	UserID         uint
	ProductID      string
	Status         string
	PaymentMethod  string
	GatewayConfig  uint
	Period         int
	PeriodType     string
	Total          decimal.Decimal
	TaxAmount      decimal.Decimal
	LimitCycles    bool
	LimitCyclesNum int
	CreatedAt      time.Time
}

// Product is the membership product a subscription bills for.
type Product struct {
	ID             string
	Title          string
	OneTimePayment bool
}
