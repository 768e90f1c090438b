package importer

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JorisBrandt/PayImport/app/models"
	"github.com/JorisBrandt/PayImport/app/repository"
	"github.com/JorisBrandt/PayImport/internal/pkg/memberpress"
	"github.com/JorisBrandt/PayImport/internal/pkg/money"
)

// Actions holds the stage 2 field handlers of the standard import pipeline.
// Both actions write the resolved subscription id back into the row, so
// handlers dispatched for later fields see the persisted record.
type Actions struct {
	subs  repository.SubscriptionRepository
	users repository.UserRepository
	mepr  memberpress.Source
	log   *RunLog
	now   func() time.Time
}

// NewActions creates the action set with its collaborators. A nil mepr means
// MemberPress is not available; the dependent action degrades to a logged
// no-op.
func NewActions(
	log *RunLog,
	subs repository.SubscriptionRepository,
	users repository.UserRepository,
	mepr memberpress.Source,
) *Actions {
	return &Actions{
		subs:  subs,
		users: users,
		mepr:  mepr,
		log:   log,
		now:   time.Now,
	}
}

// Subscription upserts the subscription described by the row and diffs its
// billing phase. The resolved id is written back into the row for downstream
// handlers and later rows.
func (a *Actions) Subscription(ctx context.Context, value interface{}, row *Row) error {
	sub, created := a.resolve(row)
	if sub.Key == "" {
		sub.Key = uuid.NewString()
	}

	// Scalar fields.
	source := strings.TrimSpace(row.String(FieldSource))
	if source == "" {
		source = models.SubscriptionSourceImport
	}
	sub.Source = source
	sub.SourceID = strings.TrimSpace(row.String(FieldSourceID))

	sub.Description = strings.TrimSpace(row.String(FieldDescription))
	if sub.Description == "" {
		sub.Description = fmt.Sprintf("Imported subscription %s", sub.SourceID)
	}

	sub.Status = strings.TrimSpace(row.String(FieldStatus))
	if sub.Status == "" {
		sub.Status = models.SubscriptionStatusActive
	}

	sub.PaymentMethod = strings.TrimSpace(row.String(FieldPaymentMethod))
	if sub.PaymentMethod == "" {
		sub.PaymentMethod = models.DefaultPaymentMethod
	}
	sub.ConfigID = row.Uint(FieldConfigID)

	// Customer. A resolved local user's profile wins over row values.
	a.populateCustomer(sub, row.Uint(FieldUserID), strings.TrimSpace(row.String(FieldEmail)))

	// Candidate phase.
	candidate, err := a.candidatePhase(sub, row)
	if err != nil {
		return err
	}

	if changed := ApplyCandidatePhase(sub, candidate, a.now()); changed {
		a.log.Printf("- replacing billing phase (%s %s per %d %s)", candidate.Amount, candidate.Currency, candidate.IntervalCount, candidate.IntervalUnit)
	} else {
		a.log.Printf("- billing phase unchanged")
	}

	completeDerivedDates(sub)

	if err := a.subs.Save(sub); err != nil {
		return fmt.Errorf("save subscription: %w", err)
	}

	stored, err := a.subs.Reload(sub)
	if err != nil {
		return fmt.Errorf("reload subscription #%d: %w", sub.ID, err)
	}
	sub = stored

	if created {
		a.log.Printf("+ Create subscription #%d", sub.ID)
	} else {
		a.log.Printf("- Update subscription #%d", sub.ID)
	}
	a.log.Dump(sub)

	a.attachGatewayMeta(sub, row)

	row.Set(FieldSubscriptionID, sub.ID)
	return nil
}

// MemberPress synchronizes one subscription from a MemberPress installation.
func (a *Actions) MemberPress(ctx context.Context, value interface{}, row *Row) error {
	id := strings.TrimSpace(row.String(FieldMemberPressSubscriptionID))
	if id == "" {
		return nil
	}
	if a.mepr == nil {
		a.log.Printf("- could not execute action for `memberpress_subscription_id`: MemberPress is not available")
		return nil
	}

	ms, err := a.mepr.Subscription(ctx, id)
	if err != nil {
		a.log.Printf("- MemberPress subscription `%s` does not exist. Skipping...", id)
		return nil
	}

	product, err := a.mepr.Product(ctx, ms.ProductID)
	if err != nil {
		a.log.Printf("- could not load MemberPress product `%s`: %v. Skipping...", ms.ProductID, err)
		return nil
	}
	if product.OneTimePayment {
		a.log.Printf("- MemberPress subscription product is a one-time payment. Skipping...")
		return nil
	}

	sub, created := a.resolveMemberPress(row, ms.ID)
	if sub.Key == "" {
		sub.Key = uuid.NewString()
	}

	sub.Description = product.Title
	sub.Status = memberpress.TransformStatus(ms.Status)
	sub.Source = models.SubscriptionSourceMemberPress
	sub.SourceID = ms.ID

	sub.PaymentMethod = ms.PaymentMethod
	if sub.PaymentMethod == "" {
		sub.PaymentMethod = models.DefaultPaymentMethod
	}
	sub.ConfigID = ms.GatewayConfig

	a.populateCustomer(sub, ms.UserID, strings.TrimSpace(row.String(FieldEmail)))

	candidate := models.SubscriptionPhase{
		StartAt:       ms.CreatedAt,
		IntervalCount: ms.Period,
		IntervalUnit:  memberpress.TransformPeriodType(ms.PeriodType),
		Amount:        ms.Total,
		TaxAmount:     ms.TaxAmount,
		Currency:      money.NormalizeCurrency(row.String(FieldCurrency), money.DefaultCurrency),
	}
	if ms.LimitCycles && ms.LimitCyclesNum > 0 {
		cycles := ms.LimitCyclesNum
		candidate.TotalPeriods = &cycles
	}
	if first := sub.FirstPhase(); first != nil {
		candidate.StartAt = first.StartAt
	}

	ApplyCandidatePhase(sub, candidate, a.now())
	completeDerivedDates(sub)

	if err := a.subs.Save(sub); err != nil {
		return fmt.Errorf("save subscription: %w", err)
	}
	stored, err := a.subs.Reload(sub)
	if err != nil {
		return fmt.Errorf("reload subscription #%d: %w", sub.ID, err)
	}
	sub = stored

	if created {
		a.log.Printf("+ Create subscription #%d", sub.ID)
	} else {
		a.log.Printf("- Update subscription #%d", sub.ID)
	}
	a.log.Dump(sub)

	a.attachGatewayMeta(sub, row)

	row.Set(FieldSubscriptionID, sub.ID)
	return nil
}

// resolve locates the target subscription: by explicit id, then by (source,
// source_id), else a fresh unsaved record.
func (a *Actions) resolve(row *Row) (*models.Subscription, bool) {
	if id := row.Uint(FieldSubscriptionID); id > 0 {
		if sub, err := a.subs.GetByID(id); err == nil {
			return sub, false
		}
	}

	source := strings.TrimSpace(row.String(FieldSource))
	if source == "" {
		source = models.SubscriptionSourceImport
	}
	if sourceID := strings.TrimSpace(row.String(FieldSourceID)); sourceID != "" {
		if sub, err := a.subs.GetBySource(source, sourceID); err == nil {
			return sub, false
		}
	}

	return &models.Subscription{}, true
}

func (a *Actions) resolveMemberPress(row *Row, meprID string) (*models.Subscription, bool) {
	if id := row.Uint(FieldSubscriptionID); id > 0 {
		if sub, err := a.subs.GetByID(id); err == nil {
			return sub, false
		}
	}
	if sub, err := a.subs.GetBySource(models.SubscriptionSourceMemberPress, meprID); err == nil {
		return sub, false
	}
	return &models.Subscription{}, true
}

// populateCustomer fills the subscription's customer fields. A resolvable
// local user overrides row-supplied values; the billing address carries the
// customer email when it is non-empty.
func (a *Actions) populateCustomer(sub *models.Subscription, userID uint, email string) {
	sub.CustomerUserID = userID
	sub.CustomerEmail = email

	if userID > 0 {
		if user, err := a.users.GetByID(userID); err == nil {
			if user.Email != "" {
				sub.CustomerEmail = user.Email
			}
			sub.CustomerFirstName = user.FirstName
			sub.CustomerLastName = user.LastName
		}
	}

	sub.BillingEmail = sub.CustomerEmail
}

// candidatePhase builds the billing phase described by the row, anchored at
// the subscription's existing start date when one exists.
func (a *Actions) candidatePhase(sub *models.Subscription, row *Row) (models.SubscriptionPhase, error) {
	count, unit, err := ParseInterval(row.String(FieldInterval))
	if err != nil {
		return models.SubscriptionPhase{}, err
	}

	amount, ok := rowAmount(row)
	if !ok {
		return models.SubscriptionPhase{}, fmt.Errorf("row has no usable amount")
	}

	phase := models.SubscriptionPhase{
		StartAt:       a.phaseStart(sub, row),
		IntervalCount: count,
		IntervalUnit:  unit,
		Amount:        amount,
		Currency:      money.NormalizeCurrency(row.String(FieldCurrency), money.DefaultCurrency),
	}

	if raw := strings.TrimSpace(row.String(FieldFrequency)); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			phase.TotalPeriods = &n
		}
	}
	return phase, nil
}

func (a *Actions) phaseStart(sub *models.Subscription, row *Row) time.Time {
	if first := sub.FirstPhase(); first != nil {
		return first.StartAt
	}
	if raw := strings.TrimSpace(row.String(FieldStartDate)); raw != "" {
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, raw); err == nil {
				return t
			}
		}
	}
	return a.now()
}

// attachGatewayMeta stores gateway customer and mandate ids from the row as
// opaque subscription metadata.
func (a *Actions) attachGatewayMeta(sub *models.Subscription, row *Row) {
	for field, key := range map[Field]string{
		FieldMollieCustomerID: models.MetaMollieCustomerID,
		FieldMollieMandateID:  models.MetaMollieMandateID,
	} {
		value := strings.TrimSpace(row.String(field))
		if value == "" {
			continue
		}
		if err := a.subs.SetMeta(sub.ID, key, value); err != nil {
			a.log.Printf("- could not store `%s` on subscription #%d: %v", key, sub.ID, err)
			continue
		}
		a.log.Printf("- Add `%s` `%s` to subscription #%d", key, value, sub.ID)
	}
}

// rowAmount reads the amount the filter stage normalized, falling back to
// parsing the raw value when the filter did not run.
func rowAmount(row *Row) (decimal.Decimal, bool) {
	v, ok := row.Value(FieldAmount)
	if !ok {
		return decimal.Decimal{}, false
	}
	switch t := v.(type) {
	case decimal.Decimal:
		return t, true
	case string:
		if strings.TrimSpace(t) == "" {
			return decimal.Decimal{}, false
		}
		return money.ParseAmount(t), true
	}
	return decimal.Decimal{}, false
}

// completeDerivedDates computes the subscription's next payment and expiry
// dates from its active phase, and its end date when the phase caps the
// number of periods.
func completeDerivedDates(sub *models.Subscription) {
	phase := sub.CurrentPhase()
	if phase == nil {
		return
	}

	expiry := phase.AddInterval(phase.StartAt)
	sub.ExpiresAt = &expiry
	sub.NextPaymentAt = &expiry

	if phase.TotalPeriods != nil && *phase.TotalPeriods > 0 {
		end := phase.EndAt(*phase.TotalPeriods)
		sub.EndsAt = &end
	} else {
		sub.EndsAt = nil
	}
}
