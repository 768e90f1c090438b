package importer

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/JorisBrandt/PayImport/app/models"
	"github.com/JorisBrandt/PayImport/app/repository"
	"github.com/JorisBrandt/PayImport/internal/pkg/cache"
	"github.com/JorisBrandt/PayImport/internal/pkg/memberpress"
	"github.com/JorisBrandt/PayImport/internal/pkg/mollie"
	"github.com/JorisBrandt/PayImport/internal/pkg/money"
)

// Gateway is the slice of the payment gateway client the importer consumes.
type Gateway interface {
	CreateCustomer(ctx context.Context, req mollie.CustomerRequest) (*mollie.Customer, error)
	CreateMandate(ctx context.Context, customerID string, req mollie.MandateRequest) (*mollie.Mandate, error)
}

// GatewayFactory builds a gateway client for a configuration. The client
// operates in the mode (test/live) the configuration's API key belongs to.
type GatewayFactory func(cfg *models.GatewayConfig) Gateway

// Filters holds the stage 1 field handlers of the standard import pipeline.
type Filters struct {
	subs      repository.SubscriptionRepository
	configs   repository.GatewayConfigRepository
	customers repository.CustomerRepository
	gateway   GatewayFactory
	mepr      memberpress.Source
	validate  *validator.Validate
	log       *RunLog
}

// NewFilters creates the filter set with its collaborators. A nil mepr means
// MemberPress is not available; the dependent filter degrades to a logged
// no-op.
func NewFilters(
	log *RunLog,
	subs repository.SubscriptionRepository,
	configs repository.GatewayConfigRepository,
	customers repository.CustomerRepository,
	gateway GatewayFactory,
	mepr memberpress.Source,
) *Filters {
	validate := validator.New()
	// validator has no built-in IBAN rule; the mod-97 check lives in money.
	_ = validate.RegisterValidation("iban", func(fl validator.FieldLevel) bool {
		return money.ValidIBAN(fl.Field().String())
	})

	return &Filters{
		subs:      subs,
		configs:   configs,
		customers: customers,
		gateway:   gateway,
		mepr:      mepr,
		validate:  validate,
		log:       log,
	}
}

// MemberPressSubscriptionID adopts the owning user of the referenced
// MemberPress subscription into the row's user_id field.
func (f *Filters) MemberPressSubscriptionID(ctx context.Context, row *Row, value interface{}) error {
	id := strings.TrimSpace(row.String(FieldMemberPressSubscriptionID))
	if id == "" {
		return nil
	}
	if f.mepr == nil {
		f.log.Printf("- could not filter `memberpress_subscription_id`: MemberPress is not available")
		return nil
	}

	sub, err := f.mepr.Subscription(ctx, id)
	if err != nil {
		f.log.Printf("- could not load MemberPress subscription `%s`: %v", id, err)
		return nil
	}

	if row.String(FieldUserID) == "" {
		f.log.Printf("- add item `user_id` with value `%d` (from MemberPress subscription #%s)", sub.UserID, id)
	} else {
		f.log.Printf("- update item `user_id` from `%s` to `%d` (MemberPress subscription #%s)", row.String(FieldUserID), sub.UserID, id)
	}
	row.Set(FieldUserID, sub.UserID)
	return nil
}

// Amount normalizes the raw amount string into a decimal and writes the
// canonical (amount, currency) pair back into the row.
func (f *Filters) Amount(ctx context.Context, row *Row, value interface{}) error {
	_ = ctx
	raw := row.String(FieldAmount)

	row.Set(FieldAmount, money.ParseAmount(raw))
	row.Set(FieldCurrency, money.NormalizeCurrency(row.String(FieldCurrency), money.DefaultCurrency))
	return nil
}

// ConfigID substitutes the default gateway configuration id when the row
// carries no usable config reference.
func (f *Filters) ConfigID(ctx context.Context, row *Row, value interface{}) error {
	_ = ctx
	raw := strings.TrimSpace(row.String(FieldConfigID))
	if id, err := strconv.ParseUint(raw, 10, 64); err == nil && id > 0 {
		row.Set(FieldConfigID, uint(id))
		return nil
	}

	cfg, err := f.configs.GetDefault()
	if err != nil {
		f.log.Printf("- no default gateway configuration available: %v", err)
		return nil
	}
	row.Set(FieldConfigID, cfg.ID)
	return nil
}

// SubscriptionID resolves a missing subscription id by the row's (source,
// source_id) pair. It only decides which identity later stages use, the
// upsert itself happens in stage 2. The filter is also bound to the source
// id column: files without a subscription id column of their own get the
// field introduced here, which is what routes their rows to the upsert
// action.
func (f *Filters) SubscriptionID(ctx context.Context, row *Row, value interface{}) error {
	_ = ctx
	if !row.Has(FieldSubscriptionID) {
		row.Set(FieldSubscriptionID, "")
	}
	if strings.TrimSpace(row.String(FieldSubscriptionID)) != "" {
		return nil
	}

	source := strings.TrimSpace(row.String(FieldSource))
	if source == "" {
		source = models.SubscriptionSourceImport
	}
	sourceID := strings.TrimSpace(row.String(FieldSourceID))
	if sourceID == "" {
		return nil
	}

	sub, err := f.subs.GetBySource(source, sourceID)
	if err != nil {
		return nil
	}

	f.log.Printf("- resolved subscription #%d by source `%s` id `%s`", sub.ID, source, sourceID)
	row.Set(FieldSubscriptionID, sub.ID)
	return nil
}

// MollieCustomerID creates a remote gateway customer and payment mandate
// when the row asks for one (column present but empty). Consumer name and
// bank account fields are required; without them the filter logs and moves
// on. A failing gateway call is logged, the fields stay blank and the row
// continues.
func (f *Filters) MollieCustomerID(ctx context.Context, row *Row, value interface{}) error {
	if strings.TrimSpace(row.String(FieldMollieCustomerID)) != "" {
		return nil
	}

	if f.gateway == nil {
		f.log.Printf("- skipping customer creation: no payment gateway configured")
		return nil
	}

	name := strings.TrimSpace(row.String(FieldConsumerName))
	iban := strings.TrimSpace(row.String(FieldConsumerIBAN))
	if name == "" || iban == "" {
		f.log.Printf("- skipping customer creation: consumer name and bank account are required")
		return nil
	}
	if err := f.validate.Var(iban, "iban"); err != nil {
		f.log.Printf("- skipping customer creation: `%s` is not a valid bank account", iban)
		return nil
	}

	email := strings.TrimSpace(row.String(FieldEmail))
	if email != "" {
		if err := f.validate.Var(email, "email"); err != nil {
			f.log.Printf("- ignoring invalid customer email `%s`", email)
			email = ""
		}
	}

	cfg, err := f.configs.GetDefault()
	if err != nil {
		f.log.Printf("- could not resolve gateway configuration: %v", err)
		return nil
	}
	gateway := f.gateway(cfg)

	customerID := f.reuseReconciledCustomer(email)
	if customerID == "" {
		customer, err := gateway.CreateCustomer(ctx, mollie.CustomerRequest{
			Name:  name,
			Email: email,
		})
		if err != nil {
			f.log.Printf("- could not create gateway customer: %v", err)
			return nil
		}
		customerID = customer.ID

		if err := f.customers.UpsertByMollieID(&models.Customer{
			MollieID: customer.ID,
			Name:     customer.Name,
			Email:    customer.Email,
			Mode:     cfg.Mode,
		}); err != nil {
			f.log.Printf("- could not store local customer mirror: %v", err)
		}

		f.log.Printf("+ created gateway customer `%s` (%s)", customer.ID, cfg.Mode)
	}

	mandate, err := gateway.CreateMandate(ctx, customerID, mollie.MandateRequest{
		ConsumerName:    name,
		ConsumerAccount: iban,
	})
	if err != nil {
		f.log.Printf("- could not create mandate for customer `%s`: %v", customerID, err)
		return nil
	}

	f.log.Printf("+ created mandate `%s` for customer `%s`", mandate.ID, customerID)

	row.Set(FieldMollieCustomerID, customerID)
	row.Set(FieldMollieMandateID, mandate.ID)
	return nil
}

// reuseReconciledCustomer checks the cache primed by the run-start customer
// reconciliation before hitting the local mirror table.
func (f *Filters) reuseReconciledCustomer(email string) string {
	if email == "" {
		return ""
	}
	if id, err := cache.Get(mollie.CustomerCacheKey(email)); err == nil && id != "" {
		f.log.Printf("- reusing gateway customer `%s` for `%s`", id, email)
		return id
	}
	if customer, err := f.customers.GetByEmail(email); err == nil {
		f.log.Printf("- reusing gateway customer `%s` for `%s`", customer.MollieID, email)
		return customer.MollieID
	}
	return ""
}
