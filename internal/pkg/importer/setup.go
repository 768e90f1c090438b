package importer

import (
	"context"

	"github.com/JorisBrandt/PayImport/app/repository"
	"github.com/JorisBrandt/PayImport/internal/pkg/memberpress"
)

// Deps are the collaborators of the standard import pipeline. Gateway and
// Reconcile are optional; a nil Mepr disables the MemberPress handlers.
type Deps struct {
	Repos   *repository.Repositories
	Gateway GatewayFactory
	Mepr    memberpress.Source

	// Reconcile primes local customer state from the payment gateway before
	// the first row is touched. Nil skips the warm-up.
	Reconcile func(ctx context.Context) (int, error)
}

// DefaultConfig assembles the standard pipeline configuration. Dispatch
// follows the row's own field order, so columns that must see the resolved
// subscription id belong after the subscription column in the file.
func DefaultConfig(log *RunLog, deps Deps) Config {
	filters := NewFilters(log, deps.Repos.Subscription, deps.Repos.GatewayConfig, deps.Repos.Customer, deps.Gateway, deps.Mepr)
	actions := NewActions(log, deps.Repos.Subscription, deps.Repos.User, deps.Mepr)

	cfg := Config{
		Filters: []FilterBinding{
			{FieldMemberPressSubscriptionID, filters.MemberPressSubscriptionID},
			{FieldSubscriptionID, filters.SubscriptionID},
			{FieldSourceID, filters.SubscriptionID},
			{FieldAmount, filters.Amount},
			{FieldConfigID, filters.ConfigID},
			{FieldMollieCustomerID, filters.MollieCustomerID},
		},
		Actions: []ActionBinding{
			{FieldMemberPressSubscriptionID, actions.MemberPress},
			{FieldSubscriptionID, actions.Subscription},
		},
	}

	if deps.Reconcile != nil {
		cfg.OnStart = append(cfg.OnStart, func(ctx context.Context, items []*Item) {
			n, err := deps.Reconcile(ctx)
			if err != nil {
				log.Printf("- customer reconciliation failed: %v", err)
				return
			}
			log.Printf("- reconciled %d gateway customers", n)
		})
	}

	return cfg
}

// DefaultPipeline builds the standard pipeline in one step.
func DefaultPipeline(log *RunLog, deps Deps) *Pipeline {
	return NewPipeline(log, DefaultConfig(log, deps))
}
