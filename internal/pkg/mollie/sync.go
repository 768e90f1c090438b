package mollie

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/JorisBrandt/PayImport/app/models"
	"github.com/JorisBrandt/PayImport/app/repository"
	"github.com/JorisBrandt/PayImport/internal/pkg/cache"
)

// customerCacheTTL bounds how long reconciled email -> customer links are
// kept around between import runs.
const customerCacheTTL = 6 * time.Hour

// CustomerCacheKey returns the cache key under which a reconciled customer id
// is stored for an email address.
func CustomerCacheKey(email string) string {
	return "mollie:customer:" + strings.ToLower(strings.TrimSpace(email))
}

// Reconciler synchronizes remote gateway customers with the local mirror
// table and connects them to local users by email address.
type Reconciler struct {
	client    *Client
	customers repository.CustomerRepository
	users     repository.UserRepository
}

// NewReconciler creates a customer reconciler.
func NewReconciler(client *Client, customers repository.CustomerRepository, users repository.UserRepository) *Reconciler {
	return &Reconciler{
		client:    client,
		customers: customers,
		users:     users,
	}
}

// Reconcile lists all remote customers, upserts their local mirrors, links
// them to local users by email and primes the customer cache. It returns the
// number of customers processed.
func (r *Reconciler) Reconcile(ctx context.Context) (int, error) {
	remote, err := r.client.ListCustomers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list remote customers: %w", err)
	}

	count := 0
	for _, rc := range remote {
		local := &models.Customer{
			MollieID: rc.ID,
			Name:     rc.Name,
			Email:    rc.Email,
			Mode:     rc.Mode,
		}

		// An already-mirrored customer keeps its user link even when the
		// remote record carries no matching email anymore.
		if existing, err := r.customers.GetByMollieID(rc.ID); err == nil {
			local.ID = existing.ID
			local.UserID = existing.UserID
		}

		if email := strings.TrimSpace(rc.Email); email != "" {
			if user, err := r.users.GetByEmail(email); err == nil && user.IsActive() {
				local.UserID = user.ID
				if local.Name == "" {
					local.Name = user.FullName()
				}
			}
		}

		if err := r.customers.UpsertByMollieID(local); err != nil {
			return count, fmt.Errorf("mirror customer %s: %w", rc.ID, err)
		}

		if local.Email != "" {
			// Best effort: a cold cache only costs an extra lookup later.
			_ = cache.Set(CustomerCacheKey(local.Email), local.MollieID, customerCacheTTL)
		}
		count++
	}
	return count, nil
}
