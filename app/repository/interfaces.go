package repository

import (
	"github.com/JorisBrandt/PayImport/app/models"
	"gorm.io/gorm"
)

// SubscriptionRepository defines the interface for subscription-related database operations
type SubscriptionRepository interface {
	GetByID(id uint) (*models.Subscription, error)
	// GetBySource returns the oldest subscription matching the (source,
	// source_id) pair. When several exist the first match wins.
	GetBySource(source, sourceID string) (*models.Subscription, error)
	Save(sub *models.Subscription) error
	// Reload re-fetches the persisted copy including phases and meta so that
	// callers see authoritative stored state after a save.
	Reload(sub *models.Subscription) (*models.Subscription, error)
	SetMeta(subscriptionID uint, key, value string) error
	List(offset, limit int) ([]models.Subscription, error)
	Count() (int64, error)
}

// CustomerRepository defines the interface for local gateway customer mirrors
type CustomerRepository interface {
	UpsertByMollieID(customer *models.Customer) error
	GetByMollieID(mollieID string) (*models.Customer, error)
	GetByEmail(email string) (*models.Customer, error)
	List(offset, limit int) ([]models.Customer, error)
}

// GatewayConfigRepository defines the interface for gateway configurations
type GatewayConfigRepository interface {
	GetByID(id uint) (*models.GatewayConfig, error)
	GetDefault() (*models.GatewayConfig, error)
}

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	Subscription  SubscriptionRepository
	Customer      CustomerRepository
	GatewayConfig GatewayConfigRepository
	User          UserRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Subscription:  NewSubscriptionRepository(db),
		Customer:      NewCustomerRepository(db),
		GatewayConfig: NewGatewayConfigRepository(db),
		User:          NewUserRepository(db),
	}
}
