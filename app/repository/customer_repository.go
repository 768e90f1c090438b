package repository

import (
	"strings"

	"github.com/JorisBrandt/PayImport/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// customerRepository implements the CustomerRepository interface
type customerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository creates a new customer repository instance
func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

// UpsertByMollieID creates or updates the local mirror of a gateway customer
func (r *customerRepository) UpsertByMollieID(customer *models.Customer) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "mollie_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"name",
			"email",
			"mode",
			"user_id",
			"updated_at",
		}),
	}).Create(customer).Error; err != nil {
		return err
	}

	// Ensure ID is populated after upsert.
	return r.db.Where("mollie_id = ?", customer.MollieID).First(customer).Error
}

// GetByMollieID retrieves a local customer mirror by its gateway identifier
func (r *customerRepository) GetByMollieID(mollieID string) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.Where("mollie_id = ?", strings.TrimSpace(mollieID)).First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// GetByEmail retrieves the most recent customer mirror for an email address
func (r *customerRepository) GetByEmail(email string) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.Where("email = ?", strings.TrimSpace(email)).Order("id DESC").First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// List retrieves a paginated list of customer mirrors
func (r *customerRepository) List(offset, limit int) ([]models.Customer, error) {
	var customers []models.Customer
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&customers).Error
	return customers, err
}
