package repository

import (
	"github.com/JorisBrandt/PayImport/app/models"
	"gorm.io/gorm"
)

// gatewayConfigRepository implements the GatewayConfigRepository interface
type gatewayConfigRepository struct {
	db *gorm.DB
}

// NewGatewayConfigRepository creates a new gateway config repository instance
func NewGatewayConfigRepository(db *gorm.DB) GatewayConfigRepository {
	return &gatewayConfigRepository{db: db}
}

// GetByID retrieves a gateway configuration by its ID
func (r *gatewayConfigRepository) GetByID(id uint) (*models.GatewayConfig, error) {
	var config models.GatewayConfig
	err := r.db.First(&config, id).Error
	if err != nil {
		return nil, err
	}
	return &config, nil
}

// GetDefault retrieves the configuration flagged as default, falling back to
// the oldest configuration when none is flagged.
func (r *gatewayConfigRepository) GetDefault() (*models.GatewayConfig, error) {
	var config models.GatewayConfig
	err := r.db.Where("is_default = ?", true).Order("id ASC").First(&config).Error
	if err == nil {
		return &config, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	err = r.db.Order("id ASC").First(&config).Error
	if err != nil {
		return nil, err
	}
	return &config, nil
}
