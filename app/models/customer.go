package models

import "time"

// Gateway operation modes.
const (
	GatewayModeTest = "test"
	GatewayModeLive = "live"
)

// Customer is the local mirror of a payment gateway customer record.
type Customer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	MollieID  string    `gorm:"type:varchar(100);not null;uniqueIndex" json:"mollie_id"`
	Name      string    `gorm:"type:varchar(200)" json:"name"`
	Email     string    `gorm:"type:varchar(200);index" json:"email"`
	Mode      string    `gorm:"type:varchar(10);not null;default:'live'" json:"mode"`
	UserID    uint      `gorm:"default:0;index" json:"user_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// GatewayConfig is one configured payment gateway. The importer resolves the
// default configuration when a row carries no usable config reference.
type GatewayConfig struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	Mode      string    `gorm:"type:varchar(10);not null;default:'test'" json:"mode"`
	APIKey    string    `gorm:"type:varchar(200)" json:"-"`
	IsDefault bool      `gorm:"default:false;index" json:"is_default"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
