package repository

import (
	"strings"

	"github.com/JorisBrandt/PayImport/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// subscriptionRepository implements the SubscriptionRepository interface
type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository instance
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// GetByID retrieves a subscription with its phases and metadata
func (r *subscriptionRepository) GetByID(id uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.
		Preload("Phases", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence_number ASC")
		}).
		Preload("Meta").
		First(&sub, id).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetBySource retrieves the oldest subscription for a (source, source_id)
// pair. First match wins when duplicates exist.
func (r *subscriptionRepository) GetBySource(source, sourceID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.
		Preload("Phases", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence_number ASC")
		}).
		Preload("Meta").
		Where("source = ? AND source_id = ?", strings.TrimSpace(source), strings.TrimSpace(sourceID)).
		Order("id ASC").
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// Save creates or updates a subscription including its phases
func (r *subscriptionRepository) Save(sub *models.Subscription) error {
	return r.db.Session(&gorm.Session{FullSaveAssociations: true}).Save(sub).Error
}

// Reload re-fetches the persisted copy so callers see authoritative stored state
func (r *subscriptionRepository) Reload(sub *models.Subscription) (*models.Subscription, error) {
	return r.GetByID(sub.ID)
}

// SetMeta attaches an opaque key/value pair to a subscription
func (r *subscriptionRepository) SetMeta(subscriptionID uint, key, value string) error {
	meta := &models.SubscriptionMeta{
		SubscriptionID: subscriptionID,
		Key:            key,
		Value:          value,
	}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "subscription_id"},
			{Name: "key"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"value",
			"updated_at",
		}),
	}).Create(meta).Error
}

// List retrieves a paginated list of subscriptions
func (r *subscriptionRepository) List(offset, limit int) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&subs).Error
	return subs, err
}

// Count returns the total number of subscriptions
func (r *subscriptionRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Subscription{}).Count(&count).Error
	return count, err
}
