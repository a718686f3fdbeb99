package entitlement

import (
	"gorm.io/gorm"

	"codecanvas_backend/internal/model"
)

// Repository abstracts the store reads/writes the entitlement service
// needs, so the service can be exercised against a fake in tests.
type Repository interface {
	GetSubscriptionWithPlan(userID uint) (*model.UserSubscription, error)
	CreateSubscription(sub *model.UserSubscription) error
	GetPlanByName(name string) (*model.Plan, error)
	GetUsage(userID uint) (*model.UserUsage, error)
	CreateUsage(usage *model.UserUsage) error
	UpdateUsageCounts(userID uint, portfolios, aiGenerations int) error
	CountPortfolios(userID uint) (int64, error)
	CountAIGenerations(userID uint) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository returns the GORM-backed repository.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetSubscriptionWithPlan(userID uint) (*model.UserSubscription, error) {
	var sub model.UserSubscription
	if err := r.db.Where("user_id = ?", userID).
		Preload("Plan").
		First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) CreateSubscription(sub *model.UserSubscription) error {
	return r.db.Create(sub).Error
}

func (r *gormRepository) GetPlanByName(name string) (*model.Plan, error) {
	var plan model.Plan
	if err := r.db.Where("name = ?", name).First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *gormRepository) GetUsage(userID uint) (*model.UserUsage, error) {
	var usage model.UserUsage
	if err := r.db.Where("user_id = ?", userID).First(&usage).Error; err != nil {
		return nil, err
	}
	return &usage, nil
}

func (r *gormRepository) CreateUsage(usage *model.UserUsage) error {
	return r.db.Create(usage).Error
}

func (r *gormRepository) UpdateUsageCounts(userID uint, portfolios, aiGenerations int) error {
	return r.db.Model(&model.UserUsage{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"portfolios_count":     portfolios,
			"ai_generations_count": aiGenerations,
		}).Error
}

func (r *gormRepository) CountPortfolios(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.Portfolio{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *gormRepository) CountAIGenerations(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.AIGeneration{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
