package repository

import (
	"errors"
	"fmt"

	"github.com/ailat-kz/aaoifi-chat/backend/internal/models"
	"gorm.io/gorm"
)

// TopicFilterRepositoryImpl implements TopicFilterRepository
type TopicFilterRepositoryImpl struct {
	db *gorm.DB
}

func NewTopicFilterRepository(db *gorm.DB) models.TopicFilterRepository {
	return &TopicFilterRepositoryImpl{db: db}
}

func (r *TopicFilterRepositoryImpl) Create(filter *models.TopicFilter) error {
	return r.db.Create(filter).Error
}

func (r *TopicFilterRepositoryImpl) GetByName(name string) (*models.TopicFilter, error) {
	var filter models.TopicFilter
	err := r.db.Where("name = ?", name).First(&filter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("topic filter %s: %w", name, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &filter, nil
}

func (r *TopicFilterRepositoryImpl) GetActive() ([]models.TopicFilter, error) {
	var filters []models.TopicFilter
	err := r.db.Where("is_active = ?", true).
		Order("name").
		Find(&filters).Error
	return filters, err
}

func (r *TopicFilterRepositoryImpl) Update(filter *models.TopicFilter) error {
	return r.db.Save(filter).Error
}

func (r *TopicFilterRepositoryImpl) Delete(id uint) error {
	return r.db.Delete(&models.TopicFilter{}, id).Error
}

// SystemHealthRepositoryImpl implements SystemHealthRepository
type SystemHealthRepositoryImpl struct {
	db *gorm.DB
}

func NewSystemHealthRepository(db *gorm.DB) models.SystemHealthRepository {
	return &SystemHealthRepositoryImpl{db: db}
}

func (r *SystemHealthRepositoryImpl) UpdateServiceHealth(serviceName, status string, responseTime int, errorMsg string) error {
	return r.db.Exec(`
		INSERT INTO system_health (service_name, status, response_time_ms, error_message, checked_at)
		VALUES (?, ?, ?, ?, NOW())
	`, serviceName, status, responseTime, errorMsg).Error
}

func (r *SystemHealthRepositoryImpl) GetAllServicesHealth() ([]models.SystemHealth, error) {
	var health []models.SystemHealth
	err := r.db.Raw(`
		SELECT DISTINCT ON (service_name) *
		FROM system_health
		ORDER BY service_name, checked_at DESC
	`).Scan(&health).Error
	return health, err
}

// RepositoryManager bundles all repositories
type RepositoryManager struct {
	TopicFilter  models.TopicFilterRepository
	SystemHealth models.SystemHealthRepository
}

func NewRepositoryManager(db *gorm.DB) *RepositoryManager {
	return &RepositoryManager{
		TopicFilter:  NewTopicFilterRepository(db),
		SystemHealth: NewSystemHealthRepository(db),
	}
}
