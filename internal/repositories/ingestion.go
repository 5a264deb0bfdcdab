package repositories

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/resume-ingestor/internal/models"
)

var ErrIngestionNotFound = errors.New("ingestion record not found")

type IngestionRepository interface {
	Create(record *models.IngestionRecord) error
	Update(record *models.IngestionRecord) error
	FindLatestByHash(hash string) (*models.IngestionRecord, error)
	FindRecent(limit int) ([]models.IngestionRecord, error)
}

type ingestionRepository struct {
	db *gorm.DB
}

func NewIngestionRepository(db *gorm.DB) IngestionRepository {
	return &ingestionRepository{db: db}
}

// Create implements IngestionRepository.
func (r *ingestionRepository) Create(record *models.IngestionRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if err := r.db.Create(record).Error; err != nil {
		return fmt.Errorf("failed to create ingestion record: %w", err)
	}
	return nil
}

// Update implements IngestionRepository.
func (r *ingestionRepository) Update(record *models.IngestionRecord) error {
	if err := r.db.Save(record).Error; err != nil {
		return fmt.Errorf("failed to update ingestion record: %w", err)
	}
	return nil
}

// FindLatestByHash implements IngestionRepository.
func (r *ingestionRepository) FindLatestByHash(hash string) (*models.IngestionRecord, error) {
	var record models.IngestionRecord
	err := r.db.
		Where("content_hash = ?", hash).
		Order("created_at DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIngestionNotFound
		}
		return nil, fmt.Errorf("failed to find ingestion record: %w", err)
	}
	return &record, nil
}

// FindRecent implements IngestionRepository.
func (r *ingestionRepository) FindRecent(limit int) ([]models.IngestionRecord, error) {
	var records []models.IngestionRecord
	if err := r.db.Order("created_at DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list ingestion records: %w", err)
	}
	return records, nil
}
