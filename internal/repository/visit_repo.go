package repository

import (
	"tablero/internal/models"

	"gorm.io/gorm"
)

type VisitRepository struct {
	db *gorm.DB
}

func NewVisitRepository(db *gorm.DB) *VisitRepository {
	return &VisitRepository{db: db}
}

func (r *VisitRepository) Create(v *models.Visit) error {
	return r.db.Create(v).Error
}

func (r *VisitRepository) Recent(limit int) ([]models.Visit, error) {
	var list []models.Visit
	err := r.db.Order("created_at DESC").Limit(limit).Find(&list).Error
	return list, err
}

func (r *VisitRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Visit{}).Count(&count).Error
	return count, err
}

// CountDistinctUsers returns how many different users have ever visited.
func (r *VisitRepository) CountDistinctUsers() (int64, error) {
	var count int64
	err := r.db.Model(&models.Visit{}).Distinct("user_id").Count(&count).Error
	return count, err
}
