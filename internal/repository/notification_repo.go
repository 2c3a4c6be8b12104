package repository

import (
	"errors"
	"time"

	"tablero/internal/domain"
	"tablero/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// CreateBroadcast deactivates every active notification and inserts n as the
// new active one inside a single transaction, so at most one row is active
// even when two admins publish concurrently.
func (r *NotificationRepository) CreateBroadcast(n *models.Notification) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Notification{}).
			Where("status = ?", domain.NotificationStatusActive).
			Update("status", domain.NotificationStatusInactive).Error; err != nil {
			return err
		}
		n.Status = domain.NotificationStatusActive
		return tx.Create(n).Error
	})
}

// Deactivate marks one notification inactive. Missing or already inactive
// rows are a no-op.
func (r *NotificationRepository) Deactivate(id uint) error {
	return r.db.Model(&models.Notification{}).
		Where("id = ?", id).
		Update("status", domain.NotificationStatusInactive).Error
}

func (r *NotificationRepository) DeactivateAll() error {
	return r.db.Model(&models.Notification{}).
		Where("status = ?", domain.NotificationStatusActive).
		Update("status", domain.NotificationStatusInactive).Error
}

// GetActive returns the active notification, or nil when there is none.
// Should manual edits ever leave several rows active, the newest wins.
func (r *NotificationRepository) GetActive() (*models.Notification, error) {
	var n models.Notification
	err := r.db.Where("status = ?", domain.NotificationStatusActive).
		Order("created_at DESC").Order("id DESC").
		First(&n).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

func (r *NotificationRepository) GetByID(id uint) (*models.Notification, error) {
	var n models.Notification
	if err := r.db.First(&n, id).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// History returns every notification, newest first.
func (r *NotificationRepository) History() ([]models.Notification, error) {
	var list []models.Notification
	err := r.db.Order("created_at DESC").Order("id DESC").Find(&list).Error
	return list, err
}

// MarkViewed records the first view of a notification by a user. The unique
// (notification_id, user_id) index plus insert-or-ignore makes repeat calls
// a no-op, including under concurrent requests for the same pair.
func (r *NotificationRepository) MarkViewed(notificationID, userID uint, at time.Time) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "notification_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&models.NotificationView{
		NotificationID: notificationID,
		UserID:         userID,
		ViewedAt:       at,
	}).Error
}

func (r *NotificationRepository) HasViewed(notificationID, userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.NotificationView{}).
		Where("notification_id = ? AND user_id = ?", notificationID, userID).
		Count(&count).Error
	return count > 0, err
}

type NotificationViewer struct {
	UserID   uint      `json:"user_id"`
	UserName string    `json:"user_name"`
	ViewedAt time.Time `json:"viewed_at"`
}

// Viewers resolves the view rows of one notification against the users
// table, newest view first.
func (r *NotificationRepository) Viewers(notificationID uint) ([]NotificationViewer, error) {
	viewers := make([]NotificationViewer, 0)
	err := r.db.Table("notification_views").
		Select("notification_views.user_id, users.name AS user_name, notification_views.viewed_at").
		Joins("LEFT JOIN users ON users.id = notification_views.user_id").
		Where("notification_views.notification_id = ?", notificationID).
		Order("notification_views.viewed_at DESC").
		Scan(&viewers).Error
	return viewers, err
}

func (r *NotificationRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).Count(&count).Error
	return count, err
}

func (r *NotificationRepository) CountViews() (int64, error) {
	var count int64
	err := r.db.Model(&models.NotificationView{}).Count(&count).Error
	return count, err
}
