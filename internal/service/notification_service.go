package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"tablero/internal/models"
	"tablero/internal/repository"

	"gorm.io/gorm"
)

var (
	ErrEmptyMessage         = errors.New("notification message must not be empty")
	ErrNotificationNotFound = errors.New("notification not found")
)

// StorageError wraps a database failure so the HTTP layer can tell a bad
// request apart from a broken store. The engine never retries.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("notification storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Broadcaster pushes notification lifecycle events to connected clients.
// Optional; a nil broadcaster disables the live feed.
type Broadcaster interface {
	Broadcast(event string, payload interface{})
}

const (
	EventNotificationActive  = "notification_active"
	EventNotificationCleared = "notification_cleared"
)

type NotificationService struct {
	repo *repository.NotificationRepository
	hub  Broadcaster
}

func NewNotificationService(repo *repository.NotificationRepository, hub Broadcaster) *NotificationService {
	return &NotificationService{repo: repo, hub: hub}
}

// Create publishes a new broadcast, superseding whatever was active before.
// The creator identity is taken from the already-authorized caller.
func (s *NotificationService) Create(message string, creatorID uint, creatorName string) (*models.Notification, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	n := &models.Notification{
		Message:       message,
		CreatedByID:   creatorID,
		CreatedByName: creatorName,
		CreatedAt:     time.Now(),
	}
	if err := s.repo.CreateBroadcast(n); err != nil {
		return nil, &StorageError{Op: "create", Err: err}
	}
	s.push(EventNotificationActive, n)
	return n, nil
}

// Deactivate retires one notification. Unknown ids and already inactive
// rows are a no-op.
func (s *NotificationService) Deactivate(id uint) error {
	active, err := s.repo.GetActive()
	if err != nil {
		return &StorageError{Op: "deactivate", Err: err}
	}
	if err := s.repo.Deactivate(id); err != nil {
		return &StorageError{Op: "deactivate", Err: err}
	}
	if active != nil && active.ID == id {
		s.push(EventNotificationCleared, nil)
	}
	return nil
}

// DeactivateAll clears every active broadcast at once.
func (s *NotificationService) DeactivateAll() error {
	if err := s.repo.DeactivateAll(); err != nil {
		return &StorageError{Op: "deactivate all", Err: err}
	}
	s.push(EventNotificationCleared, nil)
	return nil
}

// Active returns the current broadcast, or nil when none is active.
func (s *NotificationService) Active() (*models.Notification, error) {
	n, err := s.repo.GetActive()
	if err != nil {
		return nil, &StorageError{Op: "get active", Err: err}
	}
	return n, nil
}

// History returns every broadcast ever published, newest first.
func (s *NotificationService) History() ([]models.Notification, error) {
	list, err := s.repo.History()
	if err != nil {
		return nil, &StorageError{Op: "history", Err: err}
	}
	return list, nil
}

// MarkViewed records that a user saw a notification. Calling it twice for
// the same pair has the same effect as calling it once.
func (s *NotificationService) MarkViewed(notificationID, userID uint) error {
	if _, err := s.repo.GetByID(notificationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return &StorageError{Op: "mark viewed", Err: err}
	}
	if err := s.repo.MarkViewed(notificationID, userID, time.Now()); err != nil {
		return &StorageError{Op: "mark viewed", Err: err}
	}
	return nil
}

func (s *NotificationService) HasViewed(notificationID, userID uint) (bool, error) {
	viewed, err := s.repo.HasViewed(notificationID, userID)
	if err != nil {
		return false, &StorageError{Op: "has viewed", Err: err}
	}
	return viewed, nil
}

type NotificationStats struct {
	TotalViews int                             `json:"total_views"`
	Viewers    []repository.NotificationViewer `json:"viewers"`
}

// Stats reports who saw a notification, newest view first.
func (s *NotificationService) Stats(notificationID uint) (*NotificationStats, error) {
	if _, err := s.repo.GetByID(notificationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, &StorageError{Op: "stats", Err: err}
	}
	viewers, err := s.repo.Viewers(notificationID)
	if err != nil {
		return nil, &StorageError{Op: "stats", Err: err}
	}
	return &NotificationStats{TotalViews: len(viewers), Viewers: viewers}, nil
}

func (s *NotificationService) push(event string, payload interface{}) {
	if s.hub == nil {
		return
	}
	s.hub.Broadcast(event, payload)
}
