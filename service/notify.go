package service

import (
	"context"

	"gorm.io/gorm"

	"github.com/citasalud/hospital-api/model"
)

// NotificationService delivers notifications to users and tracks per-user
// read and delete state.
type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// NotifyUser creates a notification and delivers it to one user.
func (s *NotificationService) NotifyUser(ctx context.Context, userID uint, title, message, notificationType string) (*model.UserNotification, error) {
	var delivery model.UserNotification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		notification := model.Notification{
			Title:   title,
			Message: message,
			Type:    notificationType,
		}
		if err := tx.Create(&notification).Error; err != nil {
			return err
		}
		delivery = model.UserNotification{
			NotificationID: notification.ID,
			UserID:         userID,
		}
		return tx.Create(&delivery).Error
	})
	if err != nil {
		return nil, err
	}
	return &delivery, nil
}

// UserNotificationView pairs a delivery row with its notification content.
type UserNotificationView struct {
	ID      uint   `json:"id"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Type    string `json:"type"`
	IsRead  bool   `json:"is_read"`
}

// ListForUser returns a user's notifications, newest first. Soft-deleted
// entries are excluded.
func (s *NotificationService) ListForUser(ctx context.Context, userID uint) ([]UserNotificationView, error) {
	var views []UserNotificationView
	err := s.db.WithContext(ctx).Model(&model.UserNotification{}).
		Select("user_notifications.id, notifications.title, notifications.message, notifications.type, user_notifications.is_read").
		Joins("JOIN notifications ON notifications.id = user_notifications.notification_id").
		Where("user_notifications.user_id = ? AND user_notifications.is_deleted = ?", userID, false).
		Order("user_notifications.id DESC").
		Find(&views).Error
	return views, err
}

// MarkRead flags one of a user's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, userID, userNotificationID uint) error {
	return s.setFlag(ctx, userID, userNotificationID, "is_read")
}

// SoftDelete hides one of a user's notifications without removing the row.
func (s *NotificationService) SoftDelete(ctx context.Context, userID, userNotificationID uint) error {
	return s.setFlag(ctx, userID, userNotificationID, "is_deleted")
}

func (s *NotificationService) setFlag(ctx context.Context, userID, userNotificationID uint, column string) error {
	result := s.db.WithContext(ctx).Model(&model.UserNotification{}).
		Where("id = ? AND user_id = ? AND is_deleted = ?", userNotificationID, userID, false).
		Update(column, true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
