package repositories

import (
	"github.com/echowall/backend/internal/models"
	"gorm.io/gorm"
)

// MessageRepository defines the interface for notification message operations
type MessageRepository interface {
	CreateMessage(message *models.Message) error
	DeleteInteractionMessage(kind string, fromID uint, postID string) error
	GetByTargetID(targetID uint) ([]models.Message, error)
	GetUnreadCount(targetID uint) (int64, error)
	MarkAsRead(messageID, targetID uint) error
	MarkAllAsRead(targetID uint) error
	DeleteMessage(messageID, targetID uint) error
}

type postgresMessageRepository struct {
	db *gorm.DB
}

func NewPostgresMessageRepository(db *gorm.DB) MessageRepository {
	return &postgresMessageRepository{db: db}
}

func (r *postgresMessageRepository) CreateMessage(message *models.Message) error {
	return r.db.Create(message).Error
}

// DeleteInteractionMessage removes the message written for a toggle-kind
// interaction when that interaction is undone. Absence is not an error;
// the message may have been suppressed or already cleaned up.
func (r *postgresMessageRepository) DeleteInteractionMessage(kind string, fromID uint, postID string) error {
	return r.db.Where("kind = ? AND from_id = ? AND from_post_id = ?", kind, fromID, postID).
		Delete(&models.Message{}).Error
}

// GetByTargetID returns a user's messages newest first. Self-authored rows
// are excluded defensively even though the writer never creates them.
func (r *postgresMessageRepository) GetByTargetID(targetID uint) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.Where("target_id = ? AND from_id <> target_id", targetID).
		Order("created_at DESC").
		Find(&messages).Error
	return messages, err
}

func (r *postgresMessageRepository) GetUnreadCount(targetID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Message{}).Where("target_id = ? AND is_read = false", targetID).Count(&count).Error
	return count, err
}

// MarkAsRead marks a single message read. The target id in the WHERE
// clause enforces ownership; no row updated means not found for this user.
func (r *postgresMessageRepository) MarkAsRead(messageID, targetID uint) error {
	res := r.db.Model(&models.Message{}).
		Where("id = ? AND target_id = ?", messageID, targetID).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresMessageRepository) MarkAllAsRead(targetID uint) error {
	return r.db.Model(&models.Message{}).
		Where("target_id = ? AND is_read = false", targetID).
		Update("is_read", true).Error
}

func (r *postgresMessageRepository) DeleteMessage(messageID, targetID uint) error {
	res := r.db.Where("id = ? AND target_id = ?", messageID, targetID).Delete(&models.Message{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
