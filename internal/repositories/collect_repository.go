package repositories

import (
	"github.com/echowall/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CollectRepository defines the interface for bookmark data operations
type CollectRepository interface {
	Toggle(postID string, userID uint) (collected bool, err error)
	HasUserCollectedPost(postID string, userID uint) (bool, error)
	GetCollectsByUser(userID uint) ([]models.Collect, error)
}

// PostgresCollectRepository implements CollectRepository for PostgreSQL
type PostgresCollectRepository struct {
	db *gorm.DB
}

// NewPostgresCollectRepository creates a new PostgresCollectRepository
func NewPostgresCollectRepository(db *gorm.DB) *PostgresCollectRepository {
	return &PostgresCollectRepository{db: db}
}

// Toggle flips the collect relation for (user, post). Same atomic
// delete-then-insert scheme as likes.
func (r *PostgresCollectRepository) Toggle(postID string, userID uint) (bool, error) {
	var collected bool
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.Collect{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			collected = false
			return nil
		}
		ins := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.Collect{PostID: postID, UserID: userID})
		if ins.Error != nil {
			return ins.Error
		}
		if ins.RowsAffected == 0 {
			return ErrConflict
		}
		collected = true
		return nil
	})
	return collected, err
}

// HasUserCollectedPost checks if a user has collected a specific post
func (r *PostgresCollectRepository) HasUserCollectedPost(postID string, userID uint) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Collect{}).Where("post_id = ? AND user_id = ?", postID, userID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetCollectsByUser retrieves a user's bookmarks, newest first
func (r *PostgresCollectRepository) GetCollectsByUser(userID uint) ([]models.Collect, error) {
	var collects []models.Collect
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&collects).Error
	return collects, err
}
