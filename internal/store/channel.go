package store

import (
	"errors"

	"github.com/danchikt/my-messenger/internal/apperr"
	"github.com/danchikt/my-messenger/internal/models"
	"gorm.io/gorm"
)

type ChannelStore struct {
	db *gorm.DB
}

func (s *ChannelStore) CreatePost(p *models.ChannelPost) error {
	return translate(s.db.Create(p).Error, "", "")
}

// Subscribers resolves the current subscriber set. Callers get a fresh read
// at every publish; the set is never cached.
func (s *ChannelStore) Subscribers() ([]string, error) {
	var ids []string
	err := s.db.Model(&models.ChannelSubscriber{}).Pluck("user_id", &ids).Error
	if err != nil {
		return nil, apperr.Internal("storage failure", err)
	}
	return ids, nil
}

// Subscribe is idempotent; subscribing twice is not an error.
func (s *ChannelStore) Subscribe(userID string) error {
	sub := models.ChannelSubscriber{UserID: userID}
	err := s.db.Create(&sub).Error
	if err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Internal("storage failure", err)
	}
	return nil
}

// History returns the most recent posts in chronological order, for replay
// on connect.
func (s *ChannelStore) History(limit int) ([]models.ChannelPost, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var posts []models.ChannelPost
	err := s.db.Order("id desc").Limit(limit).Find(&posts).Error
	if err != nil {
		return nil, apperr.Internal("storage failure", err)
	}
	for i, j := 0, len(posts)-1; i < j; i, j = i+1, j-1 {
		posts[i], posts[j] = posts[j], posts[i]
	}
	return posts, nil
}

func (s *ChannelStore) IncrementViews(postID uint) (int64, error) {
	res := s.db.Model(&models.ChannelPost{}).
		Where("id = ?", postID).
		Update("views", gorm.Expr("views + 1"))
	if res.Error != nil {
		return 0, apperr.Internal("storage failure", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, apperr.NotFound("channel post not found")
	}
	var views int64
	err := s.db.Model(&models.ChannelPost{}).Where("id = ?", postID).Pluck("views", &views).Error
	if err != nil {
		return 0, apperr.Internal("storage failure", err)
	}
	return views, nil
}

func (s *ChannelStore) AddComment(c *models.ChannelComment) error {
	var count int64
	if err := s.db.Model(&models.ChannelPost{}).Where("id = ?", c.PostID).Count(&count).Error; err != nil {
		return apperr.Internal("storage failure", err)
	}
	if count == 0 {
		return apperr.NotFound("channel post not found")
	}
	return translate(s.db.Create(c).Error, "", "")
}

// Clear wipes all posts and comments. Owner-only at the routing layer.
func (s *ChannelStore) Clear() error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.ChannelComment{}).Error; err != nil {
			return apperr.Internal("storage failure", err)
		}
		if err := tx.Where("1 = 1").Delete(&models.ChannelPost{}).Error; err != nil {
			return apperr.Internal("storage failure", err)
		}
		return nil
	})
}
