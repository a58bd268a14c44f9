package store

import (
	"time"

	"github.com/danchikt/my-messenger/internal/apperr"
	"github.com/danchikt/my-messenger/internal/models"
	"gorm.io/gorm"
)

type MessageStore struct {
	db *gorm.DB
}

// Create persists the message and assigns its durable id. Fan-out must not
// run before this returns.
func (s *MessageStore) Create(m *models.Message) error {
	return translate(s.db.Create(m).Error, "", "")
}

func (s *MessageStore) Get(id uint) (*models.Message, error) {
	var m models.Message
	if err := s.db.First(&m, id).Error; err != nil {
		return nil, translate(err, "message not found", "")
	}
	return &m, nil
}

// Edit rewrites the text of the sender's own message.
func (s *MessageStore) Edit(id uint, from, text string) error {
	res := s.db.Model(&models.Message{}).
		Where("id = ? AND from_id = ?", id, from).
		Updates(map[string]interface{}{"text": text, "edited": true})
	if res.Error != nil {
		return apperr.Internal("storage failure", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("message not found or not yours")
	}
	return nil
}

func (s *MessageStore) Delete(id uint, from string) error {
	res := s.db.Where("id = ? AND from_id = ?", id, from).Delete(&models.Message{})
	if res.Error != nil {
		return apperr.Internal("storage failure", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("message not found or not yours")
	}
	return nil
}

// MarkRead flags the message read; only the recipient may do that.
func (s *MessageStore) MarkRead(id uint, to string) error {
	res := s.db.Model(&models.Message{}).
		Where("id = ? AND to_id = ?", id, to).
		Update("read", true)
	if res.Error != nil {
		return apperr.Internal("storage failure", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("message not found")
	}
	return nil
}

func (s *MessageStore) SetSaved(id uint, userID string, saved bool) error {
	res := s.db.Model(&models.Message{}).
		Where("id = ? AND (from_id = ? OR to_id = ?)", id, userID, userID).
		Update("saved", saved)
	if res.Error != nil {
		return apperr.Internal("storage failure", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("message not found")
	}
	return nil
}

// ClearChat wipes the conversation between two users in both directions.
func (s *MessageStore) ClearChat(a, b string) error {
	err := s.db.
		Where("(from_id = ? AND to_id = ?) OR (from_id = ? AND to_id = ?)", a, b, b, a).
		Delete(&models.Message{}).Error
	if err != nil {
		return apperr.Internal("storage failure", err)
	}
	return nil
}

// Search finds messages in the user's own conversations matching the query.
func (s *MessageStore) Search(userID, query string, limit int) ([]models.Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var msgs []models.Message
	err := s.db.
		Where("(from_id = ? OR to_id = ?) AND text ILIKE ?", userID, userID, "%"+query+"%").
		Order("id desc").Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, apperr.Internal("storage failure", err)
	}
	return msgs, nil
}

// DeleteExpired reaps self-destructing messages whose lifetime has elapsed.
func (s *MessageStore) DeleteExpired(now time.Time) (int64, error) {
	res := s.db.
		Where("self_destruct > 0 AND created_at + (self_destruct * interval '1 second') < ?", now).
		Delete(&models.Message{})
	if res.Error != nil {
		return 0, apperr.Internal("storage failure", res.Error)
	}
	return res.RowsAffected, nil
}
