package store

import (
	"time"

	"github.com/danchikt/my-messenger/internal/apperr"
	"github.com/danchikt/my-messenger/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SocialStore covers reactions, message pins, stories and bots.
type SocialStore struct {
	db *gorm.DB
}

// SetReaction upserts the (message, user) reaction; last write wins.
func (s *SocialStore) SetReaction(messageID uint, userID, emoji string) error {
	var count int64
	if err := s.db.Model(&models.Message{}).Where("id = ?", messageID).Count(&count).Error; err != nil {
		return apperr.Internal("storage failure", err)
	}
	if count == 0 {
		return apperr.NotFound("message not found")
	}
	r := models.Reaction{MessageID: messageID, UserID: userID, Emoji: emoji}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "message_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"emoji", "created_at"}),
	}).Create(&r).Error
	if err != nil {
		return apperr.Internal("storage failure", err)
	}
	return nil
}

func (s *SocialStore) PinMessage(chatID string, messageID uint, pinnedBy string) error {
	p := models.PinnedMessage{ChatID: chatID, MessageID: messageID, PinnedBy: pinnedBy}
	return translate(s.db.Create(&p).Error, "", "message already pinned")
}

func (s *SocialStore) UnpinMessage(chatID string, messageID uint) error {
	res := s.db.Where("chat_id = ? AND message_id = ?", chatID, messageID).Delete(&models.PinnedMessage{})
	if res.Error != nil {
		return apperr.Internal("storage failure", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("message is not pinned")
	}
	return nil
}

func (s *SocialStore) CreateStory(st *models.Story) error {
	return translate(s.db.Create(st).Error, "", "")
}

func (s *SocialStore) GetStory(id uint) (*models.Story, error) {
	var st models.Story
	if err := s.db.First(&st, id).Error; err != nil {
		return nil, translate(err, "story not found", "")
	}
	return &st, nil
}

// ViewStory records a unique view and returns the updated view count.
// Repeat views by the same user do not bump the counter.
func (s *SocialStore) ViewStory(storyID uint, viewerID string) (int64, error) {
	st, err := s.GetStory(storyID)
	if err != nil {
		return 0, err
	}
	v := models.StoryView{StoryID: storyID, ViewerID: viewerID, ViewedAt: time.Now()}
	res := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&v)
	if res.Error != nil {
		return 0, apperr.Internal("storage failure", res.Error)
	}
	if res.RowsAffected == 0 {
		return st.Views, nil
	}
	err = s.db.Model(&models.Story{}).Where("id = ?", storyID).
		Update("views", gorm.Expr("views + 1")).Error
	if err != nil {
		return 0, apperr.Internal("storage failure", err)
	}
	return st.Views + 1, nil
}

func (s *SocialStore) DeleteExpiredStories(now time.Time) (int64, error) {
	res := s.db.Where("expires_at < ?", now).Delete(&models.Story{})
	if res.Error != nil {
		return 0, apperr.Internal("storage failure", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *SocialStore) CreateBot(b *models.Bot) error {
	return translate(s.db.Create(b).Error, "", "bot token already exists")
}

func (s *SocialStore) GetBot(id uint) (*models.Bot, error) {
	var b models.Bot
	if err := s.db.First(&b, id).Error; err != nil {
		return nil, translate(err, "bot not found", "")
	}
	return &b, nil
}
