package store

import (
	"time"

	"github.com/danchikt/my-messenger/internal/apperr"
	"github.com/danchikt/my-messenger/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PollStore struct {
	db *gorm.DB
}

func (s *PollStore) Create(p *models.Poll) error {
	return translate(s.db.Create(p).Error, "", "")
}

func (s *PollStore) Get(id uint) (*models.Poll, error) {
	var p models.Poll
	if err := s.db.First(&p, id).Error; err != nil {
		return nil, translate(err, "poll not found", "")
	}
	return &p, nil
}

// Vote upserts the user's vote; re-voting replaces the prior option.
func (s *PollStore) Vote(pollID uint, userID string, option int) error {
	if _, err := s.Get(pollID); err != nil {
		return err
	}
	v := models.PollVote{PollID: pollID, UserID: userID, Option: option, VotedAt: time.Now()}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "poll_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"option", "voted_at"}),
	}).Create(&v).Error
	if err != nil {
		return apperr.Internal("storage failure", err)
	}
	return nil
}

// Results tallies votes per option index.
func (s *PollStore) Results(pollID uint) (map[int]int64, error) {
	type row struct {
		Option int
		N      int64
	}
	var rows []row
	err := s.db.Model(&models.PollVote{}).
		Select("option, count(*) as n").
		Where("poll_id = ?", pollID).
		Group("option").
		Scan(&rows).Error
	if err != nil {
		return nil, apperr.Internal("storage failure", err)
	}
	out := make(map[int]int64, len(rows))
	for _, r := range rows {
		out[r.Option] = r.N
	}
	return out, nil
}
