package store

import (
	"time"

	"github.com/danchikt/my-messenger/internal/models"
	"gorm.io/gorm"
)

type UserStore struct {
	db *gorm.DB
}

func (s *UserStore) Create(u *models.User) error {
	return translate(s.db.Create(u).Error, "user not found", "username, email or phone already taken")
}

func (s *UserStore) Get(id string) (*models.User, error) {
	var u models.User
	if err := s.db.First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err, "user not found", "")
	}
	return &u, nil
}

// FindByLogin resolves a login that may be a username, email, phone or id.
func (s *UserStore) FindByLogin(login string) (*models.User, error) {
	var u models.User
	err := s.db.Where("username = ? OR email = ? OR phone = ? OR id = ?", login, login, login, login).First(&u).Error
	if err != nil {
		return nil, translate(err, "user not found", "")
	}
	return &u, nil
}

func (s *UserStore) SetPresence(id, status string, at time.Time) error {
	err := s.db.Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "last_seen": at}).Error
	return translate(err, "user not found", "")
}

func (s *UserStore) UpdateProfile(id, name, bio, avatar string) error {
	updates := map[string]interface{}{}
	if name != "" {
		updates["name"] = name
	}
	if bio != "" {
		updates["bio"] = bio
	}
	if avatar != "" {
		updates["avatar"] = avatar
	}
	if len(updates) == 0 {
		return nil
	}
	res := s.db.Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return translate(res.Error, "user not found", "")
	}
	return nil
}

func (s *UserStore) SetInvisible(id string, invisible bool) error {
	err := s.db.Model(&models.User{}).Where("id = ?", id).Update("invisible", invisible).Error
	return translate(err, "user not found", "")
}
