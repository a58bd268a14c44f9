package store

import (
	"errors"

	"github.com/danchikt/my-messenger/internal/apperr"
	"github.com/danchikt/my-messenger/internal/models"
	"gorm.io/gorm"
)

type FriendStore struct {
	db *gorm.DB
}

// CreateRequest records a pending edge requester -> target. A duplicate in
// either direction is a conflict.
func (s *FriendStore) CreateRequest(from, to string) error {
	var count int64
	err := s.db.Model(&models.Friendship{}).
		Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)", from, to, to, from).
		Count(&count).Error
	if err != nil {
		return apperr.Internal("storage failure", err)
	}
	if count > 0 {
		return apperr.Conflict("friend request already exists")
	}
	f := models.Friendship{UserID: from, FriendID: to, Status: models.FriendPending}
	return translate(s.db.Create(&f).Error, "", "friend request already exists")
}

// Accept flips the pending edge requester -> target to accepted.
func (s *FriendStore) Accept(requester, target string) error {
	res := s.db.Model(&models.Friendship{}).
		Where("user_id = ? AND friend_id = ? AND status = ?", requester, target, models.FriendPending).
		Update("status", models.FriendAccepted)
	if res.Error != nil {
		return apperr.Internal("storage failure", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("no pending request from that user")
	}
	return nil
}

// Delete removes the edge between two users regardless of direction or
// state. Used by decline, delete and block.
func (s *FriendStore) Delete(a, b string) error {
	err := s.db.
		Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)", a, b, b, a).
		Delete(&models.Friendship{}).Error
	if err != nil {
		return apperr.Internal("storage failure", err)
	}
	return nil
}

// Contacts returns the accepted contacts of a user. Accepted edges are
// symmetric, so both directions count.
func (s *FriendStore) Contacts(userID string) ([]models.User, error) {
	var users []models.User
	err := s.db.
		Joins("JOIN friendships f ON (f.friend_id = users.id OR f.user_id = users.id)").
		Where("(f.user_id = ? OR f.friend_id = ?) AND f.status = ? AND users.id != ?",
			userID, userID, models.FriendAccepted, userID).
		Distinct("users.*").
		Find(&users).Error
	if err != nil {
		return nil, apperr.Internal("storage failure", err)
	}
	return users, nil
}

// ContactIDs is Contacts reduced to identities, for fan-out target sets.
func (s *FriendStore) ContactIDs(userID string) ([]string, error) {
	users, err := s.Contacts(userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids, nil
}

func (s *FriendStore) Block(userID, target string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.
			Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)", userID, target, target, userID).
			Delete(&models.Friendship{}).Error
		if err != nil {
			return apperr.Internal("storage failure", err)
		}
		b := models.BlockedUser{UserID: userID, BlockedID: target}
		if err := tx.Create(&b).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflict("user already blocked")
			}
			return apperr.Internal("storage failure", err)
		}
		return nil
	})
}

func (s *FriendStore) Unblock(userID, target string) error {
	res := s.db.Where("user_id = ? AND blocked_id = ?", userID, target).Delete(&models.BlockedUser{})
	if res.Error != nil {
		return apperr.Internal("storage failure", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("user is not blocked")
	}
	return nil
}

func (s *FriendStore) Blocked(userID string) ([]models.User, error) {
	var users []models.User
	err := s.db.
		Joins("JOIN blocked_users b ON b.blocked_id = users.id").
		Where("b.user_id = ?", userID).
		Find(&users).Error
	if err != nil {
		return nil, apperr.Internal("storage failure", err)
	}
	return users, nil
}

func (s *FriendStore) IsBlocked(userID, by string) (bool, error) {
	var count int64
	err := s.db.Model(&models.BlockedUser{}).
		Where("user_id = ? AND blocked_id = ?", by, userID).
		Count(&count).Error
	if err != nil {
		return false, apperr.Internal("storage failure", err)
	}
	return count > 0, nil
}

func (s *FriendStore) PinContact(userID, contactID string) error {
	p := models.PinnedContact{UserID: userID, ContactID: contactID}
	return translate(s.db.Create(&p).Error, "", "contact already pinned")
}

func (s *FriendStore) UnpinContact(userID, contactID string) error {
	res := s.db.Where("user_id = ? AND contact_id = ?", userID, contactID).Delete(&models.PinnedContact{})
	if res.Error != nil {
		return apperr.Internal("storage failure", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("contact is not pinned")
	}
	return nil
}

func (s *FriendStore) PinnedContacts(userID string) ([]string, error) {
	var ids []string
	err := s.db.Model(&models.PinnedContact{}).
		Where("user_id = ?", userID).
		Pluck("contact_id", &ids).Error
	if err != nil {
		return nil, apperr.Internal("storage failure", err)
	}
	return ids, nil
}
