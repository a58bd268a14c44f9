package store

import (
	"github.com/danchikt/my-messenger/internal/apperr"
	"github.com/danchikt/my-messenger/internal/models"
	"gorm.io/gorm"
)

type GroupStore struct {
	db *gorm.DB
}

// Create persists the group and enrolls the creator with the creator role.
func (s *GroupStore) Create(g *models.Group) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(g).Error; err != nil {
			return apperr.Internal("storage failure", err)
		}
		m := models.GroupMember{GroupID: g.ID, UserID: g.CreatorID, Role: models.RoleCreator}
		if err := tx.Create(&m).Error; err != nil {
			return apperr.Internal("storage failure", err)
		}
		return nil
	})
}

func (s *GroupStore) Get(id uint) (*models.Group, error) {
	var g models.Group
	if err := s.db.First(&g, id).Error; err != nil {
		return nil, translate(err, "group not found", "")
	}
	return &g, nil
}

func (s *GroupStore) AddMember(groupID uint, userID string) error {
	m := models.GroupMember{GroupID: groupID, UserID: userID, Role: models.RoleMember}
	return translate(s.db.Create(&m).Error, "", "user is already a member")
}

func (s *GroupStore) RemoveMember(groupID uint, userID string) error {
	res := s.db.Where("group_id = ? AND user_id = ?", groupID, userID).Delete(&models.GroupMember{})
	if res.Error != nil {
		return apperr.Internal("storage failure", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("user is not a member")
	}
	return nil
}

func (s *GroupStore) Delete(groupID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", groupID).Delete(&models.GroupMember{}).Error; err != nil {
			return apperr.Internal("storage failure", err)
		}
		res := tx.Delete(&models.Group{}, groupID)
		if res.Error != nil {
			return apperr.Internal("storage failure", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("group not found")
		}
		return nil
	})
}

// Members is the group roster as a fan-out target set, resolved fresh.
func (s *GroupStore) Members(groupID uint) ([]string, error) {
	var ids []string
	err := s.db.Model(&models.GroupMember{}).
		Where("group_id = ?", groupID).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, apperr.Internal("storage failure", err)
	}
	return ids, nil
}

func (s *GroupStore) MemberCount(groupID uint) (int64, error) {
	var count int64
	err := s.db.Model(&models.GroupMember{}).Where("group_id = ?", groupID).Count(&count).Error
	if err != nil {
		return 0, apperr.Internal("storage failure", err)
	}
	return count, nil
}

// Role returns the member's role, or NotFound for non-members.
func (s *GroupStore) Role(groupID uint, userID string) (string, error) {
	var m models.GroupMember
	err := s.db.Where("group_id = ? AND user_id = ?", groupID, userID).First(&m).Error
	if err != nil {
		return "", translate(err, "user is not a member", "")
	}
	return m.Role, nil
}

func (s *GroupStore) GroupsOf(userID string) ([]models.Group, error) {
	var groups []models.Group
	err := s.db.
		Joins("JOIN group_members gm ON gm.group_id = groups.id").
		Where("gm.user_id = ?", userID).
		Find(&groups).Error
	if err != nil {
		return nil, apperr.Internal("storage failure", err)
	}
	return groups, nil
}
