package service

import (
	"errors"
	"time"

	"github.com/danchikt/my-messenger/internal/apperr"
	"github.com/danchikt/my-messenger/internal/auth"
	"github.com/danchikt/my-messenger/internal/config"
	"github.com/danchikt/my-messenger/internal/models"
	"github.com/danchikt/my-messenger/internal/store"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserService handles registration, login and token refresh.
type UserService struct {
	db     *gorm.DB
	stores *store.Stores
	cfg    config.Config
}

func NewUserService(db *gorm.DB, stores *store.Stores, cfg config.Config) *UserService {
	return &UserService{db: db, stores: stores, cfg: cfg}
}

type RegisterInput struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Bio      string `json:"bio"`
	Avatar   string `json:"avatar"`
}

// Register creates the user and auto-subscribes them to the broadcast
// channel so they receive posts from their first connect onward.
func (s *UserService) Register(in RegisterInput) (*models.User, error) {
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal("password hashing failed", err)
	}
	user := models.User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Username:     in.Username,
		PasswordHash: hash,
		Bio:          in.Bio,
		Avatar:       in.Avatar,
		Status:       models.StatusOffline,
	}
	if in.Email != "" {
		user.Email = &in.Email
	}
	if in.Phone != "" {
		user.Phone = &in.Phone
	}
	if err := s.stores.Users.Create(&user); err != nil {
		return nil, err
	}
	if err := s.stores.Channel.Subscribe(user.ID); err != nil {
		return nil, err
	}
	return &user, nil
}

type LoginResult struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         *models.User `json:"-"`
}

// Login accepts username, email, phone or id as the login.
func (s *UserService) Login(login, password string) (*LoginResult, error) {
	user, err := s.stores.Users.FindByLogin(login)
	if err != nil {
		if apperr.CodeOf(err) == apperr.CodeNotFound {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.VerifyPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	at, err := auth.GenerateAccessToken(user.ID, user.Name, s.cfg.JWTSecret, s.cfg.AccessTokenTTLMinutes)
	if err != nil {
		return nil, err
	}
	rt, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}
	exp := time.Now().Add(time.Duration(s.cfg.RefreshTokenTTLDays) * 24 * time.Hour)
	if err := auth.SaveRefreshToken(s.db, user.ID, rt, exp); err != nil {
		return nil, err
	}
	return &LoginResult{AccessToken: at, RefreshToken: rt, User: user}, nil
}

type RefreshResult struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// RefreshTokens validates the old refresh token and rotates the pair.
func (s *UserService) RefreshTokens(oldRT string) (*RefreshResult, error) {
	var result RefreshResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		rec, err := auth.ValidateRefreshToken(tx, oldRT)
		if err != nil {
			return err
		}
		if err := auth.RevokeRefreshToken(tx, oldRT); err != nil {
			return err
		}
		var user models.User
		if err := tx.First(&user, "id = ?", rec.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidCredentials
			}
			return err
		}
		at, err := auth.GenerateAccessToken(user.ID, user.Name, s.cfg.JWTSecret, s.cfg.AccessTokenTTLMinutes)
		if err != nil {
			return err
		}
		newRT, err := auth.GenerateRefreshToken()
		if err != nil {
			return err
		}
		exp := time.Now().Add(time.Duration(s.cfg.RefreshTokenTTLDays) * 24 * time.Hour)
		if err := auth.SaveRefreshToken(tx, user.ID, newRT, exp); err != nil {
			return err
		}
		result.AccessToken = at
		result.RefreshToken = newRT
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
