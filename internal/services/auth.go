package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"lucky-boxes-backend/internal/logger"
	"lucky-boxes-backend/internal/models"
	"lucky-boxes-backend/internal/storage"
)

var ErrInvalidCredentials = errors.New("wrong phone or password")

// AuthService registers accounts and issues JWT sessions. A login creates a
// Redis session keyed by (user, session) and embeds the session id in the
// token so logout can invalidate it.
type AuthService struct {
	store *storage.Store
	redis *RedisService
	jwt   *JWTService
}

func NewAuthService(store *storage.Store, redis *RedisService, jwt *JWTService) *AuthService {
	return &AuthService{store: store, redis: redis, jwt: jwt}
}

type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register creates the account and logs it in. The optional referral phone
// links the new user to an existing account for the one-time deposit bonus.
func (a *AuthService) Register(ctx context.Context, phone, password, referralPhone string) (*AuthResult, error) {
	if len(phone) < 9 {
		return nil, fmt.Errorf("valid phone number is required")
	}
	if len(password) < 6 {
		return nil, fmt.Errorf("password must be at least 6 characters")
	}

	var referredBy *int64
	if referralPhone != "" && referralPhone != phone {
		referrer, err := a.store.GetUserByPhone(ctx, referralPhone)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		// An unknown referral phone is ignored, not an error.
		if err == nil {
			referredBy = &referrer.ID
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := a.store.CreateUser(ctx, phone, string(hash), referredBy)
	if err != nil {
		return nil, err
	}

	logger.Log.Info("User registered",
		zap.Int64("user_id", user.ID),
		zap.Bool("referred", referredBy != nil))

	return a.issueSession(user)
}

func (a *AuthService) Login(ctx context.Context, phone, password string) (*AuthResult, error) {
	user, err := a.store.GetUserByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if user.IsBlocked {
		return nil, storage.ErrUserBlocked
	}

	return a.issueSession(user)
}

func (a *AuthService) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	if len(newPassword) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}

	user, err := a.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)) != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return a.store.UpdatePasswordHash(ctx, userID, string(hash))
}

func (a *AuthService) issueSession(user *models.User) (*AuthResult, error) {
	sessionID := uuid.New().String()

	token, err := a.jwt.GenerateToken(user.ID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	if a.redis != nil {
		session := &models.UserSession{
			UserID:       user.ID,
			SessionID:    sessionID,
			Phone:        user.Phone,
			CreatedAt:    time.Now(),
			LastAccessed: time.Now(),
		}
		if err := a.redis.StoreUserSession(session); err != nil {
			logger.Log.Warn("Failed to cache session", zap.Error(err))
		}
	}

	return &AuthResult{Token: token, User: user}, nil
}
