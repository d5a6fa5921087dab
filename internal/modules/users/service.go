package users

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var ErrBadCredentials = errors.New("invalid phone or password")

const SessionTTL = 30 * 24 * time.Hour

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

type LoginResult struct {
	User  User
	Token string
}

func (s *Service) Login(ctx context.Context, phone, password string) (LoginResult, error) {
	var u User
	if err := s.db.WithContext(ctx).First(&u, "phone = ?", phone).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LoginResult{}, ErrBadCredentials
		}
		return LoginResult{}, err
	}

	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return LoginResult{}, ErrBadCredentials
	}

	token, err := newToken()
	if err != nil {
		return LoginResult{}, err
	}

	now := time.Now()
	sess := Session{
		ID:         uuid.NewString(),
		UserID:     u.ID,
		TokenHash:  HashToken(token),
		ExpiresAt:  now.Add(SessionTTL),
		CreatedAt:  now,
		LastSeenAt: now,
	}
	if err := s.db.WithContext(ctx).Create(&sess).Error; err != nil {
		return LoginResult{}, err
	}

	return LoginResult{User: u, Token: token}, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	return s.db.WithContext(ctx).
		Delete(&Session{}, "token_hash = ?", HashToken(token)).Error
}

// Resolve returns the user for a live session token.
func (s *Service) Resolve(ctx context.Context, token string) (User, bool) {
	var sess Session
	err := s.db.WithContext(ctx).
		First(&sess, "token_hash = ? AND expires_at > ?", HashToken(token), time.Now()).Error
	if err != nil {
		return User{}, false
	}

	var u User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", sess.UserID).Error; err != nil {
		return User{}, false
	}
	return u, true
}

// Register creates an account. Exposed for seeding and tests; the production
// signup flow (phone OTP) lives outside this service.
func (s *Service) Register(ctx context.Context, phone, email, fullName, password, role string) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	if role == "" {
		role = RoleCustomer
	}

	now := time.Now()
	u := User{
		ID:           uuid.NewString(),
		Phone:        phone,
		Email:        email,
		FullName:     fullName,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		return User{}, err
	}
	return u, nil
}

func HashToken(token string) []byte {
	sum := sha256.Sum256([]byte(token))
	return sum[:]
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
