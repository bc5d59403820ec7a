package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"shiptrack/internal/domain"
	apperrors "shiptrack/internal/errors"
	"shiptrack/internal/schema"
)

// fallbackDummyHash stands in for the dummy hash when one cannot be
// generated. It is a well-formed cost 10 hash of no known password.
const fallbackDummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

var generateDummyHash = func(cost int) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte("shiptrack-no-such-user"), cost)
}

type UserRepository interface {
	Insert(ctx context.Context, user domain.User) (int64, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
}

type UserService struct {
	repo       UserRepository
	bcryptCost int
	logger     *zap.Logger
	now        func() time.Time

	// dummyHash is compared against for unknown users so that lookups
	// take as long as a wrong password.
	dummyHash []byte
}

func NewUserService(repo UserRepository, bcryptCost int, logger *zap.Logger) *UserService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{
		repo:       repo,
		bcryptCost: bcryptCost,
		logger:     logger,
		now:        time.Now,
		dummyHash:  newDummyHash(bcryptCost, logger),
	}
}

func newDummyHash(cost int, logger *zap.Logger) []byte {
	hash, err := generateDummyHash(cost)
	if err != nil {
		logger.Error("failed to prepare dummy hash, using fallback", zap.Error(err))
		return []byte(fallbackDummyHash)
	}
	return hash
}

// CreateUser registers a user and returns its id. The password is stored
// only as a bcrypt hash.
func (s *UserService) CreateUser(ctx context.Context, username, password string) (int64, error) {
	username = strings.TrimSpace(username)
	if err := schema.ValidateCredentials(username, password); err != nil {
		return 0, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return 0, fmt.Errorf("hashing password: %w", err)
	}

	id, err := s.repo.Insert(ctx, domain.User{
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		if _, ok := apperrors.IsDuplicateUsernameError(err); ok {
			s.logger.Info("username already taken", zap.String("username", username))
			return 0, err
		}
		s.logger.Error("failed to create user", zap.String("username", username), zap.Error(err))
		return 0, err
	}

	s.logger.Info("user created", zap.Int64("userId", id), zap.String("username", username))
	return id, nil
}

// VerifyUser returns the user when the password matches. Unknown user and
// wrong password both yield (nil, nil) after comparable work; only backend
// failures are errors.
func (s *UserService) VerifyUser(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		s.logger.Error("failed to look up user", zap.Error(err))
		return nil, err
	}

	if user == nil {
		bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, nil
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil
	}

	return user, nil
}
