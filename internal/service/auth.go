package service

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"sync"

	"github.com/quillpost/quillpost-go/internal/crypto"
	"github.com/quillpost/quillpost-go/internal/model"
	"github.com/quillpost/quillpost-go/internal/repository"
)

const minPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var (
	ErrRegistrationFieldsRequired = errors.New("all fields (name, email, password) are required")
	ErrInvalidEmail               = errors.New("invalid email format")
	ErrPasswordTooShort           = errors.New("password must be at least 6 characters long")
	ErrPasswordTooLong            = errors.New("password must be at most 72 bytes long")
	ErrEmailInUse                 = errors.New("email already in use")
	ErrCredentialsRequired        = errors.New("both email and password are required")
	ErrInvalidCredentials         = errors.New("invalid email or password")
	ErrUserNotFound               = errors.New("user not found")
)

// UserStore persists user accounts.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// TokenIssuer issues session tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID int64) (string, error)
}

// AuthService handles registration and login.
type AuthService struct {
	users  UserStore
	hasher crypto.PasswordHasher
	tokens TokenIssuer

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserStore, hasher crypto.PasswordHasher, tokens TokenIssuer) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
	}
}

// Register validates the request and creates a user account. Nothing about
// the account is returned.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) error {
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return ErrRegistrationFieldsRequired
	}
	if !emailPattern.MatchString(req.Email) {
		return ErrInvalidEmail
	}
	if len(req.Password) < minPasswordLength {
		return ErrPasswordTooShort
	}

	// Advisory only: the unique index decides races.
	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return ErrEmailInUse
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, crypto.ErrPasswordTooLong) {
			return ErrPasswordTooLong
		}
		return err
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return ErrEmailInUse
		}
		return err
	}

	slog.InfoContext(ctx, "user registered", "user_id", user.ID)
	return nil
}

// Login checks credentials and issues a session token. An unknown email and
// a wrong password both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.LoginResponse, error) {
	if req.Email == "" || req.Password == "" {
		return model.LoginResponse{}, ErrCredentialsRequired
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Burn a comparable amount of CPU so response time does not
			// reveal whether the account exists.
			_, _ = s.hasher.Verify(req.Password, s.placeholderHash())
			return model.LoginResponse{}, ErrInvalidCredentials
		}
		return model.LoginResponse{}, err
	}

	match, err := s.hasher.Verify(req.Password, user.PasswordHash)
	if err != nil {
		slog.WarnContext(ctx, "stored password hash unreadable", "user_id", user.ID, "error", err)
		return model.LoginResponse{}, ErrInvalidCredentials
	}
	if !match {
		return model.LoginResponse{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return model.LoginResponse{}, err
	}

	return model.LoginResponse{
		Message: "Login successful.",
		Token:   token,
		UserID:  user.ID,
	}, nil
}

// GetUser retrieves a user by ID and returns safe user data.
func (s *AuthService) GetUser(ctx context.Context, userID int64) (model.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.UserResponse{}, ErrUserNotFound
		}
		return model.UserResponse{}, err
	}

	return model.UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}, nil
}

func (s *AuthService) placeholderHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("placeholder-password")
		if err != nil {
			slog.Warn("placeholder hash unavailable", "error", err)
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}
