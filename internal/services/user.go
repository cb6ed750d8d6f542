package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator"
	"github.com/hope-foundation/apiserver/internal/logging"
	"github.com/hope-foundation/apiserver/internal/store"
	"github.com/hope-foundation/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
}

// AdminRepository defines persistence operations for admin grants.
type AdminRepository interface {
	IsAdmin(ctx context.Context, userID int) (bool, error)
	Grant(ctx context.Context, userID int, grantedBy *int) error
	Revoke(ctx context.Context, userID int) error
	GrantIfNone(ctx context.Context, userID int) (bool, error)
}

// RegisterInput is the payload of a new account.
type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// UserService encapsulates user, login and admin use-cases.
type UserService struct {
	repo       UserRepository
	admins     AdminRepository
	log        *slog.Logger
	setupToken string
	validate   *validator.Validate
}

func NewUserService(repo UserRepository, admins AdminRepository, log *slog.Logger, setupToken string) *UserService {
	return &UserService{
		repo:       repo,
		admins:     admins,
		log:        log,
		setupToken: setupToken,
		validate:   newValidator(),
	}
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (types.User, error) {
	return s.repo.GetByUsername(ctx, username)
}

// Register creates an account. Duplicate usernames or emails yield store.ErrConflict.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (types.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := s.validate.Struct(in); err != nil {
		return types.User{}, validationError(err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return types.User{}, fmt.Errorf("hash password: %w", err)
	}

	return s.repo.Create(ctx, types.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hashed),
	})
}

// Authenticate checks a password against the user named by identifier,
// which is an email when it contains '@' and a username otherwise.
func (s *UserService) Authenticate(ctx context.Context, identifier, password string) (types.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return types.User{}, ErrInvalidCredentials
	}

	var (
		user types.User
		err  error
	)
	if strings.Contains(identifier, "@") {
		user, err = s.repo.GetByEmail(ctx, strings.ToLower(identifier))
	} else {
		user, err = s.repo.GetByUsername(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrInvalidCredentials
		}
		return types.User{}, err
	}

	if user.PasswordHash == "" {
		return types.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// IsAdmin consults the admin grants first and the legacy is_admin flag second.
// Any lookup failure denies access.
func (s *UserService) IsAdmin(ctx context.Context, userID int) bool {
	const op = "services.UserService.IsAdmin"
	log := s.log.With(slog.String("op", op), slog.Int("user_id", userID))

	granted, err := s.admins.IsAdmin(ctx, userID)
	if err != nil {
		log.Error("admin record lookup failed", logging.Err(err))
		return false
	}
	if granted {
		return true
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Error("user lookup failed", logging.Err(err))
		}
		return false
	}
	return user.IsAdmin
}

// Setup grants userID admin when token matches the configured setup token
// and no admin exists yet.
func (s *UserService) Setup(ctx context.Context, userID int, token string) error {
	if s.setupToken == "" {
		return ErrSetupDisabled
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.setupToken)) != 1 {
		return ErrInvalidSetupToken
	}
	return s.grantFirst(ctx, userID)
}

// BootstrapAdmin makes the named user the first admin.
func (s *UserService) BootstrapAdmin(ctx context.Context, username string) (types.User, error) {
	user, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return types.User{}, err
	}
	if err := s.grantFirst(ctx, user.ID); err != nil {
		return types.User{}, err
	}
	return user, nil
}

func (s *UserService) grantFirst(ctx context.Context, userID int) error {
	granted, err := s.admins.GrantIfNone(ctx, userID)
	if err != nil {
		return err
	}
	if !granted {
		return ErrSetupClosed
	}
	s.log.Info("first admin granted", slog.Int("user_id", userID))
	return nil
}

// Grant makes userID an admin. grantedBy is nil for grants made outside a request.
func (s *UserService) Grant(ctx context.Context, userID int, grantedBy *int) error {
	if _, err := s.repo.GetByID(ctx, userID); err != nil {
		return err
	}
	return s.admins.Grant(ctx, userID, grantedBy)
}

// GrantByUsername is Grant for callers that only know the username.
func (s *UserService) GrantByUsername(ctx context.Context, username string) (types.User, error) {
	user, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return types.User{}, err
	}
	if err := s.admins.Grant(ctx, user.ID, nil); err != nil {
		return types.User{}, err
	}
	return user, nil
}

// Revoke removes the admin grant and clears the legacy flag.
func (s *UserService) Revoke(ctx context.Context, userID int) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	revokeErr := s.admins.Revoke(ctx, userID)
	if revokeErr != nil && !errors.Is(revokeErr, store.ErrNotFound) {
		return revokeErr
	}

	if user.IsAdmin {
		user.IsAdmin = false
		if _, err := s.repo.Update(ctx, user); err != nil {
			return err
		}
		return nil
	}
	return revokeErr
}
