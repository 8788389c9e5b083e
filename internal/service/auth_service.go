package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"marketplace/internal/model"
	"marketplace/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// authService implements AuthService.
type authService struct {
	userRepo      repository.UserRepository
	sessions      SessionStore
	allowFallback bool
	bcryptCost    int
	now           func() time.Time
	logger        zerolog.Logger
}

// AuthOption customises an auth service.
type AuthOption func(*authService)

// WithIdentityFallback lets ResolveClient trust a body supplied userId or userEmail.
func WithIdentityFallback(enabled bool) AuthOption {
	return func(s *authService) { s.allowFallback = enabled }
}

// WithBcryptCost overrides the password hashing cost.
func WithBcryptCost(cost int) AuthOption {
	return func(s *authService) { s.bcryptCost = cost }
}

// NewAuthService creates a new auth service.
func NewAuthService(userRepo repository.UserRepository, sessions SessionStore, logger zerolog.Logger, opts ...AuthOption) AuthService {
	s := &authService{
		userRepo:   userRepo,
		sessions:   sessions,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
		logger:     logger.With().Str("service", "auth").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a client or vendor account.
func (s *authService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	if err := validateRegistration(req); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash password")
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(req.FullName),
		Phone:        strings.TrimSpace(req.Phone),
		Role:         req.Role,
	}

	var vendor *model.Vendor
	if user.Role == model.RoleVendor {
		vendor = &model.Vendor{ShopName: strings.TrimSpace(req.ShopName), Status: "active"}
	}

	if err := s.userRepo.Create(ctx, user, vendor); err != nil {
		if errors.Is(err, model.ErrEmailTaken) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("email", user.Email).Msg("failed to register user")
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	s.logger.Info().
		Int64("user_id", user.ID).
		Str("role", user.Role).
		Msg("user registered")

	return user, nil
}

// Login verifies credentials and issues a bearer session.
func (s *authService) Login(ctx context.Context, req *model.LoginRequest) (*model.Session, error) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, model.NewValidationError("email and password are required")
	}

	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		s.logger.Debug().Str("email", req.Email).Msg("login for unknown email")
		return nil, model.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Debug().Int64("user_id", user.ID).Msg("login with wrong password")
		return nil, model.ErrInvalidCredentials
	}

	identity, err := s.identityFor(ctx, user)
	if err != nil {
		return nil, err
	}

	token := strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
	if err := s.sessions.Save(ctx, token, identity); err != nil {
		s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("failed to save session")
		return nil, err
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("user logged in")

	return &model.Session{
		Token:     token,
		ExpiresAt: s.now().Add(s.sessions.TTL()),
		User:      user,
	}, nil
}

// Logout revokes a bearer token.
func (s *authService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// ResolveToken returns the identity behind a bearer token.
func (s *authService) ResolveToken(ctx context.Context, token string) (*model.Identity, error) {
	if token == "" {
		return nil, nil
	}
	return s.sessions.Load(ctx, token)
}

// Me returns the account of the authenticated caller.
func (s *authService) Me(ctx context.Context, identity *model.Identity) (*model.User, error) {
	if identity == nil {
		return nil, model.ErrUnauthenticated
	}

	user, err := s.userRepo.GetByID(ctx, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, model.ErrUnauthenticated
	}
	return user, nil
}

// ResolveClient maps the caller to an existing client account id.
func (s *authService) ResolveClient(ctx context.Context, identity *model.Identity, userID *int64, email string) (int64, error) {
	var (
		user *model.User
		err  error
	)

	switch {
	case identity != nil:
		user, err = s.userRepo.GetByID(ctx, identity.UserID)
	case s.allowFallback && userID != nil:
		s.logger.Warn().Int64("user_id", *userID).Msg("resolving client from request body userId")
		user, err = s.userRepo.GetByID(ctx, *userID)
	case s.allowFallback && strings.TrimSpace(email) != "":
		s.logger.Warn().Str("email", email).Msg("resolving client from request body userEmail")
		user, err = s.userRepo.GetByEmail(ctx, strings.TrimSpace(email))
	default:
		return 0, model.ErrUnauthenticated
	}

	if err != nil {
		return 0, fmt.Errorf("failed to resolve client: %w", err)
	}
	if user == nil || user.Role != model.RoleClient {
		return 0, model.ErrUnauthenticated
	}

	return user.ID, nil
}

func (s *authService) identityFor(ctx context.Context, user *model.User) (*model.Identity, error) {
	identity := &model.Identity{UserID: user.ID, Email: user.Email, Role: user.Role}

	if user.Role == model.RoleVendor {
		vendor, err := s.userRepo.GetVendorByUserID(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up vendor: %w", err)
		}
		if vendor != nil {
			identity.VendorID = &vendor.ID
		}
	}

	return identity, nil
}

// validateRegistration checks the request, strips any display name from the
// email and defaults the role to client.
func validateRegistration(req *model.RegisterRequest) error {
	if req == nil {
		return model.NewValidationError("request body is required")
	}

	addr, err := mail.ParseAddress(strings.TrimSpace(req.Email))
	if err != nil {
		return model.NewValidationError("a valid email is required")
	}
	req.Email = addr.Address

	if len(req.Password) < minPasswordLength {
		return model.NewValidationError(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	if strings.TrimSpace(req.FullName) == "" {
		return model.NewValidationError("full name is required")
	}

	if req.Role == "" {
		req.Role = model.RoleClient
	}

	switch req.Role {
	case model.RoleClient:
	case model.RoleVendor:
		if strings.TrimSpace(req.ShopName) == "" {
			return model.NewValidationError("shop name is required for vendor accounts")
		}
	default:
		return model.NewValidationError("role must be client or vendor")
	}

	return nil
}
