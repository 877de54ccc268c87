package account

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/natabridge/natabridge/internal/platform/apperr"
	"github.com/natabridge/natabridge/internal/platform/auth"
)

const minPasswordLength = 6

var errInvalidCredentials = apperr.Unauthorized("invalid credentials")

type Service struct {
	repo   Repository
	issuer *auth.Issuer
	cost   int
}

func NewService(repo Repository, issuer *auth.Issuer) *Service {
	return &Service{repo: repo, issuer: issuer, cost: bcrypt.DefaultCost}
}

// Register creates a mother or CHW account and signs the user in. Staff and
// admin accounts are provisioned with CreateUser.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	if req.Role == "" {
		req.Role = auth.RoleMother
	}
	if req.Role != auth.RoleMother && req.Role != auth.RoleCHW {
		return nil, apperr.Invalid("role must be mother or chw")
	}
	u, err := s.CreateUser(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.session(u)
}

// CreateUser validates req and stores a new user with any role.
func (s *Service) CreateUser(ctx context.Context, req RegisterRequest) (*User, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.FullName = strings.TrimSpace(req.FullName)

	if req.Password == "" || req.FullName == "" {
		return nil, apperr.Invalid("password and full_name are required")
	}
	if req.Email == "" && req.Phone == "" {
		return nil, apperr.Invalid("email or phone is required")
	}
	if len(req.Password) < minPasswordLength {
		return nil, apperr.Invalid("password must be at least %d characters", minPasswordLength)
	}
	if !auth.ValidRole(req.Role) {
		return nil, apperr.Invalid("invalid role %q", req.Role)
	}

	exists, err := s.repo.Exists(ctx, req.Email, req.Phone)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Conflict("user already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, err
	}
	u := &User{
		Email:        optional(req.Email),
		Phone:        optional(req.Phone),
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Role:         req.Role,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login checks credentials by email, or by phone when no email is given.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	if req.Password == "" {
		return nil, apperr.Invalid("password is required")
	}
	var (
		u   *User
		err error
	)
	switch {
	case strings.TrimSpace(req.Email) != "":
		u, err = s.repo.GetByEmail(ctx, strings.TrimSpace(req.Email))
	case strings.TrimSpace(req.Phone) != "":
		u, err = s.repo.GetByPhone(ctx, strings.TrimSpace(req.Phone))
	default:
		return nil, apperr.Invalid("email or phone is required")
	}
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		return nil, errInvalidCredentials
	}
	if !u.IsActive {
		return nil, apperr.Forbidden("account is disabled")
	}
	return s.session(u)
}

func (s *Service) Me(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) session(u *User) (*Session, error) {
	token, exp, err := s.issuer.Issue(u.ID, u.Role)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: exp, User: u}, nil
}
