package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PurvDabhi/Task-Management-App/backend/models"
	"github.com/PurvDabhi/Task-Management-App/backend/repositories"
	"github.com/PurvDabhi/Task-Management-App/logging"

	"golang.org/x/crypto/bcrypt"
)

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ProfileUpdateRequest changes only the fields that are present.
type ProfileUpdateRequest struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

// UserService covers registration, login, the profile endpoints and the
// bearer-token check done by the auth middleware.
type UserService struct {
	users      repositories.UserRepository
	jwt        *JWTService
	now        func() time.Time
	bcryptCost int
}

func NewUserService(users repositories.UserRepository, jwtService *JWTService) *UserService {
	return &UserService{
		users:      users,
		jwt:        jwtService,
		now:        time.Now,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// SetPasswordCost overrides the bcrypt work factor.
func (s *UserService) SetPasswordCost(cost int) {
	s.bcryptCost = cost
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*models.AuthResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
		return nil, newValidationError("email", "user already exists")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now().UTC()
	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = s.users.Create(ctx, user)
	if errors.Is(err, repositories.ErrDuplicate) {
		return nil, newValidationError("email", "user already exists")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	logging.Logger.Infof("Event ID: USER_REGISTERED, Description: User %s registered", user.ID)
	return s.authResponse(user)
}

// Login answers ErrInvalidCredentials for an unknown email and for a wrong password alike.
func (s *UserService) Login(ctx context.Context, req LoginRequest) (*models.AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if errors.Is(err, repositories.ErrNotFound) {
		logging.Logger.Warnf("Event ID: LOGIN_UNKNOWN_EMAIL, Description: Login attempt for unknown email")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		logging.Logger.Warnf("Event ID: LOGIN_BAD_PASSWORD, Description: Wrong password for user %s", user.ID)
		return nil, ErrInvalidCredentials
	}

	return s.authResponse(user)
}

func (s *UserService) authResponse(user *models.User) (*models.AuthResponse, error) {
	token, err := s.jwt.GenerateAuthToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &models.AuthResponse{Token: token, User: user.Public()}, nil
}

// Authenticate resolves a bearer token to an existing user.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, claims.Subject)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("%w: user no longer exists", ErrUnauthorized)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

func (s *UserService) Profile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, req ProfileUpdateRequest) (*models.User, error) {
	verr := &ValidationError{}
	var name, email string
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
		if fe := validateField("name", name, "min=2,max=100"); fe != nil {
			verr.Fields = append(verr.Fields, *fe)
		}
	}
	if req.Email != nil {
		email = normalizeEmail(*req.Email)
		if fe := validateField("email", email, "required,email"); fe != nil {
			verr.Fields = append(verr.Fields, *fe)
		}
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}

	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if name != "" {
		user.Name = name
	}
	if email != "" && email != user.Email {
		if _, err := s.users.FindByEmail(ctx, email); err == nil {
			return nil, newValidationError("email", "email already in use")
		} else if !errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		user.Email = email
	}
	user.UpdatedAt = s.now().UTC()

	err = s.users.Update(ctx, user)
	if errors.Is(err, repositories.ErrDuplicate) {
		return nil, newValidationError("email", "email already in use")
	}
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	logging.Logger.Infof("Event ID: PROFILE_UPDATED, Description: Profile of user %s updated", user.ID)
	return user, nil
}
