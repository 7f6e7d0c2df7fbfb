// File: internal/services/user_services/auth_service.go
package user_services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/aiplatform/chat-backend/internal/domain"
	"github.com/aiplatform/chat-backend/internal/repository/user"
)

// CleanupTrigger is the hook the login path uses to kick off background
// history cleanup. The call must not block or fail the login.
type CleanupTrigger interface {
	TriggerLoginCleanup(userID uint)
}

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)
	emailRegex    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

type AuthService struct {
	userRepo     user.UserRepository
	cleanup      CleanupTrigger
	jwtSecretKey string
	adminEmail   string
	logger       Logger
}

func NewAuthService(userRepo user.UserRepository, cleanup CleanupTrigger, jwtSecretKey, adminEmail string, logger Logger) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		cleanup:      cleanup,
		jwtSecretKey: jwtSecretKey,
		adminEmail:   adminEmail,
		logger:       logger,
	}
}

// Login authenticates a user and returns a JWT token. A successful login
// also starts a background cleanup run when the user's policy asks for one.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, string, error) {
	if username == "" || password == "" {
		s.logger.Warn("login attempt with empty credentials",
			"has_username", username != "",
			"has_password", password != "")
		return nil, "", errors.New("username and password are required")
	}

	account, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		s.logger.Warn("login failed - user not found", "username", mask(username))
		return nil, "", errors.New("invalid credentials")
	}

	if err := account.ValidatePassword(password); err != nil {
		s.logger.Warn("login failed - invalid password",
			"username", mask(username), "user_id", account.ID)
		return nil, "", errors.New("invalid credentials")
	}

	if account.Status == domain.UserStatusBanned {
		s.logger.Warn("login attempt by banned user",
			"username", mask(username), "user_id", account.ID)
		return nil, "", errors.New("account is disabled")
	}

	token, err := s.generateJWTToken(account)
	if err != nil {
		s.logger.Error("JWT token generation failed", "error", err, "user_id", account.ID)
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	now := time.Now().UTC()
	account.LastLoginAt = &now
	if err := s.userRepo.Update(ctx, account); err != nil {
		s.logger.Warn("failed to record login time", "user_id", account.ID, "error", err.Error())
	}

	if s.cleanup != nil {
		s.cleanup.TriggerLoginCleanup(account.ID)
	}

	s.logger.Info("login successful",
		"username", mask(username), "user_id", account.ID, "role", string(account.Role))
	return account, token, nil
}

// Register creates a new account. The configured admin email becomes an
// admin account; everyone else starts as a regular user.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	if err := s.validateRegistrationInput(username, email, password); err != nil {
		s.logger.Warn("registration validation failed",
			"username", mask(username), "email", mask(email), "error", err.Error())
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if existing, err := s.userRepo.FindByEmail(ctx, email); err == nil && existing != nil {
		s.logger.Warn("registration failed - email already exists",
			"email", mask(email), "existing_user_id", existing.ID)
		return nil, errors.New("user with this email already exists")
	}
	if existing, err := s.userRepo.FindByUsername(ctx, username); err == nil && existing != nil {
		s.logger.Warn("registration failed - username already exists",
			"username", mask(username), "existing_user_id", existing.ID)
		return nil, errors.New("username already taken")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("password hashing failed", "error", err, "username", mask(username))
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := domain.RoleRegular
	if email == s.adminEmail && s.adminEmail != "" {
		role = domain.RoleAdmin
	}

	account := &domain.User{
		Username: username,
		Email:    email,
		Password: string(hashed),
		Role:     role,
		Status:   domain.UserStatusActive,
	}

	created, err := s.userRepo.Create(ctx, account)
	if err != nil {
		s.logger.Error("user creation failed", "error", err, "username", mask(username))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered successfully",
		"username", mask(username), "user_id", created.ID, "role", string(created.Role))
	return created, nil
}

func (s *AuthService) validateRegistrationInput(username, email, password string) error {
	if !usernameRegex.MatchString(username) {
		return errors.New("username must be 3-20 characters, alphanumeric or underscore")
	}
	if !emailRegex.MatchString(email) {
		return errors.New("invalid email address")
	}
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}

// ValidateJWTToken validates a JWT token and returns the user ID.
func (s *AuthService) ValidateJWTToken(tokenString string) (uint, error) {
	if tokenString == "" {
		return 0, errors.New("empty token")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecretKey), nil
	})
	if err != nil {
		s.logger.Warn("JWT token validation failed", "error", err)
		return 0, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		userID, ok := claims["user_id"].(float64)
		if !ok {
			return 0, errors.New("invalid token claims")
		}
		return uint(userID), nil
	}
	return 0, errors.New("invalid token")
}

func (s *AuthService) generateJWTToken(account *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  account.ID,
		"username": account.Username,
		"role":     string(account.Role),
		"exp":      time.Now().Add(time.Hour * 24 * 7).Unix(),
		"iat":      time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecretKey))
}
