package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/Himu336/Web3-Exam-Platform/internal/events"
	"github.com/Himu336/Web3-Exam-Platform/internal/models"
	"github.com/Himu336/Web3-Exam-Platform/internal/repositories"
	"github.com/Himu336/Web3-Exam-Platform/internal/validator"
)

type authService struct {
	repo           repositories.Repository
	logger         *slog.Logger
	validator      *validator.Validator
	eventPublisher events.EventPublisher
	activity       ActivityService

	jwtSecret []byte
	tokenTTL  time.Duration
}

func NewAuthService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator, publisher events.EventPublisher, activity ActivityService, jwtSecret string, tokenTTL time.Duration) AuthService {
	return &authService{
		repo:           repo,
		logger:         logger,
		validator:      v,
		eventPublisher: publisher,
		activity:       activity,
		jwtSecret:      []byte(jwtSecret),
		tokenTTL:       tokenTTL,
	}
}

type tokenClaims struct {
	UserID uint            `json:"id"`
	Role   models.UserRole `json:"role"`
	jwt.RegisteredClaims
}

func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, toServiceValidationErrors(errs)
	}

	// Self-registration never grants admin.
	if req.Role == models.RoleAdmin {
		return nil, NewValidationError("role", "admin accounts cannot self-register", req.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:   req.Username,
		Email:      req.Email,
		Password:   string(hash),
		Role:       req.Role,
		Status:     models.UserActive,
		Department: req.Department,
		RollNumber: req.RollNumber,
		Program:    req.Program,
		Semester:   req.Semester,
	}

	if err := s.repo.User().Create(ctx, nil, user); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	event := events.NewEvent(events.UserRegistered, events.UserEventData{
		UserID: user.ID,
		Role:   string(user.Role),
	})
	if err := s.eventPublisher.Publish(ctx, events.TopicUsers, event); err != nil {
		s.logger.Error("Failed to publish user event", "error", err, "user_id", user.ID)
	}
	s.activity.Record(ctx, &user.ID, "user_registered", "user", &user.ID, nil)

	s.logger.Info("User registered",
		"user_id", user.ID,
		"role", user.Role)

	return s.buildAuthResponse(user)
}

func (s *authService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, toServiceValidationErrors(errs)
	}

	user, err := s.repo.User().GetByEmail(ctx, nil, req.Email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if user.Status != models.UserActive {
		return nil, ErrAccountInactive
	}

	s.activity.Record(ctx, &user.ID, "user_login", "user", &user.ID, nil)
	s.logger.Info("User logged in", "user_id", user.ID, "role", user.Role)

	return s.buildAuthResponse(user)
}

func (s *authService) VerifyToken(tokenString string) (uint, models.UserRole, error) {
	token, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return 0, "", fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return 0, "", fmt.Errorf("invalid token claims")
	}

	return claims.UserID, claims.Role, nil
}

func (s *authService) TokenTTL() time.Duration {
	return s.tokenTTL
}

func (s *authService) buildAuthResponse(user *models.User) (*AuthResponse, error) {
	now := time.Now()
	claims := tokenClaims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	pub := user.Public()
	return &AuthResponse{Token: token, User: &pub}, nil
}
