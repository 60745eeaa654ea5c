package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "photo-journal-backend/internal/errors"
	"photo-journal-backend/internal/models"
	"photo-journal-backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const jwtExpDays = 365

// UserService handles user-related business logic
type UserService struct {
	userRepo  repository.UserRepository
	jwtSecret string
}

// NewUserService creates a new user service
func NewUserService(userRepo repository.UserRepository, jwtSecret string) *UserService {
	return &UserService{
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
	}
}

// CreateUserRequest represents a social login
type CreateUserRequest struct {
	SocialID   string  `json:"social_id"`
	Nickname   string  `json:"nickname"`
	ProfileURL *string `json:"profile_url,omitempty"`
}

// GenerateJWT generates a JWT token for a user
func (s *UserService) GenerateJWT(userID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().AddDate(0, 0, jwtExpDays).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateJWT validates a JWT token and returns the user ID
func (s *UserService) ValidateJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return "", fmt.Errorf("user_id not found in token")
	}

	return userID, nil
}

// CreateUser signs a user in by social login reference, creating the user on first login
func (s *UserService) CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, string, error) {
	req.SocialID = strings.TrimSpace(req.SocialID)
	req.Nickname = strings.TrimSpace(req.Nickname)
	if req.SocialID == "" {
		return nil, "", apperrors.Validation("social_id is required")
	}
	if req.Nickname == "" {
		return nil, "", apperrors.Validation("nickname is required")
	}

	user, err := s.userRepo.GetBySocialID(ctx, req.SocialID)
	if err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, "", fmt.Errorf("failed to look up user: %w", err)
	}

	if user != nil {
		token, err := s.GenerateJWT(user.ID)
		if err != nil {
			return nil, "", fmt.Errorf("failed to generate token: %w", err)
		}
		user.Nickname = req.Nickname
		user.ProfileURL = req.ProfileURL
		user.RefreshToken = &token
		if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
			return nil, "", fmt.Errorf("failed to update user: %w", err)
		}
		return user, token, nil
	}

	userID := uuid.New().String()
	token, err := s.GenerateJWT(userID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	user = &models.User{
		ID:           userID,
		Nickname:     req.Nickname,
		ProfileURL:   req.ProfileURL,
		SocialID:     req.SocialID,
		RefreshToken: &token,
		CreatedAt:    time.Now(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	log.Info().Str("user_id", user.ID).Msg("User registered")
	return user, token, nil
}

// GetUser resolves a caller's identity to a user record
func (s *UserService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// UpdatePushToken records the APNs device token of a user; an empty token clears it
func (s *UserService) UpdatePushToken(ctx context.Context, userID, pushToken string) error {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return err
	}
	var tok *string
	if pushToken = strings.TrimSpace(pushToken); pushToken != "" {
		tok = &pushToken
	}
	return s.userRepo.UpdatePushToken(ctx, userID, tok)
}
