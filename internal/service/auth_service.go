package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/appprovts/SolarFlowPro/internal/config"
	"github.com/appprovts/SolarFlowPro/internal/db"
	"github.com/appprovts/SolarFlowPro/internal/email"
	"github.com/appprovts/SolarFlowPro/internal/repository"
	"github.com/appprovts/SolarFlowPro/internal/types"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ============================================
// Auth Service
// ============================================

type AuthService interface {
	Register(ctx context.Context, name, emailAddr, password, role string, phone *string) (*repository.User, string, string, error)
	Login(ctx context.Context, emailAddr, password string) (*repository.User, string, string, error)
	RefreshToken(ctx context.Context, refreshToken string) (string, string, error)
	Logout(ctx context.Context, userID, refreshToken string) error
	ForgotPassword(ctx context.Context, emailAddr string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	ValidateToken(token string) (*jwt.Token, error)
	GetUserIDFromToken(token *jwt.Token) (string, error)
}

type authService struct {
	cfg      *config.Config
	userRepo repository.UserRepository
	redis    *db.RedisDB
	emailSvc *email.Service
}

func NewAuthService(cfg *config.Config, userRepo repository.UserRepository, redis *db.RedisDB, emailSvc *email.Service) AuthService {
	return &authService{cfg: cfg, userRepo: userRepo, redis: redis, emailSvc: emailSvc}
}

func (s *authService) Register(ctx context.Context, name, emailAddr, password, role string, phone *string) (*repository.User, string, string, error) {
	existingUser, _ := s.userRepo.FindByEmail(ctx, emailAddr)
	if existingUser != nil {
		return nil, "", "", ErrUserExists
	}

	if role == "" {
		role = types.RoleIntegrador
	}
	if !types.IsValidRole(role) {
		return nil, "", "", ErrInvalidInput
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &repository.User{
		Name:     name,
		Email:    emailAddr,
		Password: string(hashedPassword),
		Role:     role,
		Phone:    phone,
		Status:   "online",
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, "", "", fmt.Errorf("failed to create user: %w", err)
	}

	accessToken, refreshToken, err := s.generateTokens(ctx, user)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to generate tokens: %w", err)
	}

	s.openSession(ctx, user)

	return user, accessToken, refreshToken, nil
}

func (s *authService) Login(ctx context.Context, emailAddr, password string) (*repository.User, string, string, error) {
	user, err := s.userRepo.FindByEmail(ctx, emailAddr)
	if err != nil || user == nil {
		return nil, "", "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", "", ErrInvalidCredentials
	}

	user.Status = "online"
	s.userRepo.Update(ctx, user)
	s.userRepo.UpdateLastActive(ctx, user.ID)

	accessToken, refreshToken, err := s.generateTokens(ctx, user)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to generate tokens: %w", err)
	}

	s.openSession(ctx, user)

	return user, accessToken, refreshToken, nil
}

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (string, string, error) {
	rt, err := s.userRepo.FindRefreshToken(ctx, refreshToken)
	if err != nil || rt == nil {
		return "", "", ErrInvalidToken
	}

	if time.Now().After(rt.ExpiresAt) {
		s.userRepo.DeleteRefreshToken(ctx, refreshToken)
		return "", "", ErrInvalidToken
	}

	user, err := s.userRepo.FindByID(ctx, rt.UserID)
	if err != nil || user == nil {
		return "", "", ErrInvalidToken
	}

	s.userRepo.DeleteRefreshToken(ctx, refreshToken)
	s.userRepo.UpdateLastActive(ctx, rt.UserID)

	accessToken, newRefreshToken, err := s.generateTokens(ctx, user)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate tokens: %w", err)
	}

	// Refreshing the access token does not extend the session window.
	return accessToken, newRefreshToken, nil
}

func (s *authService) Logout(ctx context.Context, userID, refreshToken string) error {
	if s.redis != nil && userID != "" {
		if err := s.redis.DeleteSession(ctx, userID); err != nil {
			log.Printf("[Auth] Failed to delete session for user %s: %v", userID, err)
		}
	}
	return s.userRepo.DeleteRefreshToken(ctx, refreshToken)
}

// ForgotPassword issues a one-hour reset token and emails the link. Always
// succeeds from the caller's point of view so the endpoint does not leak
// which emails exist.
func (s *authService) ForgotPassword(ctx context.Context, emailAddr string) error {
	user, err := s.userRepo.FindByEmail(ctx, emailAddr)
	if err != nil || user == nil {
		return nil
	}
	if s.redis == nil {
		return nil
	}

	token := uuid.New().String()
	if err := s.redis.SetResetToken(ctx, token, user.ID, time.Hour); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	if s.emailSvc != nil {
		resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.cfg.FrontendURL, token)
		go func() {
			if err := s.emailSvc.SendPasswordReset(user.Email, email.PasswordResetData{
				UserName: user.Name,
				ResetURL: resetURL,
			}); err != nil {
				log.Printf("[Auth] Failed to send reset email to %s: %v", user.Email, err)
			}
		}()
	}

	return nil
}

func (s *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if s.redis == nil {
		return ErrInvalidToken
	}

	userID, err := s.redis.GetResetToken(ctx, token)
	if err != nil || userID == "" {
		return ErrInvalidToken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil || user == nil {
		return ErrUserNotFound
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, string(hashedPassword)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.redis.DeleteResetToken(ctx, token)
	// Password change invalidates outstanding refresh tokens.
	s.userRepo.DeleteUserRefreshTokens(ctx, userID)

	return nil
}

func (s *authService) ValidateToken(tokenString string) (*jwt.Token, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	return token, nil
}

func (s *authService) GetUserIDFromToken(token *jwt.Token) (string, error) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	userID, ok := claims["sub"].(string)
	if !ok {
		return "", ErrInvalidToken
	}
	return userID, nil
}

// openSession records the sign-in moment in Redis so the session window can
// be enforced server-side.
func (s *authService) openSession(ctx context.Context, user *repository.User) {
	if s.redis == nil {
		return
	}
	session := &db.Session{
		UserID:   user.ID,
		Role:     user.Role,
		SignedIn: time.Now(),
	}
	maxAge := time.Duration(s.cfg.SessionMaxAge) * time.Minute
	if err := s.redis.SetSession(ctx, user.ID, session, maxAge); err != nil {
		log.Printf("[Auth] Failed to store session for user %s: %v", user.ID, err)
	}
}

func (s *authService) generateTokens(ctx context.Context, user *repository.User) (string, string, error) {
	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID,
		"role": user.Role,
		"name": user.Name,
		"exp":  time.Now().Add(time.Hour * time.Duration(s.cfg.JWTExpiry)).Unix(),
		"iat":  time.Now().Unix(),
	})

	accessTokenString, err := accessToken.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", "", err
	}

	refreshTokenString := uuid.New().String()
	refreshTokenExpiry := time.Now().Add(time.Hour * 24 * time.Duration(s.cfg.RefreshExpiry))

	rt := &repository.RefreshToken{
		Token:     refreshTokenString,
		UserID:    user.ID,
		ExpiresAt: refreshTokenExpiry,
	}

	if err := s.userRepo.SaveRefreshToken(ctx, rt); err != nil {
		return "", "", err
	}

	return accessTokenString, refreshTokenString, nil
}
