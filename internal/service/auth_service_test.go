package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/appprovts/SolarFlowPro/internal/config"
	"github.com/appprovts/SolarFlowPro/internal/repository"
	"github.com/appprovts/SolarFlowPro/internal/types"
	"github.com/golang-jwt/jwt/v5"
)

func newTestAuthService(userRepo *fakeUserRepo) AuthService {
	cfg := &config.Config{
		JWTSecret:     "test-secret",
		JWTExpiry:     1,
		RefreshExpiry: 7,
		SessionMaxAge: 60,
	}
	return NewAuthService(cfg, userRepo, nil, nil)
}

func TestRegisterAndLogin(t *testing.T) {
	userRepo := newFakeUserRepo()
	svc := newTestAuthService(userRepo)

	user, access, refresh, err := svc.Register(context.Background(), "Carlos Campo", "carlos@x.com", "segredo123", "", nil)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Role != types.RoleIntegrador {
		t.Errorf("role = %q, want default Integrador", user.Role)
	}
	if access == "" || refresh == "" {
		t.Fatal("registration must issue both tokens")
	}
	if user.Password == "segredo123" {
		t.Error("password stored in plain text")
	}

	got, _, _, err := svc.Login(context.Background(), "carlos@x.com", "segredo123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("login returned user %s, want %s", got.ID, user.ID)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	userRepo := newFakeUserRepo()
	svc := newTestAuthService(userRepo)

	if _, _, _, err := svc.Register(context.Background(), "Carlos", "carlos@x.com", "segredo123", "", nil); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	_, _, _, err := svc.Register(context.Background(), "Outro Carlos", "carlos@x.com", "outrasenha", "", nil)
	if !errors.Is(err, ErrUserExists) {
		t.Errorf("err = %v, want ErrUserExists", err)
	}
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo())

	_, _, _, err := svc.Register(context.Background(), "Ana", "ana@x.com", "segredo123", "Gerente", nil)
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	userRepo := newFakeUserRepo()
	svc := newTestAuthService(userRepo)
	svc.Register(context.Background(), "Carlos", "carlos@x.com", "segredo123", "", nil)

	if _, _, _, err := svc.Login(context.Background(), "carlos@x.com", "errada"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: err = %v, want ErrInvalidCredentials", err)
	}
	if _, _, _, err := svc.Login(context.Background(), "ninguem@x.com", "segredo123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: err = %v, want ErrInvalidCredentials", err)
	}
}

func TestAccessTokenCarriesIdentityClaims(t *testing.T) {
	userRepo := newFakeUserRepo()
	svc := newTestAuthService(userRepo)

	user, access, _, err := svc.Register(context.Background(), "Maria Engenheira", "maria@x.com", "segredo123", types.RoleEngenharia, nil)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	token, err := svc.ValidateToken(access)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatal("claims are not MapClaims")
	}
	if claims["sub"] != user.ID {
		t.Errorf("sub = %v, want %s", claims["sub"], user.ID)
	}
	if claims["role"] != types.RoleEngenharia {
		t.Errorf("role = %v, want Engenharia", claims["role"])
	}
	if claims["name"] != "Maria Engenheira" {
		t.Errorf("name = %v, want Maria Engenheira", claims["name"])
	}
}

func TestRefreshTokenRotates(t *testing.T) {
	userRepo := newFakeUserRepo()
	svc := newTestAuthService(userRepo)

	_, _, refresh, err := svc.Register(context.Background(), "Carlos", "carlos@x.com", "segredo123", "", nil)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	access, newRefresh, err := svc.RefreshToken(context.Background(), refresh)
	if err != nil {
		t.Fatalf("RefreshToken: %v", err)
	}
	if access == "" || newRefresh == "" || newRefresh == refresh {
		t.Error("refresh must rotate into a fresh token pair")
	}

	// The old token is single-use.
	if _, _, err := svc.RefreshToken(context.Background(), refresh); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("reused refresh token: err = %v, want ErrInvalidToken", err)
	}
}

func TestRefreshTokenExpired(t *testing.T) {
	userRepo := newFakeUserRepo()
	svc := newTestAuthService(userRepo)

	user := &repository.User{Name: "Carlos", Email: "carlos@x.com", Role: types.RoleIntegrador}
	userRepo.Create(context.Background(), user)
	userRepo.SaveRefreshToken(context.Background(), &repository.RefreshToken{
		Token:     "velho",
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(-time.Hour),
	})

	if _, _, err := svc.RefreshToken(context.Background(), "velho"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
	if tok, _ := userRepo.FindRefreshToken(context.Background(), "velho"); tok != nil {
		t.Error("expired token must be deleted on use")
	}
}

func TestLogoutDeletesRefreshToken(t *testing.T) {
	userRepo := newFakeUserRepo()
	svc := newTestAuthService(userRepo)

	user, _, refresh, err := svc.Register(context.Background(), "Carlos", "carlos@x.com", "segredo123", "", nil)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := svc.Logout(context.Background(), user.ID, refresh); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if tok, _ := userRepo.FindRefreshToken(context.Background(), refresh); tok != nil {
		t.Error("logout must delete the refresh token")
	}
}

func TestForgotPasswordNeverLeaksExistence(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo())

	if err := svc.ForgotPassword(context.Background(), "ninguem@x.com"); err != nil {
		t.Errorf("unknown email must not error: %v", err)
	}
}
