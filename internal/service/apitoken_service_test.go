package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"workitem-tracker/internal/domain"
	"workitem-tracker/internal/repository"
	"workitem-tracker/pkg/hash"

	"github.com/google/uuid"
)

type mockAPITokenRepo struct {
	tokens map[string]*domain.APIToken
}

func newMockAPITokenRepo() *mockAPITokenRepo {
	return &mockAPITokenRepo{
		tokens: make(map[string]*domain.APIToken),
	}
}

func (m *mockAPITokenRepo) Create(token *domain.APIToken) error {
	m.tokens[token.ID] = token
	return nil
}

func (m *mockAPITokenRepo) FindByID(id string) (*domain.APIToken, error) {
	if token, exists := m.tokens[id]; exists {
		return token, nil
	}
	return nil, repository.ErrDocNotFound
}

func (m *mockAPITokenRepo) FindByToken(hashedToken string) (*domain.APIToken, error) {
	for _, token := range m.tokens {
		if token.Token == hashedToken && !token.IsRevoked {
			return token, nil
		}
	}
	return nil, repository.ErrDocNotFound
}

func (m *mockAPITokenRepo) FindByUserID(userID string) ([]*domain.APIToken, error) {
	var tokens []*domain.APIToken
	for _, token := range m.tokens {
		if token.UserID == userID {
			tokens = append(tokens, token)
		}
	}
	return tokens, nil
}

func (m *mockAPITokenRepo) UpdateLastUsed(id string, ip string) error {
	token, err := m.FindByID(id)
	if err != nil {
		return err
	}
	now := time.Now()
	token.LastUsedAt = &now
	token.LastUsedIP = ip
	return nil
}

func (m *mockAPITokenRepo) Revoke(id string) error {
	token, err := m.FindByID(id)
	if err != nil {
		return err
	}
	now := time.Now()
	token.IsRevoked = true
	token.RevokedAt = &now
	return nil
}

func (m *mockAPITokenRepo) Delete(id string) error {
	if _, exists := m.tokens[id]; !exists {
		return repository.ErrDocNotFound
	}
	delete(m.tokens, id)
	return nil
}

func seedUser(repo *mockUserRepository, username, password string) *domain.User {
	hashed, _ := hash.Password(password)
	user := &domain.User{
		ID:       uuid.New().String(),
		Username: username,
		Email:    username + "@example.com",
		Password: hashed,
	}
	repo.users[user.ID] = user
	return user
}

func TestAPITokenService_CreateToken(t *testing.T) {
	userRepo := newMockUserRepository()
	tokenRepo := newMockAPITokenRepo()
	svc := NewAPITokenService(tokenRepo, userRepo)

	user := seedUser(userRepo, "alice", "SecurePass123!")

	resp, err := svc.CreateToken(user.ID, &domain.CreateAPITokenRequest{Name: "ci"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !strings.HasPrefix(resp.Token, TokenPrefix) {
		t.Errorf("expected token to start with %q, got %q", TokenPrefix, resp.Token[:8])
	}
	if !strings.HasPrefix(resp.Token, resp.TokenPrefix) {
		t.Error("expected stored prefix to match the plain token")
	}

	stored, err := tokenRepo.FindByID(resp.ID)
	if err != nil {
		t.Fatalf("expected token to be stored, got %v", err)
	}
	if stored.Token == resp.Token {
		t.Error("expected token to be stored hashed")
	}
	if len(stored.Scopes) == 0 {
		t.Error("expected default scopes")
	}
}

func TestAPITokenService_CreateToken_UnknownUser(t *testing.T) {
	svc := NewAPITokenService(newMockAPITokenRepo(), newMockUserRepository())

	if _, err := svc.CreateToken("ghost", &domain.CreateAPITokenRequest{Name: "ci"}); err == nil {
		t.Error("expected error for unknown user")
	}
}

func TestAPITokenService_ValidateToken(t *testing.T) {
	userRepo := newMockUserRepository()
	tokenRepo := newMockAPITokenRepo()
	svc := NewAPITokenService(tokenRepo, userRepo)

	user := seedUser(userRepo, "alice", "SecurePass123!")
	resp, err := svc.CreateToken(user.ID, &domain.CreateAPITokenRequest{Name: "ci"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	validated, token, err := svc.ValidateToken(resp.Token)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if validated.ID != user.ID {
		t.Errorf("expected user %s, got %s", user.ID, validated.ID)
	}
	if validated.Password != "" {
		t.Error("expected password to be scrubbed")
	}
	if token.ID != resp.ID {
		t.Errorf("expected token %s, got %s", resp.ID, token.ID)
	}

	if _, _, err := svc.ValidateToken("wkt_bogus"); err == nil {
		t.Error("expected error for unknown token")
	}
}

func TestAPITokenService_ValidateTokenWithScope(t *testing.T) {
	userRepo := newMockUserRepository()
	tokenRepo := newMockAPITokenRepo()
	svc := NewAPITokenService(tokenRepo, userRepo)

	user := seedUser(userRepo, "alice", "SecurePass123!")
	resp, err := svc.CreateToken(user.ID, &domain.CreateAPITokenRequest{
		Name:   "read-only",
		Scopes: []string{domain.ScopeWorkItemsRead},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if _, _, err := svc.ValidateTokenWithScope(resp.Token, domain.ScopeWorkItemsRead); err != nil {
		t.Errorf("expected read scope to pass, got %v", err)
	}

	if _, _, err := svc.ValidateTokenWithScope(resp.Token, domain.ScopeWorkItemsWrite); err == nil {
		t.Error("expected write scope to be rejected")
	}
}

func TestAPITokenService_RevokeToken(t *testing.T) {
	userRepo := newMockUserRepository()
	tokenRepo := newMockAPITokenRepo()
	svc := NewAPITokenService(tokenRepo, userRepo)

	alice := seedUser(userRepo, "alice", "SecurePass123!")
	mallory := seedUser(userRepo, "mallory", "SecurePass123!")

	resp, err := svc.CreateToken(alice.ID, &domain.CreateAPITokenRequest{Name: "ci"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := svc.RevokeToken(mallory.ID, resp.ID); err == nil {
		t.Error("expected revoke by another user to fail")
	}

	if err := svc.RevokeToken(alice.ID, resp.ID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if _, _, err := svc.ValidateToken(resp.Token); err == nil {
		t.Error("expected revoked token to fail validation")
	}

	if err := svc.RevokeToken(alice.ID, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAPITokenService_LoginAndCreateToken(t *testing.T) {
	userRepo := newMockUserRepository()
	tokenRepo := newMockAPITokenRepo()
	svc := NewAPITokenService(tokenRepo, userRepo)

	seedUser(userRepo, "alice", "SecurePass123!")

	resp, err := svc.LoginAndCreateToken(&domain.APITokenLoginRequest{
		Username: "alice",
		Password: "SecurePass123!",
		Name:     "laptop",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.Token == "" {
		t.Error("expected a token")
	}

	_, err = svc.LoginAndCreateToken(&domain.APITokenLoginRequest{
		Username: "alice",
		Password: "WrongPassword",
		Name:     "laptop",
	})
	if err == nil {
		t.Error("expected error for bad credentials")
	}
}
