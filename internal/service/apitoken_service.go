package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"workitem-tracker/internal/domain"
	"workitem-tracker/internal/repository"
	"workitem-tracker/pkg/hash"

	"github.com/google/uuid"
)

// TokenPrefix marks personal access tokens on the wire.
const TokenPrefix = "wkt_"

type APITokenService struct {
	tokenRepo repository.APITokenRepository
	userRepo  repository.UserRepository
}

func NewAPITokenService(tokenRepo repository.APITokenRepository, userRepo repository.UserRepository) *APITokenService {
	return &APITokenService{
		tokenRepo: tokenRepo,
		userRepo:  userRepo,
	}
}

// generateSecureToken returns wkt_<64 hex chars> from 32 random bytes.
func generateSecureToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return TokenPrefix + hex.EncodeToString(bytes), nil
}

// hashToken is the at-rest form; the plain token is never stored.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (s *APITokenService) LoginAndCreateToken(req *domain.APITokenLoginRequest) (*domain.CreateAPITokenResponse, error) {
	user, err := s.userRepo.FindByUsername(req.Username)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	if err := hash.ComparePassword(user.Password, req.Password); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	createReq := &domain.CreateAPITokenRequest{
		Name:   req.Name,
		Scopes: domain.DefaultAPITokenScopes(),
	}

	return s.CreateToken(user.ID, createReq)
}

func (s *APITokenService) CreateToken(userID string, req *domain.CreateAPITokenRequest) (*domain.CreateAPITokenResponse, error) {
	if _, err := s.userRepo.FindByID(userID); err != nil {
		return nil, fmt.Errorf("user not found")
	}

	plainToken, err := generateSecureToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	scopes := req.Scopes
	if len(scopes) == 0 {
		scopes = domain.DefaultAPITokenScopes()
	}

	token := &domain.APIToken{
		ID:          uuid.New().String(),
		UserID:      userID,
		Name:        req.Name,
		Token:       hashToken(plainToken),
		TokenPrefix: plainToken[:len(TokenPrefix)+8],
		Scopes:      scopes,
		CreatedAt:   time.Now(),
		IsRevoked:   false,
	}

	if err := s.tokenRepo.Create(token); err != nil {
		return nil, fmt.Errorf("failed to create token: %w", err)
	}

	return &domain.CreateAPITokenResponse{
		ID:          token.ID,
		Name:        token.Name,
		Token:       plainToken, // shown to the caller exactly once
		TokenPrefix: token.TokenPrefix,
		Scopes:      token.Scopes,
		CreatedAt:   token.CreatedAt,
		Message:     "Token created. Store it safely - it won't be shown again.",
	}, nil
}

func (s *APITokenService) ValidateToken(plainToken string) (*domain.User, *domain.APIToken, error) {
	token, err := s.tokenRepo.FindByToken(hashToken(plainToken))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid or revoked token")
	}

	if token.IsRevoked {
		return nil, nil, fmt.Errorf("token has been revoked")
	}

	user, err := s.userRepo.FindByID(token.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("user not found")
	}

	user.Password = ""

	return user, token, nil
}

func (s *APITokenService) ValidateTokenWithScope(plainToken, requiredScope string) (*domain.User, *domain.APIToken, error) {
	user, token, err := s.ValidateToken(plainToken)
	if err != nil {
		return nil, nil, err
	}

	if !token.HasScope(requiredScope) {
		return nil, nil, fmt.Errorf("token does not have required scope: %s", requiredScope)
	}

	return user, token, nil
}

func (s *APITokenService) UpdateLastUsed(tokenID, ip string) error {
	return s.tokenRepo.UpdateLastUsed(tokenID, ip)
}

func (s *APITokenService) ListTokens(userID string) ([]*domain.APITokenPublic, error) {
	tokens, err := s.tokenRepo.FindByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}

	publicTokens := make([]*domain.APITokenPublic, len(tokens))
	for i, token := range tokens {
		publicTokens[i] = token.ToPublic()
	}

	return publicTokens, nil
}

func (s *APITokenService) GetToken(userID, tokenID string) (*domain.APITokenPublic, error) {
	token, err := s.findOwnedToken(userID, tokenID)
	if err != nil {
		return nil, err
	}
	return token.ToPublic(), nil
}

func (s *APITokenService) RevokeToken(userID, tokenID string) error {
	if _, err := s.findOwnedToken(userID, tokenID); err != nil {
		return err
	}
	return s.tokenRepo.Revoke(tokenID)
}

func (s *APITokenService) DeleteToken(userID, tokenID string) error {
	if _, err := s.findOwnedToken(userID, tokenID); err != nil {
		return err
	}
	return s.tokenRepo.Delete(tokenID)
}

func (s *APITokenService) findOwnedToken(userID, tokenID string) (*domain.APIToken, error) {
	token, err := s.tokenRepo.FindByID(tokenID)
	if err != nil {
		return nil, ErrNotFound
	}

	if token.UserID != userID {
		return nil, fmt.Errorf("token does not belong to user")
	}

	return token, nil
}
