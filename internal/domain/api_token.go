package domain

import "time"

type APIToken struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Name        string     `json:"name"`
	Token       string     `json:"token"` // sha256 of the plain token
	TokenPrefix string     `json:"token_prefix"`
	Scopes      []string   `json:"scopes"`
	LastUsedAt  *time.Time `json:"last_used_at,omitempty"`
	LastUsedIP  string     `json:"last_used_ip,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty"`
	IsRevoked   bool       `json:"is_revoked"`
}

type APITokenPublic struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	TokenPrefix string     `json:"token_prefix"`
	Scopes      []string   `json:"scopes"`
	LastUsedAt  *time.Time `json:"last_used_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	IsRevoked   bool       `json:"is_revoked"`
}

type CreateAPITokenRequest struct {
	Name   string   `json:"name" validate:"required,min=1,max=100"`
	Scopes []string `json:"scopes" validate:"omitempty,dive,oneof=workitems:read workitems:write"`
}

type CreateAPITokenResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Token       string    `json:"token"`
	TokenPrefix string    `json:"token_prefix"`
	Scopes      []string  `json:"scopes"`
	CreatedAt   time.Time `json:"created_at"`
	Message     string    `json:"message"`
}

type APITokenLoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required,min=1,max=100"`
}

const (
	ScopeWorkItemsRead  = "workitems:read"
	ScopeWorkItemsWrite = "workitems:write"
)

func DefaultAPITokenScopes() []string {
	return []string{
		ScopeWorkItemsRead,
		ScopeWorkItemsWrite,
	}
}

func (t *APIToken) HasScope(scope string) bool {
	for _, s := range t.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

func (t *APIToken) ToPublic() *APITokenPublic {
	return &APITokenPublic{
		ID:          t.ID,
		Name:        t.Name,
		TokenPrefix: t.TokenPrefix,
		Scopes:      t.Scopes,
		LastUsedAt:  t.LastUsedAt,
		CreatedAt:   t.CreatedAt,
		IsRevoked:   t.IsRevoked,
	}
}
