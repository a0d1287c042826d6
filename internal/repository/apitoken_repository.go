package repository

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"workitem-tracker/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

type APITokenRepository interface {
	Create(token *domain.APIToken) error
	FindByID(id string) (*domain.APIToken, error)
	FindByToken(hashedToken string) (*domain.APIToken, error)
	FindByUserID(userID string) ([]*domain.APIToken, error)
	UpdateLastUsed(id string, ip string) error
	Revoke(id string) error
	Delete(id string) error
}

type apiTokenRepository struct {
	client *kivik.Client
	dbName string
}

func NewAPITokenRepository(client *kivik.Client, dbName string) APITokenRepository {
	return &apiTokenRepository{
		client: client,
		dbName: dbName,
	}
}

func apiTokenDocID(id string) string {
	return fmt.Sprintf("api_token:%s", id)
}

func (r *apiTokenRepository) Create(token *domain.APIToken) error {
	db := r.client.DB(r.dbName)

	_, err := db.Put(context.Background(), apiTokenDocID(token.ID), token)
	if err != nil {
		return fmt.Errorf("failed to create API token: %w", err)
	}

	return nil
}

func (r *apiTokenRepository) FindByID(id string) (*domain.APIToken, error) {
	db := r.client.DB(r.dbName)

	row := db.Get(context.Background(), apiTokenDocID(id))

	var token domain.APIToken
	if err := row.ScanDoc(&token); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return nil, ErrDocNotFound
		}
		return nil, fmt.Errorf("failed to find API token: %w", err)
	}

	return &token, nil
}

func (r *apiTokenRepository) FindByToken(hashedToken string) (*domain.APIToken, error) {
	db := r.client.DB(r.dbName)

	query := map[string]any{
		"selector": map[string]any{
			"token":      hashedToken,
			"is_revoked": false,
		},
		"limit": 1,
	}

	rows := db.Find(context.Background(), query)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query API token: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ErrDocNotFound
	}

	var token domain.APIToken
	if err := rows.ScanDoc(&token); err != nil {
		return nil, fmt.Errorf("failed to scan API token: %w", err)
	}

	return &token, nil
}

func (r *apiTokenRepository) FindByUserID(userID string) ([]*domain.APIToken, error) {
	db := r.client.DB(r.dbName)

	query := map[string]any{
		"selector": map[string]any{
			"user_id": userID,
			"token":   map[string]any{"$exists": true},
		},
	}

	rows := db.Find(context.Background(), query)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query API tokens: %w", err)
	}
	defer rows.Close()

	var tokens []*domain.APIToken
	for rows.Next() {
		var token domain.APIToken
		if err := rows.ScanDoc(&token); err != nil {
			return nil, fmt.Errorf("failed to scan API token: %w", err)
		}
		tokens = append(tokens, &token)
	}

	return tokens, nil
}

func (r *apiTokenRepository) UpdateLastUsed(id string, ip string) error {
	token, err := r.FindByID(id)
	if err != nil {
		return err
	}

	now := time.Now()
	token.LastUsedAt = &now
	token.LastUsedIP = ip

	db := r.client.DB(r.dbName)
	_, err = db.Put(context.Background(), apiTokenDocID(id), token)
	if err != nil {
		return fmt.Errorf("failed to update API token: %w", err)
	}

	return nil
}

func (r *apiTokenRepository) Revoke(id string) error {
	token, err := r.FindByID(id)
	if err != nil {
		return err
	}

	now := time.Now()
	token.IsRevoked = true
	token.RevokedAt = &now

	db := r.client.DB(r.dbName)
	_, err = db.Put(context.Background(), apiTokenDocID(id), token)
	if err != nil {
		return fmt.Errorf("failed to revoke API token: %w", err)
	}

	return nil
}

func (r *apiTokenRepository) Delete(id string) error {
	db := r.client.DB(r.dbName)
	docID := apiTokenDocID(id)

	row := db.Get(context.Background(), docID)
	var doc map[string]any
	if err := row.ScanDoc(&doc); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return ErrDocNotFound
		}
		return fmt.Errorf("failed to fetch API token for delete: %w", err)
	}

	rev, ok := doc["_rev"].(string)
	if !ok {
		return fmt.Errorf("failed to get document revision")
	}

	_, err := db.Delete(context.Background(), docID, rev)
	if err != nil {
		return fmt.Errorf("failed to delete API token: %w", err)
	}

	return nil
}
