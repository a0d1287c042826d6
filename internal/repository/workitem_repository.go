package repository

import (
	"context"
	"fmt"
	"net/http"

	"workitem-tracker/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

type WorkItemRepository interface {
	Create(item *domain.WorkItem) error
	FindByID(id string) (*domain.WorkItem, error)
	FindAll(filter *domain.WorkItemFilter) ([]*domain.WorkItem, error)
	Update(item *domain.WorkItem) error
	Delete(id string) error
}

type workItemRepository struct {
	client *kivik.Client
	dbName string
}

func NewWorkItemRepository(client *kivik.Client, dbName string) WorkItemRepository {
	return &workItemRepository{
		client: client,
		dbName: dbName,
	}
}

func workItemDocID(id string) string {
	return fmt.Sprintf("workitem:%s", id)
}

func (r *workItemRepository) Create(item *domain.WorkItem) error {
	db := r.client.DB(r.dbName)

	_, err := db.Put(context.Background(), workItemDocID(item.ID), item)
	if err != nil {
		return fmt.Errorf("failed to create work item: %w", err)
	}

	return nil
}

func (r *workItemRepository) FindByID(id string) (*domain.WorkItem, error) {
	db := r.client.DB(r.dbName)

	row := db.Get(context.Background(), workItemDocID(id))

	var item domain.WorkItem
	if err := row.ScanDoc(&item); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return nil, ErrDocNotFound
		}
		return nil, fmt.Errorf("failed to find work item: %w", err)
	}

	return &item, nil
}

func (r *workItemRepository) FindAll(filter *domain.WorkItemFilter) ([]*domain.WorkItem, error) {
	db := r.client.DB(r.dbName)

	selector := map[string]any{
		// Work item docs are the only ones carrying a title field.
		"title": map[string]any{"$exists": true},
	}
	if filter != nil {
		if filter.Status != nil {
			selector["status"] = string(*filter.Status)
		}
		if filter.Priority != nil {
			selector["priority"] = string(*filter.Priority)
		}
	}

	query := map[string]any{
		"selector": selector,
	}

	rows := db.Find(context.Background(), query)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list work items: %w", err)
	}
	defer rows.Close()

	var items []*domain.WorkItem
	for rows.Next() {
		var item domain.WorkItem
		if err := rows.ScanDoc(&item); err != nil {
			continue
		}
		items = append(items, &item)
	}

	return items, nil
}

func (r *workItemRepository) Update(item *domain.WorkItem) error {
	db := r.client.DB(r.dbName)
	docID := workItemDocID(item.ID)

	var existingDoc map[string]any
	row := db.Get(context.Background(), docID)
	if err := row.ScanDoc(&existingDoc); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return ErrDocNotFound
		}
		return fmt.Errorf("failed to fetch work item for update: %w", err)
	}

	existingDoc["title"] = item.Title
	existingDoc["description"] = item.Description
	existingDoc["status"] = string(item.Status)
	existingDoc["priority"] = string(item.Priority)
	existingDoc["updated_at"] = item.UpdatedAt

	_, err := db.Put(context.Background(), docID, existingDoc)
	if err != nil {
		return fmt.Errorf("failed to update work item: %w", err)
	}

	return nil
}

func (r *workItemRepository) Delete(id string) error {
	db := r.client.DB(r.dbName)
	docID := workItemDocID(id)

	var existingDoc map[string]any
	row := db.Get(context.Background(), docID)
	if err := row.ScanDoc(&existingDoc); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return ErrDocNotFound
		}
		return fmt.Errorf("failed to fetch work item for delete: %w", err)
	}

	rev, ok := existingDoc["_rev"].(string)
	if !ok {
		return fmt.Errorf("failed to get document revision")
	}

	_, err := db.Delete(context.Background(), docID, rev)
	if err != nil {
		return fmt.Errorf("failed to delete work item: %w", err)
	}

	return nil
}
