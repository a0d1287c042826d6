package service

import (
	"errors"
	"math"
	"sort"
	"strings"
	"time"

	"workitem-tracker/internal/domain"
	"workitem-tracker/internal/repository"

	"github.com/google/uuid"
)

// EventPublisher receives change notifications for the live event feed.
type EventPublisher interface {
	PublishWorkItemEvent(eventType string, payload any)
}

const (
	EventWorkItemCreated = "work_item_created"
	EventWorkItemUpdated = "work_item_updated"
	EventWorkItemDeleted = "work_item_deleted"
)

type WorkItemService struct {
	repo            repository.WorkItemRepository
	events          EventPublisher
	defaultPageSize int
	maxPageSize     int
}

func NewWorkItemService(repo repository.WorkItemRepository, events EventPublisher, defaultPageSize, maxPageSize int) *WorkItemService {
	return &WorkItemService{
		repo:            repo,
		events:          events,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

func (s *WorkItemService) GetByID(id string) (*domain.WorkItem, error) {
	item, err := s.repo.FindByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrDocNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return item, nil
}

// List composes the equality filters, ordering and skip/take of a page
// request. Filters push down to the store; ordering and pagination apply
// to the filtered set here.
func (s *WorkItemService) List(q *domain.ListWorkItemsQuery) (*domain.WorkItemPage, error) {
	page, pageSize := s.normalizePaging(q.Page, q.PageSize)

	sortBy, sortDir, err := normalizeSort(q.SortBy, q.SortDir)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.FindAll(q.Filter())
	if err != nil {
		return nil, err
	}

	sortWorkItems(items, sortBy, sortDir)

	totalCount := len(items)
	totalPages := int(math.Ceil(float64(totalCount) / float64(pageSize)))

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > totalCount {
		start = totalCount
	}
	if end > totalCount {
		end = totalCount
	}

	pageItems := items[start:end]
	if pageItems == nil {
		pageItems = []*domain.WorkItem{}
	}

	return &domain.WorkItemPage{
		Items:           pageItems,
		TotalCount:      totalCount,
		Page:            page,
		PageSize:        pageSize,
		TotalPages:      totalPages,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1,
	}, nil
}

func (s *WorkItemService) Create(req *domain.CreateWorkItemRequest) (*domain.WorkItem, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, NewValidationError("title must not be empty")
	}

	priority := req.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !priority.Valid() {
		return nil, NewValidationError("invalid priority: " + string(priority))
	}

	now := time.Now()

	item := &domain.WorkItem{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		Status:      domain.StatusTodo,
		Priority:    priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(item); err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.PublishWorkItemEvent(EventWorkItemCreated, item)
	}

	return item, nil
}

func (s *WorkItemService) Update(id string, req *domain.UpdateWorkItemRequest) (*domain.WorkItem, error) {
	item, err := s.repo.FindByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrDocNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return nil, NewValidationError("title must not be empty")
		}
		item.Title = *req.Title
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, NewValidationError("invalid status: " + string(*req.Status))
		}
		item.Status = *req.Status
	}
	if req.Priority != nil {
		if !req.Priority.Valid() {
			return nil, NewValidationError("invalid priority: " + string(*req.Priority))
		}
		item.Priority = *req.Priority
	}

	item.UpdatedAt = time.Now()

	if err := s.repo.Update(item); err != nil {
		if errors.Is(err, repository.ErrDocNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if s.events != nil {
		s.events.PublishWorkItemEvent(EventWorkItemUpdated, item)
	}

	return item, nil
}

func (s *WorkItemService) Delete(id string) error {
	if err := s.repo.Delete(id); err != nil {
		if errors.Is(err, repository.ErrDocNotFound) {
			return ErrNotFound
		}
		return err
	}

	if s.events != nil {
		s.events.PublishWorkItemEvent(EventWorkItemDeleted, map[string]string{"id": id})
	}

	return nil
}

func (s *WorkItemService) normalizePaging(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = s.defaultPageSize
	}
	if s.maxPageSize > 0 && pageSize > s.maxPageSize {
		pageSize = s.maxPageSize
	}
	return page, pageSize
}

// normalizeSort pins the ordering defaults: no sortBy means newest first
// by creation time; sorting by title without an explicit direction is
// ascending. An explicit sortDir always wins.
func normalizeSort(sortBy, sortDir string) (string, string, error) {
	switch sortBy {
	case "":
		sortBy = domain.SortByCreatedAt
	case domain.SortByTitle, domain.SortByCreatedAt:
	default:
		return "", "", NewValidationError("invalid sortBy: " + sortBy)
	}

	switch sortDir {
	case "":
		if sortBy == domain.SortByTitle {
			sortDir = domain.SortAsc
		} else {
			sortDir = domain.SortDesc
		}
	case domain.SortAsc, domain.SortDesc:
	default:
		return "", "", NewValidationError("invalid sortDir: " + sortDir)
	}

	return sortBy, sortDir, nil
}

func sortWorkItems(items []*domain.WorkItem, sortBy, sortDir string) {
	asc := sortDir == domain.SortAsc

	sort.SliceStable(items, func(i, j int) bool {
		switch sortBy {
		case domain.SortByTitle:
			if asc {
				return items[i].Title < items[j].Title
			}
			return items[i].Title > items[j].Title
		default:
			if asc {
				return items[i].CreatedAt.Before(items[j].CreatedAt)
			}
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
	})
}
