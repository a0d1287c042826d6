package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"workitem-tracker/internal/domain"
	"workitem-tracker/internal/repository"
)

type mockWorkItemRepo struct {
	items map[string]*domain.WorkItem
}

func newMockWorkItemRepo() *mockWorkItemRepo {
	return &mockWorkItemRepo{
		items: make(map[string]*domain.WorkItem),
	}
}

func (m *mockWorkItemRepo) Create(item *domain.WorkItem) error {
	m.items[item.ID] = item
	return nil
}

func (m *mockWorkItemRepo) FindByID(id string) (*domain.WorkItem, error) {
	if item, exists := m.items[id]; exists {
		return item, nil
	}
	return nil, repository.ErrDocNotFound
}

func (m *mockWorkItemRepo) FindAll(filter *domain.WorkItemFilter) ([]*domain.WorkItem, error) {
	var items []*domain.WorkItem
	for _, item := range m.items {
		if filter != nil {
			if filter.Status != nil && item.Status != *filter.Status {
				continue
			}
			if filter.Priority != nil && item.Priority != *filter.Priority {
				continue
			}
		}
		items = append(items, item)
	}
	return items, nil
}

func (m *mockWorkItemRepo) Update(item *domain.WorkItem) error {
	if _, exists := m.items[item.ID]; !exists {
		return repository.ErrDocNotFound
	}
	m.items[item.ID] = item
	return nil
}

func (m *mockWorkItemRepo) Delete(id string) error {
	if _, exists := m.items[id]; !exists {
		return repository.ErrDocNotFound
	}
	delete(m.items, id)
	return nil
}

func newTestService(repo repository.WorkItemRepository) *WorkItemService {
	return NewWorkItemService(repo, nil, 10, 100)
}

func seedItem(repo *mockWorkItemRepo, id, title string, status domain.Status, priority domain.Priority, createdAt time.Time) *domain.WorkItem {
	item := &domain.WorkItem{
		ID:        id,
		Title:     title,
		Status:    status,
		Priority:  priority,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	repo.items[id] = item
	return item
}

func TestWorkItemService_Create(t *testing.T) {
	repo := newMockWorkItemRepo()
	svc := newTestService(repo)

	item, err := svc.Create(&domain.CreateWorkItemRequest{Title: "New Task"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if item.ID == "" {
		t.Error("expected item ID to be generated")
	}
	if item.Status != domain.StatusTodo {
		t.Errorf("expected status %q, got %q", domain.StatusTodo, item.Status)
	}
	if item.Priority != domain.PriorityMedium {
		t.Errorf("expected default priority %q, got %q", domain.PriorityMedium, item.Priority)
	}
	if !item.CreatedAt.Equal(item.UpdatedAt) {
		t.Errorf("expected CreatedAt == UpdatedAt at creation, got %v / %v", item.CreatedAt, item.UpdatedAt)
	}
}

func TestWorkItemService_Create_EmptyTitle(t *testing.T) {
	repo := newMockWorkItemRepo()
	svc := newTestService(repo)

	tests := []string{"", "   "}
	for _, title := range tests {
		_, err := svc.Create(&domain.CreateWorkItemRequest{Title: title})

		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			t.Errorf("Create(%q) expected ValidationError, got %v", title, err)
		}
	}
}

func TestWorkItemService_GetByID(t *testing.T) {
	repo := newMockWorkItemRepo()
	svc := newTestService(repo)

	seedItem(repo, "item-1", "Fix login bug", domain.StatusTodo, domain.PriorityHigh, time.Now())

	item, err := svc.GetByID("item-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if item.ID != "item-1" {
		t.Errorf("expected ID item-1, got %s", item.ID)
	}

	_, err = svc.GetByID("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestWorkItemService_Update(t *testing.T) {
	repo := newMockWorkItemRepo()
	svc := newTestService(repo)

	created := seedItem(repo, "item-1", "Old title", domain.StatusTodo, domain.PriorityLow, time.Now().Add(-time.Hour))
	created.Description = "keep me"

	newStatus := domain.StatusInProgress
	updated, err := svc.Update("item-1", &domain.UpdateWorkItemRequest{Status: &newStatus})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if updated.Status != domain.StatusInProgress {
		t.Errorf("expected status in_progress, got %s", updated.Status)
	}
	if updated.Title != "Old title" {
		t.Errorf("expected unchanged title, got %s", updated.Title)
	}
	if updated.Description != "keep me" {
		t.Errorf("expected unchanged description, got %s", updated.Description)
	}
	if updated.Priority != domain.PriorityLow {
		t.Errorf("expected unchanged priority, got %s", updated.Priority)
	}
	if !updated.UpdatedAt.After(updated.CreatedAt) {
		t.Error("expected UpdatedAt to advance past CreatedAt")
	}
}

func TestWorkItemService_Update_NotFound(t *testing.T) {
	repo := newMockWorkItemRepo()
	svc := newTestService(repo)

	title := "anything"
	_, err := svc.Update("missing", &domain.UpdateWorkItemRequest{Title: &title})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestWorkItemService_Update_EmptyTitle(t *testing.T) {
	repo := newMockWorkItemRepo()
	svc := newTestService(repo)

	seedItem(repo, "item-1", "Old title", domain.StatusTodo, domain.PriorityLow, time.Now())

	empty := ""
	_, err := svc.Update("item-1", &domain.UpdateWorkItemRequest{Title: &empty})

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

func TestWorkItemService_Delete(t *testing.T) {
	repo := newMockWorkItemRepo()
	svc := newTestService(repo)

	seedItem(repo, "item-1", "Doomed", domain.StatusDone, domain.PriorityLow, time.Now())

	if err := svc.Delete("item-1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	_, err := svc.GetByID("item-1")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	if err := svc.Delete("item-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for second delete, got %v", err)
	}
}

func TestWorkItemService_List_NoFilters(t *testing.T) {
	repo := newMockWorkItemRepo()
	svc := newTestService(repo)

	base := time.Now()
	for i := 0; i < 15; i++ {
		seedItem(repo, fmt.Sprintf("item-%02d", i), fmt.Sprintf("Task %02d", i), domain.StatusTodo, domain.PriorityMedium, base.Add(time.Duration(i)*time.Minute))
	}

	page, err := svc.List(&domain.ListWorkItemsQuery{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if page.TotalCount != 15 {
		t.Errorf("expected total count 15, got %d", page.TotalCount)
	}
	if page.TotalPages != 2 {
		t.Errorf("expected 2 total pages with page size 10, got %d", page.TotalPages)
	}
	if len(page.Items) != 10 {
		t.Errorf("expected 10 items on default page, got %d", len(page.Items))
	}
}

func TestWorkItemService_List_Pagination(t *testing.T) {
	repo := newMockWorkItemRepo()
	svc := newTestService(repo)

	base := time.Now()
	for i := 0; i < 15; i++ {
		seedItem(repo, fmt.Sprintf("item-%02d", i), fmt.Sprintf("Task %02d", i), domain.StatusTodo, domain.PriorityMedium, base.Add(time.Duration(i)*time.Minute))
	}

	tests := []struct {
		name      string
		page      int
		wantItems int
		wantNext  bool
		wantPrev  bool
		wantPages int
	}{
		{name: "first page", page: 1, wantItems: 5, wantNext: true, wantPrev: false, wantPages: 3},
		{name: "middle page", page: 2, wantItems: 5, wantNext: true, wantPrev: true, wantPages: 3},
		{name: "last page", page: 3, wantItems: 5, wantNext: false, wantPrev: true, wantPages: 3},
		{name: "beyond range", page: 9, wantItems: 0, wantNext: false, wantPrev: true, wantPages: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := svc.List(&domain.ListWorkItemsQuery{Page: tt.page, PageSize: 5})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if len(page.Items) != tt.wantItems {
				t.Errorf("expected %d items, got %d", tt.wantItems, len(page.Items))
			}
			if page.TotalPages != tt.wantPages {
				t.Errorf("expected %d total pages, got %d", tt.wantPages, page.TotalPages)
			}
			if page.HasNextPage != tt.wantNext {
				t.Errorf("expected HasNextPage=%v, got %v", tt.wantNext, page.HasNextPage)
			}
			if page.HasPreviousPage != tt.wantPrev {
				t.Errorf("expected HasPreviousPage=%v, got %v", tt.wantPrev, page.HasPreviousPage)
			}
		})
	}
}

func TestWorkItemService_List_Filters(t *testing.T) {
	repo := newMockWorkItemRepo()
	svc := newTestService(repo)

	now := time.Now()
	seedItem(repo, "a", "A", domain.StatusTodo, domain.PriorityHigh, now)
	seedItem(repo, "b", "B", domain.StatusTodo, domain.PriorityLow, now)
	seedItem(repo, "c", "C", domain.StatusDone, domain.PriorityHigh, now)
	seedItem(repo, "d", "D", domain.StatusInProgress, domain.PriorityMedium, now)

	todo := domain.StatusTodo
	page, err := svc.List(&domain.ListWorkItemsQuery{Status: &todo})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if page.TotalCount != 2 {
		t.Errorf("expected 2 todo items, got %d", page.TotalCount)
	}
	for _, item := range page.Items {
		if item.Status != domain.StatusTodo {
			t.Errorf("expected only todo items, got %s", item.Status)
		}
	}

	high := domain.PriorityHigh
	page, err = svc.List(&domain.ListWorkItemsQuery{Priority: &high})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if page.TotalCount != 2 {
		t.Errorf("expected 2 high-priority items, got %d", page.TotalCount)
	}

	page, err = svc.List(&domain.ListWorkItemsQuery{Status: &todo, Priority: &high})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if page.TotalCount != 1 || page.Items[0].ID != "a" {
		t.Errorf("expected only item a for combined filters, got %d items", page.TotalCount)
	}
}

func TestWorkItemService_List_SortByTitle(t *testing.T) {
	repo := newMockWorkItemRepo()
	svc := newTestService(repo)

	now := time.Now()
	seedItem(repo, "1", "Charlie", domain.StatusTodo, domain.PriorityMedium, now)
	seedItem(repo, "2", "Alpha", domain.StatusTodo, domain.PriorityMedium, now.Add(time.Minute))
	seedItem(repo, "3", "Bravo", domain.StatusTodo, domain.PriorityMedium, now.Add(2*time.Minute))

	// title sort without an explicit direction defaults to ascending
	page, err := svc.List(&domain.ListWorkItemsQuery{SortBy: domain.SortByTitle})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	want := []string{"Alpha", "Bravo", "Charlie"}
	for i, title := range want {
		if page.Items[i].Title != title {
			t.Errorf("position %d: expected %s, got %s", i, title, page.Items[i].Title)
		}
	}

	page, err = svc.List(&domain.ListWorkItemsQuery{SortBy: domain.SortByTitle, SortDir: domain.SortDesc})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if page.Items[0].Title != "Charlie" {
		t.Errorf("expected Charlie first on descending title sort, got %s", page.Items[0].Title)
	}
}

func TestWorkItemService_List_DefaultSort(t *testing.T) {
	repo := newMockWorkItemRepo()
	svc := newTestService(repo)

	base := time.Now()
	seedItem(repo, "oldest", "Oldest", domain.StatusTodo, domain.PriorityMedium, base.Add(-2*time.Hour))
	seedItem(repo, "middle", "Middle", domain.StatusTodo, domain.PriorityMedium, base.Add(-time.Hour))
	seedItem(repo, "newest", "Newest", domain.StatusTodo, domain.PriorityMedium, base)

	// no sortBy means newest first by creation time
	page, err := svc.List(&domain.ListWorkItemsQuery{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	want := []string{"newest", "middle", "oldest"}
	for i, id := range want {
		if page.Items[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, page.Items[i].ID)
		}
	}

	page, err = svc.List(&domain.ListWorkItemsQuery{SortDir: domain.SortAsc})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if page.Items[0].ID != "oldest" {
		t.Errorf("expected oldest first on ascending sort, got %s", page.Items[0].ID)
	}
}

func TestWorkItemService_List_InvalidSort(t *testing.T) {
	repo := newMockWorkItemRepo()
	svc := newTestService(repo)

	var validationErr *ValidationError

	_, err := svc.List(&domain.ListWorkItemsQuery{SortBy: "priority"})
	if !errors.As(err, &validationErr) {
		t.Errorf("expected ValidationError for sortBy=priority, got %v", err)
	}

	_, err = svc.List(&domain.ListWorkItemsQuery{SortDir: "sideways"})
	if !errors.As(err, &validationErr) {
		t.Errorf("expected ValidationError for sortDir=sideways, got %v", err)
	}
}

func TestWorkItemService_List_PageSizeCap(t *testing.T) {
	repo := newMockWorkItemRepo()
	svc := NewWorkItemService(repo, nil, 10, 25)

	base := time.Now()
	for i := 0; i < 30; i++ {
		seedItem(repo, fmt.Sprintf("item-%02d", i), fmt.Sprintf("Task %02d", i), domain.StatusTodo, domain.PriorityMedium, base.Add(time.Duration(i)*time.Second))
	}

	page, err := svc.List(&domain.ListWorkItemsQuery{PageSize: 1000})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if page.PageSize != 25 {
		t.Errorf("expected page size capped at 25, got %d", page.PageSize)
	}
	if len(page.Items) != 25 {
		t.Errorf("expected 25 items, got %d", len(page.Items))
	}
}
