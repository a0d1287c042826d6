package domain

import "time"

type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type WorkItem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      Status    `json:"status"`
	Priority    Priority  `json:"priority"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CreateWorkItemRequest struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority" validate:"omitempty,oneof=low medium high"`
}

type UpdateWorkItemRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Status      *Status   `json:"status" validate:"omitempty,oneof=todo in_progress done"`
	Priority    *Priority `json:"priority" validate:"omitempty,oneof=low medium high"`
}

// WorkItemFilter carries the equality predicates pushed down to the store.
type WorkItemFilter struct {
	Status   *Status
	Priority *Priority
}

const (
	SortByTitle     = "title"
	SortByCreatedAt = "created_at"

	SortAsc  = "asc"
	SortDesc = "desc"
)

type ListWorkItemsQuery struct {
	Status   *Status
	Priority *Priority
	SortBy   string
	SortDir  string
	Page     int
	PageSize int
}

func (q *ListWorkItemsQuery) Filter() *WorkItemFilter {
	return &WorkItemFilter{
		Status:   q.Status,
		Priority: q.Priority,
	}
}

type WorkItemPage struct {
	Items           []*WorkItem `json:"items"`
	TotalCount      int         `json:"total_count"`
	Page            int         `json:"page"`
	PageSize        int         `json:"page_size"`
	TotalPages      int         `json:"total_pages"`
	HasNextPage     bool        `json:"has_next_page"`
	HasPreviousPage bool        `json:"has_previous_page"`
}
