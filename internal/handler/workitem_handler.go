package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"workitem-tracker/internal/domain"
	"workitem-tracker/internal/service"
	"workitem-tracker/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

type WorkItemHandler struct {
	service  *service.WorkItemService
	validate *validator.Validate
}

func NewWorkItemHandler(service *service.WorkItemService) *WorkItemHandler {
	return &WorkItemHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *WorkItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateWorkItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	item, err := h.service.Create(&req)
	if err != nil {
		writeWorkItemError(w, err, "Failed to create work item")
		return
	}

	response.Created(w, item)
}

func (h *WorkItemHandler) List(w http.ResponseWriter, r *http.Request) {
	query, err := parseListQuery(r)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	page, err := h.service.List(query)
	if err != nil {
		writeWorkItemError(w, err, "Failed to list work items")
		return
	}

	response.Success(w, page)
}

func (h *WorkItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	itemID := mux.Vars(r)["id"]
	if itemID == "" {
		response.BadRequest(w, "Work item ID is required")
		return
	}

	item, err := h.service.GetByID(itemID)
	if err != nil {
		writeWorkItemError(w, err, "Failed to get work item")
		return
	}

	response.Success(w, item)
}

func (h *WorkItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	itemID := mux.Vars(r)["id"]
	if itemID == "" {
		response.BadRequest(w, "Work item ID is required")
		return
	}

	var req domain.UpdateWorkItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	item, err := h.service.Update(itemID, &req)
	if err != nil {
		writeWorkItemError(w, err, "Failed to update work item")
		return
	}

	response.Success(w, item)
}

func (h *WorkItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	itemID := mux.Vars(r)["id"]
	if itemID == "" {
		response.BadRequest(w, "Work item ID is required")
		return
	}

	if err := h.service.Delete(itemID); err != nil {
		writeWorkItemError(w, err, "Failed to delete work item")
		return
	}

	response.Success(w, map[string]string{"message": "Work item deleted successfully"})
}

// parseListQuery maps the query string onto a list query. Unknown enum
// values are rejected here so the service only sees typed filters.
func parseListQuery(r *http.Request) (*domain.ListWorkItemsQuery, error) {
	q := r.URL.Query()

	query := &domain.ListWorkItemsQuery{
		SortBy:  q.Get("sortBy"),
		SortDir: q.Get("sortDir"),
	}

	if raw := q.Get("status"); raw != "" {
		status := domain.Status(raw)
		if !status.Valid() {
			return nil, errors.New("invalid status: " + raw)
		}
		query.Status = &status
	}

	if raw := q.Get("priority"); raw != "" {
		priority := domain.Priority(raw)
		if !priority.Valid() {
			return nil, errors.New("invalid priority: " + raw)
		}
		query.Priority = &priority
	}

	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.New("invalid page: " + raw)
		}
		query.Page = page
	}

	if raw := q.Get("pageSize"); raw != "" {
		pageSize, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.New("invalid pageSize: " + raw)
		}
		query.PageSize = pageSize
	}

	return query, nil
}

func writeWorkItemError(w http.ResponseWriter, err error, fallback string) {
	var validationErr *service.ValidationError

	switch {
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(w, "Work item not found")
	case errors.As(err, &validationErr):
		response.BadRequest(w, validationErr.Message)
	default:
		response.InternalError(w, fallback)
	}
}
