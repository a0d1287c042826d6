package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"workitem-tracker/internal/domain"
	"workitem-tracker/internal/middleware"
	"workitem-tracker/internal/service"
	"workitem-tracker/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

type APITokenHandler struct {
	tokenService *service.APITokenService
	validate     *validator.Validate
}

func NewAPITokenHandler(tokenService *service.APITokenService) *APITokenHandler {
	return &APITokenHandler{
		tokenService: tokenService,
		validate:     validator.New(),
	}
}

// Login mints a token straight from credentials, for scripted clients
// that never hold a JWT.
func (h *APITokenHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.APITokenLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	tokenResp, err := h.tokenService.LoginAndCreateToken(&req)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	response.Created(w, tokenResp)
}

func (h *APITokenHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)

	var req domain.CreateAPITokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	tokenResp, err := h.tokenService.CreateToken(userID, &req)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	response.Created(w, tokenResp)
}

func (h *APITokenHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)

	tokens, err := h.tokenService.ListTokens(userID)
	if err != nil {
		response.InternalError(w, "Failed to list tokens")
		return
	}

	response.Success(w, tokens)
}

func (h *APITokenHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	tokenID := mux.Vars(r)["id"]

	token, err := h.tokenService.GetToken(userID, tokenID)
	if err != nil {
		writeTokenError(w, err)
		return
	}

	response.Success(w, token)
}

func (h *APITokenHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	tokenID := mux.Vars(r)["id"]

	if err := h.tokenService.RevokeToken(userID, tokenID); err != nil {
		writeTokenError(w, err)
		return
	}

	response.Success(w, map[string]string{"message": "Token revoked"})
}

func (h *APITokenHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	tokenID := mux.Vars(r)["id"]

	if err := h.tokenService.DeleteToken(userID, tokenID); err != nil {
		writeTokenError(w, err)
		return
	}

	response.Success(w, map[string]string{"message": "Token deleted"})
}

func writeTokenError(w http.ResponseWriter, err error) {
	if errors.Is(err, service.ErrNotFound) {
		response.NotFound(w, "Token not found")
		return
	}
	response.Forbidden(w, err.Error())
}
