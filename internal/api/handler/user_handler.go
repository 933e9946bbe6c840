package handler

import (
	"encoding/json"
	"net/http"

	"agrimarket/internal/api/middleware"
	"agrimarket/internal/app/service"
	"agrimarket/internal/common"
	"agrimarket/internal/common/security"
	"agrimarket/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)
	r.Get("/me", h.me)
	r.Post("/role", h.selectRole)
}

func (h *UserHandler) me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	user, err := h.userService.GetCurrentUser(r.Context(), userID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, user)
}

type selectRoleResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

func (h *UserHandler) selectRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.SelectRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	user, err := h.userService.SelectRole(r.Context(), userID, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}

	// The role lives in the JWT claims, so hand back a token carrying the
	// new role; the old one would still gate the client as "user".
	token, err := security.GenerateToken(user.ID, user.Role)
	if err != nil {
		common.RespondWithError(w, http.StatusInternalServerError, "Failed to refresh token: "+err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, selectRoleResponse{User: user, Token: token})
}
