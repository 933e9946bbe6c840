package handler

import (
	"encoding/json"
	"net/http"

	"agrimarket/internal/api/middleware"
	"agrimarket/internal/app/service"
	"agrimarket/internal/common"

	"github.com/go-chi/chi/v5"
)

type CropHandler struct {
	cropService     *service.CropService
	analysisService *service.AnalysisService
}

func NewCropHandler(cs *service.CropService, as *service.AnalysisService) *CropHandler {
	return &CropHandler{cropService: cs, analysisService: as}
}

func (h *CropHandler) RegisterRoutes(r chi.Router) {
	r.Get("/marketplace", h.listMarketplaceCrops) // GET /api/v1/crops/marketplace?type=vegetable
	r.Get("/{cropID}", h.getCrop)                 // GET /api/v1/crops/{id}
	r.Post("/{cropID}/views", h.incrementViews)   // POST /api/v1/crops/{id}/views

	r.Group(func(farmerRouter chi.Router) {
		farmerRouter.Use(middleware.Authenticator)
		farmerRouter.Use(middleware.FarmerOnly)
		farmerRouter.Post("/", h.createCrop)
		farmerRouter.Get("/mine", h.listFarmerCrops)
		farmerRouter.Patch("/{cropID}", h.updateCrop)
		farmerRouter.Delete("/{cropID}", h.deleteCrop)
		farmerRouter.Post("/{cropID}/analysis", h.requestAnalysis)
		farmerRouter.Get("/analysis/{jobID}", h.getAnalysisJob)
	})
}

func (h *CropHandler) createCrop(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.CreateCropRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	crop, err := h.cropService.CreateCrop(r.Context(), userID, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, crop)
}

func (h *CropHandler) listFarmerCrops(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	crops, err := h.cropService.GetFarmerCrops(r.Context(), userID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, crops)
}

func (h *CropHandler) listMarketplaceCrops(w http.ResponseWriter, r *http.Request) {
	cropType := r.URL.Query().Get("type")

	crops, err := h.cropService.GetMarketplaceCrops(r.Context(), cropType)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, crops)
}

func (h *CropHandler) getCrop(w http.ResponseWriter, r *http.Request) {
	cropID := chi.URLParam(r, "cropID")

	crop, err := h.cropService.GetCrop(r.Context(), cropID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, crop)
}

func (h *CropHandler) updateCrop(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	cropID := chi.URLParam(r, "cropID")

	var req service.UpdateCropRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	crop, err := h.cropService.UpdateCrop(r.Context(), userID, cropID, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, crop)
}

func (h *CropHandler) deleteCrop(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	cropID := chi.URLParam(r, "cropID")

	if err := h.cropService.DeleteCrop(r.Context(), userID, cropID); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CropHandler) incrementViews(w http.ResponseWriter, r *http.Request) {
	cropID := chi.URLParam(r, "cropID")

	// Anonymous-safe; a missing crop is not an error for view tracking.
	if err := h.cropService.IncrementViews(r.Context(), cropID); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CropHandler) requestAnalysis(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	cropID := chi.URLParam(r, "cropID")

	job, err := h.analysisService.RequestAnalysis(r.Context(), userID, cropID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusAccepted, job)
}

func (h *CropHandler) getAnalysisJob(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	jobID := chi.URLParam(r, "jobID")

	job, err := h.analysisService.GetAnalysisJob(r.Context(), userID, jobID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, job)
}
