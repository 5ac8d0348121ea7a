package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/config"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/core"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/models"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/report"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/timerange"
)

type ReportHandler struct {
	dbclient     core.DbClient
	objectclient core.ObjectClient
	generator    *report.Generator
	cfg          *config.Config
}

func NewReportHandler(dbclient core.DbClient, objectclient core.ObjectClient, generator *report.Generator, cfg *config.Config) *ReportHandler {
	return &ReportHandler{dbclient: dbclient, objectclient: objectclient, generator: generator, cfg: cfg}
}

type reportRequest struct {
	DeviceID       string              `json:"device_id,omitempty"`
	GroupID        string              `json:"group_id,omitempty"`
	RangeType      timerange.RangeType `json:"range_type,omitempty"`
	IncludeWeather bool                `json:"include_weather"`
	Format         string              `json:"format,omitempty"` // json (default) | pdf
}

func (req *reportRequest) options() report.Options {
	return report.Options{RangeType: req.RangeType, IncludeWeather: req.IncludeWeather}
}

// Device generates a single-device report, optionally rendered to PDF
// and stored alongside the user's uploaded files.
func (h *ReportHandler) Device(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}

	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DeviceID == "" {
		respondError(w, http.StatusBadRequest, "device_id is required")
		return
	}

	device, err := h.dbclient.GetDeviceByID(r.Context(), req.DeviceID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if device == nil || device.UserID != userID {
		respondError(w, http.StatusNotFound, "device not found")
		return
	}

	rep, err := h.generator.Device(r.Context(), *device, req.options())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Format != "pdf" {
		respondJSON(w, http.StatusOK, rep)
		return
	}

	data, err := report.RenderDevicePDF(rep)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "pdf rendering failed")
		return
	}
	h.respondPDF(w, r.Context(), userID, fmt.Sprintf("device-report-%s.pdf", device.ID), data, rep)
}

// Group generates a report over every member device.
func (h *ReportHandler) Group(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}

	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GroupID == "" {
		respondError(w, http.StatusBadRequest, "group_id is required")
		return
	}

	group, err := h.dbclient.GetGroupByID(r.Context(), req.GroupID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if group == nil || group.UserID != userID {
		respondError(w, http.StatusNotFound, "group not found")
		return
	}

	devices, err := h.dbclient.ListGroupDevices(r.Context(), group.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "lookup failed")
		return
	}

	rep := h.generator.Group(r.Context(), *group, devices, req.options())

	if req.Format != "pdf" {
		respondJSON(w, http.StatusOK, rep)
		return
	}

	data, err := report.RenderGroupPDF(rep)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "pdf rendering failed")
		return
	}
	h.respondPDF(w, r.Context(), userID, fmt.Sprintf("group-report-%s.pdf", group.ID), data, rep)
}

// respondPDF uploads the rendered document, records a file row and
// returns both the report and the stored file.
func (h *ReportHandler) respondPDF(w http.ResponseWriter, ctx context.Context, userID, name string, data []byte, rep any) {
	fileID := uuid.NewString()
	key := fmt.Sprintf("%s/%s/%s", userID, fileID, name)

	uploadCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	url, err := h.objectclient.UploadFile(uploadCtx, h.cfg.BucketName, key, data, "application/pdf")
	if err != nil {
		respondError(w, http.StatusBadGateway, "report upload failed")
		return
	}

	rec := &models.File{
		ID:         fileID,
		UserID:     userID,
		Name:       name,
		ContentURL: url,
		Status:     "generated",
		CreatedAt:  time.Now(),
	}
	if err := h.dbclient.CreateFile(uploadCtx, rec); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to store report metadata")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{"report": rep, "file": rec})
}
