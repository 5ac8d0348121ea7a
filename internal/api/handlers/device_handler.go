package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/aggregate"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/core"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/ecowitt"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/models"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/timerange"
)

type DeviceHandler struct {
	dbclient   core.DbClient
	vendor     aggregate.Vendor
	aggregator *aggregate.Aggregator
}

func NewDeviceHandler(dbclient core.DbClient, vendor aggregate.Vendor) *DeviceHandler {
	return &DeviceHandler{
		dbclient:   dbclient,
		vendor:     vendor,
		aggregator: aggregate.New(vendor),
	}
}

// ownedDevice loads a device and checks it belongs to the caller.
// Missing and foreign devices are indistinguishable to the client.
func (h *DeviceHandler) ownedDevice(w http.ResponseWriter, r *http.Request) (*models.Device, bool) {
	userID, _ := authedUser(w, r)
	if userID == "" {
		return nil, false
	}
	device, err := h.dbclient.GetDeviceByID(r.Context(), chi.URLParam(r, "deviceId"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "lookup failed")
		return nil, false
	}
	if device == nil || device.UserID != userID {
		respondError(w, http.StatusNotFound, "device not found")
		return nil, false
	}
	return device, true
}

type deviceRequest struct {
	Name           string            `json:"name"`
	MAC            string            `json:"mac"`
	ApplicationKey string            `json:"application_key"`
	APIKey         string            `json:"api_key"`
	Type           models.DeviceType `json:"type"`
}

func (req *deviceRequest) validate() []string {
	var problems []string
	if req.Name == "" {
		problems = append(problems, "name is required")
	}
	if !ecowitt.ValidMAC(req.MAC) {
		problems = append(problems, "mac must match the format FF:FF:FF:FF:FF:FF")
	}
	if req.ApplicationKey == "" {
		problems = append(problems, "application_key is required")
	}
	if req.APIKey == "" {
		problems = append(problems, "api_key is required")
	}
	if !req.Type.Valid() {
		problems = append(problems, "type must be one of outdoor, indoor, soil, rain, controller")
	}
	return problems
}

func (h *DeviceHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}

	var req deviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if problems := req.validate(); len(problems) > 0 {
		respondValidation(w, problems)
		return
	}

	device := &models.Device{
		ID:             uuid.NewString(),
		UserID:         userID,
		Name:           req.Name,
		MAC:            req.MAC,
		ApplicationKey: req.ApplicationKey,
		APIKey:         req.APIKey,
		Type:           req.Type,
		Status:         "active",
		CreatedAt:      time.Now(),
	}
	if err := h.dbclient.CreateDevice(r.Context(), device); err != nil {
		if errors.Is(err, core.ErrDuplicate) {
			respondError(w, http.StatusConflict, "device with this MAC already exists")
			return
		}
		respondError(w, http.StatusInternalServerError, "could not create device")
		return
	}
	respondJSON(w, http.StatusCreated, device)
}

func (h *DeviceHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	devices, err := h.dbclient.ListDevicesByUser(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if devices == nil {
		devices = []models.Device{}
	}
	respondJSON(w, http.StatusOK, devices)
}

func (h *DeviceHandler) Get(w http.ResponseWriter, r *http.Request) {
	device, ok := h.ownedDevice(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, device)
}

func (h *DeviceHandler) Update(w http.ResponseWriter, r *http.Request) {
	device, ok := h.ownedDevice(w, r)
	if !ok {
		return
	}

	var req deviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if problems := req.validate(); len(problems) > 0 {
		respondValidation(w, problems)
		return
	}

	device.Name = req.Name
	device.MAC = req.MAC
	device.ApplicationKey = req.ApplicationKey
	device.APIKey = req.APIKey
	device.Type = req.Type
	if err := h.dbclient.UpdateDevice(r.Context(), device); err != nil {
		respondError(w, http.StatusInternalServerError, "update failed")
		return
	}
	respondJSON(w, http.StatusOK, device)
}

func (h *DeviceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	device, ok := h.ownedDevice(w, r)
	if !ok {
		return
	}
	if err := h.dbclient.DeleteDevice(r.Context(), device.ID); err != nil {
		respondError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "device deleted"})
}

// Realtime proxies the vendor snapshot for one device. The response
// envelope is keyed by the internal device id, never by vendor key
// material.
func (h *DeviceHandler) Realtime(w http.ResponseWriter, r *http.Request) {
	device, ok := h.ownedDevice(w, r)
	if !ok {
		return
	}

	results := h.aggregator.Realtime(r.Context(), []models.Device{*device})
	res := results[device.ID]
	if res.Error != "" {
		respondError(w, http.StatusBadGateway, "vendor call failed: "+res.Error)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"device_id":   res.DeviceID,
		"device_name": res.DeviceName,
		"data":        res.Data,
		"readings":    aggregate.Normalize(res.Data),
	})
}

func (h *DeviceHandler) History(w http.ResponseWriter, r *http.Request) {
	device, ok := h.ownedDevice(w, r)
	if !ok {
		return
	}

	window, ok := resolveRange(w, r)
	if !ok {
		return
	}

	results := h.aggregator.History(r.Context(), []models.Device{*device}, window)
	res := results[device.ID]
	if res.Error != "" {
		respondError(w, http.StatusBadGateway, "vendor call failed: "+res.Error)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"device_id":   res.DeviceID,
		"device_name": res.DeviceName,
		"range": map[string]string{
			"description": window.Description,
			"start":       window.Start.UTC().Format(time.RFC3339),
			"end":         window.End.UTC().Format(time.RFC3339),
			"cycle":       string(window.Cycle),
		},
		"data": res.Data,
	})
}

func (h *DeviceHandler) Info(w http.ResponseWriter, r *http.Request) {
	device, ok := h.ownedDevice(w, r)
	if !ok {
		return
	}

	info, err := h.vendor.Info(r.Context(), ecowitt.InfoParams{
		ApplicationKey: device.ApplicationKey,
		APIKey:         device.APIKey,
		MAC:            device.MAC,
	})
	if err != nil {
		respondError(w, http.StatusBadGateway, "vendor call failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"device_id":   device.ID,
		"device_name": device.Name,
		"info":        info,
	})
}

type compareRequest struct {
	DeviceIDs []string            `json:"device_ids"`
	RangeType timerange.RangeType `json:"range_type"`
}

// CompareRealtime fans a snapshot call out over an explicit device list.
func (h *DeviceHandler) CompareRealtime(w http.ResponseWriter, r *http.Request) {
	devices, ok := h.compareDevices(w, r, nil)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, h.aggregator.Realtime(r.Context(), devices))
}

// CompareHistory fans a history call out over an explicit device list.
func (h *DeviceHandler) CompareHistory(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	devices, ok := h.compareDevices(w, r, &req)
	if !ok {
		return
	}

	window, err := timerange.Resolve(req.RangeType, time.Now())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, h.aggregator.History(r.Context(), devices, window))
}

// compareDevices decodes the request (into req when given, so callers can
// read extra fields) and resolves every referenced device, enforcing
// ownership.
func (h *DeviceHandler) compareDevices(w http.ResponseWriter, r *http.Request, req *compareRequest) ([]models.Device, bool) {
	userID, ok := authedUser(w, r)
	if !ok {
		return nil, false
	}

	if req == nil {
		req = &compareRequest{}
	}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return nil, false
	}
	if len(req.DeviceIDs) == 0 {
		respondValidation(w, []string{"device_ids must not be empty"})
		return nil, false
	}

	devices := make([]models.Device, 0, len(req.DeviceIDs))
	for _, id := range req.DeviceIDs {
		device, err := h.dbclient.GetDeviceByID(r.Context(), id)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "lookup failed")
			return nil, false
		}
		if device == nil || device.UserID != userID {
			respondError(w, http.StatusNotFound, "device not found: "+id)
			return nil, false
		}
		devices = append(devices, *device)
	}
	return devices, true
}
