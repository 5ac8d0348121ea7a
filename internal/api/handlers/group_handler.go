package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/aggregate"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/core"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/models"
)

type GroupHandler struct {
	dbclient   core.DbClient
	aggregator *aggregate.Aggregator
}

func NewGroupHandler(dbclient core.DbClient, vendor aggregate.Vendor) *GroupHandler {
	return &GroupHandler{dbclient: dbclient, aggregator: aggregate.New(vendor)}
}

func (h *GroupHandler) ownedGroup(w http.ResponseWriter, r *http.Request) (*models.DeviceGroup, bool) {
	userID, _ := authedUser(w, r)
	if userID == "" {
		return nil, false
	}
	group, err := h.dbclient.GetGroupByID(r.Context(), chi.URLParam(r, "groupId"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "lookup failed")
		return nil, false
	}
	if group == nil || group.UserID != userID {
		respondError(w, http.StatusNotFound, "group not found")
		return nil, false
	}
	return group, true
}

// Description and DeviceIDs distinguish absent from empty: nil leaves the
// current value alone, an empty value clears it.
type groupRequest struct {
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	DeviceIDs   []string `json:"device_ids"`
}

func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}

	var req groupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.Name == "" {
		respondValidation(w, []string{"name is required"})
		return
	}

	group := &models.DeviceGroup{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      req.Name,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if req.Description != nil {
		group.Description = *req.Description
	}
	if err := h.dbclient.CreateGroup(r.Context(), group); err != nil {
		respondError(w, http.StatusInternalServerError, "create failed")
		return
	}

	if len(req.DeviceIDs) > 0 {
		if err := h.dbclient.ReplaceGroupMembers(r.Context(), group.ID, userID, req.DeviceIDs); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	respondJSON(w, http.StatusCreated, group)
}

func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	groups, err := h.dbclient.ListGroupsByUser(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if groups == nil {
		groups = []models.DeviceGroup{}
	}
	respondJSON(w, http.StatusOK, groups)
}

func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	group, ok := h.ownedGroup(w, r)
	if !ok {
		return
	}
	devices, err := h.dbclient.ListGroupDevices(r.Context(), group.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"group": group, "devices": devices})
}

// Update edits the group row and, when device_ids is present, atomically
// replaces the full membership set.
func (h *GroupHandler) Update(w http.ResponseWriter, r *http.Request) {
	group, ok := h.ownedGroup(w, r)
	if !ok {
		return
	}

	var req groupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}

	if req.Name != "" {
		group.Name = req.Name
	}
	if req.Description != nil {
		group.Description = *req.Description
	}
	if err := h.dbclient.UpdateGroup(r.Context(), group); err != nil {
		respondError(w, http.StatusInternalServerError, "update failed")
		return
	}

	if req.DeviceIDs != nil {
		if err := h.dbclient.ReplaceGroupMembers(r.Context(), group.ID, group.UserID, req.DeviceIDs); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	respondJSON(w, http.StatusOK, group)
}

func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	group, ok := h.ownedGroup(w, r)
	if !ok {
		return
	}
	if err := h.dbclient.DeleteGroup(r.Context(), group.ID); err != nil {
		respondError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "group deleted"})
}

// Realtime fans the snapshot call out over every member device. One
// entry per member; failures are marked, not fatal.
func (h *GroupHandler) Realtime(w http.ResponseWriter, r *http.Request) {
	group, ok := h.ownedGroup(w, r)
	if !ok {
		return
	}
	devices, err := h.dbclient.ListGroupDevices(r.Context(), group.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"group_id": group.ID,
		"devices":  h.aggregator.Realtime(r.Context(), devices),
	})
}

func (h *GroupHandler) History(w http.ResponseWriter, r *http.Request) {
	group, ok := h.ownedGroup(w, r)
	if !ok {
		return
	}
	window, ok := resolveRange(w, r)
	if !ok {
		return
	}
	devices, err := h.dbclient.ListGroupDevices(r.Context(), group.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"group_id": group.ID,
		"range": map[string]string{
			"description": window.Description,
			"start":       window.Start.UTC().Format(time.RFC3339),
			"end":         window.End.UTC().Format(time.RFC3339),
			"cycle":       string(window.Cycle),
		},
		"devices": h.aggregator.History(r.Context(), devices, window),
	})
}
