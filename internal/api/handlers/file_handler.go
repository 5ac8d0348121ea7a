package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/config"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/core"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/logs"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/models"
)

const maxUploadBytes = 20 << 20 // 20 MB

type FileHandler struct {
	dbclient     core.DbClient
	objectclient core.ObjectClient
	cfg          *config.Config
}

func NewFileHandler(dbclient core.DbClient, objectclient core.ObjectClient, cfg *config.Config) *FileHandler {
	return &FileHandler{dbclient: dbclient, objectclient: objectclient, cfg: cfg}
}

// Upload accepts a multipart PDF, stores it in object storage and records
// the file row.
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	cleanName := filepath.Base(header.Filename)
	if !strings.EqualFold(filepath.Ext(cleanName), ".pdf") {
		respondValidation(w, []string{"only PDF files are accepted"})
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		respondError(w, http.StatusBadRequest, "could not read upload")
		return
	}
	if len(data) > maxUploadBytes {
		respondValidation(w, []string{"file exceeds the 20 MB limit"})
		return
	}

	fileID := uuid.NewString()
	key := fmt.Sprintf("%s/%s/%s", userID, fileID, cleanName)

	uploadCtx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	url, err := h.objectclient.UploadFile(uploadCtx, h.cfg.BucketName, key, data, "application/pdf")
	if err != nil {
		respondError(w, http.StatusBadGateway, "upload failed")
		return
	}

	rec := &models.File{
		ID:         fileID,
		UserID:     userID,
		Name:       cleanName,
		ContentURL: url,
		Status:     "uploaded",
		CreatedAt:  time.Now(),
	}
	if err := h.dbclient.CreateFile(uploadCtx, rec); err != nil {
		logs.Logger.Errorf("file row insert failed for %s: %v", fileID, err)
		respondError(w, http.StatusInternalServerError, "failed to store file metadata")
		return
	}
	respondJSON(w, http.StatusCreated, rec)
}

func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	files, err := h.dbclient.ListFilesByUser(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if files == nil {
		files = []models.File{}
	}
	respondJSON(w, http.StatusOK, files)
}

func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}

	file, err := h.dbclient.GetFileByID(r.Context(), chi.URLParam(r, "fileId"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if file == nil || file.UserID != userID {
		respondError(w, http.StatusNotFound, "file not found")
		return
	}

	if err := h.objectclient.DeleteFile(r.Context(), h.cfg.BucketName, objectKey(file.ContentURL)); err != nil {
		logs.Logger.Warnf("object delete for file %s: %v", file.ID, err)
	}
	if err := h.dbclient.DeleteFile(r.Context(), file.ID); err != nil {
		respondError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "file deleted"})
}
