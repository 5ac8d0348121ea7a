package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/config"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/core"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/logs"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/models"
)

const systemPrompt = "You are an agricultural assistant for a weather-station platform. " +
	"Answer questions about the user's devices, sensor data and reports. " +
	"When document content is provided, ground your answer in it."

// pdfFetchTimeout bounds the synchronous download of an attached PDF.
const pdfFetchTimeout = 30 * time.Second

type ChatHandler struct {
	dbclient     core.DbClient
	objectclient core.ObjectClient
	extractor    core.TextExtractor
	llm          core.LLMProvider
	cfg          *config.Config
}

func NewChatHandler(dbclient core.DbClient, objectclient core.ObjectClient, extractor core.TextExtractor, llm core.LLMProvider, cfg *config.Config) *ChatHandler {
	return &ChatHandler{dbclient: dbclient, objectclient: objectclient, extractor: extractor, llm: llm, cfg: cfg}
}

func (h *ChatHandler) ownedChat(w http.ResponseWriter, r *http.Request, chatID string) (*models.Chat, bool) {
	userID, _ := authedUser(w, r)
	if userID == "" {
		return nil, false
	}
	chat, err := h.dbclient.GetChatByID(r.Context(), chatID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "lookup failed")
		return nil, false
	}
	if chat == nil || chat.UserID != userID {
		respondError(w, http.StatusNotFound, "chat not found")
		return nil, false
	}
	return chat, true
}

func (h *ChatHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.Title == "" {
		req.Title = "New chat"
	}

	chat := &models.Chat{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     req.Title,
		CreatedAt: time.Now(),
	}
	if err := h.dbclient.CreateChat(r.Context(), chat); err != nil {
		respondError(w, http.StatusInternalServerError, "create failed")
		return
	}
	respondJSON(w, http.StatusCreated, chat)
}

func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	chats, err := h.dbclient.ListChatsByUser(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if chats == nil {
		chats = []models.Chat{}
	}
	respondJSON(w, http.StatusOK, chats)
}

func (h *ChatHandler) Delete(w http.ResponseWriter, r *http.Request) {
	chat, ok := h.ownedChat(w, r, chi.URLParam(r, "chatId"))
	if !ok {
		return
	}
	if err := h.dbclient.DeleteChat(r.Context(), chat.ID); err != nil {
		respondError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "chat deleted"})
}

func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	chat, ok := h.ownedChat(w, r, chi.URLParam(r, "chatId"))
	if !ok {
		return
	}
	messages, err := h.dbclient.ListMessagesByChat(r.Context(), chat.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}
	respondJSON(w, http.StatusOK, messages)
}

type messageRequest struct {
	ChatID  string  `json:"chat_id"`
	Content string  `json:"content"`
	FileID  *string `json:"file_id,omitempty"`
}

// CreateMessage appends the user's message and the assistant's reply.
// An attached file is downloaded and text-extracted synchronously; if
// extraction fails the reply is generated without document context.
func (h *ChatHandler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.ChatID == "" || req.Content == "" {
		respondValidation(w, []string{"chat_id and content are required"})
		return
	}

	chat, ok := h.ownedChat(w, r, req.ChatID)
	if !ok {
		return
	}
	ctx := r.Context()

	// History before the new message goes to the completion API.
	prior, err := h.dbclient.ListMessagesByChat(ctx, chat.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "lookup failed")
		return
	}

	userMsg := &models.Message{
		ID:        uuid.NewString(),
		ChatID:    chat.ID,
		FileID:    req.FileID,
		Sender:    models.SenderUser,
		Content:   req.Content,
		CreatedAt: time.Now(),
	}
	if err := h.dbclient.CreateMessage(ctx, userMsg); err != nil {
		respondError(w, http.StatusInternalServerError, "persist failed")
		return
	}

	prompt := systemPrompt
	if req.FileID != nil {
		if text := h.documentContext(ctx, *req.FileID, chat.UserID); text != "" {
			prompt += "\n\nAttached document content:\n" + text
		}
	}

	history := make([]core.ChatTurn, 0, len(prior))
	for _, m := range prior {
		history = append(history, core.ChatTurn{Role: string(m.Sender), Text: m.Content})
	}

	answer, err := h.llm.Generate(ctx, prompt, history, req.Content)
	if err != nil {
		respondError(w, http.StatusBadGateway, "completion failed")
		return
	}

	aiMsg := &models.Message{
		ID:        uuid.NewString(),
		ChatID:    chat.ID,
		Sender:    models.SenderAI,
		Content:   answer,
		CreatedAt: time.Now(),
	}
	if err := h.dbclient.CreateMessage(ctx, aiMsg); err != nil {
		respondError(w, http.StatusInternalServerError, "persist failed")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"message": userMsg,
		"reply":   aiMsg,
	})
}

// ReadPDF extracts the text of a stored file and returns it directly.
func (h *ChatHandler) ReadPDF(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}

	var req struct {
		FileID string `json:"file_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FileID == "" {
		respondError(w, http.StatusBadRequest, "file_id is required")
		return
	}

	file, err := h.dbclient.GetFileByID(r.Context(), req.FileID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if file == nil || file.UserID != userID {
		respondError(w, http.StatusNotFound, "file not found")
		return
	}

	text, err := h.extractFile(r.Context(), file)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "could not extract text from the document")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"file_id": file.ID, "text": text})
}

// documentContext fetches and extracts an attached PDF. Every failure
// degrades to an empty context rather than blocking the reply.
func (h *ChatHandler) documentContext(ctx context.Context, fileID, userID string) string {
	file, err := h.dbclient.GetFileByID(ctx, fileID)
	if err != nil || file == nil || file.UserID != userID {
		logs.Logger.Warnf("attached file %s unavailable", fileID)
		return ""
	}
	text, err := h.extractFile(ctx, file)
	if err != nil {
		logs.Logger.Warnf("extract attached file %s: %v", fileID, err)
		return ""
	}
	return text
}

func (h *ChatHandler) extractFile(ctx context.Context, file *models.File) (string, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, pdfFetchTimeout)
	defer cancel()

	data, err := h.objectclient.GetFile(fetchCtx, h.cfg.BucketName, objectKey(file.ContentURL))
	if err != nil {
		return "", err
	}
	return h.extractor.ExtractText(ctx, data, "application/pdf")
}

// objectKey recovers the S3 key from a stored content URL.
func objectKey(contentURL string) string {
	u, err := url.Parse(contentURL)
	if err != nil {
		return contentURL
	}
	return strings.TrimPrefix(u.Path, "/")
}
