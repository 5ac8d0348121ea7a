package core

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/models"
)

// ErrDuplicate marks a unique-constraint violation, so handlers can tell
// a real conflict apart from any other insert failure.
var ErrDuplicate = errors.New("duplicate record")

// DbClient defines all persistence operations the handlers need.
// It abstracts Postgres so higher layers never depend on a specific DB.
type DbClient interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByVerificationToken(ctx context.Context, token string) (*models.User, error)
	GetUserByResetToken(ctx context.Context, token string) (*models.User, error)
	MarkEmailVerified(ctx context.Context, userID string) error
	SetVerificationToken(ctx context.Context, userID, token string) error
	SetPasswordResetToken(ctx context.Context, userID, token string, expires time.Time) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error

	CreateDevice(ctx context.Context, device *models.Device) error
	GetDeviceByID(ctx context.Context, id string) (*models.Device, error)
	ListDevicesByUser(ctx context.Context, userID string) ([]models.Device, error)
	UpdateDevice(ctx context.Context, device *models.Device) error
	DeleteDevice(ctx context.Context, id string) error

	CreateGroup(ctx context.Context, group *models.DeviceGroup) error
	GetGroupByID(ctx context.Context, id string) (*models.DeviceGroup, error)
	ListGroupsByUser(ctx context.Context, userID string) ([]models.DeviceGroup, error)
	UpdateGroup(ctx context.Context, group *models.DeviceGroup) error
	DeleteGroup(ctx context.Context, id string) error
	// ReplaceGroupMembers swaps the full membership set in one transaction
	// (delete-all, insert-new). Every device id must exist and belong to
	// ownerID; a foreign device is rejected like a missing one.
	ReplaceGroupMembers(ctx context.Context, groupID, ownerID string, deviceIDs []string) error
	ListGroupDevices(ctx context.Context, groupID string) ([]models.Device, error)

	CreateChat(ctx context.Context, chat *models.Chat) error
	GetChatByID(ctx context.Context, id string) (*models.Chat, error)
	ListChatsByUser(ctx context.Context, userID string) ([]models.Chat, error)
	DeleteChat(ctx context.Context, id string) error
	CreateMessage(ctx context.Context, message *models.Message) error
	ListMessagesByChat(ctx context.Context, chatID string) ([]models.Message, error)

	CreateFile(ctx context.Context, file *models.File) error
	GetFileByID(ctx context.Context, id string) (*models.File, error)
	ListFilesByUser(ctx context.Context, userID string) ([]models.File, error)
	DeleteFile(ctx context.Context, id string) error

	ListCountries(ctx context.Context) ([]models.Country, error)
	GetRoleByName(ctx context.Context, name string) (*models.Role, error)

	Close() error
}

// ObjectClient defines interactions with S3 or any object storage.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data []byte, contentType string) (url string, err error)
	DeleteFile(ctx context.Context, bucket, key string) error
	GetFile(ctx context.Context, bucket, key string) ([]byte, error)

	GetObjectReader(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// ChatTurn is one prior exchange forwarded to the completion API.
type ChatTurn struct {
	Role string // "user" or "ai"
	Text string
}

// LLMProvider generates an assistant reply from the system prompt, the
// conversation so far, and the new user message.
type LLMProvider interface {
	Generate(ctx context.Context, systemPrompt string, history []ChatTurn, userPrompt string) (string, error)
}

// TextExtractor pulls plain text out of an uploaded document (PDF).
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte, contentType string) (string, error)
}

// Mailer delivers transactional mail (verification, password reset).
type Mailer interface {
	Send(to, subject, htmlBody string) error
}
