package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/core"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/ecowitt"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/models"
)

// fakeDB is an in-memory core.DbClient. Maps are keyed by id; slices
// are rebuilt sorted by creation time so listing order matches the SQL
// implementation.
type fakeDB struct {
	mu        sync.Mutex
	insertErr error // injected failure for Create* calls
	users     map[string]*models.User
	devices   map[string]*models.Device
	groups    map[string]*models.DeviceGroup
	members   map[string][]string // group id -> device ids, insertion order
	chats     map[string]*models.Chat
	messages  map[string][]models.Message // chat id -> ordered messages
	files     map[string]*models.File
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		users:    map[string]*models.User{},
		devices:  map[string]*models.Device{},
		groups:   map[string]*models.DeviceGroup{},
		members:  map[string][]string{},
		chats:    map[string]*models.Chat{},
		messages: map[string][]models.Message{},
		files:    map[string]*models.File{},
	}
}

func (f *fakeDB) CreateUser(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	for _, u := range f.users {
		if u.Email == user.Email {
			return fmt.Errorf("%w: users_email_key", core.ErrDuplicate)
		}
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeDB) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeDB) GetUserByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeDB) GetUserByVerificationToken(_ context.Context, token string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.EmailVerificationToken != nil && *u.EmailVerificationToken == token {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeDB) GetUserByResetToken(_ context.Context, token string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.PasswordResetToken != nil && *u.PasswordResetToken == token {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeDB) MarkEmailVerified(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return errors.New("user not found")
	}
	u.EmailVerified = true
	u.EmailVerificationToken = nil
	return nil
}

func (f *fakeDB) SetVerificationToken(_ context.Context, userID, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return errors.New("user not found")
	}
	u.EmailVerificationToken = &token
	return nil
}

func (f *fakeDB) SetPasswordResetToken(_ context.Context, userID, token string, expires time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return errors.New("user not found")
	}
	u.PasswordResetToken = &token
	u.PasswordResetExpires = &expires
	return nil
}

func (f *fakeDB) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return errors.New("user not found")
	}
	u.PasswordHash = passwordHash
	u.PasswordResetToken = nil
	u.PasswordResetExpires = nil
	return nil
}

func (f *fakeDB) CreateDevice(_ context.Context, device *models.Device) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	for _, d := range f.devices {
		if d.UserID == device.UserID && d.MAC == device.MAC {
			return fmt.Errorf("%w: devices_user_mac_key", core.ErrDuplicate)
		}
	}
	cp := *device
	f.devices[device.ID] = &cp
	return nil
}

func (f *fakeDB) GetDeviceByID(_ context.Context, id string) (*models.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d, ok := f.devices[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeDB) ListDevicesByUser(_ context.Context, userID string) ([]models.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Device
	for _, d := range f.devices {
		if d.UserID == userID {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeDB) UpdateDevice(_ context.Context, device *models.Device) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.devices[device.ID]; !ok {
		return errors.New("device not found")
	}
	cp := *device
	f.devices[device.ID] = &cp
	return nil
}

func (f *fakeDB) DeleteDevice(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.devices[id]; !ok {
		return errors.New("device not found")
	}
	delete(f.devices, id)
	return nil
}

func (f *fakeDB) CreateGroup(_ context.Context, group *models.DeviceGroup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *group
	f.groups[group.ID] = &cp
	return nil
}

func (f *fakeDB) GetGroupByID(_ context.Context, id string) (*models.DeviceGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if g, ok := f.groups[id]; ok {
		cp := *g
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeDB) ListGroupsByUser(_ context.Context, userID string) ([]models.DeviceGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.DeviceGroup
	for _, g := range f.groups {
		if g.UserID == userID {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeDB) UpdateGroup(_ context.Context, group *models.DeviceGroup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.groups[group.ID]; !ok {
		return errors.New("group not found")
	}
	cp := *group
	f.groups[group.ID] = &cp
	return nil
}

func (f *fakeDB) DeleteGroup(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.groups[id]; !ok {
		return errors.New("group not found")
	}
	delete(f.groups, id)
	delete(f.members, id)
	return nil
}

func (f *fakeDB) ReplaceGroupMembers(_ context.Context, groupID, ownerID string, deviceIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range deviceIDs {
		d, ok := f.devices[id]
		if !ok || d.UserID != ownerID {
			return errors.New("device not found: " + id)
		}
	}
	f.members[groupID] = append([]string(nil), deviceIDs...)
	return nil
}

func (f *fakeDB) ListGroupDevices(_ context.Context, groupID string) ([]models.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Device
	for _, id := range f.members[groupID] {
		if d, ok := f.devices[id]; ok {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeDB) CreateChat(_ context.Context, chat *models.Chat) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *chat
	f.chats[chat.ID] = &cp
	return nil
}

func (f *fakeDB) GetChatByID(_ context.Context, id string) (*models.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.chats[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeDB) ListChatsByUser(_ context.Context, userID string) ([]models.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Chat
	for _, c := range f.chats {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeDB) DeleteChat(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.chats[id]; !ok {
		return errors.New("chat not found")
	}
	delete(f.chats, id)
	delete(f.messages, id)
	return nil
}

func (f *fakeDB) CreateMessage(_ context.Context, message *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.chats[message.ChatID]; !ok {
		return errors.New("chat not found")
	}
	f.messages[message.ChatID] = append(f.messages[message.ChatID], *message)
	return nil
}

func (f *fakeDB) ListMessagesByChat(_ context.Context, chatID string) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Message(nil), f.messages[chatID]...), nil
}

func (f *fakeDB) CreateFile(_ context.Context, file *models.File) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *file
	f.files[file.ID] = &cp
	return nil
}

func (f *fakeDB) GetFileByID(_ context.Context, id string) (*models.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if fl, ok := f.files[id]; ok {
		cp := *fl
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeDB) ListFilesByUser(_ context.Context, userID string) ([]models.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.File
	for _, fl := range f.files {
		if fl.UserID == userID {
			out = append(out, *fl)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeDB) DeleteFile(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.files[id]; !ok {
		return errors.New("file not found")
	}
	delete(f.files, id)
	return nil
}

func (f *fakeDB) ListCountries(_ context.Context) ([]models.Country, error) {
	return []models.Country{{ID: "c-1", Name: "Dominican Republic"}}, nil
}

func (f *fakeDB) GetRoleByName(_ context.Context, name string) (*models.Role, error) {
	return &models.Role{ID: "role-" + name, Name: name}, nil
}

func (f *fakeDB) Close() error { return nil }

// fakeObjects stores objects in a map keyed by bucket/key.
type fakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: map[string][]byte{}}
}

func (f *fakeObjects) UploadFile(_ context.Context, bucket, key string, data []byte, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[bucket+"/"+key] = append([]byte(nil), data...)
	return "https://" + bucket + ".s3.amazonaws.com/" + key, nil
}

func (f *fakeObjects) DeleteFile(_ context.Context, bucket, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, bucket+"/"+key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeObjects) GetFile(_ context.Context, bucket, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[bucket+"/"+key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return append([]byte(nil), data...), nil
}

func (f *fakeObjects) GetObjectReader(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	data, err := f.GetFile(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// fakeLLM echoes a canned answer and records what it was asked.
type fakeLLM struct {
	mu         sync.Mutex
	answer     string
	err        error
	lastPrompt string
	history    []core.ChatTurn
	lastUser   string
}

func (f *fakeLLM) Generate(_ context.Context, systemPrompt string, history []core.ChatTurn, userPrompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastPrompt = systemPrompt
	f.history = append([]core.ChatTurn(nil), history...)
	f.lastUser = userPrompt
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) ExtractText(_ context.Context, _ []byte, _ string) (string, error) {
	return f.text, f.err
}

// fakeVendor serves canned payloads keyed by MAC.
type fakeVendor struct {
	mu       sync.Mutex
	realtime map[string]map[string]any
	history  map[string]map[string]any
	info     map[string]map[string]any
	fail     map[string]bool
}

func newFakeVendor() *fakeVendor {
	return &fakeVendor{
		realtime: map[string]map[string]any{},
		history:  map[string]map[string]any{},
		info:     map[string]map[string]any{},
		fail:     map[string]bool{},
	}
}

func (f *fakeVendor) Realtime(_ context.Context, p ecowitt.RealtimeParams) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[p.MAC] {
		return nil, errors.New("vendor unavailable")
	}
	return f.realtime[p.MAC], nil
}

func (f *fakeVendor) History(_ context.Context, p ecowitt.HistoryParams) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[p.MAC] {
		return nil, errors.New("vendor unavailable")
	}
	return f.history[p.MAC], nil
}

func (f *fakeVendor) Info(_ context.Context, p ecowitt.InfoParams) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[p.MAC] {
		return nil, errors.New("vendor unavailable")
	}
	return f.info[p.MAC], nil
}

// recordingMailer captures outgoing mail instead of sending it.
type recordingMailer struct {
	mu   sync.Mutex
	sent []string // recipients in order
}

func (m *recordingMailer) Send(to, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to)
	return nil
}
