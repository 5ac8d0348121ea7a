package models

import (
	"time"
)

// User represents an authenticated user of the platform.
type User struct {
	ID                     string     `db:"id" json:"id"`
	RoleID                 string     `db:"role_id" json:"role_id"`
	CountryID              string     `db:"country_id" json:"country_id"`
	FirstName              string     `db:"first_name" json:"first_name"`
	LastName               string     `db:"last_name" json:"last_name"`
	Email                  string     `db:"email" json:"email"`
	PasswordHash           string     `db:"password_hash" json:"-"`
	ImageURL               string     `db:"image_url" json:"image_url,omitempty"`
	EmailVerified          bool       `db:"email_verified" json:"email_verified"`
	EmailVerificationToken *string    `db:"email_verification_token" json:"-"`
	PasswordResetToken     *string    `db:"password_reset_token" json:"-"`
	PasswordResetExpires   *time.Time `db:"password_reset_expires" json:"-"`
	Status                 string     `db:"status" json:"status"`
	CreatedAt              time.Time  `db:"created_at" json:"created_at"`
}

// Role is a fixed reference entity (public | admin).
type Role struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Country is a lookup entity seeded at startup.
type Country struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// DeviceType is a coarse category for a weather station.
type DeviceType string

const (
	DeviceOutdoor    DeviceType = "outdoor"
	DeviceIndoor     DeviceType = "indoor"
	DeviceSoil       DeviceType = "soil"
	DeviceRain       DeviceType = "rain"
	DeviceController DeviceType = "controller"
)

func (t DeviceType) Valid() bool {
	switch t {
	case DeviceOutdoor, DeviceIndoor, DeviceSoil, DeviceRain, DeviceController:
		return true
	}
	return false
}

// Device is a registered weather station. It is addressed internally by ID;
// the vendor key material (MAC, application key, API key) is only used when
// talking to the vendor.
type Device struct {
	ID             string     `db:"id" json:"id"`
	UserID         string     `db:"user_id" json:"user_id"`
	Name           string     `db:"name" json:"name"`
	MAC            string     `db:"mac" json:"mac"`
	ApplicationKey string     `db:"application_key" json:"-"`
	APIKey         string     `db:"api_key" json:"-"`
	Type           DeviceType `db:"type" json:"type"`
	Status         string     `db:"status" json:"status"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// DeviceGroup is a user-defined collection of devices queried together.
type DeviceGroup struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// DeviceGroupMember is the join row between a group and a device.
// Unique per (group, device); a device may belong to multiple groups.
type DeviceGroupMember struct {
	GroupID   string    `db:"group_id" json:"group_id"`
	DeviceID  string    `db:"device_id" json:"device_id"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Chat is an append-only conversation owned by a user.
type Chat struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Title     string    `db:"title" json:"title"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SenderType distinguishes user messages from assistant replies.
type SenderType string

const (
	SenderUser SenderType = "user"
	SenderAI   SenderType = "ai"
)

// Message is one entry in a chat. Insertion order is the display order.
type Message struct {
	ID        string     `db:"id" json:"id"`
	ChatID    string     `db:"chat_id" json:"chat_id"`
	FileID    *string    `db:"file_id" json:"file_id,omitempty"`
	Sender    SenderType `db:"sender_type" json:"sendertype"`
	Content   string     `db:"content" json:"content"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// File is an uploaded artifact (PDF) stored in object storage.
type File struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	Name       string    `db:"name" json:"name"`
	ContentURL string    `db:"content_url" json:"content_url"`
	Status     string    `db:"status" json:"status"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
