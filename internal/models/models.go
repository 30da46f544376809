package models

import (
	"time"
)

// User represents an account holder and their profile.
type User struct {
	ID              int64     `db:"id" json:"id"`
	Username        string    `db:"username" json:"username"`
	Email           string    `db:"email" json:"email"`
	PasswordHash    string    `db:"password" json:"-"`
	HeaderImageURL  *string   `db:"header_image_url" json:"header_image_url"`
	ProfileImageURL *string   `db:"profile_image_url" json:"profile_image_url"`
	Name            *string   `db:"name" json:"name"`
	Surname         *string   `db:"surname" json:"surname"`
	DateOfBirth     *Date     `db:"date_of_birth" json:"date_of_birth"`
	PhoneNumber     *string   `db:"phone_number" json:"phone_number"`
	Gender          *string   `db:"gender" json:"gender"`
	Region          *string   `db:"region" json:"region"`
	Education       *string   `db:"education" json:"education"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// ProfilePatch carries a sparse profile update. Nil fields are left untouched.
type ProfilePatch struct {
	Username       *string `json:"username"`
	Email          *string `json:"email"`
	HeaderImageURL *string `json:"header_image_url"`
	Name           *string `json:"name"`
	Surname        *string `json:"surname"`
	DateOfBirth    *Date   `json:"date_of_birth"`
	PhoneNumber    *string `json:"phone_number"`
	Gender         *string `json:"gender"`
	Region         *string `json:"region"`
	Education      *string `json:"education"`
}

// ChatMessage is one turn of a conversation, from the user or the AI.
type ChatMessage struct {
	ID             int64     `db:"id" json:"id"`
	UserID         int64     `db:"user_id" json:"user_id"`
	ConversationID string    `db:"conversation_id" json:"conversation_id"`
	SessionID      string    `db:"session_id" json:"session_id"`
	Message        string    `db:"message" json:"message"`
	IsFromUser     bool      `db:"is_from_user" json:"is_from_user"`
	Timestamp      time.Time `db:"timestamp" json:"timestamp"`
	IsActive       bool      `db:"is_active" json:"is_active"`
}

// Summary is a four-field extraction from an AI reply. At most one per
// conversation is selected.
type Summary struct {
	ID             int64     `db:"id" json:"id"`
	UserID         int64     `db:"user_id" json:"user_id"`
	ConversationID string    `db:"conversation_id" json:"conversation_id"`
	SessionID      string    `db:"session_id" json:"session_id"`
	Title          string    `db:"title" json:"title"`
	Abstract       string    `db:"abstract" json:"abstract"`
	OriginalDream  string    `db:"original_dream" json:"original_dream"`
	RewrittenDream string    `db:"rewritten_dream" json:"rewritten_dream"`
	Selected       bool      `db:"selected" json:"selected"`
	Timestamp      time.Time `db:"timestamp" json:"timestamp"`
}

// DreamEntry is the durable record a user rehearses.
type DreamEntry struct {
	ID             int64     `db:"id" json:"id"`
	UserID         int64     `db:"user_id" json:"user_id"`
	Title          string    `db:"title" json:"title"`
	Abstract       string    `db:"abstract" json:"abstract"`
	OriginalDream  string    `db:"original_dream" json:"original_dream"`
	RewrittenDream string    `db:"rewritten_dream" json:"rewritten_dream"`
	Times          int       `db:"times" json:"times"`
	CreatedDate    time.Time `db:"created_date" json:"created_date"`
	SessionID      string    `db:"session_id" json:"session_id"`
	Indexed        bool      `db:"-" json:"indexed"` // embedding present
}

// PasswordResetToken is a 6-digit code mailed on forgot-password.
type PasswordResetToken struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Token     string    `db:"token" json:"-"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	IsUsed    bool      `db:"is_used" json:"is_used"`
}

// EmailVerificationToken confirms a pending email change.
type EmailVerificationToken struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	NewEmail  string    `db:"new_email" json:"new_email"`
	Token     string    `db:"token" json:"-"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	IsUsed    bool      `db:"is_used" json:"is_used"`
}
