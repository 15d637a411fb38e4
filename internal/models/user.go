package models

import "time"

// User represents a row in the users table.
type User struct {
	ID           int64     `json:"id"         bson:"_id"`
	Username     string    `json:"username"   bson:"username"`
	Email        string    `json:"email"      bson:"email"`
	PasswordHash string    `json:"-"          bson:"password_hash"` // never serialize
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	IsActive     bool      `json:"is_active"  bson:"is_active"`
}

// UserInfo is the public view of a user returned by the list endpoint.
type UserInfo struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	IsActive  bool      `json:"isActive"`
}

// NewUserInfo projects u onto its public fields.
func NewUserInfo(u User) UserInfo {
	return UserInfo{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		IsActive:  u.IsActive,
	}
}
