package models

import "time"

// UserSession is cached in Redis and keyed by (user, session). It is a
// side-lookup rebuilt on login, never a source of truth.
type UserSession struct {
	UserID       int64     `json:"user_id"`
	SessionID    string    `json:"session_id"`
	Phone        string    `json:"phone"`
	CreatedAt    time.Time `json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`
}
