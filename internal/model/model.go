// Package model contains domain entities shared across layers.
// I keep it lean: persistence mappings live next to the stores, not here.
package model

import "time"

// User is a registered EduTrack account as exposed by the API.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}
