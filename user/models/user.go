package models

import "time"

// User is a registered chat nickname. Nicknames are not unique.
type User struct {
	ID        uint64    `json:"id" gorm:"primaryKey"`
	Nickname  string    `json:"nickname" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt"`
}
