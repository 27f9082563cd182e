package models

import (
	"time"

	"chat-sentiment/backend/sentiment"
)

// Message represents a chat message. Messages are immutable once stored.
type Message struct {
	ID             uint64          `json:"id" gorm:"primaryKey;autoIncrement:false"`
	AuthorID       string          `json:"authorId" gorm:"not null;index"`
	Text           string          `json:"text" gorm:"not null"`
	SentimentLabel sentiment.Label `json:"sentimentLabel" gorm:"type:varchar(16);not null"`
	CreatedAt      time.Time       `json:"createdAt" gorm:"not null"`
}
