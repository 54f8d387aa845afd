package models

import "time"

type Sender string

const (
	SenderUser   Sender = "user"
	SenderAI     Sender = "ai"
	SenderSystem Sender = "system"
)

// ChatMessage is immutable once appended to a session history.
type ChatMessage struct {
	ID             string         `bson:"id" json:"id"`
	Sender         Sender         `bson:"sender" json:"sender"`
	Content        string         `bson:"content" json:"content"`
	Timestamp      time.Time      `bson:"timestamp" json:"timestamp"`
	AdditionalData map[string]any `bson:"additional_data,omitempty" json:"additional_data,omitempty"`
}
