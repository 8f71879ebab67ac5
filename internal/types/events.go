package types

import "time"

// EventType represents the type of real-time event
type EventType string

const (
	EventFileStored      EventType = "file.stored"
	EventFileQuarantined EventType = "file.quarantined"
)

// Event represents a real-time event that can be sent over WebSocket
type Event struct {
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}

// FileStoredEvent tells an uploader that a file was accepted.
type FileStoredEvent struct {
	FileID           string `json:"file_id"`
	FileName         string `json:"file_name"`
	TenantID         string `json:"tenant_id,omitempty"`
	Category         string `json:"file_type"`
	MimeType         string `json:"mime_type"`
	Size             int64  `json:"size"`
	MetadataStripped bool   `json:"metadata_stripped"`
	StoredAt         string `json:"stored_at"`
}

// FileQuarantinedEvent tells an uploader that a file was rejected for
// security reasons.
type FileQuarantinedEvent struct {
	FileName      string `json:"file_name"`
	TenantID      string `json:"tenant_id,omitempty"`
	Reason        string `json:"reason"`
	Detail        string `json:"detail"`
	QuarantinedAt string `json:"quarantined_at"`
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
