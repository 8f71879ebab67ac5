package events

import (
	"context"
	"time"

	"github.com/princekumarofficial/ingest-service/internal/types"
	"github.com/princekumarofficial/ingest-service/internal/types/files"
)

// WebSocketHub interface for the WebSocket hub
type WebSocketHub interface {
	BroadcastToUser(userID string, event *types.Event)
	IsUserConnected(userID string) bool
}

// EventPublisher pushes upload outcomes to the uploader's open websocket
// connections. It satisfies ingest.Observer.
type EventPublisher struct {
	hub WebSocketHub
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(hub WebSocketHub) *EventPublisher {
	return &EventPublisher{
		hub: hub,
	}
}

func (p *EventPublisher) FileStored(_ context.Context, f *files.StoredFile) {
	if !p.hub.IsUserConnected(f.UploaderID) {
		return
	}

	p.hub.BroadcastToUser(f.UploaderID, types.NewEvent(types.EventFileStored, &types.FileStoredEvent{
		FileID:           f.ID,
		FileName:         f.OriginalFilename,
		TenantID:         f.TenantID,
		Category:         string(f.Category),
		MimeType:         f.MimeType,
		Size:             f.Size,
		MetadataStripped: f.MetadataStripped,
		StoredAt:         f.CreatedAt.UTC().Format(time.RFC3339),
	}))
}

func (p *EventPublisher) FileQuarantined(_ context.Context, rec *files.QuarantineRecord) {
	if !p.hub.IsUserConnected(rec.UploaderID) {
		return
	}

	p.hub.BroadcastToUser(rec.UploaderID, types.NewEvent(types.EventFileQuarantined, &types.FileQuarantinedEvent{
		FileName:      rec.OriginalFilename,
		TenantID:      rec.TenantID,
		Reason:        string(rec.Reason),
		Detail:        rec.Detail,
		QuarantinedAt: rec.CreatedAt.UTC().Format(time.RFC3339),
	}))
}
