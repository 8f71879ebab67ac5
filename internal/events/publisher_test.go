package events

import (
	"context"
	"testing"
	"time"

	"github.com/princekumarofficial/ingest-service/internal/types"
	"github.com/princekumarofficial/ingest-service/internal/types/files"
)

type fakeHub struct {
	connected map[string]bool
	sent      map[string][]*types.Event
}

func newFakeHub(users ...string) *fakeHub {
	h := &fakeHub{connected: map[string]bool{}, sent: map[string][]*types.Event{}}
	for _, u := range users {
		h.connected[u] = true
	}
	return h
}

func (h *fakeHub) BroadcastToUser(userID string, e *types.Event) {
	h.sent[userID] = append(h.sent[userID], e)
}

func (h *fakeHub) IsUserConnected(userID string) bool { return h.connected[userID] }

func TestFileStored(t *testing.T) {
	hub := newFakeHub("user-42")
	p := NewEventPublisher(hub)

	p.FileStored(context.Background(), &files.StoredFile{
		ID:               "abc",
		UploaderID:       "user-42",
		OriginalFilename: "invoice.pdf",
		Category:         files.CategoryDocument,
		Size:             10,
		CreatedAt:        time.Date(2025, 3, 7, 12, 0, 0, 0, time.UTC),
	})

	got := hub.sent["user-42"]
	if len(got) != 1 || got[0].Type != types.EventFileStored {
		t.Fatalf("Expected one file.stored event, got %+v", got)
	}
	data := got[0].Data.(*types.FileStoredEvent)
	if data.FileID != "abc" || data.FileName != "invoice.pdf" || data.StoredAt != "2025-03-07T12:00:00Z" {
		t.Errorf("Unexpected payload %+v", data)
	}
}

func TestFileQuarantined(t *testing.T) {
	hub := newFakeHub("user-42")
	p := NewEventPublisher(hub)

	p.FileQuarantined(context.Background(), &files.QuarantineRecord{
		UploaderID:       "user-42",
		OriginalFilename: "payload.exe",
		Reason:           files.ReasonBlockedExtension,
	})

	got := hub.sent["user-42"]
	if len(got) != 1 || got[0].Type != types.EventFileQuarantined {
		t.Fatalf("Expected one file.quarantined event, got %+v", got)
	}
	if got[0].Data.(*types.FileQuarantinedEvent).Reason != "blocked_extension" {
		t.Errorf("Unexpected payload %+v", got[0].Data)
	}
}

func TestSkipsDisconnectedUsers(t *testing.T) {
	hub := newFakeHub()
	p := NewEventPublisher(hub)

	p.FileStored(context.Background(), &files.StoredFile{UploaderID: "user-42"})
	p.FileQuarantined(context.Background(), &files.QuarantineRecord{UploaderID: "user-42"})

	if len(hub.sent) != 0 {
		t.Errorf("Expected no events, got %v", hub.sent)
	}
}
