package ingest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/princekumarofficial/ingest-service/internal/types/files"
)

type memFile struct {
	name        string
	contentType string
	data        []byte
	// size overrides len(data) when set, to fake large uploads.
	size  int64
	opens int
}

func (f *memFile) Name() string        { return f.name }
func (f *memFile) ContentType() string { return f.contentType }

func (f *memFile) Size() int64 {
	if f.size > 0 {
		return f.size
	}
	return int64(len(f.data))
}

func (f *memFile) Open() (io.ReadCloser, error) {
	f.opens++
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

type memStore struct {
	mu          sync.Mutex
	quarantined []*files.QuarantineRecord
	stored      []*files.StoredFile
	accessLogs  []*files.AccessLogEntry

	quarantineErr error
	storedErr     error
	accessLogErr  error
}

func (s *memStore) InsertQuarantine(_ context.Context, rec *files.QuarantineRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quarantineErr != nil {
		return s.quarantineErr
	}
	s.quarantined = append(s.quarantined, rec)
	return nil
}

func (s *memStore) InsertStoredFile(_ context.Context, f *files.StoredFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.storedErr != nil {
		return s.storedErr
	}
	s.stored = append(s.stored, f)
	return nil
}

func (s *memStore) InsertAccessLog(_ context.Context, e *files.AccessLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accessLogErr != nil {
		return s.accessLogErr
	}
	s.accessLogs = append(s.accessLogs, e)
	return nil
}

type signedCall struct {
	bucket string
	key    string
	ttl    time.Duration
}

type memBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	signed  []signedCall

	// failPut makes Put fail for keys for which it returns true.
	failPut func(bucket, key string) bool
	signErr error
}

func newMemBlobs() *memBlobs {
	return &memBlobs{objects: map[string][]byte{}, types: map[string]string{}}
}

func (b *memBlobs) Put(_ context.Context, bucket, key string, data []byte, contentType string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failPut != nil && b.failPut(bucket, key) {
		return errors.New("storage unavailable")
	}
	b.objects[bucket+"/"+key] = append([]byte(nil), data...)
	b.types[bucket+"/"+key] = contentType
	return nil
}

func (b *memBlobs) Remove(_ context.Context, bucket, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, bucket+"/"+key)
	return nil
}

func (b *memBlobs) SignedURL(_ context.Context, bucket, key string, ttl time.Duration) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.signErr != nil {
		return "", b.signErr
	}
	b.signed = append(b.signed, signedCall{bucket, key, ttl})
	return "https://blobs.test/" + bucket + "/" + key + "?X-Amz-Expires=" + ttl.String(), nil
}

type recordingObserver struct {
	stored      []*files.StoredFile
	quarantined []*files.QuarantineRecord
}

func (o *recordingObserver) FileStored(_ context.Context, f *files.StoredFile) {
	o.stored = append(o.stored, f)
}

func (o *recordingObserver) FileQuarantined(_ context.Context, r *files.QuarantineRecord) {
	o.quarantined = append(o.quarantined, r)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var (
	pdfBytes = append([]byte("%PDF-1.7\n"), bytes.Repeat([]byte("0"), 64)...)
	pngBytes = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R', 0, 0, 0, 1}
	mp3Bytes = append([]byte("ID3\x04\x00\x00"), bytes.Repeat([]byte{0x00}, 128)...)
	jpgBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0x10, 'J', 'F', 'I', 'F', 0}
)
