package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

const minimalConfig = `
env: local
minio:
  access_key_id: key
  secret_access_key: secret
auth:
  jwt_secret: 0123456789abcdef
cors:
  fallback_origin: https://app.example.com
`

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Upload.MaxFiles != 10 {
		t.Errorf("Expected max_files 10, got %d", cfg.Upload.MaxFiles)
	}
	if cfg.Upload.MaxBatchBytes != 300*1024*1024 {
		t.Errorf("Expected max_batch_bytes 300MB, got %d", cfg.Upload.MaxBatchBytes)
	}
	if cfg.Upload.DocumentURLTTL != 4*time.Hour {
		t.Errorf("Expected document URL TTL 4h, got %s", cfg.Upload.DocumentURLTTL)
	}
	if cfg.Upload.PhotoURLTTL != time.Hour {
		t.Errorf("Expected photo URL TTL 1h, got %s", cfg.Upload.PhotoURLTTL)
	}
	if cfg.MinIO.RawBucket != "uploads-raw" || cfg.MinIO.ProcessedBucket != "uploads-processed" {
		t.Errorf("Unexpected buckets: %q, %q", cfg.MinIO.RawBucket, cfg.MinIO.ProcessedBucket)
	}
	if cfg.HTTPServer.Address != "localhost:8080" {
		t.Errorf("Unexpected address: %q", cfg.HTTPServer.Address)
	}
	if len(cfg.HTTPServer.TrustedProxies) != 0 {
		t.Errorf("Expected no trusted proxies by default, got %v", cfg.HTTPServer.TrustedProxies)
	}
}

func TestLoad_TrustedProxies(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig+`
http_server:
  trusted_proxies: [10.0.0.0/8, 192.0.2.1]
`))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(cfg.HTTPServer.TrustedProxies) != 2 || cfg.HTTPServer.TrustedProxies[0] != "10.0.0.0/8" {
		t.Errorf("Unexpected trusted proxies %v", cfg.HTTPServer.TrustedProxies)
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "short jwt secret",
			body: `
env: local
minio: {access_key_id: key, secret_access_key: secret}
auth: {jwt_secret: short}
cors: {fallback_origin: https://app.example.com}
`,
		},
		{
			name: "max files above ceiling",
			body: minimalConfig + `
upload:
  max_files: 500
`,
		},
		{
			name: "signed url ttl above a week",
			body: minimalConfig + `
upload:
  document_url_ttl: 200h
`,
		},
		{
			name: "same bucket for raw and processed",
			body: `
env: local
minio: {access_key_id: key, secret_access_key: secret, raw_bucket: uploads, processed_bucket: uploads}
auth: {jwt_secret: 0123456789abcdef}
cors: {fallback_origin: https://app.example.com}
`,
		},
		{
			name: "fallback origin not a url",
			body: `
env: local
minio: {access_key_id: key, secret_access_key: secret}
auth: {jwt_secret: 0123456789abcdef}
cors: {fallback_origin: not-a-url}
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Fatal("Expected config error, got nil")
			}
		})
	}
}
