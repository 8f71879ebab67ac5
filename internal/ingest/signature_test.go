package ingest

import (
	"testing"

	"github.com/princekumarofficial/ingest-service/internal/types/files"
)

func TestVerifySignature_Accepts(t *testing.T) {
	table := DocumentPolicies()

	tests := []struct {
		ext  string
		data []byte
	}{
		{"pdf", pdfBytes},
		{"docx", []byte("PK\x03\x04\x14\x00\x06\x00")},
		{"zip", []byte("PK\x05\x06\x00\x00\x00\x00")},
		{"rtf", []byte(`{\rtf1\ansi`)},
		{"jpg", jpgBytes},
		{"png", pngBytes},
		{"tif", []byte("II*\x00\x08\x00")},
		{"tiff", []byte("MM\x00*\x00\x00")},
		{"mp3", mp3Bytes},
		{"mp3", []byte{0xFF, 0xFB, 0x90, 0x00}},
		{"mp3", []byte{0xFF, 0xF3, 0x90, 0x00}},
		{"wav", []byte("RIFF\x24\x00\x00\x00WAVE")},
		{"mp4", []byte("\x00\x00\x00\x18ftypmp42")},
		{"txt", []byte("anything at all")},
		{"heic", []byte("no signature registered")},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			p, ok := table.Lookup(tt.ext)
			if !ok {
				t.Fatalf("No policy for %s", tt.ext)
			}
			if rej := VerifySignature(p, tt.data); rej != nil {
				t.Fatalf("Expected signature match, got %+v", rej)
			}
		})
	}
}

func TestVerifySignature_Mismatch(t *testing.T) {
	p, _ := DocumentPolicies().Lookup("jpg")

	rej := VerifySignature(p, pngBytes)
	if rej == nil {
		t.Fatal("Expected mismatch for PNG bytes under .jpg")
	}
	if rej.Reason != files.ReasonMagicBytesMismatch {
		t.Errorf("Unexpected reason %q", rej.Reason)
	}
	if got := len(rej.LeadingBytes); got != 2*sampleSize {
		t.Errorf("Expected %d hex chars (16 bytes), got %d", 2*sampleSize, got)
	}
	if rej.LeadingBytes[:8] != "89504e47" {
		t.Errorf("Unexpected sample %s", rej.LeadingBytes)
	}
}

func TestVerifySignature_ShortInput(t *testing.T) {
	p, _ := DocumentPolicies().Lookup("mp4")
	if rej := VerifySignature(p, []byte("ftyp")); rej == nil {
		t.Fatal("Expected mismatch when data is shorter than the signature offset")
	}
}

func TestLeadingBytesHex(t *testing.T) {
	if got := LeadingBytesHex([]byte{0xAB, 0xCD}); got != "abcd" {
		t.Errorf("Unexpected hex %q", got)
	}
	if got := LeadingBytesHex(make([]byte, 100)); len(got) != 32 {
		t.Errorf("Expected 32 hex chars, got %d", len(got))
	}
}
