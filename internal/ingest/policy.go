package ingest

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/princekumarofficial/ingest-service/internal/types/files"
)

const mb = 1024 * 1024

// Signature is a magic byte sequence expected at Offset from the start of
// the file.
type Signature struct {
	Offset int
	Bytes  []byte
}

// Matches reports whether data carries the signature.
func (s Signature) Matches(data []byte) bool {
	if len(data) < s.Offset+len(s.Bytes) {
		return false
	}
	return bytes.Equal(data[s.Offset:s.Offset+len(s.Bytes)], s.Bytes)
}

func sig(b ...byte) Signature { return Signature{Bytes: b} }

// TypePolicy is the acceptance rule for a single extension.
type TypePolicy struct {
	Extension        string
	Category         files.Category
	MaxSizeBytes     int64
	AllowedMimeTypes []string
	// Signatures is empty for formats without a reliable magic number.
	Signatures []Signature
	// Scan enables the heuristic content scan.
	Scan bool
}

// AllowsMIME reports whether mimeType is one of the policy's MIME types.
func (p TypePolicy) AllowsMIME(mimeType string) bool {
	for _, allowed := range p.AllowedMimeTypes {
		if allowed == mimeType {
			return true
		}
	}
	return false
}

// CanonicalMIME is the MIME type recorded when the declared one is not
// trusted.
func (p TypePolicy) CanonicalMIME() string {
	if len(p.AllowedMimeTypes) == 0 {
		return octetStream
	}
	return p.AllowedMimeTypes[0]
}

// PolicyTable maps lowercase extensions to their policies. It is built once
// and never mutated afterwards.
type PolicyTable struct {
	policies   map[string]TypePolicy
	strictMIME bool
}

// NewPolicyTable builds a table. Each extension may appear only once.
// With strictMIME set, a declared MIME type outside the policy is a hard
// failure instead of a logged warning.
func NewPolicyTable(strictMIME bool, policies ...TypePolicy) (*PolicyTable, error) {
	t := &PolicyTable{
		policies:   make(map[string]TypePolicy, len(policies)),
		strictMIME: strictMIME,
	}
	for _, p := range policies {
		if p.Extension == "" {
			return nil, fmt.Errorf("policy without extension")
		}
		if _, dup := t.policies[p.Extension]; dup {
			return nil, fmt.Errorf("duplicate policy for extension %q", p.Extension)
		}
		if p.MaxSizeBytes <= 0 {
			return nil, fmt.Errorf("policy %q: max size must be positive", p.Extension)
		}
		p.AllowedMimeTypes = append([]string(nil), p.AllowedMimeTypes...)
		p.Signatures = append([]Signature(nil), p.Signatures...)
		t.policies[p.Extension] = p
	}
	return t, nil
}

func mustPolicyTable(strictMIME bool, policies ...TypePolicy) *PolicyTable {
	t, err := NewPolicyTable(strictMIME, policies...)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the policy registered for ext.
func (t *PolicyTable) Lookup(ext string) (TypePolicy, bool) {
	p, ok := t.policies[ext]
	return p, ok
}

// StrictMIME reports whether declared MIME types are enforced.
func (t *PolicyTable) StrictMIME() bool { return t.strictMIME }

// Extensions returns the accepted extensions in sorted order.
func (t *PolicyTable) Extensions() []string {
	exts := make([]string, 0, len(t.policies))
	for ext := range t.policies {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

var (
	sigPDF  = sig('%', 'P', 'D', 'F')
	sigZIP  = []Signature{sig('P', 'K', 0x03, 0x04), sig('P', 'K', 0x05, 0x06), sig('P', 'K', 0x07, 0x08)}
	sigRTF  = sig('{', '\\', 'r', 't', 'f')
	sigJPEG = sig(0xFF, 0xD8, 0xFF)
	sigPNG  = sig(0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A)
	sigTIFF = []Signature{sig('I', 'I', 0x2A, 0x00), sig('M', 'M', 0x00, 0x2A)}
	sigMP3  = []Signature{sig('I', 'D', '3'), sig(0xFF, 0xFB), sig(0xFF, 0xF3), sig(0xFF, 0xF2)}
	sigWAV  = sig('R', 'I', 'F', 'F')
	sigFtyp = Signature{Offset: 4, Bytes: []byte("ftyp")}
)

func zipBased(ext, mime string, limit int64) TypePolicy {
	return TypePolicy{
		Extension:        ext,
		Category:         files.CategoryDocument,
		MaxSizeBytes:     limit,
		AllowedMimeTypes: []string{mime, "application/zip"},
		Signatures:       sigZIP,
		Scan:             true,
	}
}

// DocumentPolicies is the table for the general document pipeline.
func DocumentPolicies() *PolicyTable {
	return mustPolicyTable(false,
		TypePolicy{Extension: "pdf", Category: files.CategoryDocument, MaxSizeBytes: 25 * mb,
			AllowedMimeTypes: []string{"application/pdf"}, Signatures: []Signature{sigPDF}, Scan: true},
		zipBased("docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", 25*mb),
		zipBased("xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", 25*mb),
		zipBased("pptx", "application/vnd.openxmlformats-officedocument.presentationml.presentation", 25*mb),
		TypePolicy{Extension: "txt", Category: files.CategoryDocument, MaxSizeBytes: 25 * mb,
			AllowedMimeTypes: []string{"text/plain"}, Scan: true},
		TypePolicy{Extension: "rtf", Category: files.CategoryDocument, MaxSizeBytes: 25 * mb,
			AllowedMimeTypes: []string{"application/rtf", "text/rtf"}, Signatures: []Signature{sigRTF}, Scan: true},
		TypePolicy{Extension: "csv", Category: files.CategoryData, MaxSizeBytes: 50 * mb,
			AllowedMimeTypes: []string{"text/csv", "application/vnd.ms-excel", "text/plain"}, Scan: true},
		TypePolicy{Extension: "json", Category: files.CategoryData, MaxSizeBytes: 10 * mb,
			AllowedMimeTypes: []string{"application/json", "text/json"}, Scan: true},
		TypePolicy{Extension: "xml", Category: files.CategoryData, MaxSizeBytes: 10 * mb,
			AllowedMimeTypes: []string{"application/xml", "text/xml"}, Scan: true},
		TypePolicy{Extension: "jpg", Category: files.CategoryImage, MaxSizeBytes: 15 * mb,
			AllowedMimeTypes: []string{"image/jpeg"}, Signatures: []Signature{sigJPEG}},
		TypePolicy{Extension: "jpeg", Category: files.CategoryImage, MaxSizeBytes: 15 * mb,
			AllowedMimeTypes: []string{"image/jpeg"}, Signatures: []Signature{sigJPEG}},
		TypePolicy{Extension: "png", Category: files.CategoryImage, MaxSizeBytes: 15 * mb,
			AllowedMimeTypes: []string{"image/png"}, Signatures: []Signature{sigPNG}},
		TypePolicy{Extension: "tif", Category: files.CategoryImage, MaxSizeBytes: 15 * mb,
			AllowedMimeTypes: []string{"image/tiff"}, Signatures: sigTIFF},
		TypePolicy{Extension: "tiff", Category: files.CategoryImage, MaxSizeBytes: 15 * mb,
			AllowedMimeTypes: []string{"image/tiff"}, Signatures: sigTIFF},
		TypePolicy{Extension: "heic", Category: files.CategoryImage, MaxSizeBytes: 15 * mb,
			AllowedMimeTypes: []string{"image/heic"}},
		TypePolicy{Extension: "heif", Category: files.CategoryImage, MaxSizeBytes: 15 * mb,
			AllowedMimeTypes: []string{"image/heif"}},
		TypePolicy{Extension: "mp3", Category: files.CategoryAudio, MaxSizeBytes: 50 * mb,
			AllowedMimeTypes: []string{"audio/mpeg", "audio/mp3"}, Signatures: sigMP3},
		TypePolicy{Extension: "wav", Category: files.CategoryAudio, MaxSizeBytes: 50 * mb,
			AllowedMimeTypes: []string{"audio/wav", "audio/x-wav", "audio/wave"}, Signatures: []Signature{sigWAV}},
		TypePolicy{Extension: "mp4", Category: files.CategoryVideo, MaxSizeBytes: 250 * mb,
			AllowedMimeTypes: []string{"video/mp4"}, Signatures: []Signature{sigFtyp}},
		TypePolicy{Extension: "zip", Category: files.CategoryArchive, MaxSizeBytes: 100 * mb,
			AllowedMimeTypes: []string{"application/zip", "application/x-zip-compressed"}, Signatures: sigZIP},
	)
}

var photoMIMETypes = []string{"image/jpeg", "image/png", "image/heic", "image/heif"}

func photo(ext, canonical string, sigs ...Signature) TypePolicy {
	mimes := []string{canonical}
	for _, m := range photoMIMETypes {
		if m != canonical {
			mimes = append(mimes, m)
		}
	}
	return TypePolicy{
		Extension:        ext,
		Category:         files.CategoryImage,
		MaxSizeBytes:     15 * mb,
		AllowedMimeTypes: mimes,
		Signatures:       sigs,
	}
}

// PhotoPolicies is the table for the photo pipeline. Declared MIME types
// must be one of the four photo types, and HEIC/HEIF must carry an
// ISO-BMFF ftyp box.
func PhotoPolicies() *PolicyTable {
	return mustPolicyTable(true,
		photo("jpg", "image/jpeg", sigJPEG),
		photo("jpeg", "image/jpeg", sigJPEG),
		photo("png", "image/png", sigPNG),
		photo("heic", "image/heic", sigFtyp),
		photo("heif", "image/heif", sigFtyp),
	)
}
