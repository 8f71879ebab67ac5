package ingest

import (
	"fmt"
	"strings"
	"time"
)

// Partition returns the "{uploader}/{year}/{MM}" prefix under which an
// uploader's files for a given month are stored.
func Partition(uploaderID string, t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%s/%04d/%02d", safeSegment(uploaderID), t.Year(), int(t.Month()))
}

// safeSegment keeps an identifier from escaping its path segment.
func safeSegment(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
	if s == "" {
		return "anonymous"
	}
	return s
}

func objectKey(partition, id, suffix, ext string) string {
	return fmt.Sprintf("%s/%s%s.%s", partition, id, suffix, ext)
}
