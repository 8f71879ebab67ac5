package ingest

import (
	"encoding/hex"

	"github.com/princekumarofficial/ingest-service/internal/types/files"
)

// sampleSize is how many leading bytes are kept for forensic review.
const sampleSize = 16

// LeadingBytesHex hex-encodes up to the first 16 bytes of data.
func LeadingBytesHex(data []byte) string {
	n := min(len(data), sampleSize)
	return hex.EncodeToString(data[:n])
}

// VerifySignature checks data against the policy's registered signatures.
// Any single match is enough; policies without signatures always pass.
func VerifySignature(policy TypePolicy, data []byte) *Rejection {
	if len(policy.Signatures) == 0 {
		return nil
	}
	for _, s := range policy.Signatures {
		if s.Matches(data) {
			return nil
		}
	}
	return &Rejection{
		Reason:       files.ReasonMagicBytesMismatch,
		Message:      "File signature mismatch: content does not match the ." + policy.Extension + " file type",
		LeadingBytes: LeadingBytesHex(data),
	}
}
