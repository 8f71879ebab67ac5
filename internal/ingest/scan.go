package ingest

import (
	"bytes"
	"strings"

	"github.com/princekumarofficial/ingest-service/internal/types/files"
)

// scanWindow bounds how much of the file the heuristics look at.
const scanWindow = 10000

type heuristic struct {
	reason   files.Reason
	message  string
	patterns []string
}

// Patterns are matched against the lowercased window.
var heuristics = []heuristic{
	{files.ReasonEmbeddedScript, "File contains embedded script content", []string{"<script"}},
	{files.ReasonJavaScriptURI, "File contains a javascript: URI", []string{"javascript:"}},
	{files.ReasonPHPCode, "File contains embedded PHP code", []string{"<?php", "<?="}},
	{files.ReasonPowerShell, "File contains a PowerShell invocation", []string{
		"powershell.exe", "powershell -", "pwsh -", "-encodedcommand", "invoke-expression", "iex(", "iex (",
	}},
}

var mzHeader = []byte{'M', 'Z'}

// Scan runs the lightweight malware heuristics over the first 10 000
// bytes. Invalid UTF-8 is replaced, never rejected.
func Scan(data []byte) *Rejection {
	if bytes.HasPrefix(data, mzHeader) {
		return &Rejection{
			Reason:  files.ReasonExecutableHeader,
			Message: "File contains a Windows executable header",
		}
	}

	window := data
	if len(window) > scanWindow {
		window = window[:scanWindow]
	}
	text := strings.ToLower(strings.ToValidUTF8(string(window), "�"))

	for _, h := range heuristics {
		for _, p := range h.patterns {
			if strings.Contains(text, p) {
				return &Rejection{Reason: h.reason, Message: h.message}
			}
		}
	}
	return nil
}
