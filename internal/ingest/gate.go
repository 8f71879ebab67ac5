package ingest

import (
	"fmt"
	"strings"

	"github.com/princekumarofficial/ingest-service/internal/types/files"
)

// Rejection is a security verdict that sends a file to quarantine.
type Rejection struct {
	Reason  files.Reason
	Message string
	// LeadingBytes is the hex of the first bytes, set on signature mismatch.
	LeadingBytes string
}

// blockedExtensions covers scripts, executables, macro-enabled office
// formats, disk images and server-side code.
var blockedExtensions = map[string]struct{}{
	// executables and installers
	"exe": {}, "dll": {}, "com": {}, "scr": {}, "pif": {}, "msi": {}, "msp": {},
	"cpl": {}, "sys": {}, "drv": {}, "app": {}, "deb": {}, "rpm": {}, "apk": {},
	"jar": {}, "elf": {}, "bin": {}, "lnk": {}, "reg": {}, "inf": {},
	// scripts
	"bat": {}, "cmd": {}, "sh": {}, "bash": {}, "zsh": {}, "csh": {}, "ps1": {},
	"psm1": {}, "psd1": {}, "ps1xml": {}, "vbs": {}, "vbe": {}, "js": {}, "jse": {},
	"mjs": {}, "ws": {}, "wsf": {}, "wsc": {}, "wsh": {}, "hta": {}, "scf": {},
	"py": {}, "pyc": {}, "rb": {}, "pl": {},
	// macro-enabled office
	"docm": {}, "dotm": {}, "xlsm": {}, "xltm": {}, "xlam": {}, "pptm": {},
	"potm": {}, "ppam": {}, "ppsm": {}, "sldm": {},
	// disk images
	"iso": {}, "img": {}, "dmg": {}, "vhd": {}, "vhdx": {}, "vmdk": {},
	// server-side code
	"php": {}, "php3": {}, "php4": {}, "php5": {}, "php7": {}, "phtml": {},
	"phar": {}, "asp": {}, "aspx": {}, "ashx": {}, "asmx": {}, "jsp": {},
	"jspx": {}, "cgi": {}, "cfm": {}, "shtml": {}, "htaccess": {},
}

// IsBlockedExtension reports whether ext (lowercase, no dot) is deny-listed.
func IsBlockedExtension(ext string) bool {
	_, ok := blockedExtensions[ext]
	return ok
}

// baseName strips any client-supplied directory, with either separator.
func baseName(filename string) string {
	if i := strings.LastIndexAny(filename, `/\`); i >= 0 {
		filename = filename[i+1:]
	}
	return strings.TrimSpace(filename)
}

// Extension returns the lowercase final extension of filename without the
// dot, or "" when there is none.
func Extension(filename string) string {
	name := baseName(filename)
	i := strings.LastIndexByte(name, '.')
	if i < 0 || i == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}

// CheckName runs the name gate. It never touches file content.
func CheckName(filename string) (string, *Rejection) {
	ext := Extension(filename)
	if IsBlockedExtension(ext) {
		return ext, &Rejection{
			Reason:  files.ReasonBlockedExtension,
			Message: fmt.Sprintf("File type not allowed: .%s files are blocked for security reasons", ext),
		}
	}

	segments := strings.Split(strings.ToLower(baseName(filename)), ".")
	if len(segments) > 2 {
		for _, seg := range segments[1 : len(segments)-1] {
			if IsBlockedExtension(strings.TrimSpace(seg)) {
				return ext, &Rejection{
					Reason:  files.ReasonDoubleExtension,
					Message: fmt.Sprintf("Suspicious double extension detected: .%s hidden in file name", seg),
				}
			}
		}
	}

	return ext, nil
}
