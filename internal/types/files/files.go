package files

import "time"

// Category is the coarse file-type bucket recorded on every stored file.
type Category string

const (
	CategoryImage    Category = "image"
	CategoryDocument Category = "document"
	CategoryAudio    Category = "audio"
	CategoryVideo    Category = "video"
	CategoryArchive  Category = "archive"
	CategoryData     Category = "data"
)

// Reason is the enumerated cause written to a quarantine record.
type Reason string

const (
	ReasonBlockedExtension   Reason = "blocked_extension"
	ReasonDoubleExtension    Reason = "double_extension"
	ReasonMagicBytesMismatch Reason = "magic_bytes_mismatch"
	ReasonEmbeddedScript     Reason = "embedded_script"
	ReasonJavaScriptURI      Reason = "javascript_uri"
	ReasonPHPCode            Reason = "php_code"
	ReasonPowerShell         Reason = "powershell_invocation"
	ReasonExecutableHeader   Reason = "executable_header"
)

// ProcessingStatus of a stored file. Processing is synchronous, so only
// completed rows are ever written.
type ProcessingStatus string

const StatusCompleted ProcessingStatus = "completed"

// AccessAction is the verb recorded in the file access log.
type AccessAction string

const (
	ActionUpload   AccessAction = "upload"
	ActionDownload AccessAction = "download"
	ActionDelete   AccessAction = "delete"
)

// QuarantineRecord is the audit row for a rejected upload. The file bytes
// themselves are discarded.
type QuarantineRecord struct {
	ID               int64     `json:"id" db:"id"`
	OriginalFilename string    `json:"original_filename" db:"original_filename"`
	UploaderID       string    `json:"uploader_id" db:"uploader_id"`
	TenantID         string    `json:"tenant_id,omitempty" db:"tenant_id"`
	Reason           Reason    `json:"reason" db:"reason"`
	Detail           string    `json:"detail" db:"detail"`
	Size             int64     `json:"size" db:"file_size"`
	ClaimedMimeType  string    `json:"claimed_mime_type" db:"claimed_mime_type"`
	LeadingBytesHex  string    `json:"leading_bytes_hex,omitempty" db:"leading_bytes_hex"`
	UploaderIP       string    `json:"uploader_ip" db:"uploader_ip"`
	UserAgent        string    `json:"user_agent" db:"user_agent"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// Paths holds the object keys of a stored file. Documents only set
// Canonical; photos set all of them and Canonical equals Standard.
type Paths struct {
	Canonical string `json:"canonical"`
	Raw       string `json:"raw,omitempty"`
	Standard  string `json:"standard,omitempty"`
	Preview   string `json:"preview,omitempty"`
	Thumb     string `json:"thumb,omitempty"`
}

// StoredFile describes an accepted upload.
type StoredFile struct {
	ID               string           `json:"id" db:"id"`
	TenantID         string           `json:"tenant_id,omitempty" db:"tenant_id"`
	UploaderID       string           `json:"uploader_id" db:"uploader_id"`
	OriginalFilename string           `json:"original_filename" db:"original_filename"`
	StoredFilename   string           `json:"stored_filename" db:"stored_filename"`
	Category         Category         `json:"file_type" db:"file_type"`
	MimeType         string           `json:"mime_type" db:"mime_type"`
	Size             int64            `json:"size" db:"file_size"`
	Paths            Paths            `json:"paths"`
	Status           ProcessingStatus `json:"processing_status" db:"processing_status"`
	MetadataStripped bool             `json:"metadata_stripped" db:"metadata_stripped"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
}

// AccessLogEntry is an append-only access record for a stored file.
type AccessLogEntry struct {
	ID        int64        `json:"id" db:"id"`
	FileID    string       `json:"file_id" db:"file_id"`
	Action    AccessAction `json:"action" db:"action"`
	ActorID   string       `json:"actor_id" db:"actor_id"`
	IP        string       `json:"ip_address" db:"ip_address"`
	UserAgent string       `json:"user_agent" db:"user_agent"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
}

// QuarantineSummary aggregates quarantine events per uploader and tenant.
type QuarantineSummary struct {
	UploaderID string    `json:"uploader_id"`
	TenantID   string    `json:"tenant_id,omitempty"`
	Count      int       `json:"count"`
	LastAt     time.Time `json:"last_at"`
}
