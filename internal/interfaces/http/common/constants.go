package common

import "time"

const (
	// MaxUploadBytes limits multipart store forms, photo included.
	MaxUploadBytes = 10 << 20
	// MaxStoreDescriptionRunes limits store description length to keep payloads sane.
	MaxStoreDescriptionRunes = 2000
	// DefaultRequestTimeout bounds every handler's downstream calls.
	DefaultRequestTimeout = 5 * time.Second
	// UploadsPath is the URL prefix photos are served from.
	UploadsPath = "/uploads/"
)
