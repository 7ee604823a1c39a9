package model

import (
	"time"
)

type JobStatus string

const (
	StatusProcessing JobStatus = "processing"
	StatusDone       JobStatus = "done"
	StatusError      JobStatus = "error"
)

// Terminal reports whether no further status transitions are allowed.
func (s JobStatus) Terminal() bool {
	return s == StatusDone || s == StatusError
}

// ErrorKind is the closed set of user-safe extraction failure categories.
// Raw diagnostic text never reaches the client; only these do.
type ErrorKind string

const (
	ErrKindNone        ErrorKind = ""
	ErrKindPrivate     ErrorKind = "private"
	ErrKindNotFound    ErrorKind = "not_found"
	ErrKindRateLimited ErrorKind = "rate_limited"
	ErrKindTimeout     ErrorKind = "timeout"
	ErrKindEmptyOutput ErrorKind = "empty_output"
	ErrKindGeneric     ErrorKind = "generic"
)

// Message returns the fixed user-facing string for the kind.
func (k ErrorKind) Message() string {
	switch k {
	case ErrKindPrivate:
		return "This content is private or requires a login."
	case ErrKindNotFound:
		return "This content was not found or has been removed."
	case ErrKindRateLimited:
		return "The platform is rate-limiting downloads right now. Try again in a few minutes."
	case ErrKindTimeout:
		return "The download took too long and was cancelled."
	case ErrKindEmptyOutput:
		return "The download finished but produced no usable file."
	case ErrKindGeneric:
		return "The download failed. Check the link and try again."
	default:
		return ""
	}
}

type Job struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	Mode       Mode      `json:"mode"`
	Platform   Platform  `json:"platform"`
	Format     Format    `json:"format"`
	Status     JobStatus `json:"status"`
	Progress   string    `json:"progress"`
	ErrorKind  ErrorKind `json:"error_kind,omitempty"`
	ErrorDetail string   `json:"-"` // operator-only raw diagnostics
	OutputFile string    `json:"-"` // set iff Status == done
	OutputSize int64     `json:"file_size,omitempty"`
	UserID     string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
