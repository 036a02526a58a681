package models

import "fmt"

// Stable machine-readable error codes surfaced to clients. Validation errors
// are raised before any storage mutation; transport failures are reported
// separately as ErrCodeNetwork.
const (
	ErrCodeWrongTitle               = "ERR_SONG_WRONG_TITLE"
	ErrCodeWrongPriority            = "ERR_SONG_WRONG_PRIORITY"
	ErrCodeWrongPriorityControlled  = "ERR_SONG_WRONG_PRIORITY_CONTROLLED"
	ErrCodeCoverMinSize             = "ERR_COVER_MIN_SIZE"
	ErrCodeCoverMaxFileSize         = "ERR_COVER_MAX_FILE_SIZE"
	ErrCodeNotFoundStorage          = "ERR_NOT_FOUND_STORAGE"
	ErrCodeFindingSongsStringLength = "ERR_FINDING_SONGS_STRING_LENGTH"
	ErrCodeNotFoundLink             = "ERR_NOT_FOUND_LINK"
	ErrCodeSongLinkType             = "ERR_SONG_LINK_TYPE"
	ErrCodeInvalidFileField         = "ERR_INVALID_FILE_FIELD"
	ErrCodeApprovalRequired         = "ERR_APPROVAL_REQUIRED"
	ErrCodeNetwork                  = "ERR_NETWORK"
)

// DomainError is a client-visible failure with a stable code.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewDomainError creates a domain error with a formatted message.
func NewDomainError(code, format string, args ...any) *DomainError {
	return &DomainError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// IsDomainError reports whether err carries the given code.
func IsDomainError(err error, code string) bool {
	de, ok := err.(*DomainError)
	return ok && de.Code == code
}
