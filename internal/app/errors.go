package app

import (
	"errors"
	"fmt"
	"strings"
)

// Client-fault errors (4xx). Everything else that escapes the app layer is
// a server fault and maps to 500 with a generic message; the detail stays
// in the logs, never in the response body.
var (
	// ErrNoFiles means the submission carried no image field at all.
	// Raised before any transaction opens, so there is nothing to undo.
	ErrNoFiles = errors.New("no image files in submission")

	// ErrZeroImages means no submitted file survived ingestion. The
	// coordinator has already rolled back by the time it returns this.
	ErrZeroImages = errors.New("no usable images in submission")

	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrMissingCredentials = errors.New("email and password required")
	ErrUserNotFound       = errors.New("user not found")
	ErrPropertyNotFound   = errors.New("property not found")

	ErrDuplicateInquiry = errors.New("inquiry already sent for this property")
	ErrInquiryNotFound  = errors.New("inquiry not found")
	ErrNotInquiryOwner  = errors.New("inquiry belongs to another user")
)

// ValidationError names the submission fields that failed validation.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid submission fields: %s", strings.Join(e.Fields, ", "))
}

// IsClientFault reports whether the error maps to a 4xx response rather
// than a server-side failure.
func IsClientFault(err error) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return true
	}
	return errors.Is(err, ErrNoFiles) ||
		errors.Is(err, ErrZeroImages) ||
		errors.Is(err, ErrEmailExists) ||
		errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrMissingCredentials) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrPropertyNotFound) ||
		errors.Is(err, ErrDuplicateInquiry) ||
		errors.Is(err, ErrInquiryNotFound) ||
		errors.Is(err, ErrNotInquiryOwner)
}
