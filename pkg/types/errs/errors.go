package errs

import "errors"

var (
	ErrRecordNotFound      = errors.New("record not found")
	ErrUnresolvable        = errors.New("no displayable url")
	ErrInvalidURL          = errors.New("invalid url")
	ErrDimensionsRequired  = errors.New("width and height are required")
	ErrInvalidDimensions   = errors.New("invalid dimensions")
	ErrEmptyFile           = errors.New("file is empty")
	ErrFileTooLarge        = errors.New("file too large")
	ErrUnsupportedFile     = errors.New("file is not an image")
	ErrWorkflowNotFound    = errors.New("workflow not found")
	ErrMissingSignedURL    = errors.New("no signed_url in response")
	ErrSourceNotConfigured = errors.New("url source not configured")
	ErrFilenameRequired    = errors.New("filename is required")
)

var ErrInvalidTransition = errors.New("invalid workflow state transition")
