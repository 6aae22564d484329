package service

import (
	"github.com/pkg/errors"
)

// InputError is a problem with what the user typed.
type InputError string

func (e InputError) Error() string {
	return string(e)
}

var (
	ErrEmptyURL = InputError("please enter a valid video url")

	ErrNotFound         = errors.New("not found")
	ErrNoFormats        = errors.New("no formats available")
	ErrUnknownCandidate = errors.New("unknown format, submit the url again")
	ErrFetchInProgress  = errors.New("a download is already in progress")
)

// ExtractionError wraps any failure of the extraction tool.
type ExtractionError struct {
	Op  string
	URL string
	Err error
}

func (e *ExtractionError) Error() string {
	return e.Op + " failed: " + e.Err.Error()
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// FilesystemError is raised when a downloaded file cannot be read for delivery.
type FilesystemError struct {
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return "failed to read '" + e.Path + "': " + e.Err.Error()
}

func (e *FilesystemError) Unwrap() error {
	return e.Err
}

// UserMessage renders err the way it is shown to the user.
func UserMessage(err error) string {
	var (
		inputErr InputError
		extErr   *ExtractionError
		fsErr    *FilesystemError
	)

	switch {
	case errors.As(err, &inputErr):
		return inputErr.Error()
	case errors.As(err, &extErr):
		return "failed to process video: " + extErr.Err.Error()
	case errors.As(err, &fsErr):
		return "failed to deliver file: " + fsErr.Err.Error()
	default:
		return err.Error()
	}
}
