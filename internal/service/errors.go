package service

import (
	"errors"
	"fmt"

	"github.com/maheshrc27/igscheduler/internal/models"
)

var (
	ErrValidation             = errors.New("invalid post")
	ErrAccountNotFound        = errors.New("instagram account not found")
	ErrRateLimitExceeded      = errors.New("instagram publishing limit reached")
	ErrMediaProcessingFailed  = errors.New("media container failed")
	ErrMediaProcessingTimeout = errors.New("media processing timeout")
	ErrTransport              = errors.New("instagram request failed")
	ErrNotFound               = errors.New("post not found")
	ErrAlreadyPublished       = errors.New("post is already published")
	ErrPublishInProgress      = errors.New("post is being published")
	ErrClaimLost              = errors.New("publish attempt no longer owns the post")
	ErrStore                  = errors.New("post store write failed")
)

// GraphError is a failed Graph API call. Message is the remote error message
// when the response carried one.
type GraphError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *GraphError) Error() string {
	return e.Message
}

func (e *GraphError) Unwrap() error {
	return ErrTransport
}

func validationError(err error) error {
	var mediaErr *models.MediaError
	if errors.As(err, &mediaErr) {
		return fmt.Errorf("%w: %s", ErrValidation, mediaErr.Reason)
	}
	return err
}

// FailureMessage is the text recorded on a failed post: the remote message
// verbatim for Graph errors, the error text otherwise.
func FailureMessage(err error) string {
	var graphErr *GraphError
	if errors.As(err, &graphErr) && graphErr.Message != "" {
		return graphErr.Message
	}
	return err.Error()
}
