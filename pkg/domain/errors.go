package domain

import "errors"

// ErrRunNotFound is returned when a request ID cannot be found in a snapshot store.
var ErrRunNotFound = errors.New("run not found")

// ErrEmptyTopic is returned when a run is requested without a topic.
var ErrEmptyTopic = errors.New("topic is required")

var (
	// ErrTopicTooLong is returned when a topic exceeds the accepted size.
	ErrTopicTooLong = errors.New("topic exceeds maximum allowed size")
	// ErrInvalidUTF8 is returned when a topic is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("topic contains invalid UTF-8 sequences")
)
