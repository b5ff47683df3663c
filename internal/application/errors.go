package application

import "errors"

var (
	// ErrTopicNotFound is returned when a topic is not part of the current snapshot
	ErrTopicNotFound = errors.New("topic not found")

	// ErrGroupNotFound is returned when a consumer group is not part of the current snapshot
	ErrGroupNotFound = errors.New("consumer group not found")
)
