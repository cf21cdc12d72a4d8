package models

import (
	"errors"
	"fmt"
)

// ProcessingStatus is the ingestion lifecycle state stored on a Document.
type ProcessingStatus string

const (
	StatusUploading  ProcessingStatus = "uploading"
	StatusQueued     ProcessingStatus = "queued"
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
)

// Event drives a ProcessingStatus transition.
type Event string

const (
	// EventConfirm is raised by the client confirming its upload, or re-confirming to retry.
	EventConfirm Event = "confirm"
	// EventStart is raised by a worker picking up the ingestion task.
	EventStart Event = "start"
	// EventSucceed is raised when processing finished.
	EventSucceed Event = "succeed"
	// EventRetry is raised when an attempt failed but the queue will redeliver.
	EventRetry Event = "retry"
	// EventFail is raised when the last attempt failed.
	EventFail Event = "fail"
)

var ErrInvalidTransition = errors.New("invalid status transition")

var transitions = map[ProcessingStatus]map[Event]ProcessingStatus{
	StatusUploading: {
		EventConfirm: StatusQueued,
	},
	StatusQueued: {
		EventConfirm: StatusQueued,
		EventStart:   StatusProcessing,
	},
	StatusProcessing: {
		// redelivery after a worker died mid-task
		EventStart:   StatusProcessing,
		EventSucceed: StatusCompleted,
		EventRetry:   StatusQueued,
		EventFail:    StatusFailed,
	},
	StatusFailed: {
		EventConfirm: StatusQueued,
	},
	StatusCompleted: {},
}

// Transition returns the state reached from s on e, or ErrInvalidTransition.
func Transition(s ProcessingStatus, e Event) (ProcessingStatus, error) {
	next, ok := transitions[s][e]
	if !ok {
		return s, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, s, e)
	}
	return next, nil
}

func (s ProcessingStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no worker event can move s forward.
func (s ProcessingStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}
