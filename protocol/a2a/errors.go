package a2a

import "errors"

// Message validation errors.
var (
	ErrMessageMissingID      = errors.New("a2a message: missing id")
	ErrMessageInvalidType    = errors.New("a2a message: invalid type")
	ErrMessageMissingFrom    = errors.New("a2a message: missing from")
	ErrMessageMissingTo      = errors.New("a2a message: missing to")
	ErrMessageMissingPayload = errors.New("a2a message: missing payload")
	ErrInvalidMessage        = errors.New("a2a: invalid message format")
)

// Agent card validation errors.
var (
	ErrCardMissingName    = errors.New("agent card: missing name")
	ErrCardMissingURL     = errors.New("agent card: missing url")
	ErrCardMissingVersion = errors.New("agent card: missing version")
)

// Protocol errors.
var (
	ErrAgentNotFound     = errors.New("a2a: agent not found")
	ErrRemoteUnavailable = errors.New("a2a: remote agent unavailable")
	ErrAuthFailed        = errors.New("a2a: authentication failed")
	ErrTaskNotFound      = errors.New("a2a: task not found")
	ErrTaskNotReady      = errors.New("a2a: task not ready")
)
