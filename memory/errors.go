package memory

import "errors"

var (
	errNilRecord      = errors.New("memory: record is nil")
	errMissingAgentID = errors.New("memory: record agent_id is required")
)
