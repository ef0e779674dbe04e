package job

import "errors"

// ErrMissingNodeCount is returned when no node count argument was given.
var ErrMissingNodeCount = errors.New("node count argument required")

// ErrInvalidNodeCount is returned when the node count is not an integer.
var ErrInvalidNodeCount = errors.New("node count must be an integer")

// ErrUnknownJob is returned when a job name is not in the registry.
var ErrUnknownJob = errors.New("unknown job")
