package wrapper

import "errors"

// ErrSpawnFailed is returned when the wrapper process could not be started,
// e.g. flintstone.sh is missing or not executable.
var ErrSpawnFailed = errors.New("failed to start wrapper")
