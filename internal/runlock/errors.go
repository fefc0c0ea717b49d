package runlock

import "errors"

// ErrLocked is returned by Acquire when another run holds the lock.
var ErrLocked = errors.New("runlock: lock already held")
