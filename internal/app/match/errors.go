package match

import "errors"

var ErrAlreadyQueued = errors.New("already_queued")
