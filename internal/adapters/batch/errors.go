package batch

import "errors"

// ErrNoJobs is returned when a run is started without client ids.
var ErrNoJobs = errors.New("no jobs")
