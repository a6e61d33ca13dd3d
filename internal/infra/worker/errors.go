package worker

import "errors"

// ErrRunInProgress is returned by RunOnce when the previous run has not
// finished.
var ErrRunInProgress = errors.New("ingestion run already in progress")
