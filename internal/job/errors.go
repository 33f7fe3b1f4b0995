package job

import "errors"

// ErrNoSuchJob is returned when a job id does not name a registered
// job. Handlers report it to the user as "No such job".
var ErrNoSuchJob = errors.New("no such job")
