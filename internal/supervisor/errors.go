package supervisor

import "errors"

// ErrStartFailed wraps every failure to obtain a pid from a spawn request.
var ErrStartFailed = errors.New("supervisor: start failed")
