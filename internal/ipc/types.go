package ipc

// StartProcessRequest launches a supervised process in the daemon.
type StartProcessRequest struct {
	Command      string            `json:"command"`
	Dir          string            `json:"dir"`
	Env          map[string]string `json:"env,omitempty"`
	AutoShutdown bool              `json:"auto_shutdown"`
}

// StartProcessResponse carries the pid of the launched process.
type StartProcessResponse struct {
	PID int `json:"pid"`
}

// StopProcessRequest stops tracking of a pid and signals it when alive.
type StopProcessRequest struct {
	PID int `json:"pid"`
}

// StopProcessResponse reports whether a record existed for the pid.
type StopProcessResponse struct {
	Stopped bool `json:"stopped"`
}

// LogsRequest fetches the trailing log lines of a tracked process.
type LogsRequest struct {
	PID      int `json:"pid"`
	MaxLines int `json:"max_lines"`
}

// LogsResponse returns the joined tail text, or the no-logs sentinel.
type LogsResponse struct {
	Text string `json:"text"`
}

// ListRequest selects registry partitions to return. Base anchors the
// current and subtree scopes; an empty base means the daemon's own
// partition.
type ListRequest struct {
	Base  string `json:"base"`
	Scope string `json:"scope"`
}

// ProcessInfo mirrors one registry record for IPC callers.
type ProcessInfo struct {
	Workdir      string `json:"workdir"`
	Key          string `json:"key"`
	PID          int    `json:"pid"`
	Command      string `json:"command"`
	Status       string `json:"status"`
	StartTime    int64  `json:"start_time"`
	AutoShutdown bool   `json:"auto_shutdown"`
	LogFile      string `json:"log_file,omitempty"`
	ErrorOutput  string `json:"error_output,omitempty"`
}

// ListResponse contains the visible records.
type ListResponse struct {
	Processes []ProcessInfo `json:"processes"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// CheckStatus describes one preflight check outcome.
type CheckStatus struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// DependencyStatus describes availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail"`
}

// StatusResponse represents daemon runtime information.
type StatusResponse struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	Partitions   int                `json:"partitions"`
	Processes    int                `json:"processes"`
	RunningProcs int                `json:"running_procs"`
	Tracked      int                `json:"tracked"`
	RegistryPath string             `json:"registry_path"`
	LockPath     string             `json:"lock_path"`
	SocketPath   string             `json:"socket_path"`
	Checks       []CheckStatus      `json:"checks,omitempty"`
	Dependencies []DependencyStatus `json:"dependencies,omitempty"`
}

// ShutdownRequest asks the daemon process to exit.
type ShutdownRequest struct{}

// ShutdownResponse acknowledges the shutdown request.
type ShutdownResponse struct {
	Stopping bool `json:"stopping"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
