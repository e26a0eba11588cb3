package registry

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// Status represents the tracked lifecycle of a supervised process.
type Status string

const (
	StatusRunning Status = "running"
	StatusStopped Status = "stopped"
	StatusCrashed Status = "crashed"
)

var allStatuses = []Status{StatusRunning, StatusStopped, StatusCrashed}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the known statuses in display order.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// Record describes one supervised process. The field names mirror the
// persisted document so registries written by older front-ends stay
// readable.
type Record struct {
	PID          int    `json:"pid"`
	Command      string `json:"command"`
	Cwd          string `json:"cwd"`
	Status       Status `json:"status"`
	StartTime    int64  `json:"startTime"`
	AutoShutdown bool   `json:"autoShutdown"`
	LogFile      string `json:"logFile,omitempty"`
	ErrorOutput  string `json:"errorOutput,omitempty"`
	StartTicks   uint64 `json:"startTicks,omitempty"`
}

// Key derives the partition-unique key for the record.
func (r Record) Key() string {
	return ProcessKey(r.Command, r.StartTime)
}

// StartedAt converts the persisted epoch-millisecond start time.
func (r Record) StartedAt() time.Time {
	return time.UnixMilli(r.StartTime)
}

// IsRunning reports whether the record still claims a live process.
func (r Record) IsRunning() bool {
	return r.Status == StatusRunning
}

// ProcessKey computes a deterministic key from the command line and the
// epoch-millisecond start time. Two launches of the same command get
// distinct keys because their start times differ.
func ProcessKey(command string, startTime int64) string {
	hasher := sha256.New()
	hasher.Write([]byte(strings.TrimSpace(command)))
	hasher.Write([]byte("-"))
	hasher.Write([]byte(strconv.FormatInt(startTime, 10)))
	return hex.EncodeToString(hasher.Sum(nil))[:12]
}

// Entry pairs a record with the partition it lives in, addressing it across
// the whole registry.
type Entry struct {
	Workdir string `json:"workdir"`
	Key     string `json:"key"`
	Record  Record `json:"record"`
}
