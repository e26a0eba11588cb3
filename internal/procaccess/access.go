package procaccess

import (
	"context"
	"errors"

	"warden/internal/ipc"
	"warden/internal/registry"
	"warden/internal/scope"
	"warden/internal/supervisor"
)

// ErrRequiresDaemon is returned when an operation only the daemon can host
// is attempted in direct mode.
var ErrRequiresDaemon = errors.New("starting an attached process requires the daemon; run `warden daemon start` or pass --detach")

// Access provides the four core operations regardless of IPC or direct
// registry backing.
type Access interface {
	Start(ctx context.Context, req supervisor.StartRequest) (int, error)
	Stop(ctx context.Context, pid int) (bool, error)
	Logs(ctx context.Context, pid, maxLines int) (string, error)
	List(ctx context.Context, base string, sc scope.Scope) ([]registry.Entry, error)
}

// NewIPCAccess returns an Access backed by daemon IPC.
func NewIPCAccess(client *ipc.Client) Access {
	return &ipcAccess{client: client}
}

// NewDirectAccess returns an Access operating on the shared registry without
// a daemon. Attached starts are refused: a one-shot front-end cannot outlive
// the pipes its child depends on.
func NewDirectAccess(sup *supervisor.Supervisor) Access {
	return &directAccess{sup: sup}
}

type ipcAccess struct {
	client *ipc.Client
}

func (a *ipcAccess) Start(_ context.Context, req supervisor.StartRequest) (int, error) {
	resp, err := a.client.Start(ipc.StartProcessRequest{
		Command:      req.Command,
		Dir:          req.Dir,
		Env:          req.Env,
		AutoShutdown: req.AutoShutdown,
	})
	if err != nil {
		return 0, err
	}
	return resp.PID, nil
}

func (a *ipcAccess) Stop(_ context.Context, pid int) (bool, error) {
	resp, err := a.client.Stop(pid)
	if err != nil {
		return false, err
	}
	return resp.Stopped, nil
}

func (a *ipcAccess) Logs(_ context.Context, pid, maxLines int) (string, error) {
	resp, err := a.client.Logs(pid, maxLines)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

func (a *ipcAccess) List(_ context.Context, base string, sc scope.Scope) ([]registry.Entry, error) {
	resp, err := a.client.List(base, string(sc))
	if err != nil {
		return nil, err
	}
	entries := make([]registry.Entry, 0, len(resp.Processes))
	for _, proc := range resp.Processes {
		status, ok := registry.ParseStatus(proc.Status)
		if !ok {
			status = registry.Status(proc.Status)
		}
		entries = append(entries, registry.Entry{
			Workdir: proc.Workdir,
			Key:     proc.Key,
			Record: registry.Record{
				PID:          proc.PID,
				Command:      proc.Command,
				Cwd:          proc.Workdir,
				Status:       status,
				StartTime:    proc.StartTime,
				AutoShutdown: proc.AutoShutdown,
				LogFile:      proc.LogFile,
				ErrorOutput:  proc.ErrorOutput,
			},
		})
	}
	return entries, nil
}

type directAccess struct {
	sup *supervisor.Supervisor
}

func (a *directAccess) Start(ctx context.Context, req supervisor.StartRequest) (int, error) {
	if req.AutoShutdown {
		return 0, ErrRequiresDaemon
	}
	return a.sup.Start(ctx, req)
}

func (a *directAccess) Stop(ctx context.Context, pid int) (bool, error) {
	return a.sup.Stop(ctx, pid)
}

func (a *directAccess) Logs(ctx context.Context, pid, maxLines int) (string, error) {
	return a.sup.Query(ctx, pid, maxLines)
}

func (a *directAccess) List(ctx context.Context, base string, sc scope.Scope) ([]registry.Entry, error) {
	return a.sup.List(ctx, base, sc)
}
