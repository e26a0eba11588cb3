package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"log/slog"

	"warden/internal/daemon"
	"warden/internal/logging"
	"warden/internal/scope"
	"warden/internal/supervisor"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path. shutdown is
// invoked when a client requests daemon termination; it must unblock the
// daemon run loop.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, shutdown func(), logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, shutdown: shutdown, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Warden", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldErrorHint, "check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String(logging.FieldErrorHint, "remove the socket file manually or rerun warden daemon stop"))
	}
}

type service struct {
	daemon   *daemon.Daemon
	shutdown func()
	logger   *slog.Logger
	ctx      context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String(logging.FieldComponent, "ipc"))
}

func (s *service) Start(req StartProcessRequest, resp *StartProcessResponse) error {
	pid, err := s.daemon.StartProcess(s.ctx, supervisor.StartRequest{
		Command:      req.Command,
		Dir:          req.Dir,
		Env:          req.Env,
		AutoShutdown: req.AutoShutdown,
	})
	if err != nil {
		return err
	}
	resp.PID = pid
	return nil
}

func (s *service) Stop(req StopProcessRequest, resp *StopProcessResponse) error {
	stopped, err := s.daemon.StopProcess(s.ctx, req.PID)
	if err != nil {
		return err
	}
	resp.Stopped = stopped
	return nil
}

func (s *service) Logs(req LogsRequest, resp *LogsResponse) error {
	text, err := s.daemon.ProcessLogs(s.ctx, req.PID, req.MaxLines)
	if err != nil {
		return err
	}
	resp.Text = text
	return nil
}

func (s *service) List(req ListRequest, resp *ListResponse) error {
	sc, ok := scope.ParseScope(req.Scope)
	if !ok {
		sc = scope.DefaultScope
	}
	entries, err := s.daemon.ListProcesses(s.ctx, req.Base, sc)
	if err != nil {
		return err
	}
	resp.Processes = make([]ProcessInfo, 0, len(entries))
	for _, entry := range entries {
		resp.Processes = append(resp.Processes, ProcessInfo{
			Workdir:      entry.Workdir,
			Key:          entry.Key,
			PID:          entry.Record.PID,
			Command:      entry.Record.Command,
			Status:       string(entry.Record.Status),
			StartTime:    entry.Record.StartTime,
			AutoShutdown: entry.Record.AutoShutdown,
			LogFile:      entry.Record.LogFile,
			ErrorOutput:  entry.Record.ErrorOutput,
		})
	}
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.PID = status.PID
	resp.Partitions = status.Partitions
	resp.Processes = status.Processes
	resp.RunningProcs = status.RunningProcs
	resp.Tracked = status.Tracked
	resp.RegistryPath = status.RegistryPath
	resp.LockPath = status.LockFilePath
	resp.SocketPath = status.SocketPath
	for _, check := range status.Checks {
		resp.Checks = append(resp.Checks, CheckStatus{
			Name:   check.Name,
			Passed: check.Passed,
			Detail: check.Detail,
		})
	}
	for _, dep := range status.Dependencies {
		resp.Dependencies = append(resp.Dependencies, DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		})
	}
	return nil
}

func (s *service) Shutdown(_ ShutdownRequest, resp *ShutdownResponse) error {
	s.log().Info("daemon shutdown requested via IPC",
		logging.String(logging.FieldEventType, "daemon_shutdown"))
	resp.Stopping = true
	if s.shutdown != nil {
		// Deferred so the response reaches the client before the listener
		// goes away.
		go s.shutdown()
	}
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}
