package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"syscall"

	"warden/internal/config"
	"warden/internal/ipc"
	"warden/internal/logging"
	"warden/internal/procaccess"
	"warden/internal/proclog"
	"warden/internal/registry"
	"warden/internal/supervisor"
)

type commandContext struct {
	socketFlag *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(socketFlag, configFlag *string) *commandContext {
	return &commandContext{
		socketFlag: socketFlag,
		configFlag: configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) socketPath() (string, error) {
	if c.socketFlag != nil && strings.TrimSpace(*c.socketFlag) != "" {
		return strings.TrimSpace(*c.socketFlag), nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", err
	}
	return cfg.SocketPath(), nil
}

// withAccess opens a backend session, daemon socket first, direct registry
// otherwise, and runs fn against it.
func (c *commandContext) withAccess(fn func(procaccess.Session) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	socket, err := c.socketPath()
	if err != nil {
		return err
	}

	session, err := procaccess.OpenWithFallback(
		func() (*ipc.Client, error) { return ipc.Dial(socket) },
		func() (*supervisor.Supervisor, error) { return c.openSupervisor(cfg) },
	)
	if err != nil {
		return err
	}
	defer session.Close()
	return fn(session)
}

func (c *commandContext) openSupervisor(cfg *config.Config) (*supervisor.Supervisor, error) {
	logger := logging.NewNop()
	store, err := registry.Open(cfg, logger)
	if err != nil {
		return nil, err
	}
	capture, err := proclog.NewCapture(cfg, logger)
	if err != nil {
		return nil, err
	}
	return supervisor.New(context.Background(), cfg, store, capture, logger)
}

// dialClient connects to the daemon and fails with guidance when it is not
// reachable, for commands that require a live daemon.
func (c *commandContext) dialClient() (*ipc.Client, error) {
	socket, err := c.socketPath()
	if err != nil {
		return nil, err
	}
	client, err := ipc.Dial(socket)
	if err != nil {
		return nil, wrapDialError(err, socket)
	}
	return client, nil
}

func wrapDialError(err error, socket string) error {
	switch {
	case errors.Is(err, syscall.ENOENT) || os.IsNotExist(err):
		return fmt.Errorf("connect to daemon: socket %s not found; start the daemon with `warden daemon start`", socket)
	case errors.Is(err, syscall.ECONNREFUSED):
		return fmt.Errorf("connect to daemon: socket %s refused the connection; verify the daemon is running", socket)
	default:
		return fmt.Errorf("connect to daemon: %w", err)
	}
}
