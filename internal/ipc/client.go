package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Start launches a supervised process in the daemon.
func (c *Client) Start(req StartProcessRequest) (*StartProcessResponse, error) {
	var resp StartProcessResponse
	if err := c.client.Call("Warden.Start", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop removes tracking for a pid and signals the process when alive.
func (c *Client) Stop(pid int) (*StopProcessResponse, error) {
	var resp StopProcessResponse
	if err := c.client.Call("Warden.Stop", StopProcessRequest{PID: pid}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logs returns the trailing log lines of a tracked process.
func (c *Client) Logs(pid, maxLines int) (*LogsResponse, error) {
	var resp LogsResponse
	if err := c.client.Call("Warden.Logs", LogsRequest{PID: pid, MaxLines: maxLines}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// List returns the registry records visible under base and scope.
func (c *Client) List(base, scope string) (*ListResponse, error) {
	var resp ListResponse
	if err := c.client.Call("Warden.List", ListRequest{Base: base, Scope: scope}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Warden.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Shutdown asks the daemon process to exit.
func (c *Client) Shutdown() (*ShutdownResponse, error) {
	var resp ShutdownResponse
	if err := c.client.Call("Warden.Shutdown", ShutdownRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.client.Call("Warden.TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
