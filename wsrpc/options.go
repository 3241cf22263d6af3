// Copyright (c) 2025 BVK Chaitanya

package wsrpc

import (
	"time"
)

type Options struct {
	// WebsocketDialTimeout holds the timeout for establishing (and
	// reestablishing) the websocket connection.
	WebsocketDialTimeout time.Duration

	// CallTimeout is the bound on every outgoing rpc call. A timed out call
	// is indistinguishable from a failed call.
	CallTimeout time.Duration

	// HealthCheckInterval holds the time interval between keep-alive health
	// check calls on the websocket. Health check failure reopens the socket.
	HealthCheckInterval time.Duration

	// HealthCheckMethod is the rpc method used for the keep-alive calls.
	// When empty no health checks are performed.
	HealthCheckMethod string
}

func (v *Options) setDefaults() {
	if v.WebsocketDialTimeout == 0 {
		v.WebsocketDialTimeout = 10 * time.Second
	}
	if v.CallTimeout == 0 {
		v.CallTimeout = 10 * time.Second
	}
	if v.HealthCheckInterval == 0 {
		v.HealthCheckInterval = time.Minute
	}
	if v.HealthCheckMethod == "" {
		v.HealthCheckMethod = "system_health"
	}
}

func (v *Options) Check() error {
	return nil
}
