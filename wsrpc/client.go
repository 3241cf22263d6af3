// Copyright (c) 2025 BVK Chaitanya

// Package wsrpc implements a JSON-RPC 2.0 client over a websocket, with
// support for server-push subscriptions in the style of substrate chain
// nodes. Connection loss is handled transparently: the client reopens the
// websocket and reissues all registered subscriptions, so consumers observe a
// single uninterrupted notification stream (possibly with redelivery).
package wsrpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bvk/lpbot/syncmap"
)

type Client struct {
	lifeCtx    context.Context
	lifeCancel context.CancelCauseFunc

	wg sync.WaitGroup

	opts Options

	addr string

	callCh  chan *Call
	callMap syncmap.Map[int64, *Call]

	mu   sync.Mutex
	subs map[*Subscription]struct{}

	activeMap syncmap.Map[SubscriptionID, *Subscription]
}

// Dial connects to the given websocket endpoint and returns a new client.
// The initial connection is established synchronously; a failure here is
// fatal to the caller, whereas later connection losses are retried forever in
// the background.
func Dial(ctx context.Context, addr string, opts *Options) (*Client, error) {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}

	lifeCtx, lifeCancel := context.WithCancelCause(context.Background())
	c := &Client{
		lifeCtx:    lifeCtx,
		lifeCancel: lifeCancel,
		opts:       *opts,
		addr:       addr,
		callCh:     make(chan *Call, 10),
		subs:       make(map[*Subscription]struct{}),
	}

	conn, err := c.dial(ctx)
	if err != nil {
		lifeCancel(err)
		return nil, fmt.Errorf("could not dial %q: %w", addr, err)
	}

	c.wg.Add(1)
	go c.goGetMessages(c.lifeCtx, conn)
	return c, nil
}

// Close releases resources and destroys the client instance.
func (c *Client) Close() error {
	c.lifeCancel(os.ErrClosed)
	c.wg.Wait()
	return nil
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	dctx, dcancel := context.WithTimeout(ctx, c.opts.WebsocketDialTimeout)
	defer dcancel()

	dialer := websocket.Dialer{
		EnableCompression: true,
	}
	conn, _, err := dialer.DialContext(dctx, c.addr, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (c *Client) goGetMessages(ctx context.Context, conn *websocket.Conn) {
	defer c.wg.Done()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("CAUGHT PANIC", "panic", r)
			slog.Error(string(debug.Stack()))
			panic(r)
		}
	}()

	for i := 0; ctx.Err() == nil; i = min(i+1, 5) {
		if conn == nil {
			var err error
			if conn, err = c.dial(ctx); err != nil {
				slog.Warn("could not redial websocket endpoint (may retry)", "addr", c.addr, "err", err)
				if err := sleep(ctx, time.Second<<i); err != nil {
					return
				}
				continue
			}
			i = 0
		}
		if err := c.getMessages(ctx, conn); err != nil {
			if !errors.Is(err, os.ErrClosed) {
				slog.Warn("could not get messages over websocket (may retry)", "addr", c.addr, "err", err)
			}
			if err := sleep(ctx, time.Second<<i); err != nil {
				return
			}
		}
		conn = nil
	}
}

func (c *Client) getMessages(ctx context.Context, conn *websocket.Conn) (status error) {
	// Reinitialize the per-connection state. Pending calls and subscription
	// ids from the previous connection are invalid.
	c.callMap = syncmap.Map[int64, *Call]{}
	c.activeMap = syncmap.Map[SubscriptionID, *Subscription]{}
	defer func() {
		// Cancel all existing calls with an error.
		for _, call := range c.callMap.Range {
			if status != nil {
				call.Status = status
			} else {
				call.Status = os.ErrClosed
			}
			close(call.DoneCh)
		}
	}()

	var wg sync.WaitGroup
	defer wg.Wait()

	ctx, cancel := context.WithCancelCause(ctx)
	defer func() {
		if status != nil {
			cancel(status)
		} else {
			cancel(os.ErrClosed)
		}
	}()

	defer conn.Close()

	// Start a message reader in the background.
	wg.Add(1)
	go func() {
		defer wg.Done()

		for ctx.Err() == nil {
			msg, err := c.readMessage(ctx, conn)
			if err != nil {
				if !errors.Is(err, os.ErrClosed) {
					slog.Error("could not read websocket message", "err", err)
				}
				cancel(err)
				return
			}
			if err := c.handleMessage(ctx, msg); err != nil {
				slog.Error("could not handle websocket message", "err", err)
				continue
			}
		}
	}()

	// Start a message writer in the background.
	wg.Add(1)
	go func() {
		defer wg.Done()

		id := int64(0)
		for ctx.Err() == nil {
			select {
			case <-ctx.Done():
				return

			case call := <-c.callCh:
				call.Request.ID = id + 1
				id++
				c.callMap.Store(id, call)

				if err := conn.WriteJSON(&call.Request); err != nil {
					slog.Error("could not send websocket request", "method", call.Request.Method, "err", err)
					cancel(err)
					return
				}
			}
		}
	}()

	// Reissue all registered subscriptions on the new connection.
	if err := c.resubscribe(ctx); err != nil {
		return err
	}

	if c.opts.HealthCheckMethod == "" {
		<-ctx.Done()
		return context.Cause(ctx)
	}

	for ctx.Err() == nil {
		if _, err := c.Call(ctx, c.opts.HealthCheckMethod, nil); err != nil {
			slog.Error("health check call failed; reopening new socket", "method", c.opts.HealthCheckMethod, "err", err)
			return err
		}
		if err := sleep(ctx, c.opts.HealthCheckInterval); err != nil {
			return err
		}
	}

	return context.Cause(ctx)
}

func (c *Client) readMessage(ctx context.Context, conn *websocket.Conn) (json.RawMessage, error) {
	stopc := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		conn.SetReadDeadline(time.Now())
		close(stopc)
	})

	_, msg, err := conn.ReadMessage()
	if !stop() {
		// The AfterFunc was started. Wait for it to complete, and reset the
		// Conn's deadline.
		<-stopc
		conn.SetReadDeadline(time.Time{})
		return nil, context.Cause(ctx)
	}
	if err != nil {
		return nil, err
	}

	var m json.RawMessage
	if err := json.Unmarshal(msg, &m); err != nil {
		slog.Error("could not unmarshal websocket message", "err", err)
		return nil, err
	}
	return m, nil
}

func (c *Client) handleMessage(ctx context.Context, msg json.RawMessage) error {
	var header Header
	if err := json.Unmarshal([]byte(msg), &header); err != nil {
		slog.Error("could not unmarshal websocket message header", "msg", string(msg), "err", err)
		return err
	}

	switch {
	case header.IsResponse():
		call, ok := c.callMap.LoadAndDelete(*header.ID)
		if !ok {
			slog.Warn("could not find rpc call with incoming id (ignored)", "id", *header.ID, "msg", string(msg))
			return nil
		}
		if err := json.Unmarshal([]byte(msg), &call.Response); err != nil {
			slog.Error("could not unmarshal rpc response", "msg", string(msg), "err", err)
			call.Status = err
			close(call.DoneCh)
			return err
		}
		close(call.DoneCh)

	case header.IsNotice():
		notice := new(Notice)
		if err := json.Unmarshal([]byte(msg), notice); err != nil {
			slog.Error("could not unmarshal subscription notice", "msg", string(msg), "err", err)
			return err
		}
		sub, ok := c.activeMap.Load(notice.Params.Subscription)
		if !ok {
			slog.Warn("could not find subscription for incoming notice (ignored)", "method", notice.Method, "subscription", notice.Params.Subscription)
			return nil
		}
		sub.topic.Send(notice.Params.Result)

	default:
		return fmt.Errorf("could not identify websocket message type")
	}

	return nil
}

// Call performs a JSON-RPC method call and returns the result. Every call is
// bounded by the CallTimeout option; a timed out call returns an error just
// like a rejected call.
func (c *Client) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	data, err := marshalParams(params)
	if err != nil {
		return nil, err
	}
	call := &Call{
		DoneCh: make(chan struct{}),
		Request: Request{
			JSONRPC: "2.0",
			Method:  method,
			Params:  data,
		},
	}

	cctx, ccancel := context.WithTimeout(ctx, c.opts.CallTimeout)
	defer ccancel()

	// Send request.
	select {
	case <-cctx.Done():
		return nil, context.Cause(cctx)
	case c.callCh <- call:
	}
	// Receive response.
	select {
	case <-cctx.Done():
		return nil, context.Cause(cctx)
	case <-call.DoneCh:
		if call.Status != nil {
			return nil, call.Status
		}
		if call.Response.Error != nil {
			return nil, fmt.Errorf("method %q failed: %w", method, call.Response.Error)
		}
		return call.Response.Result, nil
	}
}

func marshalParams(params any) (json.RawMessage, error) {
	if params == nil {
		return json.RawMessage("[]"), nil
	}
	if raw, ok := params.(json.RawMessage); ok {
		return raw, nil
	}
	data, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("could not marshal rpc params: %w", err)
	}
	return json.RawMessage(data), nil
}

func sleep(ctx context.Context, d time.Duration) error {
	sctx, scancel := context.WithTimeout(ctx, d)
	<-sctx.Done()
	scancel()
	if ctx.Err() != nil {
		return context.Cause(ctx)
	}
	return nil
}
