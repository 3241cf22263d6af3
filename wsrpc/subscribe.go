// Copyright (c) 2025 BVK Chaitanya

package wsrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/visvasity/topic"
)

// Subscription represents a server-push notification stream. It stays
// registered with the client across reconnects; the client reissues the
// subscribe call on every new connection.
type Subscription struct {
	client *Client

	method      string
	unsubMethod string
	params      json.RawMessage

	topic *topic.Topic[json.RawMessage]

	mu    sync.Mutex
	subID SubscriptionID
}

// Subscribe issues the given subscription method and registers the
// subscription for automatic reissue after a reconnect. The unsubscribe
// method is invoked on Close when non-empty.
func (c *Client) Subscribe(ctx context.Context, method string, params any, unsubMethod string) (*Subscription, error) {
	data, err := marshalParams(params)
	if err != nil {
		return nil, err
	}
	s := &Subscription{
		client:      c,
		method:      method,
		unsubMethod: unsubMethod,
		params:      data,
		topic:       topic.New[json.RawMessage](),
	}

	c.mu.Lock()
	c.subs[s] = struct{}{}
	c.mu.Unlock()

	if err := c.subscribe(ctx, s); err != nil {
		c.mu.Lock()
		delete(c.subs, s)
		c.mu.Unlock()
		s.topic.Close()
		return nil, fmt.Errorf("could not subscribe to %q: %w", method, err)
	}
	return s, nil
}

func (c *Client) subscribe(ctx context.Context, s *Subscription) error {
	result, err := c.Call(ctx, s.method, s.params)
	if err != nil {
		return err
	}
	var id SubscriptionID
	if err := json.Unmarshal(result, &id); err != nil {
		return fmt.Errorf("could not unmarshal subscription id: %w", err)
	}

	s.mu.Lock()
	s.subID = id
	s.mu.Unlock()

	c.activeMap.Store(id, s)
	return nil
}

func (c *Client) resubscribe(ctx context.Context) error {
	c.mu.Lock()
	subs := make([]*Subscription, 0, len(c.subs))
	for s := range c.subs {
		subs = append(subs, s)
	}
	c.mu.Unlock()

	for _, s := range subs {
		if err := c.subscribe(ctx, s); err != nil {
			return fmt.Errorf("could not resubscribe to %q: %w", s.method, err)
		}
		slog.Info("reissued subscription on new websocket", "method", s.method)
	}
	return nil
}

// Receiver returns a new receiver for the subscription's notification
// payloads. Multiple receivers observe the same stream independently.
func (s *Subscription) Receiver() (*topic.Receiver[json.RawMessage], error) {
	return topic.Subscribe(s.topic, 0, false /* includeRecent */)
}

// Close unregisters the subscription and releases its resources. The
// unsubscribe call to the server is best-effort.
func (s *Subscription) Close() error {
	c := s.client

	c.mu.Lock()
	delete(c.subs, s)
	c.mu.Unlock()

	s.mu.Lock()
	id := s.subID
	s.mu.Unlock()

	if id != "" {
		c.activeMap.Delete(id)
		if s.unsubMethod != "" {
			ctx, cancel := context.WithTimeout(c.lifeCtx, c.opts.CallTimeout)
			defer cancel()
			if _, err := c.Call(ctx, s.unsubMethod, []any{id}); err != nil {
				slog.Warn("could not unsubscribe cleanly (ignored)", "method", s.unsubMethod, "err", err)
			}
		}
	}

	s.topic.Close()
	return nil
}
