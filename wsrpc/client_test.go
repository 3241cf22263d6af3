// Copyright (c) 2025 BVK Chaitanya

package wsrpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

// fakeServer runs a scripted JSON-RPC endpoint over a websocket.
type fakeServer struct {
	t *testing.T

	*httptest.Server

	handler func(conn *websocket.Conn, req *Request)
}

func newFakeServer(t *testing.T, handler func(conn *websocket.Conn, req *Request)) *fakeServer {
	s := &fakeServer{t: t, handler: handler}
	upgrader := websocket.Upgrader{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			req := new(Request)
			if err := conn.ReadJSON(req); err != nil {
				return
			}
			s.handler(conn, req)
		}
	}))
	return s
}

func (s *fakeServer) addr() string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

func respond(conn *websocket.Conn, id int64, result any) {
	data, _ := json.Marshal(result)
	conn.WriteJSON(&Response{JSONRPC: "2.0", ID: id, Result: data})
}

func TestCall(t *testing.T) {
	ctx := context.Background()

	server := newFakeServer(t, func(conn *websocket.Conn, req *Request) {
		switch req.Method {
		case "system_health":
			respond(conn, req.ID, map[string]bool{"is_syncing": false})
		case "echo":
			conn.WriteJSON(&Response{JSONRPC: "2.0", ID: req.ID, Result: req.Params})
		case "reject":
			conn.WriteJSON(&Response{JSONRPC: "2.0", ID: req.ID, Error: &Error{Code: -32602, Message: "bad params"}})
		default:
			t.Errorf("unexpected method %q", req.Method)
		}
	})
	defer server.Close()

	client, err := Dial(ctx, server.addr(), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	result, err := client.Call(ctx, "echo", []any{"hello", 42})
	if err != nil {
		t.Fatal(err)
	}
	if want := `["hello",42]`; string(result) != want {
		t.Fatalf("want %s, got %s", want, result)
	}

	if _, err := client.Call(ctx, "reject", nil); err == nil {
		t.Fatalf("want an error, got nil")
	}
}

func TestDialFailure(t *testing.T) {
	ctx := context.Background()
	if _, err := Dial(ctx, "ws://127.0.0.1:1/does-not-exist", nil); err == nil {
		t.Fatalf("want an error, got nil")
	}
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()

	server := newFakeServer(t, func(conn *websocket.Conn, req *Request) {
		switch req.Method {
		case "system_health":
			respond(conn, req.ID, map[string]bool{"is_syncing": false})
		case "test_subscribeItems":
			respond(conn, req.ID, "sub-100")
		case "test_emit":
			respond(conn, req.ID, true)
			for i := 0; i < 3; i++ {
				data, _ := json.Marshal(map[string]int{"item": i})
				conn.WriteJSON(&Notice{
					Method: "test_items",
					Params: NoticeParams{Subscription: "sub-100", Result: data},
				})
			}
		case "test_unsubscribeItems":
			respond(conn, req.ID, true)
		default:
			t.Errorf("unexpected method %q", req.Method)
		}
	})
	defer server.Close()

	client, err := Dial(ctx, server.addr(), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	sub, err := client.Subscribe(ctx, "test_subscribeItems", nil, "test_unsubscribeItems")
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Close()

	recv, err := sub.Receiver()
	if err != nil {
		t.Fatal(err)
	}
	defer recv.Close()

	if _, err := client.Call(ctx, "test_emit", nil); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		msg, err := recv.Receive()
		if err != nil {
			t.Fatal(err)
		}
		var item struct {
			Item int `json:"item"`
		}
		if err := json.Unmarshal(msg, &item); err != nil {
			t.Fatal(err)
		}
		if item.Item != i {
			t.Fatalf("want %d, got %d", i, item.Item)
		}
	}
}
