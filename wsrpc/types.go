// Copyright (c) 2025 BVK Chaitanya

package wsrpc

import (
	"encoding/json"
	"fmt"
	"strconv"
)

type Request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`

	Params json.RawMessage `json:"params,omitempty"`
}

type Error struct {
	Code    int64           `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc error code=%d message=%q", e.Code, e.Message)
}

type Response struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`

	Result json.RawMessage `json:"result"`
	Error  *Error          `json:"error"`
}

// Header identifies the type of an incoming message. Responses carry an id;
// subscription notices carry a method without an id.
type Header struct {
	ID     *int64  `json:"id"`
	Method *string `json:"method"`
}

func (v *Header) IsResponse() bool {
	return v.ID != nil
}

func (v *Header) IsNotice() bool {
	return v.ID == nil && v.Method != nil
}

// SubscriptionID is the server-assigned subscription identifier. Servers
// serialize it as either a JSON string or a number.
type SubscriptionID string

func (v *SubscriptionID) UnmarshalJSON(data []byte) error {
	var x any
	if err := json.Unmarshal(data, &x); err != nil {
		return err
	}
	switch id := x.(type) {
	case string:
		*v = SubscriptionID(id)
	case float64:
		*v = SubscriptionID(strconv.FormatInt(int64(id), 10))
	default:
		return fmt.Errorf("subscription id must be a string or a number (got %T)", x)
	}
	return nil
}

func (v SubscriptionID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(v))
}

type NoticeParams struct {
	Subscription SubscriptionID  `json:"subscription"`
	Result       json.RawMessage `json:"result"`
}

type Notice struct {
	Method string       `json:"method"`
	Params NoticeParams `json:"params"`
}

type Call struct {
	Request  Request
	Response Response

	DoneCh chan struct{} `json:"-"`
	Status error         `json:"-"`
}
