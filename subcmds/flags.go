// Copyright (c) 2025 BVK Chaitanya

// Package subcmds implements the lpbot command-line subcommands.
package subcmds

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/bvk/lpbot/venue"
	"github.com/bvk/lpbot/wsrpc"
)

type ServerFlags struct {
	Port int
	IP   string
}

func (sf *ServerFlags) SetFlags(fset *flag.FlagSet) {
	fset.IntVar(&sf.Port, "listen-port", 10500, "TCP port number for the api endpoint")
	fset.StringVar(&sf.IP, "listen-ip", "127.0.0.1", "TCP ip address for the api endpoint")
}

type ClientFlags struct {
	port        int
	host        string
	httpTimeout time.Duration
}

func (cf *ClientFlags) SetFlags(fset *flag.FlagSet) {
	fset.IntVar(&cf.port, "connect-port", 0, "TCP port number for the api endpoint (default=10500 or LPBOT_SERVER_PORT value)")
	fset.StringVar(&cf.host, "connect-host", "127.0.0.1", "Hostname or IP address for the api endpoint")
	fset.DurationVar(&cf.httpTimeout, "http-timeout", 30*time.Second, "http client timeout")
}

func (cf *ClientFlags) Port() int {
	if cf.port != 0 {
		return cf.port
	}
	if v := os.Getenv("LPBOT_SERVER_PORT"); len(v) != 0 {
		if port, err := strconv.ParseInt(v, 10, 16); err == nil {
			return int(port)
		}
	}
	return 10500
}

func (cf *ClientFlags) AddressURL() *url.URL {
	return &url.URL{
		Scheme: "http",
		Host:   net.JoinHostPort(cf.host, fmt.Sprintf("%d", cf.Port())),
	}
}

// Get fetches a JSON value from the daemon's api endpoint.
func Get[RESP any](ctx context.Context, cf *ClientFlags, subpath string) (*RESP, error) {
	addrURL := cf.AddressURL()
	addrURL.Path = path.Join("/", subpath)

	r, err := http.NewRequestWithContext(ctx, http.MethodGet, addrURL.String(), nil)
	if err != nil {
		return nil, err
	}
	client := &http.Client{Timeout: cf.httpTimeout}
	resp, err := client.Do(r)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("http status code %d: %s", resp.StatusCode, data)
	}
	response := new(RESP)
	if err := json.NewDecoder(resp.Body).Decode(response); err != nil {
		return nil, err
	}
	return response, nil
}

// VenueFlags identify the venue websocket endpoint and our LP account.
type VenueFlags struct {
	Endpoint string
	Account  string
}

func (vf *VenueFlags) SetFlags(fset *flag.FlagSet) {
	fset.StringVar(&vf.Endpoint, "endpoint", "ws://127.0.0.1:9944", "Websocket address of the venue rpc node")
	fset.StringVar(&vf.Account, "account", "", "LP account id on the venue")
}

func (vf *VenueFlags) Check() error {
	if vf.Endpoint == "" {
		return fmt.Errorf("venue endpoint cannot be empty")
	}
	return nil
}

// Dial connects to the configured venue endpoint.
func (vf *VenueFlags) Dial(ctx context.Context) (*wsrpc.Client, error) {
	if err := vf.Check(); err != nil {
		return nil, err
	}
	return wsrpc.Dial(ctx, vf.Endpoint, nil /* opts */)
}

// parsePairs parses a comma-separated list of Chain.SYMBOL-Chain.SYMBOL
// instrument names.
func parsePairs(s string) ([]venue.AssetPair, error) {
	if s == "" {
		return nil, fmt.Errorf("instrument list cannot be empty")
	}
	var pairs []venue.AssetPair
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		pair, err := venue.ParsePair(field)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, pair)
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("instrument list cannot be empty")
	}
	return pairs, nil
}
