// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/nightlyone/lockfile"
	"github.com/shirou/gopsutil/v4/process"
	"github.com/visvasity/sglog"

	"github.com/bvk/lpbot/alert"
	"github.com/bvk/lpbot/book"
	"github.com/bvk/lpbot/cli"
	"github.com/bvk/lpbot/ctxutil"
	"github.com/bvk/lpbot/daemonize"
	"github.com/bvk/lpbot/engine"
	"github.com/bvk/lpbot/feed"
	"github.com/bvk/lpbot/httputil"
	"github.com/bvk/lpbot/idgen"
	"github.com/bvk/lpbot/lpapi"
	"github.com/bvk/lpbot/replenish"
	"github.com/bvk/lpbot/statechain"
	"github.com/bvk/lpbot/strategy"
	"github.com/bvk/lpbot/venue"
	"github.com/bvk/lpbot/wsrpc"
)

type Run struct {
	ServerFlags
	VenueFlags

	background bool

	restart         bool
	shutdownTimeout time.Duration

	noPprof bool

	instruments string

	secretsPath string
	dataDir     string
}

func (c *Run) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("run", flag.ContinueOnError)
	c.ServerFlags.SetFlags(fset)
	c.VenueFlags.SetFlags(fset)
	fset.BoolVar(&c.background, "background", false, "runs the daemon in background")
	fset.BoolVar(&c.restart, "restart", false, "when true, kills any old instance")
	fset.DurationVar(&c.shutdownTimeout, "shutdown-timeout", 30*time.Second, "max timeout for shutdown when restarting")
	fset.BoolVar(&c.noPprof, "no-pprof", false, "when true net/http/pprof handler is not registered")
	fset.StringVar(&c.instruments, "instruments", "", "comma-separated instruments, e.g., Bitcoin.BTC-Ethereum.USDC")
	fset.StringVar(&c.secretsPath, "secrets-file", "", "path to notification credentials file")
	fset.StringVar(&c.dataDir, "data-dir", "", "path to the data directory")
	return fset, cli.CmdFunc(c.run)
}

func (c *Run) Synopsis() string {
	return "Runs the lpbot daemon in foreground or background"
}

func (c *Run) CommandHelp() string {
	return `

Command "run" starts the market-making daemon. The daemon watches scheduled
swaps on the configured instruments and provides liquidity against them with
limit orders at the venue's prevailing pool price.

The LP account must already be registered and funded on the venue node that
the daemon connects to. All pre-existing resting orders of the account are
canceled at startup so the in-memory order book starts in sync with the
venue.

SECRETS FILE

An optional secrets file carries operator-notification credentials in JSON
format:

    {
        "telegram": {"bot_token": "111:aaa", "chat_id": 12345},
        "pushover": {"application_key": "aaa", "user_key": "bbb"}
    }

`
}

// statusData is the payload of the daemon's /status api endpoint.
type statusData struct {
	Pid     int    `json:"pid"`
	Account string `json:"account"`

	Instruments []string `json:"instruments"`

	NumSwapsSeen  int `json:"num_swaps_seen"`
	NumOpenOrders int `json:"num_open_orders"`

	Orders []*book.Order `json:"orders"`

	MemoryRSS  uint64  `json:"memory_rss"`
	CPUPercent float64 `json:"cpu_percent"`
}

func (c *Run) run(ctx context.Context, args []string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(c.dataDir) == 0 {
		c.dataDir = filepath.Join(os.Getenv("HOME"), ".lpbot")
	}
	if _, err := os.Stat(c.dataDir); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("could not stat data directory %q: %w", c.dataDir, err)
		}
		if err := os.MkdirAll(c.dataDir, 0700); err != nil {
			return fmt.Errorf("could not create data directory %q: %w", c.dataDir, err)
		}
	}
	dataDir, err := filepath.Abs(c.dataDir)
	if err != nil {
		return fmt.Errorf("could not determine data-dir %q absolute path: %w", c.dataDir, err)
	}

	if len(c.Account) == 0 {
		return fmt.Errorf("lp account id is required")
	}
	pairs, err := parsePairs(c.instruments)
	if err != nil {
		return err
	}

	if len(c.secretsPath) == 0 {
		c.secretsPath = filepath.Join(dataDir, "secrets.json")
	}
	var secrets *Secrets
	if s, err := SecretsFromFile(c.secretsPath); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	} else {
		secrets = s
	}

	if ip := net.ParseIP(c.IP); ip == nil {
		return fmt.Errorf("invalid ip address")
	}
	if c.Port <= 0 {
		return fmt.Errorf("invalid port number")
	}
	addr := &net.TCPAddr{
		IP:   net.ParseIP(c.IP),
		Port: c.Port,
	}

	// Health checker for the background process initialization.
	check := func(ctx context.Context) error {
		client := http.Client{Timeout: time.Second}
		resp, err := client.Get(fmt.Sprintf("http://%s/pid", addr.String()))
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("http status: %d", resp.StatusCode)
		}
		return nil
	}

	if c.background {
		if err := daemonize.Daemonize(ctx, check); err != nil {
			return err
		}
	}

	// Route slog output to rotating log files under the data directory.
	logDir := filepath.Join(dataDir, "logs")
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return fmt.Errorf("could not create log directory %q: %w", logDir, err)
	}
	backend := sglog.NewBackend(&sglog.Options{LogDirs: []string{logDir}})
	defer backend.Close()
	slog.SetDefault(slog.New(backend.Handler()))

	log.SetFlags(log.Flags() | log.Lmicroseconds)
	log.Printf("using data directory %s and venue endpoint %s", dataDir, c.Endpoint)

	lockPath := filepath.Join(dataDir, "lpbot.lock")
	flock, err := lockfile.New(lockPath)
	if err != nil {
		return fmt.Errorf("could not create lock file %q: %w", lockPath, err)
	}
	if err := flock.TryLock(); err != nil {
		if !c.restart {
			return fmt.Errorf("could not get lock on file %q: %w", lockPath, err)
		}
		owner, err := flock.GetOwner()
		if err != nil {
			return fmt.Errorf("could not get current owner of the lock file: %w", err)
		}
		if err := owner.Signal(os.Interrupt); err == nil {
			log.Printf("waiting for the previous instance to shutdown")
			if err := ctxutil.RetryTimeout(ctx, time.Second, c.shutdownTimeout, flock.TryLock); err != nil {
				if err := owner.Signal(os.Kill); err != nil {
					return fmt.Errorf("could not kill current owner of the lock file: %w", err)
				}
				ctxutil.Sleep(ctx, time.Millisecond)
			}
		}
		if err := flock.TryLock(); err != nil {
			return fmt.Errorf("could not get lock on file %q after killing previous instance: %w", lockPath, err)
		}
	}
	defer flock.Unlock()

	// Start the HTTP api server.
	s, err := httputil.New(nil /* opts */)
	if err != nil {
		return err
	}
	defer s.Close()

	tcpServer, err := s.StartTCP(ctx, addr)
	if err != nil {
		return fmt.Errorf("could not start http server on %s: %w", addr, err)
	}
	defer s.Stop(tcpServer)

	if !c.noPprof {
		s.AddHandler("/debug/pprof/heap", pprof.Handler("heap"))
		s.AddHandler("/debug/pprof/goroutine", pprof.Handler("goroutine"))
		s.AddHandler("/debug/pprof/allocs", pprof.Handler("allocs"))
		s.AddHandler("/debug/pprof/block", pprof.Handler("block"))
		s.AddHandler("/debug/pprof/mutex", pprof.Handler("mutex"))
	}

	// Connect to the venue. A failure to establish the initial connection (or
	// the initial subscriptions below) is the one fatal setup error; later
	// connection losses are retried by the rpc client.
	rpc, err := wsrpc.Dial(ctx, c.Endpoint, nil /* opts */)
	if err != nil {
		return err
	}
	defer rpc.Close()

	chain := statechain.New(rpc)
	lp := lpapi.New(rpc, c.Account)

	var swapFeeds []*feed.SwapFeed
	var swapChs []<-chan venue.SwapEvent
	for _, pair := range pairs {
		swaps, err := feed.NewSwapFeed(ctx, chain, pair)
		if err != nil {
			return fmt.Errorf("could not open swap feed for %s: %w", pair, err)
		}
		defer swaps.Close()
		swapFeeds = append(swapFeeds, swaps)
		swapChs = append(swapChs, swaps.Events())

		prices, err := feed.NewPriceWatcher(ctx, chain, pair)
		if err != nil {
			return fmt.Errorf("could not open pool price feed for %s: %w", pair, err)
		}
		defer prices.Close()
	}

	fills, err := feed.NewFillFeed(ctx, lp)
	if err != nil {
		return fmt.Errorf("could not open order fills feed: %w", err)
	}
	defer fills.Close()

	// Order ids restart from a fresh sequence on every boot; this is safe
	// because all resting orders are canceled by the startup reset.
	seed := fmt.Sprintf("%s/%d", c.Account, os.Getpid())
	manager := engine.NewManager(lp, idgen.New(seed, 0))
	defer manager.Close()

	if secrets != nil {
		notifiers, err := secrets.Notifiers()
		if err != nil {
			return err
		}
		if len(notifiers) > 0 {
			recv, err := manager.Shortfalls()
			if err != nil {
				return err
			}
			alerter := alert.New(recv, notifiers...)
			defer alerter.Close()
		}
	}

	shortfalls, err := manager.Shortfalls()
	if err != nil {
		return err
	}
	replenisher, err := replenish.New(lp, nil /* transferor */, shortfalls, nil /* opts */)
	if err != nil {
		return err
	}
	defer replenisher.Close()

	s.AddHandler("/pid", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, fmt.Sprintf("%d", os.Getpid()))
	}))
	s.AddHandler("/status", c.statusHandler(manager, swapFeeds))

	supervisor := engine.NewSupervisor(strategy.New(pairs), manager, swapChs, fills.Events())

	log.Printf("started lpbot daemon at %s for account %s", addr, c.Account)

	statusCh := make(chan error, 1)
	go func() {
		statusCh <- supervisor.Run(ctx)
	}()

	select {
	case err := <-statusCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	case <-ctx.Done():
		<-statusCh
	}
	log.Printf("lpbot daemon is shutting down")
	return nil
}

func (c *Run) statusHandler(manager *engine.Manager, swapFeeds []*feed.SwapFeed) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data := &statusData{
			Pid:           os.Getpid(),
			Account:       c.Account,
			NumOpenOrders: manager.NumOpen(),
			Orders:        manager.Orders(),
		}
		for _, f := range swapFeeds {
			data.NumSwapsSeen += f.NumSeen()
		}
		if pairs, err := parsePairs(c.instruments); err == nil {
			for _, pair := range pairs {
				data.Instruments = append(data.Instruments, pair.String())
			}
		}
		if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
			if mi, err := proc.MemoryInfo(); err == nil {
				data.MemoryRSS = mi.RSS
			}
			if pct, err := proc.CPUPercent(); err == nil {
				data.CPUPercent = pct
			}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("could not encode status response", "err", err)
		}
	})
}
