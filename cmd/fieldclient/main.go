// Command fieldclient is the depot-side companion to the server: it sends
// writes when the server is reachable, keeps them in a local SQLite queue when
// it is not, and replays the queue once the connection returns.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gasdist/backend/internal/client/api"
	"github.com/gasdist/backend/internal/client/appstate"
	"github.com/gasdist/backend/internal/client/offline"
	"github.com/gasdist/backend/internal/infrastructure/config"
	"github.com/gasdist/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

const defaultQueuePath = "gasdist-queue.db"

var version = "dev"

func main() {
	var (
		baseURL   string
		queuePath string
		token     string
	)
	flag.StringVar(&baseURL, "url", "", "Server base URL (default from client.base_url)")
	flag.StringVar(&queuePath, "queue", "", "Path of the local queue database (default from client.queue_path)")
	flag.StringVar(&token, "token", os.Getenv("GASDIST_TOKEN"), "Bearer token (default $GASDIST_TOKEN)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	// results go to stdout, logs stay out of the way
	logCfg := cfg.Log
	logCfg.Output = "stderr"
	log := logger.New(logCfg)
	defer func() { _ = log.Sync() }()

	if baseURL == "" {
		baseURL = cfg.Client.BaseURL
	}
	if queuePath == "" {
		queuePath = cfg.Client.QueuePath
	}
	if queuePath == "" {
		queuePath = defaultQueuePath
	}

	app, err := newApp(baseURL, queuePath, token, cfg.Client, log)
	if err != nil {
		log.Fatal("Failed to start field client", zap.Error(err))
	}
	defer app.close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.run(ctx, args[0], args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type app struct {
	cfg    config.ClientConfig
	log    *zap.Logger
	state  *appstate.Store
	store  *offline.SQLiteStore
	queue  *offline.Queue
	client *api.Client
	writer *api.Client
	probe  *api.Client
}

func newApp(baseURL, queuePath, token string, cfg config.ClientConfig, log *zap.Logger) (*app, error) {
	store, err := offline.OpenSQLiteStore(queuePath)
	if err != nil {
		return nil, err
	}

	state := appstate.NewStore()
	if token != "" {
		state.SignIn(appstate.Session{Token: token})
	}

	common := []api.Option{
		api.WithTimeout(cfg.Timeout),
		api.WithTokenSource(state),
		api.WithUserAgent("gasdist-fieldclient/" + version),
		api.WithLogger(log),
	}
	// the probe ignores connectivity so it can discover that the server is back
	probe, err := api.NewClient(baseURL, common...)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	client, err := api.NewClient(baseURL, append(common, api.WithConnectivity(state))...)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	queue := offline.NewQueue(store, client, state, offline.WithQueueLogger(log))
	writer, err := api.NewClient(baseURL, append(common, api.WithConnectivity(state), api.WithQueue(queue))...)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &app{
		cfg:    cfg,
		log:    log,
		state:  state,
		store:  store,
		queue:  queue,
		client: client,
		writer: writer,
		probe:  probe,
	}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn("Failed to close queue database", zap.Error(err))
	}
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "write":
		return a.write(ctx, args)
	case "enqueue":
		return a.enqueue(ctx, args)
	case "sync":
		return a.sync(ctx)
	case "status":
		return a.status(ctx)
	case "list":
		return a.list(ctx)
	case "clear":
		return a.queue.Clear(ctx)
	case "watch":
		return a.watch(ctx)
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `Gas distribution field client

Usage:
  fieldclient [flags] <command> [arguments]

Commands:
  write <operation> <METHOD> <path> <json>    Send a write now, queue it if the server is unreachable
  enqueue <operation> <METHOD> <path> <json>  Queue a write without sending it
  sync                                        Replay queued writes
  status                                      Show connectivity and queue counts
  list                                        List queued writes
  clear                                       Drop every queued write
  watch                                       Check the server every client.sync_interval and sync when it returns

Flags:
  -url string     Server base URL
  -queue string   Local queue database path (default gasdist-queue.db)
  -token string   Bearer token (default $GASDIST_TOKEN)

Example:
  fieldclient write customer.create POST /api/customers '{"name":"Wanjiru Njoroge","phone":"0712345678"}'
`)
}
