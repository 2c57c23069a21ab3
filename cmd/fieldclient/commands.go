package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/gasdist/backend/internal/client/api"
	"github.com/gasdist/backend/internal/client/offline"
	"go.uber.org/zap"
)

// writeArgs parses <operation> <METHOD> <path> [json]
func writeArgs(args []string) (op, method, path string, body json.RawMessage, err error) {
	if len(args) < 3 {
		return "", "", "", nil, errors.New("expected <operation> <METHOD> <path> [json]")
	}
	op, method, path = args[0], strings.ToUpper(args[1]), args[2]
	switch method {
	case "POST", "PUT", "PATCH", "DELETE":
	default:
		return "", "", "", nil, fmt.Errorf("method %s is not a write", method)
	}
	if len(args) > 3 {
		body = json.RawMessage(args[3])
		if !json.Valid(body) {
			return "", "", "", nil, errors.New("body is not valid JSON")
		}
	}
	return op, method, path, body, nil
}

// checkServer marks the state online when /health answers
func (a *app) checkServer(ctx context.Context) bool {
	_, err := a.probe.Get(ctx, "/health", nil)
	// an error response still means the server is reachable
	online := err == nil || !api.IsNetworkError(err)
	a.state.SetOnline(online)
	return online
}

func (a *app) write(ctx context.Context, args []string) error {
	op, method, path, body, err := writeArgs(args)
	if err != nil {
		return err
	}
	a.checkServer(ctx)

	var payload any
	if body != nil {
		payload = body
	}
	res, err := a.writer.Write(ctx, api.WriteRequest{Operation: op, Method: method, Path: path, Body: payload})
	if err != nil {
		return err
	}
	if res.Queued {
		fmt.Printf("queued %s (server unreachable)\n", res.QueueID)
		return nil
	}
	fmt.Printf("%d %s\n", res.Response.StatusCode, strings.TrimSpace(string(res.Response.Body)))
	return nil
}

func (a *app) enqueue(ctx context.Context, args []string) error {
	op, method, path, body, err := writeArgs(args)
	if err != nil {
		return err
	}
	id, err := a.queue.Enqueue(ctx, op, path, method, body)
	if err != nil {
		return err
	}
	fmt.Println("queued", id)
	return nil
}

func (a *app) sync(ctx context.Context) error {
	if !a.checkServer(ctx) {
		return offline.ErrOffline
	}
	coord := offline.NewCoordinator(a.queue, a.state, a.log)
	results, err := coord.SyncNow(ctx)
	printResults(results)
	printNotices(a)
	return err
}

func (a *app) status(ctx context.Context) error {
	a.checkServer(ctx)
	st, err := a.queue.Status(ctx)
	if err != nil {
		return err
	}
	last := "never"
	if st.LastSync != nil {
		last = st.LastSync.Local().Format(time.RFC3339)
	}
	fmt.Printf("online:    %t\nqueued:    %d\npending:   %d\nfailed:    %d\nlast sync: %s\n",
		st.IsOnline, st.QueueLength, st.PendingCount, st.FailedCount, last)
	return nil
}

func (a *app) list(ctx context.Context) error {
	items, err := a.queue.Items(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tQUEUED\tOPERATION\tREQUEST\tSTATUS\tERROR")
	for _, it := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s %s\t%s\t%s\n",
			it.ID, it.Timestamp.Local().Format("2006-01-02 15:04"), it.Operation,
			it.Method, it.Endpoint, it.Status, it.Error)
	}
	return w.Flush()
}

// watch keeps probing the server and lets the coordinator replay the queue
// on every offline to online transition
func (a *app) watch(ctx context.Context) error {
	coord := offline.NewCoordinator(a.queue, a.state, a.log)
	coord.Start()
	defer coord.Stop()

	ticker := time.NewTicker(a.cfg.SyncInterval)
	defer ticker.Stop()
	a.log.Info("Watching server", zap.Duration("interval", a.cfg.SyncInterval))
	for {
		a.checkServer(ctx)
		select {
		case <-ctx.Done():
			printNotices(a)
			return nil
		case <-ticker.C:
		}
	}
}

func printResults(results []offline.SyncResult) {
	for _, r := range results {
		outcome := "ok"
		if !r.Success {
			outcome = "failed: " + r.Error
		}
		fmt.Printf("%s %s %s -> %d %s\n", r.Operation, r.Method, r.Endpoint, r.StatusCode, outcome)
	}
}

func printNotices(a *app) {
	for _, n := range a.state.Notices() {
		fmt.Printf("[%s] %s\n", n.Level, n.Message)
	}
}
