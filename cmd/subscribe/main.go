// subscribe connects to a running bridge (live or replay) and prints the
// broadcast stream to the console.
// Usage: subscribe --url ws://localhost:8765/ [--verbose]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

type wireEnvelope struct {
	Type      string          `json:"type"`
	Timestamp int64           `json:"timestamp"`
	Symbol    string          `json:"symbol"`
	Data      json.RawMessage `json:"data"`
}

func main() {
	url := flag.String("url", "ws://localhost:8765/", "bridge websocket URL")
	verbose := flag.Bool("verbose", false, "print full message JSON")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, *url, nil)
	if err != nil {
		logger.Error("dial failed", "url", *url, "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	logger.Info("connected", "url", *url)

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	counts := map[string]int{}
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			logger.Error("read failed", "error", err)
			break
		}

		if *verbose {
			fmt.Println(string(data))
			continue
		}

		var env wireEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			logger.Warn("unparseable message", "error", err)
			continue
		}
		counts[env.Type]++

		ts := ""
		if env.Timestamp > 0 {
			ts = time.UnixMilli(env.Timestamp).Format("15:04:05")
		}
		fmt.Printf("%-15s %-10s %-9s %d bytes\n", env.Type, env.Symbol, ts, len(env.Data))
	}

	logger.Info("disconnected")
	for msgType, n := range counts {
		logger.Info("received", "type", msgType, "count", n)
	}
}
