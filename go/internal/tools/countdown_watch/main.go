package main

import (
	"context"
	"flag"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/footy-auction/go/internal/countdown"
	"github.com/mcdev12/footy-auction/go/internal/models"
)

// countdown_watch follows the auction countdown from the command line, either by
// polling the snapshot RPC or by holding the websocket open.
func main() {
	baseURL := flag.String("url", "http://localhost:8080", "auction server base URL")
	mode := flag.String("mode", "ws", "snapshot source: ws or rpc")
	poll := flag.Duration("poll", 15*time.Second, "rpc poll interval")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	snapshots := make(chan models.Snapshot, 1)
	switch *mode {
	case "ws":
		go watchWebsocket(ctx, *baseURL, snapshots)
	case "rpc":
		go pollRPC(ctx, *baseURL, *poll, snapshots)
	default:
		log.Fatal().Str("mode", *mode).Msg("unknown mode")
	}

	clock := clockwork.NewRealClock()
	tracker := countdown.NewTracker(clock)
	ticker := clock.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-snapshots:
			before := tracker.Version()
			phase := tracker.Observe(snap)
			if snap.Version != before {
				log.Info().
					Int64("version", snap.Version).
					Str("state", string(snap.State)).
					Str("label", snap.Label).
					Str("phase", string(phase)).
					Msg("snapshot")
			}
		case <-ticker.Chan():
			switch tracker.Tick() {
			case countdown.PhaseAwaitingFirstSnapshot:
				log.Debug().Msg("waiting for a deadline")
			case countdown.PhaseCountingDown:
				log.Info().Str("remaining", formatRemaining(tracker.Remaining())).Msg("countdown")
			case countdown.PhaseEndedDisplayed:
				log.Info().Msg("auction ended")
				return
			}
		}
	}
}

func formatRemaining(d time.Duration) string {
	return d.Truncate(time.Second).String()
}

func deliver(ch chan models.Snapshot, snap models.Snapshot) {
	select {
	case <-ch:
	default:
	}
	ch <- snap
}

func pollRPC(ctx context.Context, baseURL string, interval time.Duration, out chan models.Snapshot) {
	client := countdown.NewRPCClient(&http.Client{Timeout: 30 * time.Second}, baseURL)
	for {
		snap, err := client.GetSnapshot(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("snapshot fetch failed")
		} else {
			deliver(out, snap)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

func watchWebsocket(ctx context.Context, baseURL string, out chan models.Snapshot) {
	u, err := url.Parse(baseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid url")
	}
	u.Scheme = strings.Replace(u.Scheme, "http", "ws", 1)
	u.Path = "/ws/countdown"

	for ctx.Err() == nil {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
		if err != nil {
			log.Warn().Err(err).Msg("websocket dial failed, retrying")
			sleep(ctx, 2*time.Second)
			continue
		}

		readSnapshots(ctx, conn, out)
		sleep(ctx, time.Second)
	}
}

// readSnapshots delivers snapshots from conn until it fails or ctx is done.
func readSnapshots(ctx context.Context, conn *websocket.Conn, out chan models.Snapshot) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()
	defer conn.Close()

	for {
		var msg countdown.Message
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() == nil {
				log.Warn().Err(err).Msg("websocket closed, reconnecting")
			}
			return
		}
		if msg.Type == countdown.MessageTypeSnapshot {
			deliver(out, msg.Data)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
