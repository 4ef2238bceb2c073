// Command chat is a terminal client for the movie booking assistant.  It
// shares the conversation rules of the web UI: one send at a time, the
// fallback reply on failure and results that only change when the API sends
// a non-empty list.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iliyamo/cinema-assistant/internal/apiclient"
	"github.com/iliyamo/cinema-assistant/internal/config"
	"github.com/iliyamo/cinema-assistant/internal/conversation"
	"github.com/iliyamo/cinema-assistant/internal/health"
	"github.com/iliyamo/cinema-assistant/internal/model"
	"github.com/iliyamo/cinema-assistant/internal/results"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := apiclient.New(cfg.APIBaseURL)
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	health.Default.Init(checkCtx, client)
	cancel()
	if health.Default.Degraded() {
		fmt.Println("! " + health.Banner(client.BaseURL()))
	}

	var fresh []model.ShowResult
	conv := conversation.New(client, conversation.WithResultsHook(func(list []model.ShowResult) { fresh = list }))

	fmt.Println("Movie Booking Assistant. Ask about movies, showtimes & bookings (Ctrl-D to quit).")
	in := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !in.Scan() {
			break
		}
		seen := conv.Len()
		if err := conv.Send(ctx, in.Text()); err != nil {
			if !errors.Is(err, conversation.ErrEmptyMessage) {
				log.Printf("chat: %v", err)
			}
			continue
		}
		for _, m := range conv.Messages()[seen:] {
			if !m.FromUser() {
				fmt.Printf("[%s] %s\n", m.Timestamp.Format("15:04"), m.Text)
			}
		}
		for _, line := range results.Summary(fresh) {
			fmt.Println("  * " + line)
		}
		fresh = nil
		if ctx.Err() != nil {
			break
		}
	}
	if err := in.Err(); err != nil {
		log.Fatalf("chat: reading input: %v", err)
	}
}
