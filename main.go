package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"artbid-console/internal/api"
	bidding "artbid-console/internal/biddingService"
	"artbid-console/internal/configuration"
	"artbid-console/internal/countdown"
	model "artbid-console/internal/models"
	notification "artbid-console/internal/notificationService"
	"artbid-console/internal/repository"
	"artbid-console/internal/session"
	"artbid-console/utils"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to the TOML config file")
	flag.Parse()

	cfg, err := configuration.GetConfig(*configPath)
	if err != nil {
		utils.Fatal("failed to load config", map[string]any{"path": *configPath, "error": err.Error()})
	}

	sess := session.New(cfg.UserID, cfg.UserName, cfg.AuthToken)
	client := api.NewClient(cfg.APIBaseURL, sess, cfg.RequestTimeout)
	cache := repository.NewMemoryCache()
	biddingSvc := bidding.NewBiddingService(cache, client, sess)
	notificationSvc := notification.NewNotificationService(client, sess)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := biddingSvc.RefreshActive(ctx); err != nil {
		utils.Fatal("failed to fetch active auctions", map[string]any{"error": err.Error()})
	}
	utils.Info("watching active auctions", map[string]any{
		"count": len(cache.All()), "user": cfg.UserID,
	})

	if err := notificationSvc.Initialize(ctx); err != nil {
		// Live push updates still flow; only the backlog is missing.
		utils.Warn("failed to initialize notifications", map[string]any{"error": err.Error()})
	}

	engine := countdown.NewEngine(cache, cfg.TickInterval)
	engine.Subscribe(newLabelPrinter().print)
	go engine.Run(ctx)

	stream := notification.NewStream(cfg.WSBaseURL, cfg.UserID, func(n model.Notification) {
		if notificationSvc.Ingest(n) {
			utils.Info("notification received", map[string]any{
				"category": string(n.Category),
				"message":  n.Message,
				"unread":   notificationSvc.UnreadCount(),
			})
		}
	})
	defer stream.Close()

	if err := stream.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		utils.Error("push channel failed", map[string]any{"error": err.Error()})
	}
	utils.Info("shutting down", nil)
}

// labelPrinter logs countdown labels, but only on ticks where at least
// one label changed, so a one-second cadence stays readable.
type labelPrinter struct {
	mu   sync.Mutex
	last map[string]string
}

func newLabelPrinter() *labelPrinter {
	return &labelPrinter{last: make(map[string]string)}
}

func (p *labelPrinter) print(labels map[string]string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	changed := len(labels) != len(p.last)
	if !changed {
		for id, label := range labels {
			if p.last[id] != label {
				changed = true
				break
			}
		}
	}
	if !changed {
		return
	}
	p.last = labels

	fields := make(map[string]any, len(labels))
	for id, label := range labels {
		fields[id] = label
	}
	utils.Info("time remaining", fields)
}
