package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/charmbracelet/log"
	"github.com/inngest/inngestgo"
	"github.com/mauv0809/rivalry/internal/challenge"
	"github.com/mauv0809/rivalry/internal/chat"
	"github.com/mauv0809/rivalry/internal/config"
	"github.com/mauv0809/rivalry/internal/database"
	"github.com/mauv0809/rivalry/internal/engine"
	server "github.com/mauv0809/rivalry/internal/http"
	"github.com/mauv0809/rivalry/internal/inngest"
	"github.com/mauv0809/rivalry/internal/match"
	"github.com/mauv0809/rivalry/internal/metrics"
	"github.com/mauv0809/rivalry/internal/negotiation"
	"github.com/mauv0809/rivalry/internal/notifier"
	"github.com/mauv0809/rivalry/internal/notifier/slack"
	"github.com/mauv0809/rivalry/internal/notifier/telegram"
	"github.com/mauv0809/rivalry/internal/permission"
	"github.com/mauv0809/rivalry/internal/pubsub"
	"github.com/mauv0809/rivalry/internal/rating"
	"github.com/mauv0809/rivalry/internal/realtime"
	"github.com/mauv0809/rivalry/internal/roster"
	"github.com/mauv0809/rivalry/internal/session"
)

func main() {
	// Start profiling timer
	startTime := time.Now()
	log.SetFormatter(log.JSONFormatter)
	cfg := config.Load()
	log.SetLevel(cfg.Level())
	loc := cfg.Location()

	db, dbTeardown, err := database.InitDB(cfg.DBName, cfg.Turso.PrimaryURL, cfg.Turso.AuthToken)
	dbInitDuration := time.Since(startTime)
	log.Info("Database initialization time recorded", "duration_ms", dbInitDuration.Milliseconds())
	if err != nil {
		log.Fatalf("Failed to initialize database: %s", err)
	}
	defer func() {
		log.Info("Closing database connection")
		dbTeardown()
	}()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	metricsSvc := metrics.NewService()
	metricsHandler := metrics.NewMetricsHandler()
	hub := realtime.NewHub(metricsSvc, 32)

	teams := roster.New(db)
	matches := match.New(db)
	messages := chat.New(db)
	gate := permission.New(teams)
	updater := rating.NewUpdater(db, teams, matches, metricsSvc)

	var dispatcher rating.Dispatcher = rating.LocalDispatcher{Applier: updater}
	var inngestHandler http.Handler
	if cfg.Inngest.Enabled() {
		provider, err := inngestgo.NewClient(inngestgo.ClientOpts{
			AppID:      cfg.Inngest.AppID,
			SigningKey: &cfg.Inngest.SigningKey,
			EventKey:   &cfg.Inngest.EventKey,
			Dev:        &cfg.Inngest.Dev,
		})
		if err != nil {
			log.Fatalf("Failed to initialize inngest: %s", err)
		}
		inngestClient, err := inngest.New(provider, updater)
		if err != nil {
			log.Fatalf("Failed to register inngest functions: %s", err)
		}
		dispatcher = inngestClient
		inngestHandler = inngestClient.Serve()
		log.Info("Rating updates dispatched through Inngest", "app", cfg.Inngest.AppID)
	}

	var publisher realtime.Publisher = hub
	var pubsubClient pubsub.PubSubClient
	if cfg.ProjectID != "" {
		pubsubClient, err = pubsub.New(ctx, cfg.ProjectID)
		if err != nil {
			log.Fatalf("Failed to initialize pubsub: %s", err)
		}
		defer pubsubClient.Close()
		publisher = realtime.NewPubSubPublisher(pubsubClient, pubsub.EventType(cfg.MessageTopic))
		log.Info("Match events fanned out through Pub/Sub", "topic", cfg.MessageTopic)
	}

	var notifiers notifier.Multi
	if cfg.Slack.Enabled() {
		notifiers = append(notifiers, slack.NewNotifier(cfg.Slack.Token, cfg.Slack.ChannelID, metricsSvc, loc))
	}
	if cfg.Telegram.Enabled() {
		tg, err := telegram.NewNotifier(cfg.Telegram.Token, cfg.Telegram.ChatID, metricsSvc, loc)
		if err != nil {
			log.Error("Telegram notifier disabled", "error", err)
		} else {
			notifiers = append(notifiers, tg)
		}
	}

	eng := engine.New(engine.Deps{
		Teams:       teams,
		Challenges:  challenge.New(db, matches),
		Matches:     matches,
		Chat:        messages,
		Negotiator:  negotiation.New(db, matches, messages, gate, loc),
		Gate:        gate,
		Publisher:   publisher,
		Notifier:    notifiers,
		Metrics:     metricsSvc,
		Ratings:     rating.NewTrigger(db, dispatcher, metricsSvc),
		DefaultZone: loc,
	})

	s := server.NewServer(
		eng,
		session.NewIssuer(cfg.JWTSecret, cfg.TokenTTL),
		hub,
		pubsubClient,
		rating.NewProcessor(db, updater),
		metricsHandler,
		inngestHandler,
		cfg.InternalToken,
	)

	if cfg.InternalToken == "" {
		log.Warn("INTERNAL_TOKEN is not set, Pub/Sub pushes and rating processing are refused")
	}

	// --- Record startup time ---
	startupDuration := time.Since(startTime)
	metricsSvc.SetStartupTime(startupDuration.Seconds())
	log.Info("Startup time recorded", "duration_ms", startupDuration.Milliseconds())

	// --- Graceful shutdown setup ---
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: s,
	}

	// Channel to listen for errors coming from the server
	serverErrors := make(chan error, 1)

	go func() {
		log.Info("Server started", "port", cfg.Port, "timezone", loc.String())
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-shutdown:
		log.Info("Shutdown signal received", "signal", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// Websocket streams are hijacked, so Shutdown does not wait for them.
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Server shutdown failed", "error", err)
		} else {
			log.Info("Server gracefully stopped")
		}
	}

	eng.Wait()
	log.Info("Server process shutting down")
}
