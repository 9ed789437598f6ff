package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/BrandonDHaskell/rollcall/internal/config"
	"github.com/BrandonDHaskell/rollcall/internal/db"
	"github.com/BrandonDHaskell/rollcall/internal/discord"
	"github.com/BrandonDHaskell/rollcall/internal/healthsrv"
	"github.com/BrandonDHaskell/rollcall/internal/httpapi"
	"github.com/BrandonDHaskell/rollcall/internal/i18n"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/service"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/store/sqlite"
)

func main() {
	logger := log.New(os.Stdout, "rollcall ", log.LstdFlags|log.LUTC)
	if err := run(logger); err != nil {
		logger.Fatalf("fatal: %v", err)
	}
}

func run(logger *log.Logger) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage
	conn, err := db.Open(ctx, db.Config{Path: cfg.DBPath, Env: cfg.Env})
	if err != nil {
		return err
	}
	defer conn.Close()

	n, err := db.ImportLegacyMirrors(ctx, conn, cfg.LegacyMirrorFile)
	if err != nil {
		return err
	}
	if n > 0 {
		logger.Printf("imported %d mirror(s) from %s", n, cfg.LegacyMirrorFile)
	}

	writer := db.NewWorker(conn)
	defer writer.Close()

	events := sqlite.NewAttendanceStore(conn, writer, sqlite.WithLocation(loc))
	mirrors := service.NewMirrorRegistry(sqlite.NewMirrorStore(conn, writer))

	// Rendering
	printer, err := i18n.Printer(cfg.Locale)
	if err != nil {
		return err
	}
	render := service.NewRenderer(printer, loc)

	// Discord
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentGuilds | discordgo.IntentGuildMessages | discordgo.IntentMessageContent
	session.Client = &http.Client{Timeout: cfg.TransportTimeout}

	transport := discord.NewTransport(session, printer.Sprintf("Enter"), printer.Sprintf("Leave"))
	svc := service.NewAttendanceService(events, mirrors, transport, render, logger, service.Options{
		SyncConcurrency: cfg.SyncConcurrency,
	})

	syncer := service.NewMirrorSyncer(svc, cfg.ResyncInterval, logger)
	defer syncer.Stop()

	handler := discord.NewHandler(ctx, session, svc, syncer, logger, discord.HandlerConfig{
		Prefix:  cfg.CommandPrefix,
		Timeout: cfg.TransportTimeout,
	})
	handler.Register(session)

	if err := session.Open(); err != nil {
		return fmt.Errorf("discord gateway: %w", err)
	}
	defer session.Close()

	// Admin HTTP
	var srv *httpapi.Server
	if cfg.HTTPAddr != "" {
		srv = httpapi.NewServer(httpapi.Dependencies{
			Logger:     logger,
			Addr:       cfg.HTTPAddr,
			Attendance: svc,
			DB:         conn,
			AdminToken: cfg.AdminToken,
		})
		go func() {
			logger.Printf("listening on %s", cfg.HTTPAddr)
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Printf("server error: %v", err)
				stop()
			}
		}()
	}

	// gRPC health
	healthDone := make(chan struct{})
	if cfg.GRPCAddr != "" {
		hs, err := healthsrv.New(cfg.GRPCAddr, conn, logger)
		if err != nil {
			return err
		}
		go func() {
			defer close(healthDone)
			if err := hs.Serve(ctx); err != nil {
				logger.Printf("health server error: %v", err)
				stop()
			}
		}()
	} else {
		close(healthDone)
	}

	<-ctx.Done()
	logger.Printf("shutting down")

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
	<-healthDone
	return nil
}
