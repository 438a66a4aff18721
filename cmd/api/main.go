package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelly/modelly-backend/internal/chat"
	"github.com/modelly/modelly-backend/internal/config"
	"github.com/modelly/modelly-backend/internal/db"
	"github.com/modelly/modelly-backend/internal/httpapi"
	"github.com/modelly/modelly-backend/internal/profile"
	"github.com/modelly/modelly-backend/internal/realtime"
	"github.com/modelly/modelly-backend/internal/store/rabbitmq"
	"github.com/modelly/modelly-backend/internal/store/redisstore"
)

func main() {
	cfg := config.Load()

	gdb := db.Connect(cfg.DBDSN)
	db.AutoMigrate(gdb)

	rds := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer rds.Close()

	{
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rds.Ping(ctx); err != nil {
			log.Printf("redis not reachable at %s: %v (captcha and presence mirror degraded)", cfg.RedisAddr, err)
		}
		cancel()
	}

	// durable hand-off for offline recipients; the API stays up without it
	var publisher *rabbitmq.Publisher
	if p, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue); err != nil {
		log.Printf("rabbit not reachable: %v (offline notifications disabled)", err)
	} else {
		publisher = p
		defer publisher.Close()
	}

	presence := realtime.NewPresence()
	hub := realtime.NewHub(presence)
	fanout := realtime.NewFanout(hub, publisher)

	repo := chat.NewRepo(gdb)
	profiles := profile.NewDirectory(gdb)
	chatSvc := chat.NewService(repo, fanout, profiles, cfg.ChatFreeMessages, cfg.ChatExpiryDays)

	wsHandler := realtime.NewHandler(hub, chatSvc, rds, cfg.JWTSecret, cfg.FrontendURL)

	router := httpapi.NewRouter(gdb, cfg, rds, chatSvc, wsHandler)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("api listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("api shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
