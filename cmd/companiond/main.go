package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Lcharvol/MidOrFeed-sub001/internal/bus"
	"github.com/Lcharvol/MidOrFeed-sub001/internal/config"
	"github.com/Lcharvol/MidOrFeed-sub001/internal/hub"
	"github.com/Lcharvol/MidOrFeed-sub001/internal/lcu"
	"github.com/Lcharvol/MidOrFeed-sub001/internal/overlay"
	"github.com/Lcharvol/MidOrFeed-sub001/internal/settings"
	"github.com/Lcharvol/MidOrFeed-sub001/internal/webapi"
	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	port := flag.Int("port", 0, "Override server port")
	flag.Parse()

	// .env only carries local overrides; absent is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	events := bus.New()
	store := settings.NewStore(cfg.Settings.Path)
	monitor := lcu.NewMonitor(cfg.LCU, events)
	rest := lcu.NewClient(monitor, cfg.LCU.RequestTimeout)
	stream := lcu.NewStreamClient(monitor, events, cfg.LCU.ReconnectDelay)
	ctrl := overlay.NewController(events, store)
	remote := webapi.NewClient(cfg.WebAPI.BaseURL, cfg.WebAPI.Timeout)
	broadcaster := hub.NewBroadcaster(events, monitor)

	// The stream follows the monitor: it opens only once the monitor
	// reports connected and is torn down on any other transition. The
	// status handler runs synchronously on the publishing tick, so the
	// stream always sees the transition before deciding anything.
	events.Subscribe(bus.TopicStatus, func(payload any) {
		status, ok := payload.(lcu.Status)
		if !ok {
			return
		}
		if status == lcu.StatusConnected {
			go stream.Connect()
		} else {
			stream.Disconnect()
		}
	})

	ctrl.Start()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go monitor.Start(ctx)

	server := hub.NewServer(monitor, rest, ctrl, store, remote, broadcaster)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: server.Router(),
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutting down...")

		// Stop polling first, then the stream, then the consumer side.
		// After this sequence no timer or socket can touch the bus.
		monitor.Stop()
		stream.Disconnect()
		ctrl.Stop()
		broadcaster.Close()

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Printf("Companion listening on %s", httpServer.Addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server error: %v", err)
	}
}
