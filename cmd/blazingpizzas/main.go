package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dilloncoffman/BlazingPizzas/config"
	"github.com/dilloncoffman/BlazingPizzas/engine"
	"github.com/dilloncoffman/BlazingPizzas/kitchen"
	"github.com/dilloncoffman/BlazingPizzas/livestate"
	"github.com/dilloncoffman/BlazingPizzas/messaging"
	"github.com/dilloncoffman/BlazingPizzas/store"
	"github.com/dilloncoffman/BlazingPizzas/www"
)

var Version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "blazingpizzas.yaml", "path to config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	flag.Parse()

	if *showVersion {
		fmt.Println("blazingpizzas", Version)
		return
	}
	if *debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *port > 0 {
		cfg.Web.Port = *port
	}

	// Database
	db, err := store.Open(&cfg.Database)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	log.Printf("blazingpizzas: database open (%s)", cfg.Database.Driver)

	// Live view mirror, only when Redis is configured
	var live engine.LiveState
	if cfg.Redis.Address != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("blazingpizzas: redis not available (%v), live views catch up when it returns", err)
		} else {
			log.Printf("blazingpizzas: redis connected (%s)", cfg.Redis.Address)
		}
		cancel()

		liveMgr := livestate.NewManager(livestate.NewRedisStore(redisClient))
		liveMgr.Start()
		defer liveMgr.Stop()
		live = liveMgr
	}

	// Kitchen client
	kc := kitchen.NewClient(cfg.Kitchen.BaseURL, cfg.Kitchen.Timeout)
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := kc.Ping(pingCtx); err == nil {
		log.Printf("blazingpizzas: kitchen reachable (%s)", cfg.Kitchen.BaseURL)
	} else {
		log.Printf("blazingpizzas: kitchen not reachable (%v)", err)
	}
	pingCancel()

	// Engine
	eng := engine.New(engine.Config{
		AppConfig:  cfg,
		ConfigPath: *configPath,
		DB:         db,
		Kitchen:    kc,
		Live:       live,
		LogFunc:    log.Printf,
		Debug:      *debug,
	})
	eng.Start()
	defer eng.Stop()

	// Ops messaging plane
	if cfg.Messaging.Enabled {
		if cfg.Messaging.Backend == "mqtt" && cfg.Messaging.MQTT.ClientID == "" {
			cfg.Messaging.MQTT.ClientID = cfg.NodeID()
		}
		msgClient := messaging.NewClient(&cfg.Messaging)
		if err := msgClient.Connect(); err != nil {
			log.Printf("blazingpizzas: messaging connect failed (%v), outbox holds reports until it recovers", err)
		} else {
			log.Printf("blazingpizzas: messaging connected (%s)", cfg.Messaging.Backend)
		}
		defer msgClient.Close()
		eng.AttachMessaging(msgClient)

		reporter := messaging.NewStatusReporter(db, cfg.NodeID(), cfg.Messaging.StatusTopic)
		reporter.Wire(eng.Events)

		drainer := messaging.NewOutboxDrainer(db, msgClient, &cfg.Messaging)
		drainer.Start()
		defer drainer.Stop()

		control := messaging.NewControlListener(msgClient, eng, cfg.Messaging.ControlTopic, cfg.NodeID())
		if err := control.Start(); err != nil {
			log.Printf("blazingpizzas: control listener subscribe failed: %v", err)
		} else {
			log.Printf("blazingpizzas: control listener on %s (node=%s)", cfg.Messaging.ControlTopic, cfg.NodeID())
		}

		hb := messaging.NewHeartbeater(msgClient, cfg.NodeID(), Version, cfg.Messaging.StatusTopic,
			cfg.Messaging.HeartbeatInterval, eng.ActiveCount)
		hb.Start()
		defer hb.Stop()
	}

	// Web server
	handler, stopWeb := www.NewRouter(eng)

	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		log.Printf("blazingpizzas: web server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("web server: %v", err)
		}
	}()

	log.Printf("blazingpizzas: ready")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Printf("blazingpizzas: shutting down...")

	// Stop the SSE hub first so long-lived connections close.
	stopWeb()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("web server shutdown: %v", err)
	}

	log.Printf("blazingpizzas: stopped")
}
