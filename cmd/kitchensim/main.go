package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dilloncoffman/BlazingPizzas/kitchen"
)

// kitchensim runs the in-memory kitchen simulator as a standalone
// service, for developing against a realistic order lifecycle without
// a real kitchen backend.
func main() {
	addr := flag.String("addr", ":8089", "listen address")
	prep := flag.Duration("prep", 10*time.Second, "time an order spends preparing")
	delivery := flag.Duration("delivery", 2*time.Minute, "time an order spends out for delivery")
	seed := flag.Int("seed", 0, "number of sample orders to place at startup")
	flag.Parse()

	sim := kitchen.NewSimulator(*prep, *delivery)
	if *seed > 0 {
		sim.Seed(*seed)
		log.Printf("kitchensim: seeded %d orders", *seed)
	}

	srv := &http.Server{
		Addr:    *addr,
		Handler: sim.Handler(),
	}

	go func() {
		log.Printf("kitchensim: listening on %s (prep=%s, delivery=%s)", *addr, *prep, *delivery)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("kitchensim: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Printf("kitchensim: shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(ctx)
}
