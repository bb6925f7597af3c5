// Command devgateway runs a local stand-in for the backend gateway and the
// identity provider, for development and end-to-end testing. With
// PLAID_CLIENT_ID and PLAID_SECRET set it issues real sandbox link tokens;
// without them it hands out canned ones.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/JAZtrades/zarcaro-pay/internal/devgateway"
)

func main() {
	_ = godotenv.Load()

	addr := flag.String("addr", ":8091", "Listen address")
	dbPath := flag.String("db", "devgateway.db", "Path to database file")
	publicURL := flag.String("public-url", "", "Externally visible base URL (defaults to http://localhost<addr>)")
	flag.Parse()

	base := *publicURL
	if base == "" {
		base = fmt.Sprintf("http://localhost%s", *addr)
	}

	store, err := devgateway.NewStore(*dbPath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	bridge, err := devgateway.NewPlaidBridge(
		envOr("PLAID_ENV", "sandbox"),
		os.Getenv("PLAID_CLIENT_ID"),
		os.Getenv("PLAID_SECRET"),
	)
	if err != nil {
		log.Fatalf("plaid configuration error: %v", err)
	}
	if bridge == nil {
		log.Printf("plaid credentials not set, issuing canned sandbox tokens")
	}

	srv := devgateway.NewServer(store, bridge, base)
	log.Printf("dev gateway listening on %s (public url %s)", *addr, base)
	log.Fatal(http.ListenAndServe(*addr, srv.Router()))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
