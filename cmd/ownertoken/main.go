// Command ownertoken mints a bearer token for a device owner id, for local
// testing and support tooling.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"restyle-service/internal/infra"
	"restyle-service/internal/middleware"
)

func main() {
	var (
		ownerFlag string
		ttlFlag   time.Duration
	)
	flag.StringVar(&ownerFlag, "owner", "", "owner id to mint a token for (default: a fresh id)")
	flag.DurationVar(&ttlFlag, "ttl", 365*24*time.Hour, "token lifetime")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	ownerID := strings.TrimSpace(ownerFlag)
	if ownerID == "" {
		ownerID = uuid.NewString()
	}
	token, err := middleware.IssueOwnerToken(cfg.JWTSecret, ownerID, ttlFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign token: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("owner_id: %s\ntoken: %s\n", ownerID, token)
}
