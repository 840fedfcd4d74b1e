package main

import (
	"context"
	"fmt"
	"log"
	"time"

	appcfg "github.com/park285/autobattler-league/internal/config"
	"github.com/park285/autobattler-league/internal/irisfast"
	"github.com/park285/autobattler-league/internal/leaguebuilder"
)

// leaguecheck verifies the Iris bridge and the roster store without starting
// the bot.
func main() {
	cfg, err := appcfg.Parse()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	failed := false
	if cfg.IrisBaseURL == "" {
		log.Println("IRIS_BASE_URL not set; skipping Iris check")
	} else {
		client := irisfast.NewClient(cfg.IrisBaseURL, cfg.IrisSettings())
		ctx, cancel := context.WithTimeout(context.Background(), cfg.IrisTimeout)
		ic, err := client.GetConfig(ctx)
		cancel()
		if err != nil {
			log.Printf("/config error: %v", err)
			failed = true
		} else {
			log.Printf("/config ok: bot=%s port=%d rate=%d", ic.BotName, ic.Port, ic.MessageRate)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	deps, err := leaguebuilder.New(ctx, cfg)
	if err != nil {
		log.Printf("roster/archive error: %v", err)
		failed = true
	} else {
		recent, err := deps.Archive.Recent(ctx, 1)
		if err != nil {
			log.Printf("archive error: %v", err)
			failed = true
		}
		fmt.Printf("roster ok: backend=%s players=%d archived=%d\n", cfg.RosterBackend, deps.Registry.Len(), len(recent))
		if err := deps.Close(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	if failed {
		log.Fatal("leaguecheck failed")
	}
}
