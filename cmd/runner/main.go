// Command runner performs one bounded batch pass and exits. It is meant to
// be invoked by cron or a container scheduler:
//
//	runner -task publish
//	runner -task timing -platform twitter -owner 42
//	runner -task all
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"ampcast/internal/cache"
	"ampcast/internal/config"
	"ampcast/internal/database"
	"ampcast/internal/middleware"
	"ampcast/internal/models"
	"ampcast/internal/server"
	"ampcast/internal/service"
)

func main() {
	task := flag.String("task", "publish", "which pass to run: publish, timing, or all")
	owner := flag.Uint("owner", 0, "restrict the pass to one owner (0 = all)")
	platformName := flag.String("platform", "", "restrict the pass to one platform (empty = all)")
	timezone := flag.String("timezone", "", "IANA timezone for timing buckets (default UTC)")
	lookback := flag.Int("lookback", 0, "timing lookback window in days (0 = default)")
	timeout := flag.Duration("timeout", 10*time.Minute, "overall run deadline")
	flag.Parse()

	if *platformName != "" && !models.ValidPlatform(*platformName) {
		log.Fatalf("Unknown platform %q", *platformName)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	middleware.InitMiddleware(cfg)

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	cache.InitRedis(cfg.RedisURL)

	srv, err := server.NewServerWithDeps(cfg, db, cache.GetClient())
	if err != nil {
		log.Fatalf("Failed to build services: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	exitCode := 0
	if *task == "publish" || *task == "all" {
		report, err := srv.Publisher().Run(ctx, service.RunInput{
			OwnerID:  *owner,
			Platform: *platformName,
		})
		if err != nil {
			log.Printf("Publish pass failed: %v", err)
			exitCode = 1
		} else {
			fmt.Printf("publish run %s: selected=%d published=%d failed=%d skipped=%d\n",
				report.RunID, report.Selected, report.Published, report.Failed, report.Skipped)
		}
	}

	if *task == "timing" || *task == "all" {
		platforms := models.Platforms
		if *platformName != "" {
			platforms = []string{*platformName}
		}
		if *owner == 0 {
			log.Printf("Timing pass requires -owner")
			exitCode = 1
		} else {
			for _, p := range platforms {
				report, err := srv.Timing().Recompute(ctx, service.RecomputeInput{
					OwnerID:      *owner,
					Platform:     p,
					LookbackDays: *lookback,
					Timezone:     *timezone,
				})
				if err != nil {
					log.Printf("Timing pass for %s failed: %v", p, err)
					exitCode = 1
					continue
				}
				fmt.Printf("timing %s: posts=%d buckets=%d\n", p, report.PostsExamined, report.Buckets)
			}
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
	os.Exit(exitCode)
}
