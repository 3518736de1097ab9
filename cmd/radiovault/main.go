package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/sunoh/radiovault/internal/cache"
	"github.com/sunoh/radiovault/internal/config"
	"github.com/sunoh/radiovault/internal/loader"
	"github.com/sunoh/radiovault/internal/server"
	"github.com/sunoh/radiovault/internal/service"
	"github.com/sunoh/radiovault/internal/store"
)

const usage = `Usage: radiovault [-config file] <command>

Commands:
  serve                      run the HTTP API and sync worker (default)
  sync <provider> [country]  reconcile one provider export into the catalog
`

func main() {
	configPath := flag.String("config", "", "Optional config file path (YAML); else use env DATABASE_URL")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Run migrations. pg_trgm must exist first (the name index depends on it).
	if err := store.EnsureTrgm(cfg.DatabaseURL); err != nil {
		fmt.Fprintf(os.Stderr, "pg_trgm: %v\n", err)
		os.Exit(1)
	}
	absMigrations, err := filepath.Abs("migrations")
	if err != nil {
		absMigrations = "migrations"
	}
	if _, err := os.Stat(absMigrations); err != nil {
		if exe, e := os.Executable(); e == nil {
			absMigrations = filepath.Join(filepath.Dir(exe), "migrations")
		}
	}
	if err := store.RunMigrations(cfg.DatabaseURL, "file://"+absMigrations); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}

	pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "db: %v\n", err)
		os.Exit(1)
	}
	defer pg.Close()

	// Connect to Redis if REDIS_URL is configured.
	var rds *cache.Redis
	var appStore store.Store = pg
	if cfg.RedisURL != "" {
		rds, err = cache.New(cfg.RedisURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "redis: %v\n", err)
			os.Exit(1)
		}
		defer rds.Close()

		if err := rds.Ping(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "redis ping: %v\n", err)
			os.Exit(1)
		}

		appStore = store.NewCachedStore(pg, rds)
		fmt.Fprintln(os.Stderr, "redis connected (caching and sync queue enabled)")
	} else {
		fmt.Fprintln(os.Stderr, "redis disabled (REDIS_URL not set)")
	}

	args := flag.Args()
	command := "serve"
	if len(args) > 0 {
		command = args[0]
	}

	switch command {
	case "serve":
		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		// The sync worker needs Redis for the job queue and provider locks.
		if rds != nil {
			go runSyncWorker(ctx, rds, appStore, cfg)
		}

		srv := server.New(appStore, cfg, rds)
		if err := srv.ListenAndServe(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "server: %v\n", err)
			os.Exit(1)
		}

	case "sync":
		if len(args) < 2 {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(1)
		}
		provider := args[1]
		country := ""
		if len(args) > 2 {
			country = args[2]
		}
		if err := runSync(ctx, appStore, cfg, provider, country); err != nil {
			fmt.Fprintf(os.Stderr, "sync: %v\n", err)
			os.Exit(1)
		}

	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

// runSync loads one provider export and reconciles it into the catalog,
// printing progress and a final summary.
func runSync(ctx context.Context, s store.Store, cfg *config.Config, provider, country string) error {
	records, err := loader.Load(cfg.MetadataDir, provider, country)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// Missing export is an operator-visible no-op, not a failure.
			fmt.Fprintf(os.Stderr, "no export found for %s: %v\n", provider, err)
			return nil
		}
		return err
	}

	log.Printf("syncing %d stations from %s", len(records), provider)

	sum, err := service.Reconcile(ctx, s, provider, records, service.Options{
		Progress: func(processed, total, inserted, updated, failed int) {
			log.Printf("progress: %d/%d processed (new: %d, merged: %d, failed: %d)",
				processed, total, inserted, updated, failed)
		},
	})
	if err != nil {
		return err
	}

	printSummary(sum)
	return nil
}

func printSummary(sum service.Summary) {
	line := strings.Repeat("=", 50)
	fmt.Println(line)
	fmt.Printf("          SYNC COMPLETE: %s\n", strings.ToUpper(sum.Provider))
	fmt.Println(strings.Repeat("-", 50))
	fmt.Printf("Total stations in file:   %d\n", sum.Total)
	fmt.Printf("New stations added:       %d\n", sum.Inserted)
	fmt.Printf("Existing stations merged: %d\n", sum.Updated)
	fmt.Printf("Failed records:           %d\n", sum.Failed)
	fmt.Println(line)
}

// runSyncWorker continuously dequeues sync jobs from Redis and runs them,
// holding the per-provider lock so concurrent workers cannot reconcile the
// same provider at once. It stops when ctx is cancelled (graceful shutdown).
func runSyncWorker(ctx context.Context, rds *cache.Redis, s store.Store, cfg *config.Config) {
	log.Println("sync worker started")
	for {
		select {
		case <-ctx.Done():
			log.Println("sync worker stopping")
			return
		default:
		}

		job, err := cache.Dequeue(ctx, rds, cache.DefaultQueue, 5*time.Second)
		if err != nil {
			log.Printf("sync worker: dequeue error: %v", err)
			time.Sleep(2 * time.Second)
			continue
		}
		if job == nil {
			continue // timeout, loop back to check ctx
		}

		log.Printf("sync worker: processing job provider=%q country=%q", job.Provider, job.Country)

		unlock, err := cache.TryLock(ctx, rds, cache.SyncLockKey(job.Provider), 30*time.Minute)
		if err != nil {
			if errors.Is(err, cache.ErrLocked) {
				log.Printf("sync worker: provider %q already syncing, skipping", job.Provider)
				continue
			}
			log.Printf("sync worker: lock error: %v", err)
			continue
		}

		if err := runSync(ctx, s, cfg, job.Provider, job.Country); err != nil {
			log.Printf("sync worker: %s: %v", job.Provider, err)
		}
		unlock()
	}
}
