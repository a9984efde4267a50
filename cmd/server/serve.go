package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pathlight/debt-engine/analytics"
	"github.com/pathlight/debt-engine/api"
	"github.com/pathlight/debt-engine/guidance"
	"github.com/pathlight/debt-engine/recommend"
	"github.com/pathlight/debt-engine/session"
	"github.com/pathlight/debt-engine/store/postgres"
	"github.com/pathlight/debt-engine/store/redis"
	"github.com/pathlight/debt-engine/store/sqlite"
	"github.com/spf13/cobra"
)

type serveOptions struct {
	port         int
	store        string
	dbPath       string
	databaseURL  string
	redisAddr    string
	rulesPath    string
	timeoutHours int
}

func newServeCommand() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.port, "port", envInt("PORT", 3001), "HTTP server port")
	f.StringVar(&opts.store, "store", envString("STORE", "memory"), "session store: memory, sqlite, postgres or redis")
	f.StringVar(&opts.dbPath, "db", envString("DB_PATH", "pathlight.db"), "SQLite database path (\":memory:\" for in-memory)")
	f.StringVar(&opts.databaseURL, "database-url", os.Getenv("DATABASE_URL"), "Postgres DSN")
	f.StringVar(&opts.redisAddr, "redis-addr", envString("REDIS_ADDR", "localhost:6379"), "Redis address")
	f.StringVar(&opts.rulesPath, "rules", os.Getenv("RECOMMENDATIONS_CONFIG"), "recommendation rules file (YAML)")
	f.IntVar(&opts.timeoutHours, "session-timeout", envInt("SESSION_TIMEOUT_HOURS", 24), "idle session lifetime in hours")

	return cmd
}

func runServe(ctx context.Context, opts serveOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	timeout := time.Duration(opts.timeoutHours) * time.Hour
	if timeout <= 0 {
		return fmt.Errorf("session timeout must be positive, got %d hours", opts.timeoutHours)
	}

	// Session store
	store, err := openStore(ctx, opts, timeout)
	if err != nil {
		return err
	}
	if c, ok := store.(io.Closer); ok {
		defer c.Close()
	}
	sessions := session.NewManager(store, session.WithTimeout(timeout))

	// Recommendation rules
	var rules *recommend.Config
	var rulesFile string
	if opts.rulesPath != "" {
		rules, rulesFile, err = recommend.LoadOrDefault(opts.rulesPath)
	} else {
		rules, rulesFile, err = recommend.LoadOrDefault()
	}
	if err != nil {
		return err
	}
	if rulesFile == "" {
		log.Println("Using built-in recommendation rules")
	} else {
		log.Printf("Loaded recommendation rules from %s", rulesFile)
	}

	// Guidance
	provider := guidance.New(os.Getenv("GEMINI_API_KEY"), os.Getenv("GEMINI_URL"))
	if _, ok := provider.(*guidance.Gemini); ok {
		log.Println("Guidance: Gemini enabled")
	} else {
		log.Println("Guidance: rule-based (no GEMINI_API_KEY)")
	}

	handler := api.NewHandler(sessions, rules, provider, analytics.NewTracker(analytics.DefaultCapacity))

	limiter := api.NewRateLimiter(10, time.Minute)
	defer limiter.Stop()

	router := api.NewRouter(handler, api.ServerConfig{
		CORS: api.CORSConfig{
			AllowedOrigins: api.ParseOrigins(os.Getenv("FRONTEND_URL")),
			Production:     isProduction(),
		},
		GuidanceLimiter: limiter,
	})

	sweeper := api.NewSessionSweeper(sessions)
	sweeper.Start()
	defer sweeper.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", opts.port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("PathLight server starting on http://localhost:%d (store: %s)", opts.port, opts.store)
		log.Printf("Health check: http://localhost:%d/health", opts.port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

func openStore(ctx context.Context, opts serveOptions, ttl time.Duration) (session.Store, error) {
	switch opts.store {
	case "memory", "":
		return session.NewMemory(), nil
	case "sqlite":
		s, err := sqlite.New(opts.dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize sqlite store: %w", err)
		}
		return s, nil
	case "postgres":
		if opts.databaseURL == "" {
			return nil, errors.New("postgres store requires DATABASE_URL or --database-url")
		}
		s, err := postgres.New(ctx, opts.databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgres store: %w", err)
		}
		return s, nil
	case "redis":
		s, err := redis.New(ctx, opts.redisAddr, ttl)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store %q (want memory, sqlite, postgres or redis)", opts.store)
	}
}
