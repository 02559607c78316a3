package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/erazemk/gudang/internal/api"
	"github.com/erazemk/gudang/internal/auth"
	"github.com/erazemk/gudang/internal/blob"
	"github.com/erazemk/gudang/internal/config"
	"github.com/erazemk/gudang/internal/db"
	"github.com/erazemk/gudang/internal/inventory"
	"github.com/erazemk/gudang/internal/memstore"
	"github.com/erazemk/gudang/internal/model"
	"github.com/erazemk/gudang/internal/repo"
	"github.com/erazemk/gudang/internal/store"
)

// levelRouter sends records below ERROR to out and the rest to errOut,
// dropping anything under min.
type levelRouter struct {
	min    slog.Leveler
	out    slog.Handler
	errOut slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= lr.min.Level()
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level < slog.LevelError {
		return lr.out.Handle(ctx, r)
	}
	return lr.errOut.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{min: lr.min, out: lr.out.WithAttrs(attrs), errOut: lr.errOut.WithAttrs(attrs)}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{min: lr.min, out: lr.out.WithGroup(name), errOut: lr.errOut.WithGroup(name)}
}

// newLogHandler builds the process log handler writing to stdout and stderr,
// and also to logFile when it is non-nil.
func newLogHandler(stdout, stderr io.Writer, logFile io.Writer, level slog.Level) slog.Handler {
	if logFile != nil {
		stdout = io.MultiWriter(stdout, logFile)
		stderr = io.MultiWriter(stderr, logFile)
	}
	opts := &slog.HandlerOptions{Level: level}
	return &levelRouter{
		min:    level,
		out:    slog.NewTextHandler(stdout, opts),
		errOut: slog.NewTextHandler(stderr, opts),
	}
}

// setupLogger installs the default logger. The returned func closes the log
// file and is nil when logPath is empty.
func setupLogger(logPath string, level slog.Level) (func(), error) {
	var (
		logFile io.Writer
		cleanup func()
	)
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		logFile = f
		cleanup = func() { f.Close() }
	}

	slog.SetDefault(slog.New(newLogHandler(os.Stdout, os.Stderr, logFile, level)))
	return cleanup, nil
}

func main() {
	fs := flag.NewFlagSet("gudang", flag.ContinueOnError)

	var cfgPath string
	fs.StringVar(&cfgPath, "config", "", "")
	fs.StringVar(&cfgPath, "c", "", "")

	var addr string
	fs.StringVar(&addr, "addr", "", "")
	fs.StringVar(&addr, "a", "", "")

	var backend string
	fs.StringVar(&backend, "backend", "", "")
	fs.StringVar(&backend, "b", "", "")

	var adminUser string
	fs.StringVar(&adminUser, "user", "", "")
	fs.StringVar(&adminUser, "u", "", "")

	var logPath string
	fs.StringVar(&logPath, "log", "", "")
	fs.StringVar(&logPath, "l", "", "")

	var logLevel string
	fs.StringVar(&logLevel, "log-level", "", "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: gudang [flags]

Flags:
  -c, -config <path>      config file (default: ./gudang.yaml if present)
  -a, -addr <host:port>   listen address (default: :8080)
  -b, -backend <driver>   record backend: sqlite, postgres or memory (default: sqlite)
  -u, -user <name>        create this admin with a generated password if no users exist
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
      -log-level <level>  debug, info, warn or error (default: info)
  -h, -help               show this help and exit

Every setting can also be given as a GUDANG_* environment variable,
for example GUDANG_BACKEND_DSN or GUDANG_BLOB_S3_BUCKET.
`)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if addr != "" {
		cfg.Addr = addr
	}
	if backend != "" {
		cfg.Backend.Driver = backend
	}
	if logPath != "" {
		cfg.Log = logPath
	}
	if logLevel != "" {
		cfg.LogLevelName = logLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	closeLog, err := setupLogger(cfg.Log, cfg.LogLevel())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if closeLog != nil {
		defer closeLog()
	}

	if err := run(cfg, adminUser); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, adminUser string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	blobs, err := openBlobs(ctx, cfg)
	if err != nil {
		return err
	}
	slog.Info("blob store ready", "driver", blobs.Driver())

	records, err := openRepository(ctx, cfg, blobs)
	if err != nil {
		return err
	}
	defer records.Close()
	slog.Info("backend ready", "driver", cfg.Backend.Driver)

	secret, err := sessionSecret(ctx, cfg, records)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	inv := inventory.New(records,
		inventory.WithRetry(inventory.RetryPolicy{Attempts: cfg.Sync.RetryCount, Backoff: cfg.Sync.RetryBackoff}),
		inventory.WithMetrics(inventory.NewMetrics(reg)),
	)

	// A failed first refresh is not fatal: the status endpoint reports it and
	// the periodic refresh retries.
	if _, err := inv.RefreshAll(ctx); err != nil {
		slog.Error("initial refresh failed", "error", err)
	}

	if adminUser != "" {
		if err := bootstrapAdmin(ctx, inv, adminUser); err != nil {
			return err
		}
	}

	if cfg.Sync.Interval > 0 {
		go refreshLoop(ctx, inv, cfg.Sync.Interval)
	}

	handler := api.NewRouter(api.Deps{
		Inventory:      inv,
		Sessions:       auth.NewService(inv, secret, cfg.Session.TTL),
		Blobs:          blobs,
		Gatherer:       reg,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("server stopped, closing backend")
	return nil
}

func openBlobs(ctx context.Context, cfg config.Config) (blob.Store, error) {
	if cfg.Blob.Driver == blob.DriverS3 {
		s3cfg := cfg.Blob.S3
		return blob.NewS3(ctx, blob.S3Config{
			Bucket:          s3cfg.Bucket,
			Region:          s3cfg.Region,
			Endpoint:        s3cfg.Endpoint,
			AccessKeyID:     s3cfg.AccessKeyID,
			SecretAccessKey: s3cfg.SecretAccessKey,
			PathStyle:       s3cfg.PathStyle,
			PublicURL:       s3cfg.PublicURL,
		})
	}
	return blob.NewFS(cfg.Blob.Dir, cfg.Blob.BaseURL)
}

func openRepository(ctx context.Context, cfg config.Config, blobs blob.Store) (repo.Repository, error) {
	switch cfg.Backend.Driver {
	case config.BackendMemory:
		if cfg.Backend.StateKey == "" {
			slog.Warn("memory backend without state_key, records are lost on exit")
			return memstore.New(), nil
		}
		return memstore.Open(ctx, blobs, cfg.Backend.StateKey)
	case config.BackendPostgres:
		return openSQL(db.DriverPostgres, cfg.Backend.DSN)
	default:
		return openSQL(db.DriverSQLite, cfg.Backend.DSN)
	}
}

func openSQL(driver, dsn string) (repo.Repository, error) {
	database, err := db.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	// Ensure schema exists (idempotent).
	if err := db.EnsureSchema(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}
	return store.New(database), nil
}

// sessionSecret returns the configured signing key, the one persisted by the
// backend, or a random per-process key.
func sessionSecret(ctx context.Context, cfg config.Config, records repo.Repository) (string, error) {
	if cfg.Session.Secret != "" {
		return cfg.Session.Secret, nil
	}
	if ss, ok := records.(repo.SecretStore); ok {
		secret, err := ss.JWTSecret(ctx)
		if err == nil {
			return secret, nil
		}
		slog.Error("loading session secret, sessions will not survive a restart", "error", err)
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating session secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// bootstrapAdmin creates an admin account with a generated password when the
// backend holds no users yet.
func bootstrapAdmin(ctx context.Context, inv *inventory.Controller, username string) error {
	users := inv.Users()
	if len(users) != 1 || !users[0].IsFallback() {
		return nil
	}

	password := generatePassword()
	_, err := inv.AddUser(ctx, model.User{Username: username, Password: password, Role: model.RoleAdmin})
	var stale *inventory.StaleError
	if err != nil && !errors.As(err, &stale) {
		return fmt.Errorf("creating admin user: %w", err)
	}

	fmt.Println("Admin account created:")
	fmt.Printf("  Username: %s\n", username)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
	fmt.Println("The admin can change it after logging in.")
	fmt.Println()
	return nil
}

// generatePassword returns a random base32 password carrying 130 bits of
// entropy.
func generatePassword() string {
	return strings.ToLower(rand.Text())
}

// refreshLoop picks up changes other clients made to a shared backend.
func refreshLoop(ctx context.Context, inv *inventory.Controller, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := inv.RefreshAll(ctx); err != nil && !errors.Is(err, inventory.ErrSuperseded) && ctx.Err() == nil {
				slog.Warn("periodic refresh failed", "error", err)
			}
		}
	}
}
