package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"connectrpc.com/connect"
	connectcors "connectrpc.com/cors"
	"connectrpc.com/otelconnect"
	"filippo.io/csrf"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/tokenboard/internal/assign"
	"github.com/wolfeidau/tokenboard/internal/auth"
	httpmiddleware "github.com/wolfeidau/tokenboard/internal/http"
	"github.com/wolfeidau/tokenboard/internal/ledger"
	"github.com/wolfeidau/tokenboard/internal/logger"
	"github.com/wolfeidau/tokenboard/internal/seed"
	"github.com/wolfeidau/tokenboard/internal/server"
	"github.com/wolfeidau/tokenboard/internal/store"
	memorystore "github.com/wolfeidau/tokenboard/internal/store/memory"
	postgresstore "github.com/wolfeidau/tokenboard/internal/store/postgres"
	"github.com/wolfeidau/tokenboard/internal/telemetry"
	"github.com/wolfeidau/tokenboard/internal/workflow"
)

const apiPrefix = "/tokenboard.v1."

type ServerCmd struct {
	// Server configuration
	Listen string `help:"HTTP server listen address" default:"0.0.0.0:8443" env:"TOKENBOARD_LISTEN"`
	Cert   string `help:"path to TLS cert file, plain HTTP when empty" default:"" env:"TOKENBOARD_TLS_CERT"`
	Key    string `help:"path to TLS key file" default:"" env:"TOKENBOARD_TLS_KEY"`

	// CORS configuration
	CORSOrigins []string `help:"allowed CORS origins for API requests" default:"https://localhost" env:"TOKENBOARD_CORS_ORIGINS"`

	// Authentication
	JWTPublicKey string `help:"path to the PEM encoded ES256 public key used to verify bearer tokens" default:"" env:"TOKENBOARD_JWT_PUBLIC_KEY"`
	DevIdentity  bool   `help:"trust X-Tokenboard-* identity headers instead of bearer tokens (development only)" default:"false" env:"TOKENBOARD_DEV_IDENTITY"`

	// Engine behaviour
	AutoAssign bool   `help:"assign performers automatically at ticket intake" default:"true" negatable:"" env:"TOKENBOARD_AUTO_ASSIGN"`
	SeedFile   string `help:"YAML file of job types, organizations and performers to load at startup" default:"" env:"TOKENBOARD_SEED_FILE"`

	Tracing          bool    `help:"enable tracing and metrics export" default:"false" env:"TOKENBOARD_TRACING"`
	TraceSampleRatio float64 `help:"fraction of root traces to keep when tracing is enabled" default:"1.0" env:"TOKENBOARD_TRACE_SAMPLE_RATIO"`

	// Store configuration
	StoreType     string             `help:"store type (memory or postgres)" default:"memory" env:"TOKENBOARD_STORE_TYPE" enum:"memory,postgres"`
	PostgresStore PostgresStoreFlags `embed:"" prefix:"postgres-"`
}

type PostgresStoreFlags struct {
	// Connection Configuration
	ConnString string `help:"PostgreSQL connection string" env:"POSTGRES_CONNECTION_STRING"`

	// Connection Pool Configuration
	MaxConns        int32         `help:"maximum number of connections in pool" default:"20"`
	MinConns        int32         `help:"minimum number of connections in pool" default:"2"`
	MaxConnLifetime time.Duration `help:"maximum connection lifetime" default:"1h"`
	MaxConnIdleTime time.Duration `help:"maximum connection idle time" default:"30m"`

	// Transaction Configuration
	LockTimeoutMillis   int32 `help:"row lock wait in milliseconds before a transaction is retried" default:"2000"`
	QueryTimeoutSeconds int32 `help:"maximum transaction duration in seconds" default:"10"`

	// Migration Configuration
	AutoMigrate bool `help:"run database migrations on startup" default:"false" env:"TOKENBOARD_POSTGRES_AUTO_MIGRATE"`
}

func (s *PostgresStoreFlags) Validate() error {
	if s.ConnString == "" {
		return errors.New("PostgreSQL connection string is required (--postgres-conn-string or POSTGRES_CONNECTION_STRING)")
	}
	return nil
}

func (c *ServerCmd) Validate() error {
	if c.JWTPublicKey == "" && !c.DevIdentity {
		return errors.New("a JWT public key is required (--jwt-public-key) unless --dev-identity is set")
	}
	if c.TraceSampleRatio < 0 || c.TraceSampleRatio > 1 {
		return errors.New("trace sample ratio must be between 0 and 1 (--trace-sample-ratio)")
	}
	if (c.Cert == "") != (c.Key == "") {
		return errors.New("TLS certificate and key must be provided together (--cert and --key)")
	}
	return nil
}

func (c *ServerCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting server")

	// Setup telemetry if enabled
	var interceptors []connect.Interceptor
	if c.Tracing {
		log.Info().Msg("Tracing is enabled")
		shutdown, err := telemetry.InitTelemetry(ctx, telemetry.Config{
			ServiceName: "tokenboard-server",
			Version:     globals.Version,
			SampleRatio: c.TraceSampleRatio,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without metrics")
			shutdown = func(ctx context.Context) error { return nil }
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Failed to shutdown telemetry")
			}
		}()
		otelInterceptor, err := otelconnect.NewInterceptor()
		if err != nil {
			return fmt.Errorf("failed to create OTEL interceptor: %w", err)
		}
		interceptors = append(interceptors, otelInterceptor)
	}

	st, closeStore, err := c.openStore(ctx, log)
	if err != nil {
		return err
	}
	defer closeStore()

	l := ledger.New(st)

	if c.SeedFile != "" {
		file, err := seed.LoadFile(c.SeedFile)
		if err != nil {
			return err
		}
		if err := file.Apply(ctx, l); err != nil {
			return fmt.Errorf("failed to apply seed file: %w", err)
		}
	}

	engine := workflow.New(l, assign.NewEngine(), workflow.WithAutoAssign(c.AutoAssign))

	authMiddleware, err := c.authMiddleware(log)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/", authMiddleware(server.NewServer(engine).Handler(log, interceptors...)))

	// CSRF protection for non-API routes
	protection := csrf.New()

	var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// API routes get CORS, everything else gets CSRF
		if isAPIRoute(r.URL.Path) {
			withCORS(c.CORSOrigins, mux).ServeHTTP(w, r)
		} else {
			protection.Handler(mux).ServeHTTP(w, r)
		}
	})
	handler = httpmiddleware.ClientIPMiddleware()(handler)
	handler = httpmiddleware.RequestIDMiddleware(log)(handler)

	srv := configureHTTPServer(c.Listen, handler)

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", c.Listen).
			Bool("tls", c.Cert != "").
			Bool("dev_identity", c.DevIdentity).
			Bool("auto_assign", c.AutoAssign).
			Msg("Starting HTTP server")

		if c.Cert != "" {
			errCh <- srv.ListenAndServeTLS(c.Cert, c.Key)
			return
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (c *ServerCmd) openStore(ctx context.Context, log zerolog.Logger) (store.Store, func(), error) {
	switch c.StoreType {
	case "postgres":
		if err := c.PostgresStore.Validate(); err != nil {
			return nil, nil, err
		}

		pool, err := postgresstore.NewPool(ctx, &postgresstore.PoolConfig{
			ConnString:      c.PostgresStore.ConnString,
			MaxConns:        c.PostgresStore.MaxConns,
			MinConns:        c.PostgresStore.MinConns,
			MaxConnLifetime: c.PostgresStore.MaxConnLifetime,
			MaxConnIdleTime: c.PostgresStore.MaxConnIdleTime,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create connection pool: %w", err)
		}

		st, err := postgresstore.NewStore(ctx, pool, &postgresstore.StoreConfig{
			AutoMigrate:         c.PostgresStore.AutoMigrate,
			LockTimeoutMillis:   c.PostgresStore.LockTimeoutMillis,
			QueryTimeoutSeconds: c.PostgresStore.QueryTimeoutSeconds,
		})
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("failed to create store: %w", err)
		}

		log.Info().Msg("Using PostgreSQL store")
		return st, st.Close, nil

	default:
		log.Info().Msg("Using in-memory store")
		return memorystore.NewStore(), func() {}, nil
	}
}

func (c *ServerCmd) authMiddleware(log zerolog.Logger) (func(http.Handler) http.Handler, error) {
	if c.DevIdentity {
		log.Warn().Msg("Identity headers are trusted (--dev-identity). This should only be used in development!")
		return auth.HeaderMiddleware(), nil
	}

	pem, err := os.ReadFile(c.JWTPublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read JWT public key: %w", err)
	}

	verifier, err := auth.NewVerifier(string(pem))
	if err != nil {
		return nil, fmt.Errorf("failed to load JWT public key: %w", err)
	}
	return verifier.Middleware(), nil
}

// isAPIRoute returns true if the path is an API route that needs CORS instead of CSRF
func isAPIRoute(path string) bool {
	return strings.HasPrefix(path, apiPrefix)
}

// withCORS adds CORS support to a Connect HTTP handler.
func withCORS(allowedOrigins []string, h http.Handler) http.Handler {
	middleware := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: connectcors.AllowedMethods(),
		AllowedHeaders: append(connectcors.AllowedHeaders(), "Authorization", httpmiddleware.HeaderRequestID),
		ExposedHeaders: append(connectcors.ExposedHeaders(), httpmiddleware.HeaderRequestID),
	})
	return middleware.Handler(h)
}
