package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/CDC-HIS/ohri-patientlist/internal/config"
	"github.com/CDC-HIS/ohri-patientlist/internal/domain/allpatients"
	"github.com/CDC-HIS/ohri-patientlist/internal/domain/cohort"
	"github.com/CDC-HIS/ohri-patientlist/internal/platform/auth"
	"github.com/CDC-HIS/ohri-patientlist/internal/platform/db"
	"github.com/CDC-HIS/ohri-patientlist/internal/platform/fhir"
	"github.com/CDC-HIS/ohri-patientlist/internal/platform/middleware"
	"github.com/CDC-HIS/ohri-patientlist/migrations"
	"github.com/CDC-HIS/ohri-patientlist/pkg/ethiopic"
)

const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "ohri-server",
		Short:        "OHRI patient list API server",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tenantCmd())
	rootCmd.AddCommand(convertCmd())
	return rootCmd
}

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func openPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if !cfg.HasDatabase() {
		return nil, errors.New("DATABASE_URL is required")
	}
	return db.NewPool(ctx, db.PoolConfig{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the patient list API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
			migrator, pool, err := newMigrator(cmd)
			if err != nil {
				return err
			}
			defer pool.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Running migrations on schema: %s\n", schema)
			count, err := migrator.Up(cmd.Context(), schema)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(out, "Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
			migrator, pool, err := newMigrator(cmd)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := migrator.Status(cmd.Context(), schema)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			printStatuses(cmd.OutOrStdout(), schema, statuses)
			return nil
		},
	}

	for _, c := range []*cobra.Command{upCmd, statusCmd} {
		c.Flags().String("schema", db.SchemaName("default"), "Target schema for migrations")
		c.Flags().String("dir", "", "Read migrations from this directory instead of the embedded set")
		cmd.AddCommand(c)
	}
	return cmd
}

func newMigrator(cmd *cobra.Command) (*db.Migrator, *pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	pool, err := openPool(cmd.Context(), cfg)
	if err != nil {
		return nil, nil, err
	}
	if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
		return db.NewMigrator(pool, os.DirFS(dir)), pool, nil
	}
	return db.NewMigrator(pool, migrations.FS), pool, nil
}

func printStatuses(w io.Writer, schema string, statuses []db.MigrationStatus) {
	fmt.Fprintf(w, "Migration status for schema: %s\n", schema)
	fmt.Fprintf(w, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	fmt.Fprintln(w, "---------- ---------------------------------------- ---------- --------------------")
	for _, s := range statuses {
		status, appliedAt := "pending", ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(w, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}

func tenantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Manage tenants",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a tenant schema and apply migrations to it",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			if name == "" {
				return fmt.Errorf("--name is required")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			pool, err := openPool(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "Creating tenant schema: %s\n", db.SchemaName(name))
			if err := db.CreateTenantSchema(cmd.Context(), pool, name, migrations.FS); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Tenant created successfully.")
			return nil
		},
	}
	createCmd.Flags().String("name", "", "Tenant identifier (alphanumeric)")

	cmd.AddCommand(createCmd)
	return cmd
}

func convertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <date>...",
		Short: "Convert Gregorian dates to the Ethiopian calendar",
		Long: "Prints one line per argument: the Ethiopian Y-M-D for a Gregorian date or\n" +
			"date-time, or " + allpatients.LastVisitPlaceholder + " when the value cannot be converted.\n" +
			"With --reverse, arguments are Ethiopian Y-M-D and Gregorian dates are printed.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reverse, _ := cmd.Flags().GetBool("reverse")
			out := cmd.OutOrStdout()
			for _, arg := range args {
				var res string
				var ok bool
				if reverse {
					res, ok = toGregorian(arg)
				} else {
					res, ok = ethiopic.Convert(arg)
				}
				if !ok {
					res = allpatients.LastVisitPlaceholder
				}
				fmt.Fprintln(out, res)
			}
			return nil
		},
	}
	cmd.Flags().Bool("reverse", false, "Convert Ethiopian Y-M-D dates to Gregorian")
	return cmd
}

func toGregorian(value string) (string, bool) {
	parts := strings.Split(strings.TrimSpace(value), "-")
	if len(parts) != 3 {
		return "", false
	}
	var ymd [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return "", false
		}
		ymd[i] = n
	}
	eth, err := ethiopic.NewEthiopian(ymd[0], ymd[1], ymd[2])
	if err != nil {
		return "", false
	}
	return ethiopic.ToGregorian(eth).String(), true
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg.Env)
	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("invalid configuration")
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e, cleanup, err := buildServer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	errc := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("version", version).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			logger.Error().Err(err).Msg("server error")
			return err
		}
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

// buildServer connects to the database when one is configured and wires the
// server. The returned cleanup closes the pool.
func buildServer(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*echo.Echo, func(), error) {
	var pool *pgxpool.Pool
	cleanup := func() {}
	if cfg.HasDatabase() {
		p, err := openPool(ctx, cfg)
		if err != nil {
			logger.Error().Err(err).Msg("failed to connect to database")
			return nil, nil, err
		}
		pool, cleanup = p, p.Close
		logger.Info().Msg("connected to database")
	} else {
		logger.Warn().Msg("DATABASE_URL not set: serving the patient list without cohort routes")
	}

	fhirClient := fhir.NewClient(cfg.FHIRBaseURL,
		fhir.WithBasicAuth(cfg.FHIRUsername, cfg.FHIRPassword),
		fhir.WithTimeout(cfg.FHIRTimeout),
		fhir.WithLogger(logger.With().Str("component", "fhir").Logger()),
	)
	return newServer(cfg, logger, pool, fhirClient), cleanup, nil
}

// newServer wires middleware and routes. Only the cohort routes touch the
// database; the patient list is served from FHIR alone.
func newServer(cfg *config.Config, logger zerolog.Logger, pool *pgxpool.Pool, fhirClient *fhir.Client) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader, db.TenantHeader},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	if pool != nil {
		e.GET("/health/db", db.HealthHandler(pool, func() *db.PoolStats { return db.GetPoolStats(pool) }))
	}

	apiV1 := e.Group("/api/v1")
	if cfg.IsDev() {
		apiV1.Use(auth.DevAuthMiddleware(cfg.DefaultTenant))
	} else {
		apiV1.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:   cfg.AuthIssuer,
			Audience: cfg.AuthAudience,
			JWKSURL:  cfg.AuthJWKSURL,
		}))
	}
	rl := middleware.DefaultRateLimitConfig()
	rl.RequestsPerSecond, rl.BurstSize = cfg.RateLimitRPS, cfg.RateLimitBurst
	apiV1.Use(middleware.RateLimit(rl))
	apiV1.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	apiV1.Use(middleware.BodyLimit(cfg.BodyLimit))

	source := allpatients.NewFHIRSource(fhirClient)
	listSvc := allpatients.NewService(source, source,
		allpatients.WithConcurrency(cfg.LastVisitConcurrency),
		allpatients.WithSPABase(cfg.SPABaseURL),
		allpatients.WithLogger(logger.With().Str("component", "allpatients").Logger()),
	)
	allpatients.NewHandler(listSvc).RegisterRoutes(apiV1)

	if pool != nil {
		tenantAPI := apiV1.Group("", db.TenantMiddleware(pool, cfg.DefaultTenant))
		cohortSvc := cohort.NewService(cohort.NewRepo(pool), logger.With().Str("component", "cohort").Logger())
		cohort.NewHandler(cohortSvc).RegisterRoutes(tenantAPI)
	}

	return e
}
