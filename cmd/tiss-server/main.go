package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vidaplus/tiss/internal/config"
	"github.com/vidaplus/tiss/internal/domain/glosa"
	"github.com/vidaplus/tiss/internal/domain/guia"
	"github.com/vidaplus/tiss/internal/domain/lote"
	"github.com/vidaplus/tiss/internal/domain/relatorio"
	"github.com/vidaplus/tiss/internal/domain/tuss"
	"github.com/vidaplus/tiss/internal/platform/auth"
	"github.com/vidaplus/tiss/internal/platform/db"
	"github.com/vidaplus/tiss/internal/platform/middleware"
	"github.com/vidaplus/tiss/internal/platform/tissxml"
)

const migrationsDir = "migrations"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	root := &cobra.Command{
		Use:   "tiss-server",
		Short: "TISS claims and batch processing server",
	}
	root.AddCommand(serveCmd(), migrateCmd(), clinicCmd())

	if err := root.Execute(); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.IsDev() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}
	return cfg
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()
			ctx := context.Background()

			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				log.Fatal().Err(err).Msg("failed to connect to database")
			}
			defer pool.Close()

			e := buildServer(cfg, pool)

			go func() {
				addr := ":" + cfg.Port
				log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("server starting")
				if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("server stopped")
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit

			log.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			if err := e.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("graceful shutdown failed")
			}
		},
	}
}

func buildServer(cfg *config.Config, pool *pgxpool.Pool) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(log.Logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(log.Logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType,
			echo.HeaderAuthorization, "X-Clinic-ID", middleware.RequestIDHeader},
	}))

	e.GET("/health", db.HealthHandler(pool))

	api := e.Group("/api/v1")
	if cfg.IsDev() && cfg.AuthIssuer == "" {
		log.Warn().Msg("auth disabled, using development identity")
		api.Use(auth.DevAuthMiddleware())
	} else {
		api.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:   cfg.AuthIssuer,
			Audience: cfg.AuthAudience,
			JWKSURL:  cfg.AuthJWKSURL,
		}))
	}
	api.Use(db.ClinicMiddleware(pool, cfg.DefaultClinic))
	api.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}))

	// repositories
	tussRepo := tuss.NewRepoPG(pool)
	guiaRepo := guia.NewRepoPG(pool)
	loteRepo := lote.NewRepoPG(pool)
	glosaRepo := glosa.NewRepoPG(pool)
	relatorioRepo := relatorio.NewRepoPG(pool)

	txRunner := db.PgTxRunner{}
	transporte := lote.NewHTTPTransport(cfg.WebService())

	// services and handlers
	tuss.NewHandler(tuss.NewService(tussRepo)).RegisterRoutes(api)
	guia.NewHandler(guia.NewService(guiaRepo, tussRepo)).RegisterRoutes(api)
	tissxml.NewHandler(guiaRepo).RegisterRoutes(api)
	lote.NewHandler(lote.NewService(loteRepo, guiaRepo, transporte, txRunner, cfg.WebService())).RegisterRoutes(api)
	glosa.NewHandler(glosa.NewService(glosaRepo, guiaRepo, txRunner)).RegisterRoutes(api)
	relatorio.NewHandler(relatorio.NewService(relatorioRepo)).RegisterRoutes(api)

	return e
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
	}

	var clinicID string

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations to a clinic schema",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()
			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				log.Fatal().Err(err).Msg("failed to connect to database")
			}
			defer pool.Close()

			schema := "clinic_" + clinicID
			m := db.NewMigrator(pool, migrationsDir)
			n, err := m.Up(ctx, schema)
			if err != nil {
				log.Fatal().Err(err).Str("schema", schema).Msg("migration failed")
			}
			log.Info().Int("applied", n).Str("schema", schema).Msg("migrations applied")
		},
	}
	up.Flags().StringVar(&clinicID, "clinic", "default", "clinic schema to migrate")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show migration status for a clinic schema",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()
			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				log.Fatal().Err(err).Msg("failed to connect to database")
			}
			defer pool.Close()

			schema := "clinic_" + clinicID
			m := db.NewMigrator(pool, migrationsDir)
			statuses, err := m.Status(ctx, schema)
			if err != nil {
				log.Fatal().Err(err).Str("schema", schema).Msg("status check failed")
			}
			for _, s := range statuses {
				state := "pending"
				if s.Applied {
					state = "applied"
				}
				fmt.Printf("%03d  %-30s %s\n", s.Version, s.Name, state)
			}
		},
	}
	status.Flags().StringVar(&clinicID, "clinic", "default", "clinic schema to inspect")

	cmd.AddCommand(up, status)
	return cmd
}

func clinicCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clinic",
		Short: "Manage clinic schemas",
	}

	create := &cobra.Command{
		Use:   "create [clinic-id]",
		Short: "Create a clinic schema and run its migrations",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()
			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				log.Fatal().Err(err).Msg("failed to connect to database")
			}
			defer pool.Close()

			if err := db.CreateClinicSchema(ctx, pool, args[0], migrationsDir); err != nil {
				log.Fatal().Err(err).Str("clinic", args[0]).Msg("clinic creation failed")
			}
			log.Info().Str("clinic", args[0]).Msg("clinic created")
		},
	}

	cmd.AddCommand(create)
	return cmd
}
