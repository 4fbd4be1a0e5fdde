package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"tweetapi/crud"
	"tweetapi/http"
	"tweetapi/logger"
	"tweetapi/sessions"
)

// Flags shared by every command.
var (
	configPath string
	isProd     bool
)

// main is the app's entry point.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "tweetapi",
		Short:        "A small social posting API with tweets, likes and session auth",
		SilenceUsage: true,
		// Without a subcommand, the app serves.
		RunE: runServe,
	}
	root.PersistentFlags().BoolVar(&isProd, "prod", false,
		"Provide this flag in production to ensure that a config file is provided before the application starts.")
	root.PersistentFlags().StringVar(&configPath, "config", ".config.json", "Path of the json config file.")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Migrate the database, then serve the API until interrupted",
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update all database tables",
			RunE:  runMigrate,
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Drop all database tables and create them again",
			RunE:  runReset,
		},
		newSeedCmd(),
		&cobra.Command{
			Use:   "prune-sessions",
			Short: "Delete expired sessions from the database",
			RunE:  runPruneSessions,
		},
	)
	return root
}

// setup loads the config, creates the logger and opens the database.
// The caller has to close the database.
func setup() (Config, *logrus.Logger, *DB, error) {
	cfg, err := LoadConfig(configPath, isProd)
	if err != nil {
		return Config{}, nil, nil, err
	}
	log := logger.New(cfg.Env)

	db := NewDB(cfg.Database)
	if err := Open(db, cfg.IsProd()); err != nil {
		return Config{}, nil, nil, err
	}
	return cfg, log, db, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, db, err := setup()
	if err != nil {
		return err
	}
	defer Close(db)

	if err := crud.AutoMigrate(db.Gorm); err != nil {
		return err
	}

	// Sessions live either in the database or in redis.
	var rdb *redis.Client
	sessionCfg := crud.WithSession(cfg.HMACKey, cfg.Session.TTL)
	if cfg.Session.Store == "redis" {
		rdb, err = sessions.NewRedisClient(cmd.Context(), cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		sessionCfg = crud.WithSessionService(sessions.NewRedisService(rdb, cfg.HMACKey, cfg.Session.TTL))
	}

	// Start the crud services.
	services, err := crud.NewServices(
		db.Gorm,
		crud.WithUser(cfg.Pepper),
		crud.WithTweet(),
		crud.WithLike(),
		sessionCfg,
	)
	if err != nil {
		return err
	}

	var csrfKey []byte
	if cfg.CSRF.Enabled {
		csrfKey = []byte(cfg.CSRF.Key)
	}

	// Set up a webserver.
	server := http.NewServer(log, services, http.Options{
		CookieName:    cfg.Session.CookieName,
		CookieSecure:  cfg.Session.Secure,
		SessionTTL:    cfg.Session.TTL,
		AuthMode:      cfg.Auth.Mode,
		TrustedHeader: cfg.Auth.Header,
		CSRFKey:       csrfKey,
		Health: func(ctx context.Context) error {
			if err := Ping(ctx, db); err != nil {
				return fmt.Errorf("ping database: %w", err)
			}
			if rdb != nil {
				if err := rdb.Ping(ctx).Err(); err != nil {
					return fmt.Errorf("ping redis: %w", err)
				}
			}
			return nil
		},
	})

	// Serve the app until SIGINT or SIGTERM.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.Run(ctx, fmt.Sprintf(":%d", cfg.Port))
}

func runMigrate(cmd *cobra.Command, args []string) error {
	_, log, db, err := setup()
	if err != nil {
		return err
	}
	defer Close(db)

	if err := crud.AutoMigrate(db.Gorm); err != nil {
		return err
	}
	log.Info("database migrated")
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	cfg, log, db, err := setup()
	if err != nil {
		return err
	}
	defer Close(db)

	if cfg.IsProd() {
		return fmt.Errorf("refusing to reset the database in production")
	}
	if err := crud.DestructiveReset(db.Gorm); err != nil {
		return err
	}
	log.Info("database reset")
	return nil
}

func runPruneSessions(cmd *cobra.Command, args []string) error {
	cfg, log, db, err := setup()
	if err != nil {
		return err
	}
	defer Close(db)

	ss := crud.NewSessionService(db.Gorm, cfg.HMACKey, cfg.Session.TTL)
	n, err := ss.DeleteExpired(cmd.Context(), time.Now())
	if err != nil {
		return err
	}
	log.WithField("deleted", n).Info("expired sessions pruned")
	return nil
}
