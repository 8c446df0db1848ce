package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dumitrugolubov/dubai-estate-ai/internal/api"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/api/health"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/channels"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/generation"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/host"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/lifecycle"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/metrics"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/models"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/publish"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/publisher"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/remote"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/storage"
	"github.com/dumitrugolubov/dubai-estate-ai/pkg/config"
)

var (
	configFile string
	httpAddr   string
	dbPath     string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "estate-server",
	Short: "Estate AI server - listing renders, descriptions and publishing",
	Long: `estate-server keeps real-estate projects, generates renders and
descriptions for them with a remote model (falling back to local
placeholders), and publishes finished listings to Telegram, Slack and
Teams channels.`,
	SilenceUsage: true,
	RunE:         runServer,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(config.VersionString("estate-server"))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (optional)")
	rootCmd.PersistentFlags().StringVarP(&httpAddr, "address", "a", "", "HTTP listen address (overrides config)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(channelCmd)
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("load .env: %v", err)
	}
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file if given and applies CLI overrides.
func loadConfig() (*Config, error) {
	var cfg *Config
	if configFile != "" {
		var err error
		cfg, err = LoadConfig(configFile)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	} else {
		cfg = DefaultConfig()
	}

	if httpAddr != "" {
		cfg.Server.HTTPAddress = httpAddr
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	cfg.Verbose = verbose
	return cfg, cfg.Validate()
}

// openStorage opens and migrates the database, creating its directory.
func openStorage(path string) (*storage.SQLiteStorage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	db := storage.NewSQLiteStorage(path)
	if err := db.Open(); err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	info := config.GetBuildInfo()
	metrics.SetBuildInfo(info.Version, info.Commit, info.BuildTime)

	db, err := openStorage(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	log.Printf("database initialized at %s", cfg.Database.Path)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// The database is the system of record; the store mirrors every commit
	// back into it.
	projects := lifecycle.NewStore(lifecycle.WithMirror(db.Projects()))
	registry := channels.NewRegistry(db.Channels())

	syncCtx, syncCancel := context.WithTimeout(ctx, 30*time.Second)
	err = lifecycle.Sync(syncCtx, projects, db.Projects(), registry)
	syncCancel()
	if err != nil {
		return fmt.Errorf("initial sync: %w", err)
	}
	log.Printf("loaded %d project(s), %d channel(s)", projects.Len(), len(registry.List()))

	client := remote.NewClient(cfg.RemoteConfig())
	if !client.Configured() {
		log.Printf("warning: OPENROUTER_API_KEY is not set, generation will use local placeholders")
	}

	h := host.NewLogHost(cfg.Publish.ConfirmWithoutText)

	var guard generation.FlightGuard
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		ttl, _ := cfg.LockTTL()
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		guard = generation.NewRedisGuard(redisClient, "", ttl)
		log.Printf("generation lock backed by redis at %s", cfg.Redis.Address)
	}

	orchestrator := generation.New(projects, client, generation.Config{
		MaxRetries: cfg.Generation.MaxRetries,
		Guard:      guard,
		Host:       h,
	})

	window, _ := cfg.PublishWindow()
	dispatcher := publisher.NewDispatcherWithRateLimit(publisher.RateLimitConfig{
		MaxPerWindow: cfg.Publish.MaxPerWindow,
		Window:       window,
		Enabled:      cfg.Publish.MaxPerWindow > 0,
	})
	defer dispatcher.Close()
	if cfg.Publish.TelegramBotToken != "" {
		tg, err := publisher.NewTelegramPublisher(publisher.TelegramConfig{BotToken: cfg.Publish.TelegramBotToken})
		if err != nil {
			return fmt.Errorf("create telegram publisher: %w", err)
		}
		dispatcher.Register(tg)
	} else {
		log.Printf("warning: TELEGRAM_BOT_TOKEN is not set, telegram channels are disabled")
	}
	dispatcher.Register(publisher.NewSlackPublisher())
	dispatcher.Register(publisher.NewTeamsPublisher())

	coordinator := publish.NewCoordinator(projects, registry, dispatcher, h)

	srv, err := api.New(&api.Config{
		Address:          cfg.Server.HTTPAddress,
		RateLimitPerUser: cfg.Server.RateLimitPerUser,
		DefaultLocale:    models.Locale(cfg.Generation.DefaultLocale),
		Verbose:          cfg.Verbose,
	}, api.Deps{
		Store:        projects,
		Orchestrator: orchestrator,
		Publisher:    coordinator,
		Channels:     registry,
	})
	if err != nil {
		return fmt.Errorf("create api server: %w", err)
	}
	srv.RegisterHealthChecker(health.NewDatabaseChecker(db))
	if redisClient != nil {
		srv.RegisterHealthChecker(health.NewRedisChecker(redisClient))
	}

	log.Printf("starting estate-server %s", config.Version)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	if cfg.Server.MetricsAddress != "off" {
		metricsServer := metrics.NewServer(cfg.Server.MetricsAddress)
		g.Go(metricsServer.Start)
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return metricsServer.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()

	// Let detached generations commit before the database closes.
	orchestrator.Wait()

	if err != nil {
		return fmt.Errorf("run server: %w", err)
	}
	log.Printf("server stopped")
	return nil
}
