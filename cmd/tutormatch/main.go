package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tutormatch/tutormatch/internal/catalog"
	"github.com/tutormatch/tutormatch/internal/config"
	"github.com/tutormatch/tutormatch/internal/database"
	"github.com/tutormatch/tutormatch/internal/logging"
	"github.com/tutormatch/tutormatch/internal/metrics"
	"github.com/tutormatch/tutormatch/internal/queries"
	"github.com/tutormatch/tutormatch/internal/web"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const defaultDBPath = "./tutormatch.sqlite"

// Global flags
var (
	dbPath     string
	driver     string
	configPath string
	logFile    string
	verbosity  int
)

// Serve flags
var (
	port           int
	bind           string
	allowSubnet    string
	queriesPath    string
	requestTimeout time.Duration
	noMetrics      bool
	rowMode        string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tutormatch",
		Short: "TutorMatch - read-only tutor and skill API",
		Long:  `TutorMatch serves users, user types and skills from a SQLite database over a small read-only JSON API.`,
		RunE:  run,
	}

	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", defaultDBPath, "SQLite database path (or set DB_PATH env var)")
	rootCmd.PersistentFlags().StringVar(&driver, "driver", database.DriverModernc, "SQLite driver: sqlite (pure Go) or sqlite3 (cgo)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file (or set TUTORMATCH_CONFIG env var)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", `Log file path ("-" for console only; default: next to the database)`)
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v debug, -vv trace)")

	rootCmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP server port (required, or set PORT env var)")
	rootCmd.Flags().StringVarP(&bind, "bind", "b", "", "IP address to bind to (e.g., 127.0.0.1, 0.0.0.0)")
	rootCmd.Flags().StringVarP(&allowSubnet, "allow-subnet", "a", "", "CIDR subnet allowed to connect (e.g., 192.168.1.0/24)")
	rootCmd.Flags().StringVarP(&queriesPath, "queries", "q", "", "JSON query template file (default: built-in templates)")
	rootCmd.Flags().DurationVar(&requestTimeout, "request-timeout", 0, "Maximum time to handle one request (default 30s)")
	rootCmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "Disable the /metrics endpoint")
	rootCmd.Flags().StringVar(&rowMode, "row-mode", "", "Row shape in responses: record (objects) or tuple (arrays) (default record)")

	rootCmd.AddCommand(newSeedCmd())
	rootCmd.AddCommand(newQueriesCmd())
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("tutormatch %s (commit: %s, built: %s)\n", version, commit, date)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveDBPath applies the DB_PATH env var when the flag was left at its default
func resolveDBPath() {
	if dbPath == defaultDBPath {
		if envDB := os.Getenv("DB_PATH"); envDB != "" {
			dbPath = envDB
		}
	}
}

// loadSettings reads the optional YAML file and configures logging
func loadSettings() (*config.Loader, error) {
	if configPath == "" {
		configPath = os.Getenv("TUTORMATCH_CONFIG")
	}

	var file *config.File
	if configPath != "" {
		f, err := config.LoadFile(configPath)
		if err != nil {
			return nil, err
		}
		file = f
	}
	loader := config.NewLoader(file)

	path := logFile
	if path == "" {
		path = loader.String("log.file", logging.FilePathForDB(dbPath))
	}
	logging.Apply(logging.LevelForVerbosity(verbosity), loader, path)

	if file != nil {
		log.Debug().Str("path", file.Path()).Int("keys", len(file.Keys())).Msg("Loaded configuration file")
	}
	return loader, nil
}

// openQueries loads the template file at path, or the built-in templates
func openQueries(path string) (*queries.Store, error) {
	if path != "" {
		return queries.LoadFile(path)
	}
	return queries.Default()
}

// loadQueries loads and validates the template store
func loadQueries(path string) (*queries.Store, error) {
	store, err := openQueries(path)
	if err != nil {
		return nil, err
	}
	if err := store.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query templates: %w", err)
	}
	return store, nil
}

func run(cmd *cobra.Command, args []string) error {
	if port == 0 {
		if envPort := os.Getenv("PORT"); envPort != "" {
			if _, err := fmt.Sscanf(envPort, "%d", &port); err != nil {
				return fmt.Errorf("invalid PORT environment variable %q: %w", envPort, err)
			}
		}
	}
	resolveDBPath()

	loader, err := loadSettings()
	if err != nil {
		return err
	}

	if port == 0 {
		port = loader.Int("server.port", 0)
	}
	if port == 0 {
		return fmt.Errorf("--port flag or PORT environment variable is required")
	}
	if bind == "" {
		bind = loader.String("server.bind", "")
	}
	if bind != "" {
		if ip := net.ParseIP(bind); ip == nil {
			return fmt.Errorf("invalid bind address: %s", bind)
		}
	}
	if allowSubnet == "" {
		allowSubnet = loader.String("server.allow_subnet", "")
	}
	var allowedNet *net.IPNet
	if allowSubnet != "" {
		_, parsedNet, err := net.ParseCIDR(allowSubnet)
		if err != nil {
			return fmt.Errorf("invalid allow-subnet CIDR: %s", allowSubnet)
		}
		allowedNet = parsedNet
	}

	timeouts := config.LoadTimeouts(loader)
	if requestTimeout > 0 {
		timeouts.Request = requestTimeout
	}
	config.SetGlobalTimeouts(timeouts)

	if (bind == "" || bind == "0.0.0.0" || bind == "::") && allowSubnet == "" {
		log.Warn().Msg("Server is accessible from all interfaces without subnet restrictions. Consider using --bind or --allow-subnet.")
	}

	if queriesPath == "" {
		queriesPath = loader.String("queries.file", "")
	}
	store, err := loadQueries(queriesPath)
	if err != nil {
		return err
	}

	if rowMode == "" {
		rowMode = loader.String("api.row_mode", database.RowRecord.String())
	}
	mode, err := database.ParseRowMode(rowMode)
	if err != nil {
		return err
	}

	opts := database.DefaultOptions()
	opts.Driver = loader.String("database.driver", driver)
	opts.BusyTimeout = loader.Duration("database.busy_timeout", opts.BusyTimeout)
	opts.MaxOpenConns = loader.Int("database.max_open_conns", opts.MaxOpenConns)
	opts.MaxIdleConns = loader.Int("database.max_idle_conns", opts.MaxIdleConns)
	if cmd.Flags().Changed("driver") {
		opts.Driver = driver
	}

	log.Info().
		Str("version", version).
		Int("port", port).
		Str("bind", bind).
		Str("allow_subnet", allowSubnet).
		Str("database", dbPath).
		Str("driver", opts.Driver).
		Str("row_mode", mode.String()).
		Msg("Starting TutorMatch")

	db, err := database.Open(dbPath, opts)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open database")
		return err
	}
	defer db.Close()

	cat := catalog.New(store)

	var m *metrics.Metrics
	if !noMetrics && loader.Bool("metrics.enabled", true) {
		m = metrics.New()
	}

	server := web.NewServer(db, cat, m, mode, port, bind, allowedNet)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		log.Error().Err(err).Msg("Server error")
		return err
	}

	log.Info().Msg("TutorMatch stopped")
	return nil
}
