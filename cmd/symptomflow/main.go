package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/BTreeMap/SymptomFlow/internal/api"
	"github.com/BTreeMap/SymptomFlow/internal/apiclient"
	"github.com/BTreeMap/SymptomFlow/internal/config"
	"github.com/BTreeMap/SymptomFlow/internal/content"
	"github.com/BTreeMap/SymptomFlow/internal/flow"
	"github.com/BTreeMap/SymptomFlow/internal/lockfile"
	"github.com/BTreeMap/SymptomFlow/internal/models"
	"github.com/BTreeMap/SymptomFlow/internal/patient"
	"github.com/BTreeMap/SymptomFlow/internal/push"
	"github.com/BTreeMap/SymptomFlow/internal/store"
	"github.com/BTreeMap/SymptomFlow/internal/user"
	"github.com/BTreeMap/SymptomFlow/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for SymptomFlow state data
	DefaultStateDir = "/var/lib/symptomflow"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "symptomflow.db"
	// DefaultPushPlatform is the platform reported with a configured push token
	DefaultPushPlatform = "web"
)

func main() {
	cfg := loadEnvironmentConfig()

	flags, err := parseCommandLineFlags(flag.CommandLine, os.Args[1:], cfg)
	if err != nil {
		os.Exit(2)
	}

	initializeLogger(*flags.logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, flags); err != nil {
		slog.Error("SymptomFlow failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("SymptomFlow exited successfully")
}

// Config holds environment configuration
type Config struct {
	StateDir       string
	DatabaseURL    string
	RedisAddr      string
	RedisPassword  string
	APIAddr        string
	BackendURL     string
	BackendToken   string
	BackendTimeout time.Duration
	FeaturesFile   string
	Country        string
	AllowedOrigins string
	PushToken      string
	PushPlatform   string
	LogLevel       string
}

// Flags holds command line flag values
type Flags struct {
	stateDir       *string
	dbDSN          *string
	redisAddr      *string
	redisPassword  *string
	apiAddr        *string
	backendURL     *string
	backendToken   *string
	backendTimeout *time.Duration
	featuresFile   *string
	country        *string
	allowedOrigins *string
	pushToken      *string
	pushPlatform   *string
	logLevel       *string
}

// initializeLogger sets up structured logging at the given level (default info)
func initializeLogger(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		StateDir:       util.GetEnv("SYMPTOMFLOW_STATE_DIR", DefaultStateDir),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		APIAddr:        util.GetEnv("API_ADDR", api.DefaultAddr),
		BackendURL:     os.Getenv("BACKEND_URL"),
		BackendToken:   os.Getenv("BACKEND_TOKEN"),
		BackendTimeout: util.ParseDurationEnv("BACKEND_TIMEOUT", apiclient.DefaultTimeout),
		FeaturesFile:   os.Getenv("SYMPTOMFLOW_FEATURES_FILE"),
		Country:        os.Getenv("SYMPTOMFLOW_COUNTRY"),
		AllowedOrigins: os.Getenv("ALLOWED_ORIGINS"),
		PushToken:      os.Getenv("SYMPTOMFLOW_PUSH_TOKEN"),
		PushPlatform:   util.GetEnv("SYMPTOMFLOW_PUSH_PLATFORM", DefaultPushPlatform),
		LogLevel:       util.GetEnv("SYMPTOMFLOW_LOG_LEVEL", "info"),
	}

	// If no database URL is provided, default to SQLite in the state directory
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No DATABASE_URL provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}

	slog.Debug("environment variables loaded",
		"SYMPTOMFLOW_STATE_DIR", config.StateDir,
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"REDIS_ADDR", config.RedisAddr,
		"API_ADDR", config.APIAddr,
		"BACKEND_URL", config.BackendURL,
		"BACKEND_TOKEN_SET", config.BackendToken != "",
		"SYMPTOMFLOW_FEATURES_FILE", config.FeaturesFile,
		"SYMPTOMFLOW_COUNTRY", config.Country,
		"SYMPTOMFLOW_PUSH_TOKEN_SET", config.PushToken != "",
		"SYMPTOMFLOW_PUSH_PLATFORM", config.PushPlatform)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(fs *flag.FlagSet, args []string, config Config) (Flags, error) {
	flags := Flags{
		stateDir:       fs.String("state-dir", config.StateDir, "state directory for SymptomFlow data (overrides $SYMPTOMFLOW_STATE_DIR)"),
		dbDSN:          fs.String("db-dsn", config.DatabaseURL, "SQLite path or Postgres DSN for the local cache (overrides $DATABASE_URL)"),
		redisAddr:      fs.String("redis-addr", config.RedisAddr, "Redis address for the local cache, takes precedence over db-dsn (overrides $REDIS_ADDR)"),
		redisPassword:  fs.String("redis-password", config.RedisPassword, "Redis password (overrides $REDIS_PASSWORD)"),
		apiAddr:        fs.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		backendURL:     fs.String("backend-url", config.BackendURL, "remote backend base URL (overrides $BACKEND_URL)"),
		backendToken:   fs.String("backend-token", config.BackendToken, "remote backend bearer token (overrides $BACKEND_TOKEN)"),
		backendTimeout: fs.Duration("backend-timeout", config.BackendTimeout, "remote backend request timeout (overrides $BACKEND_TIMEOUT)"),
		featuresFile:   fs.String("features", config.FeaturesFile, "feature bundle YAML file (overrides $SYMPTOMFLOW_FEATURES_FILE)"),
		country:        fs.String("country", config.Country, "user country: GB, US or SE (overrides $SYMPTOMFLOW_COUNTRY)"),
		allowedOrigins: fs.String("allowed-origins", config.AllowedOrigins, "comma-separated CORS origins (overrides $ALLOWED_ORIGINS)"),
		pushToken:      fs.String("push-token", config.PushToken, "device push token to register at startup (overrides $SYMPTOMFLOW_PUSH_TOKEN)"),
		pushPlatform:   fs.String("push-platform", config.PushPlatform, "push token platform: ios, android or web (overrides $SYMPTOMFLOW_PUSH_PLATFORM)"),
		logLevel:       fs.String("log-level", config.LogLevel, "log level: debug, info, warn, error (overrides $SYMPTOMFLOW_LOG_LEVEL)"),
	}

	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}

	// Follow a changed state directory when the DSN is the derived default
	if *flags.dbDSN == config.DatabaseURL && config.DatabaseURL == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("Updated dbDSN based on state directory", "old_state_dir", config.StateDir, "new_state_dir", *flags.stateDir)
	}

	return flags, nil
}

// buildStoreOptions constructs store configuration options
func buildStoreOptions(flags Flags) []store.Option {
	var storeOpts []store.Option
	if *flags.redisAddr != "" {
		slog.Debug("Redis address provided, configuring Redis store", "addr", *flags.redisAddr)
		return append(storeOpts, store.WithRedis(*flags.redisAddr, *flags.redisPassword, 0), store.WithKeyPrefix("symptomflow:"))
	}
	if *flags.dbDSN != "" {
		if store.DetectDSNType(*flags.dbDSN) == "postgres" {
			slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store", "dsn_type", "postgresql", "dsn_set", true)
			storeOpts = append(storeOpts, store.WithPostgresDSN(*flags.dbDSN))
		} else {
			slog.Debug("Detected SQLite DSN, configuring SQLite store", "dsn_type", "sqlite", "db_path", *flags.dbDSN)
			storeOpts = append(storeOpts, store.WithSQLiteDSN(*flags.dbDSN))
		}
	} else {
		slog.Debug("No database DSN provided, will use in-memory store")
	}
	return storeOpts
}

// buildAPIClientOptions constructs remote backend client options
func buildAPIClientOptions(flags Flags) []apiclient.Option {
	opts := []apiclient.Option{
		apiclient.WithBaseURL(*flags.backendURL),
		apiclient.WithTimeout(*flags.backendTimeout),
	}
	if *flags.backendToken != "" {
		opts = append(opts, apiclient.WithToken(*flags.backendToken))
	}
	return opts
}

// sqliteStateDir returns the directory of the SQLite cache file, if SQLite is the backend.
func sqliteStateDir(flags Flags) (string, bool) {
	if *flags.redisAddr != "" || *flags.dbDSN == "" || store.DetectDSNType(*flags.dbDSN) != "sqlite3" {
		return "", false
	}
	return filepath.Dir(*flags.dbDSN), true
}

// pushEnvironment returns the configured push token source, or nil when no token is set.
func pushEnvironment(flags Flags) push.TokenEnvironment {
	if strings.TrimSpace(*flags.pushToken) == "" {
		return nil
	}
	return push.StaticTokenEnvironment{Token: *flags.pushToken, PlatformName: *flags.pushPlatform}
}

// CountrySource reports the country of the client IP.
type CountrySource interface {
	GetIpCountry() models.CountryCode
}

// initUserCountry picks the user country: the flag value, else the stored one, else the
// IP country when it is supported. Otherwise the bundle default stays.
func initUserCountry(ctx context.Context, users *user.Service, flagCountry string, ip CountrySource) error {
	if flagCountry != "" {
		c, err := models.ParseCountry(flagCountry)
		if err != nil {
			return err
		}
		return users.SetUserCountry(ctx, c)
	}
	_, stored, err := users.LoadCountry(ctx)
	if err != nil {
		slog.Warn("Could not restore user country", "error", err)
	}
	if stored {
		return nil
	}
	if c := ip.GetIpCountry(); models.IsValidCountry(c) {
		slog.Info("Using IP country as user country", "country", c)
		return users.SetUserCountry(ctx, c)
	}
	return nil
}

// splitOrigins parses a comma-separated origin list
func splitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// run wires every module and serves the API until ctx is cancelled.
func run(ctx context.Context, flags Flags) error {
	bundle, err := config.Load(*flags.featuresFile)
	if err != nil {
		return err
	}
	bundle.ApplyEnvOverrides()

	if dir, ok := sqliteStateDir(flags); ok {
		lock, err := lockfile.Acquire(dir)
		if err != nil {
			return err
		}
		defer lock.Release()
	}

	kv, err := store.New(buildStoreOptions(flags)...)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer kv.Close()

	client, err := apiclient.New(buildAPIClientOptions(flags)...)
	if err != nil {
		return err
	}

	patients := patient.NewService(patient.NewAPIClient(client))
	users := user.NewService(bundle, kv, client, patients)

	contentSvc := content.NewService(client, kv)
	if err := contentSvc.Init(ctx); err != nil {
		slog.Warn("Startup info unavailable", "error", err)
	}
	if err := initUserCountry(ctx, users, *flags.country, contentSvc); err != nil {
		return err
	}

	pushSvc := push.NewService(client, kv, pushEnvironment(flags))
	if _, err := pushSvc.SubscribeForPushNotifications(ctx); err != nil {
		slog.Warn("Push subscription failed", "error", err)
	}

	orch, err := flow.NewOrchestrator(flow.Dependencies{
		Config:   users,
		Patients: users,
		Consent:  users,
		Study:    users,
		Sink:     flow.NewRecordingSink(),
	})
	if err != nil {
		return err
	}

	srv, err := api.NewServer(api.Dependencies{
		Orchestrator:   orch,
		Bundle:         bundle,
		Patients:       patients,
		Content:        contentSvc,
		Push:           pushSvc,
		Consent:        users,
		Study:          users,
		AllowedOrigins: splitOrigins(*flags.allowedOrigins),
	})
	if err != nil {
		return err
	}

	slog.Info("Bootstrapping SymptomFlow", "country", users.Country(), "users_count", contentSvc.GetUserCount(), "api_addr", *flags.apiAddr)
	return srv.Run(ctx, *flags.apiAddr)
}
