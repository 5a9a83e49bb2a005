package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/SURIYA-8273/nursery-website-1-sub000/internal/api"
	"github.com/SURIYA-8273/nursery-website-1-sub000/internal/lockfile"
	"github.com/SURIYA-8273/nursery-website-1-sub000/internal/store"
	"github.com/SURIYA-8273/nursery-website-1-sub000/internal/twilionotify"
	"github.com/joho/godotenv"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for nursery state data
	DefaultStateDir = "/var/lib/nursery"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "nursery.db"
)

func main() {
	// Initialize structured logger
	initializeLogger()

	// Load environment configuration
	config := loadEnvironmentConfig()

	// Parse command line flags
	flags := parseCommandLineFlags(config)

	// Ensure required directories exist
	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	// Guard file-based state against a second server instance
	if store.DetectDSNType(*flags.dbDSN) != "postgres" {
		lock, err := lockfile.AcquireLock(filepath.Dir(*flags.dbDSN))
		if err != nil {
			slog.Error("Failed to acquire state directory lock", "error", err)
			os.Exit(1)
		}
		defer lock.Release()
	}

	// Build module options
	storeOpts := buildStoreOptions(flags)
	notifyOpts := buildNotifyOptions(flags)
	apiOpts := buildAPIOptions(flags)

	// Start the service
	slog.Info("Bootstrapping nursery backend with configured modules")
	slog.Debug("Module options counts", "store", len(storeOpts), "notify", len(notifyOpts), "api", len(apiOpts))
	slog.Debug("Final configuration", "state_dir", *flags.stateDir, "dsn_set", *flags.dbDSN != "", "api_addr", *flags.apiAddr)
	if err := api.Run(storeOpts, notifyOpts, apiOpts); err != nil {
		slog.Error("Nursery backend failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("Nursery backend exited successfully")
}

// Config holds environment configuration
type Config struct {
	DatabaseURL      string
	StateDir         string
	APIAddr          string
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string
	OwnerWhatsApp    string
}

// Flags holds command line flag values
type Flags struct {
	stateDir   *string
	dbDSN      *string
	apiAddr    *string
	twilioSID  *string
	twilioTok  *string
	twilioFrom *string
	ownerPhone *string
}

// initializeLogger sets up structured logging with debug level
func initializeLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
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
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		StateDir:         os.Getenv("NURSERY_STATE_DIR"),
		APIAddr:          os.Getenv("API_ADDR"),
		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromNumber: os.Getenv("TWILIO_FROM_NUMBER"),
		OwnerWhatsApp:    os.Getenv("OWNER_WHATSAPP_NUMBER"),
	}

	// Set default state directory if not specified
	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No NURSERY_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	} else {
		slog.Debug("NURSERY_STATE_DIR found in environment", "state_dir", config.StateDir)
	}

	// If no database URL is provided, default to SQLite in the state directory
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}

	slog.Debug("environment variables loaded",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"NURSERY_STATE_DIR", config.StateDir,
		"API_ADDR", config.APIAddr,
		"TWILIO_ACCOUNT_SID_SET", config.TwilioAccountSID != "",
		"TWILIO_AUTH_TOKEN_SET", config.TwilioAuthToken != "",
		"TWILIO_FROM_NUMBER_SET", config.TwilioFromNumber != "",
		"OWNER_WHATSAPP_NUMBER_SET", config.OwnerWhatsApp != "")

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:   flag.String("state-dir", config.StateDir, "state directory for nursery data (overrides $NURSERY_STATE_DIR)"),
		dbDSN:      flag.String("db-dsn", config.DatabaseURL, "database DSN for the store (overrides $DATABASE_URL)"),
		apiAddr:    flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		twilioSID:  flag.String("twilio-account-sid", config.TwilioAccountSID, "Twilio account SID for owner notifications (overrides $TWILIO_ACCOUNT_SID)"),
		twilioTok:  flag.String("twilio-auth-token", config.TwilioAuthToken, "Twilio auth token for owner notifications (overrides $TWILIO_AUTH_TOKEN)"),
		twilioFrom: flag.String("twilio-from-number", config.TwilioFromNumber, "Twilio WhatsApp sender number (overrides $TWILIO_FROM_NUMBER)"),
		ownerPhone: flag.String("owner-whatsapp", config.OwnerWhatsApp, "shop owner WhatsApp number for notifications (overrides $OWNER_WHATSAPP_NUMBER)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"apiAddr", *flags.apiAddr,
		"twilioSIDSet", *flags.twilioSID != "",
		"twilioFromSet", *flags.twilioFrom != "",
		"ownerPhoneSet", *flags.ownerPhone != "")

	// Update database DSN if not explicitly set but state directory is provided
	if *flags.dbDSN == config.DatabaseURL && config.DatabaseURL == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("Updated dbDSN based on state directory", "dsn_updated", true, "old_state_dir", config.StateDir, "new_state_dir", *flags.stateDir)
	}

	return flags
}

// ensureDirectoriesExist creates necessary directories for file-based storage
func ensureDirectoriesExist(flags Flags) error {
	// Ensure state directory exists if we're using a file-based DSN
	if store.DetectDSNType(*flags.dbDSN) != "postgres" {
		stateDir := filepath.Dir(*flags.dbDSN)
		slog.Debug("Creating state directory for file-based database", "state_dir", stateDir)
		if err := os.MkdirAll(stateDir, 0755); err != nil {
			slog.Error("Failed to create state directory", "error", err, "state_dir", stateDir)
			return err
		}
		slog.Debug("State directory created successfully", "state_dir", stateDir)
	}
	return nil
}

// buildStoreOptions constructs store configuration options
func buildStoreOptions(flags Flags) []store.Option {
	var storeOpts []store.Option
	if *flags.dbDSN != "" {
		// Check if it's a PostgreSQL DSN using the shared detection function
		if store.DetectDSNType(*flags.dbDSN) == "postgres" {
			slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store", "dsn_type", "postgresql", "dsn_set", true)
			storeOpts = append(storeOpts, store.WithPostgresDSN(*flags.dbDSN))
		} else {
			// Assume SQLite for file paths
			slog.Debug("Detected SQLite DSN, configuring SQLite store", "dsn_type", "sqlite", "db_path", *flags.dbDSN)
			storeOpts = append(storeOpts, store.WithSQLiteDSN(*flags.dbDSN))
		}
	} else {
		slog.Debug("No database DSN provided, will use in-memory store")
	}
	return storeOpts
}

// buildNotifyOptions constructs Twilio owner notification options
func buildNotifyOptions(flags Flags) []twilionotify.Option {
	var notifyOpts []twilionotify.Option
	if *flags.twilioSID != "" {
		notifyOpts = append(notifyOpts, twilionotify.WithAccountSID(*flags.twilioSID))
	}
	if *flags.twilioTok != "" {
		notifyOpts = append(notifyOpts, twilionotify.WithAuthToken(*flags.twilioTok))
	}
	if *flags.twilioFrom != "" {
		notifyOpts = append(notifyOpts, twilionotify.WithFromNumber(*flags.twilioFrom))
	}
	if *flags.ownerPhone != "" {
		notifyOpts = append(notifyOpts, twilionotify.WithOwnerPhone(*flags.ownerPhone))
	}
	return notifyOpts
}

// buildAPIOptions constructs API server configuration options
func buildAPIOptions(flags Flags) []api.Option {
	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	return apiOpts
}
