package startup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"gopkg.in/yaml.v3"

	"qc-analytics/internal/database"
	"qc-analytics/internal/logging"
	"qc-analytics/internal/workers"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Defaults applied when neither the config file nor the environment sets a
// value.
const (
	DefaultHost          = "127.0.0.1"
	DefaultPort          = "8765"
	DefaultMetricsPort   = "9090"
	DefaultStatsInterval = time.Minute
)

// Environment variables naming the YAML config and overriding the database file.
const (
	ConfigFileEnv   = "QC_CONFIG_FILE"
	DatabasePathEnv = "QC_DATABASE_PATH"
)

// FileConfig is the optional YAML configuration file. Every field may be
// omitted; environment variables take precedence over it.
type FileConfig struct {
	DatabasePath    string `yaml:"databasePath"`
	Host            string `yaml:"host"`
	Port            string `yaml:"port"`
	MetricsPort     string `yaml:"metricsPort"`
	MetricsEnabled  *bool  `yaml:"metricsEnabled"`
	StatsInterval   string `yaml:"statsInterval"`
	LogLevel        string `yaml:"logLevel"`
	LogHealthChecks *bool  `yaml:"logHealthChecks"`
	CopyWorkers     int    `yaml:"copyWorkers"`
}

// Config holds all application configuration
type Config struct {
	ConfigFile      string
	DatabasePath    string
	Host            string
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StatsInterval   time.Duration
	LogHealthChecks bool
	CopyWorkers     int
}

// Addr returns the host:port the command server listens on.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

// LoadFileConfig reads a YAML config file. A missing path yields an empty
// FileConfig.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	if path == "" {
		return fc, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("parse config: %w", err)
	}
	return fc, nil
}

// LoadConfig prints the startup banner and builds the configuration from
// the optional YAML file overlaid by environment variables.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	configFile := os.Getenv(ConfigFileEnv)
	fc, err := LoadFileConfig(configFile)
	if err != nil {
		return nil, err
	}

	config, err := buildConfig(fc)
	if err != nil {
		return nil, err
	}
	config.ConfigFile = configFile

	if configFile != "" {
		logging.Info("  QC_CONFIG_FILE:      %s", configFile)
	}
	logging.Info("  QC_DATABASE_PATH:    %s", config.DatabasePath)
	logging.Info("  HOST:                %s", config.Host)
	logging.Info("  PORT:                %s", config.Port)
	logging.Info("  METRICS_PORT:        %s", config.MetricsPort)
	logging.Info("  METRICS_ENABLED:     %v", config.MetricsEnabled)
	logging.Info("  STATS_INTERVAL:      %s", config.StatsInterval)
	logging.Info("  LOG_HEALTH_CHECKS:   %v", config.LogHealthChecks)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())
	logging.Info("  QC_COPY_WORKERS:     %d", workers.ForIO(0))

	return config, nil
}

// DatabasePath resolves the database file the way the server does:
// QC_DATABASE_PATH, then databasePath from the QC_CONFIG_FILE YAML, then the
// per-user default. The result is absolute.
func DatabasePath() (string, error) {
	fc, err := LoadFileConfig(os.Getenv(ConfigFileEnv))
	if err != nil {
		return "", err
	}
	return databasePath(fc)
}

func databasePath(fc FileConfig) (string, error) {
	path := getEnv(DatabasePathEnv, fc.DatabasePath)
	if path == "" {
		path = database.ResolvePath()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve database path: %w", err)
	}
	return abs, nil
}

// buildConfig merges fc with the environment and applies defaults.
func buildConfig(fc FileConfig) (*Config, error) {
	config := &Config{
		Host:            getEnv("HOST", orDefault(fc.Host, DefaultHost)),
		Port:            getEnv("PORT", orDefault(fc.Port, DefaultPort)),
		MetricsPort:     getEnv("METRICS_PORT", orDefault(fc.MetricsPort, DefaultMetricsPort)),
		MetricsEnabled:  getEnvBool("METRICS_ENABLED", boolOr(fc.MetricsEnabled, true)),
		LogHealthChecks: getEnvBool("LOG_HEALTH_CHECKS", boolOr(fc.LogHealthChecks, true)),
	}

	dbPath, err := databasePath(fc)
	if err != nil {
		return nil, err
	}
	config.DatabasePath = dbPath

	if config.Port == config.MetricsPort && config.MetricsEnabled {
		return nil, errors.New("config: PORT and METRICS_PORT must differ")
	}

	intervalStr := getEnv("STATS_INTERVAL", fc.StatsInterval)
	config.StatsInterval = DefaultStatsInterval
	if intervalStr != "" {
		interval, err := time.ParseDuration(intervalStr)
		if err != nil || interval <= 0 {
			logging.Warn("  Invalid STATS_INTERVAL %q, using default: %s", intervalStr, DefaultStatsInterval)
		} else {
			config.StatsInterval = interval
		}
	}

	// LOG_LEVEL in the environment was already applied by the logging
	// package; the file only fills in when it is absent.
	if os.Getenv("LOG_LEVEL") == "" && fc.LogLevel != "" {
		if level, ok := logging.ParseLevel(fc.LogLevel); ok {
			logging.SetLevel(level)
		} else {
			logging.Warn("  Invalid logLevel %q in config file, ignoring", fc.LogLevel)
		}
	}

	// The worker pool reads its override from the environment.
	if os.Getenv(workers.EnvOverride) == "" && fc.CopyWorkers > 0 {
		if err := os.Setenv(workers.EnvOverride, strconv.Itoa(fc.CopyWorkers)); err != nil {
			return nil, fmt.Errorf("failed to apply copyWorkers: %w", err)
		}
	}
	config.CopyWorkers = workers.ForIO(0)

	return config, nil
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(path, journalMode string, duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DATABASE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Path:          %s", path)
	logging.Info("  Journal mode:  %s", journalMode)
	logging.Info("  [OK] Database initialized in %v", duration)
}

// LogEventHubInit logs event hub startup
func LogEventHubInit() {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("EVENT HUB")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Event hub started")
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		name := route.GetName()

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   name,
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))
		logging.Debug("")

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}

			for _, route := range groups[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
			logging.Debug("")
		}
	}

	logging.Info("  HTTP logging enabled")
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	first := parts[0]

	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Host            string
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Commands:      http://%s:%s/api/invoke/{command}", config.Host, config.Port)
	logging.Info("    Events:        ws://%s:%s/api/events", config.Host, config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://%s:%s/metrics", config.Host, config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

func printBanner() {
	banner := `
------------------------------------------------------------
   ____   _____     _                _       _   _
  / __ \ / ____|   / \   _ __   __ _| |_   _| |_(_) ___ ___
 | |  | | |       / _ \ | '_ \ / _' | | | | | __| |/ __/ __|
 | |__| | |____  / ___ \| | | | (_| | | |_| | |_| | (__\__ \
  \___\_\\_____|/_/   \_\_| |_|\__,_|_|\__, |\__|_|\___|___/
                                       |___/
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if logging.IsDebugEnabled() {
		logging.Debug("  Goroutines:      %d", runtime.NumGoroutine())

		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
	}

	logging.Info("")
}

func orDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func boolOr(value *bool, fallback bool) bool {
	if value != nil {
		return *value
	}
	return fallback
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
