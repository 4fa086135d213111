package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/daryl-03/caching-proxy/cache"
	"github.com/daryl-03/caching-proxy/core"
	"github.com/daryl-03/caching-proxy/obs"
)

var (
	// CLI flags
	portFlag           int
	originFlag         string
	fullCachingFlag    bool
	clearCacheFlag     bool
	helpFlag           bool
	configFilenameFlag string
	cacheDirFlag       string
	providerFlag       string
	dbFilenameFlag     string
	redisAddrFlag      string
	metricsAddrFlag    string
	verbosityTraceFlag bool
	logFilenameFlag    string

	// this is set by goreleaser
	version string
)

func init() {
	flag.IntVar(&portFlag, "port", 0, "Port to listen on (required)")
	flag.StringVar(&originFlag, "origin", "", "Origin URL to forward all requests to")
	flag.BoolVar(&fullCachingFlag, "full-caching", false, "Full proxy mode: honor client Host headers")
	flag.BoolVar(&clearCacheFlag, "clear-cache", false, "Remove every cached entry and exit")
	flag.BoolVar(&helpFlag, "help", false, "Print usage and exit")
	flag.BoolVar(&helpFlag, "h", false, "Print usage and exit (shorthand)")
	flag.StringVar(&configFilenameFlag, "config", "", "Path to config file")
	flag.StringVar(&cacheDirFlag, "cache-dir", "./cache", "Cache directory (disk provider)")
	flag.StringVar(&providerFlag, "provider", "disk", "Cache provider: disk, sqlite, memory or redis")
	flag.StringVar(&dbFilenameFlag, "db", "cache.db", "Cache DB file name (sqlite provider)")
	flag.StringVar(&redisAddrFlag, "redis", "localhost:6379", "Redis address (redis provider)")
	flag.StringVar(&metricsAddrFlag, "metrics-addr", "", "Address for the metrics/health listener (disabled if empty)")
	flag.BoolVar(&verbosityTraceFlag, "vv", false, "Verbosity: trace logging")
	flag.StringVar(&logFilenameFlag, "log-file", "", "Log file to use (in addition to stdout)")

	if version == "" {
		version = "DEV"
	}
}

func main() {
	flag.Parse()

	if helpFlag {
		flag.Usage()
		os.Exit(0)
	}

	// set log level
	logLevel := zerolog.DebugLevel
	if verbosityTraceFlag {
		logLevel = zerolog.TraceLevel
	}

	// set up log output to stdout
	// also output to logfile if specified
	logOutputs := make([]io.Writer, 0)
	logOutputs = append(logOutputs, zerolog.ConsoleWriter{Out: os.Stdout})
	if logFilenameFlag != "" {
		if logFileOutput, err := os.OpenFile(logFilenameFlag, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644); err != nil {
			log.Fatal().Err(err).Msg("Cannot open log file")
		} else {
			logOutputs = append(logOutputs, logFileOutput)
		}
	}
	multiWriter := zerolog.MultiLevelWriter(logOutputs...)
	log.Logger = log.Level(logLevel).Output(multiWriter).
		With().Str("version", version).Logger()

	cfg := defaultConfig()
	if configFilenameFlag != "" {
		fileCfg, err := getConfig(configFilenameFlag)
		if err != nil {
			log.Fatal().Err(err).Msg("Cannot read config file")
		}
		cfg = fileCfg
	}
	cfg.applyFlags()

	provider, err := newProvider(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Cannot initialize cache provider")
	}

	if clearCacheFlag {
		if err := core.NewStore(provider).Clear(); err != nil {
			log.Fatal().Err(err).Msg("Cannot clear cache")
		}
		log.Info().Msg("Cache cleared")
		return
	}

	if cfg.Port <= 0 || (!cfg.FullCaching && cfg.Origin == "") {
		fmt.Fprintln(os.Stderr, "need a port, and an origin unless -full-caching is set")
		flag.Usage()
		os.Exit(1)
	}

	var metrics *obs.Metrics
	if cfg.MetricsAddr != "" {
		metrics = obs.NewMetrics()
		go func() {
			log.Info().Str("addr", cfg.MetricsAddr).Msg("Metrics listener started")
			if err := http.ListenAndServe(cfg.MetricsAddr, obs.AdminRouter(metrics)); err != nil {
				log.Error().Err(err).Msg("Metrics listener failed")
			}
		}()
	}

	server := core.NewServer(core.Config{
		Port:      cfg.Port,
		Origin:    cfg.Origin,
		FullProxy: cfg.FullCaching,
		Cache:     provider,
		Metrics:   metrics,
	})

	if err := server.Run(); err != nil {
		log.Fatal().Err(err).Msg("Proxy server failed")
	}
}

func newProvider(cfg Config) (cache.Provider, error) {
	switch cfg.Provider {
	case "", "disk":
		return cache.NewDiskCache(cfg.CacheDir)
	case "sqlite":
		return cache.NewSQLiteCache(cfg.DBFile)
	case "memory":
		return cache.NewMemCache(), nil
	case "redis":
		return cache.NewRedisCache(cfg.RedisAddr), nil
	default:
		return nil, fmt.Errorf("unsupported cache provider: %s", cfg.Provider)
	}
}
