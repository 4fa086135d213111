package main

import (
	"flag"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port        int    `yaml:"port"`
	Origin      string `yaml:"origin"`
	FullCaching bool   `yaml:"fullCaching"`
	CacheDir    string `yaml:"cacheDir"`
	Provider    string `yaml:"provider"`
	DBFile      string `yaml:"dbFile"`
	RedisAddr   string `yaml:"redisAddr"`
	MetricsAddr string `yaml:"metricsAddr"`
}

func defaultConfig() Config {
	return Config{
		CacheDir:  cacheDirFlag,
		Provider:  providerFlag,
		DBFile:    dbFilenameFlag,
		RedisAddr: redisAddrFlag,
	}
}

func getConfig(filename string) (Config, error) {
	config := defaultConfig()
	configBytes, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	err = yaml.Unmarshal(configBytes, &config)
	return config, err
}

// applyFlags overrides file-sourced values with any flag set on the
// command line.
func (c *Config) applyFlags() {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			c.Port = portFlag
		case "origin":
			c.Origin = originFlag
		case "full-caching":
			c.FullCaching = fullCachingFlag
		case "cache-dir":
			c.CacheDir = cacheDirFlag
		case "provider":
			c.Provider = providerFlag
		case "db":
			c.DBFile = dbFilenameFlag
		case "redis":
			c.RedisAddr = redisAddrFlag
		case "metrics-addr":
			c.MetricsAddr = metricsAddrFlag
		}
	})
	if c.Port == 0 {
		c.Port = portFlag
	}
	if c.Origin == "" {
		c.Origin = originFlag
	}
}
