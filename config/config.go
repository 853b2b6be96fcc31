// Package config loads the runtime settings of the user manager.
//
// Sources, later ones winning:
//
//  1. built-in defaults (see Default)
//  2. a YAML file named by -config or USERMGR_CONFIG
//  3. USERMGR_* environment variables: ADDR, DIRECTORY_URL,
//     DIRECTORY_TIMEOUT, PAGE_SIZE, RATE_LIMIT, RATE_BURST, LOG_LEVEL,
//     SHUTDOWN_TIMEOUT (CONFIG names the file)
//  4. command-line flags, one per setting
//
// Example file:
//
//	addr: ":8080"
//	directory_url: "https://jsonplaceholder.typicode.com"
//	directory_timeout: 10s
//	page_size: 10
//	rate_limit: 1000
//	rate_burst: 5000
//	log_level: info
//	shutdown_timeout: 10s
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const envPrefix = "USERMGR_"

type Config struct {
	Addr             string        `yaml:"addr"`
	DirectoryURL     string        `yaml:"directory_url"`
	DirectoryTimeout time.Duration `yaml:"directory_timeout"`
	PageSize         int           `yaml:"page_size"`
	RateLimit        float64       `yaml:"rate_limit"`
	RateBurst        int           `yaml:"rate_burst"`
	LogLevel         string        `yaml:"log_level"`
	ShutdownTimeout  time.Duration `yaml:"shutdown_timeout"`
}

func Default() Config {
	return Config{
		Addr:             ":8080",
		DirectoryURL:     "https://jsonplaceholder.typicode.com",
		DirectoryTimeout: 10 * time.Second,
		PageSize:         10,
		RateLimit:        1000,
		RateBurst:        5000,
		LogLevel:         "info",
		ShutdownTimeout:  10 * time.Second,
	}
}

// Load builds the configuration from args (usually os.Args[1:]) and the
// process environment.
func Load(args []string) (Config, error) {
	return load(args, os.LookupEnv)
}

func load(args []string, lookupEnv func(string) (string, bool)) (Config, error) {
	cfg := Default()

	fs := flag.NewFlagSet("usermanager", flag.ContinueOnError)
	var (
		path             = fs.String("config", "", "path to YAML config file")
		addr             = fs.String("a", cfg.Addr, "address to listen on")
		directoryURL     = fs.String("directory", cfg.DirectoryURL, "base URL of the remote user directory")
		directoryTimeout = fs.Duration("directory-timeout", cfg.DirectoryTimeout, "timeout of a directory request")
		pageSize         = fs.Int("page-size", cfg.PageSize, "rows per listing page")
		rateLimit        = fs.Float64("rate-limit", cfg.RateLimit, "allowed requests per second")
		rateBurst        = fs.Int("rate-burst", cfg.RateBurst, "request burst size")
		logLevel         = fs.String("log-level", cfg.LogLevel, "debug, info, warn or error")
		shutdownTimeout  = fs.Duration("shutdown-timeout", cfg.ShutdownTimeout, "graceful shutdown timeout")
	)
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	file := *path
	if file == "" {
		file, _ = lookupEnv(envPrefix + "CONFIG")
	}
	if file != "" {
		if err := cfg.loadFile(file); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.loadEnv(lookupEnv); err != nil {
		return Config{}, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "a":
			cfg.Addr = *addr
		case "directory":
			cfg.DirectoryURL = *directoryURL
		case "directory-timeout":
			cfg.DirectoryTimeout = *directoryTimeout
		case "page-size":
			cfg.PageSize = *pageSize
		case "rate-limit":
			cfg.RateLimit = *rateLimit
		case "rate-burst":
			cfg.RateBurst = *rateBurst
		case "log-level":
			cfg.LogLevel = *logLevel
		case "shutdown-timeout":
			cfg.ShutdownTimeout = *shutdownTimeout
		}
	})

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv(lookupEnv func(string) (string, bool)) error {
	if v, ok := lookupEnv(envPrefix + "ADDR"); ok {
		c.Addr = v
	}
	if v, ok := lookupEnv(envPrefix + "DIRECTORY_URL"); ok {
		c.DirectoryURL = v
	}
	if v, ok := lookupEnv(envPrefix + "LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if err := envDuration(lookupEnv, "DIRECTORY_TIMEOUT", &c.DirectoryTimeout); err != nil {
		return err
	}
	if err := envDuration(lookupEnv, "SHUTDOWN_TIMEOUT", &c.ShutdownTimeout); err != nil {
		return err
	}
	if err := envInt(lookupEnv, "PAGE_SIZE", &c.PageSize); err != nil {
		return err
	}
	if err := envInt(lookupEnv, "RATE_BURST", &c.RateBurst); err != nil {
		return err
	}
	if v, ok := lookupEnv(envPrefix + "RATE_LIMIT"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sRATE_LIMIT: %w", envPrefix, err)
		}
		c.RateLimit = f
	}
	return nil
}

func envDuration(lookupEnv func(string) (string, bool), key string, dst *time.Duration) error {
	v, ok := lookupEnv(envPrefix + key)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s%s: %w", envPrefix, key, err)
	}
	*dst = d
	return nil
}

func envInt(lookupEnv func(string) (string, bool), key string, dst *int) error {
	v, ok := lookupEnv(envPrefix + key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s%s: %w", envPrefix, key, err)
	}
	*dst = n
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if c.DirectoryURL == "" {
		errs = append(errs, errors.New("directory_url is required"))
	}
	if c.PageSize < 1 {
		errs = append(errs, fmt.Errorf("page_size must be positive, got %d", c.PageSize))
	}
	if c.DirectoryTimeout <= 0 {
		errs = append(errs, fmt.Errorf("directory_timeout must be positive, got %s", c.DirectoryTimeout))
	}
	if c.RateLimit <= 0 || c.RateBurst < 1 {
		errs = append(errs, errors.New("rate_limit and rate_burst must be positive"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("shutdown_timeout must be positive, got %s", c.ShutdownTimeout))
	}
	return errors.Join(errs...)
}
