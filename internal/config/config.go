// Package config loads the storefront configuration from a yaml file, a
// .env file and the environment, in rising order of precedence.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "SHOPFRONT_"
	configFile = "config.yaml"
	dotenvFile = ".env"
)

type Config struct {
	Server struct {
		Port    int `koanf:"port"`
		Timeout struct {
			Read       time.Duration `koanf:"read"`
			Write      time.Duration `koanf:"write"`
			Idle       time.Duration `koanf:"idle"`
			ReadHeader time.Duration `koanf:"readheader"`
		} `koanf:"timeout"`
	} `koanf:"server"`

	Catalog struct {
		File     string `koanf:"file"`
		Database string `koanf:"database"`
	} `koanf:"catalog"`

	Session struct {
		Secret string        `koanf:"secret"`
		TTL    time.Duration `koanf:"ttl"`
	} `koanf:"session"`

	Metrics struct {
		Enabled bool   `koanf:"enabled"`
		Token   string `koanf:"token"`
	} `koanf:"metrics"`

	RateLimit struct {
		Limit  int `koanf:"limit"`
		Window int `koanf:"window"`
	} `koanf:"ratelimit"`

	Log struct {
		Level string `koanf:"level"`
	} `koanf:"log"`
}

func Default() Config {
	var c Config
	c.Server.Port = 3000
	c.Catalog.File = "products.json"
	c.Session.Secret = "dev-secret-change-me"
	c.Session.TTL = 24 * time.Hour
	c.RateLimit.Limit = 100
	c.RateLimit.Window = 60
	c.Log.Level = "info"
	return c
}

func (c Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Session.Secret == "" {
		return errors.New("session.secret must not be empty")
	}
	if c.Session.TTL <= 0 {
		return errors.New("session.ttl must be positive")
	}
	if c.Catalog.File == "" && c.Catalog.Database == "" {
		return errors.New("one of catalog.file or catalog.database is required")
	}
	return nil
}

func Load() (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultsMap(), "."), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("WARN: error loading %s: %v", configFile, err)
		}
	}

	transform := func(key string) string {
		key = strings.ToLower(key)
		key = strings.TrimPrefix(key, strings.ToLower(envPrefix))
		return strings.ReplaceAll(key, "_", ".")
	}

	if envFile, err := godotenv.Read(dotenvFile); err == nil {
		m := make(map[string]any, len(envFile))
		for key, value := range envFile {
			m[transform(key)] = value
		}
		if err := k.Load(confmap.Provider(m, "."), nil); err != nil {
			log.Printf("WARN: error loading %s: %v", dotenvFile, err)
		}
	} else if !os.IsNotExist(err) {
		log.Printf("WARN: error reading %s: %v", dotenvFile, err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", transform), nil); err != nil {
		log.Printf("WARN: error loading env vars: %v", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func defaultsMap() map[string]any {
	d := Default()
	return map[string]any{
		"server.port":      d.Server.Port,
		"catalog.file":     d.Catalog.File,
		"session.secret":   d.Session.Secret,
		"session.ttl":      d.Session.TTL.String(),
		"ratelimit.limit":  d.RateLimit.Limit,
		"ratelimit.window": d.RateLimit.Window,
		"log.level":        d.Log.Level,
	}
}
