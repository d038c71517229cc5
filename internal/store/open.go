package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"
)

// Config selects and configures a backend.
type Config struct {
	Driver        string `yaml:"driver"` // file | sqlite | redis | memory
	Path          string `yaml:"path"`   // file and sqlite
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	RedisKey      string `yaml:"redis_key"`
}

// DefaultPath is where file and sqlite stores live unless configured.
func DefaultPath(driver string) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	name := "settings.json"
	if driver == "sqlite" {
		name = "settings.db"
	}
	return filepath.Join(dir, "ltpanel", name)
}

// Open builds the backend cfg describes.
func Open(cfg Config) (Backend, error) {
	path := cfg.Path
	if path == "" {
		path = DefaultPath(cfg.Driver)
	}

	switch cfg.Driver {
	case "", "file":
		return NewFile(path)
	case "sqlite":
		return NewSQLite(path)
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return NewRedis(client, cfg.RedisKey), nil
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
