package config

import (
	"encoding/base64"
	"fmt"
	"time"
)

// Backend names a storage backend for learner data.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendRedis  Backend = "redis"
	BackendSQLite Backend = "sqlite"
)

// Config is the top-level YAML structure of a pathway deployment.
type Config struct {
	Server  ServerConf  `yaml:"server"`
	Log     LogConf     `yaml:"log"`
	Modules ModulesConf `yaml:"modules"`
	Storage StorageConf `yaml:"storage"`
	Engine  EngineConf  `yaml:"engine"`
}

type ServerConf struct {
	Addr string `yaml:"addr"`
}

type LogConf struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// ModulesConf points at the directory of module documents.
type ModulesConf struct {
	Dir   string `yaml:"dir"`
	Watch bool   `yaml:"watch"`
}

// StorageConf selects where cursors and learner data live. Modules, variables and
// conditions come from Modules.Dir unless the backend is sqlite.
type StorageConf struct {
	Backend    Backend        `yaml:"backend"`
	Redis      RedisConf      `yaml:"redis"`
	SQLite     SQLiteConf     `yaml:"sqlite"`
	Encryption EncryptionConf `yaml:"encryption"`
}

type RedisConf struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

type SQLiteConf struct {
	Path string `yaml:"path"`
}

// EncryptionConf seals learner variables and answers at rest when Key is set. Keys
// are base64 encoded 32 byte AES-256 keys; FallbackKeys are tried on read so keys can
// be rotated.
type EncryptionConf struct {
	Key          string   `yaml:"key"`
	FallbackKeys []string `yaml:"fallback_keys"`
}

// Enabled reports whether learner state should be encrypted.
func (c EncryptionConf) Enabled() bool {
	return c.Key != ""
}

// Keys decodes the active and fallback keys.
func (c EncryptionConf) Keys() (active []byte, fallback [][]byte, err error) {
	if active, err = decodeKey(c.Key); err != nil {
		return nil, nil, fmt.Errorf("storage.encryption.key: %w", err)
	}
	for i, k := range c.FallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("storage.encryption.fallback_keys[%d]: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("not valid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

type EngineConf struct {
	StrictConditions bool `yaml:"strict_conditions"`
}
