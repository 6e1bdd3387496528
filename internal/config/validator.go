package config

import (
	"fmt"
	"strings"
)

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
)

// Validate checks enumerations and ranges.
func Validate(cfg *Config) error {
	var errs []string

	if !contains(logLevels, strings.ToLower(cfg.Log.Level)) {
		errs = append(errs, fmt.Sprintf("log.level: %q is not one of %s", cfg.Log.Level, strings.Join(logLevels, ", ")))
	}
	if !contains(logFormats, strings.ToLower(cfg.Log.Format)) {
		errs = append(errs, fmt.Sprintf("log.format: %q is not one of %s", cfg.Log.Format, strings.Join(logFormats, ", ")))
	}
	switch cfg.Storage.Backend {
	case BackendMemory, BackendRedis, BackendSQLite:
	default:
		errs = append(errs, fmt.Sprintf("storage.backend: unknown backend %q", cfg.Storage.Backend))
	}
	if cfg.Storage.Redis.DB < 0 {
		errs = append(errs, "storage.redis.db: must not be negative")
	}
	if cfg.Storage.Redis.TTL < 0 {
		errs = append(errs, "storage.redis.ttl: must not be negative")
	}

	if enc := cfg.Storage.Encryption; enc.Enabled() {
		if _, _, err := enc.Keys(); err != nil {
			errs = append(errs, err.Error())
		}
	} else if len(enc.FallbackKeys) > 0 {
		errs = append(errs, "storage.encryption.fallback_keys: set without storage.encryption.key")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
