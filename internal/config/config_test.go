package config

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "modules", cfg.Modules.Dir)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, "pathway:", cfg.Storage.Redis.Prefix)
	require.NoError(t, Validate(cfg))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pathway.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: 127.0.0.1:9000
log:
  level: debug
  format: json
modules:
  dir: ./courses
  watch: true
storage:
  backend: redis
  redis:
    addr: redis:6379
    db: 2
    ttl: 24h
engine:
  strict_conditions: true
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "./courses", cfg.Modules.Dir)
	assert.True(t, cfg.Modules.Watch)
	assert.Equal(t, BackendRedis, cfg.Storage.Backend)
	assert.Equal(t, "redis:6379", cfg.Storage.Redis.Addr)
	assert.Equal(t, 2, cfg.Storage.Redis.DB)
	assert.Equal(t, 24*time.Hour, cfg.Storage.Redis.TTL)
	assert.Equal(t, "pathway:", cfg.Storage.Redis.Prefix, "unset fields keep defaults")
	assert.True(t, cfg.Engine.StrictConditions)
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse([]byte("# nothing here\n"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown key", "storage:\n  engine: x\n", "field engine not found"},
		{"bad backend", "storage:\n  backend: mongo\n", `unknown backend "mongo"`},
		{"bad level", "log:\n  level: loud\n", "log.level"},
		{"bad format", "log:\n  format: xml\n", "log.format"},
		{"negative db", "storage:\n  redis:\n    db: -1\n", "storage.redis.db"},
		{"short key", "storage:\n  encryption:\n    key: c2hvcnQ=\n", "must decode to 32 bytes"},
		{"bad key", "storage:\n  encryption:\n    key: '***'\n", "not valid base64"},
		{"orphan fallback", "storage:\n  encryption:\n    fallback_keys: [abc]\n", "without storage.encryption.key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEncryptionConf_Keys(t *testing.T) {
	key := base64.StdEncoding.EncodeToString(make([]byte, 32))
	cfg, err := Parse([]byte("storage:\n  encryption:\n    key: " + key + "\n    fallback_keys: [" + key + "]\n"))
	require.NoError(t, err)
	require.True(t, cfg.Storage.Encryption.Enabled())

	active, fallback, err := cfg.Storage.Encryption.Keys()
	require.NoError(t, err)
	assert.Len(t, active, 32)
	assert.Len(t, fallback, 1)

	assert.False(t, Default().Storage.Encryption.Enabled())
}
