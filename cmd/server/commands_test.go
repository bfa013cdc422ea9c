package main

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"redsocial/internal/config"
	"redsocial/internal/db"
)

func TestBuildEngineServesWiredRoutes(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		Server:       config.ServerConfig{Port: "0", Mode: "test"},
		Database:     config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(dir, "test.db"), MaxOpenConns: 1},
		Uploads:      config.UploadConfig{Dir: filepath.Join(dir, "uploads"), PublicPrefix: "/uploads"},
		Log:          config.LogConfig{Level: "error", Format: "text"},
		RateLimit:    config.RateLimitConfig{RPS: 100, Burst: 100},
		ProfileCache: config.CacheConfig{Size: 10, TTL: time.Minute},
	}
	require.NoError(t, cfg.Validate())

	gdb, err := db.Open(cfg.Database)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })
	require.NoError(t, db.Migrate(gdb))

	engine, err := buildEngine(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), gdb)
	require.NoError(t, err)

	for _, path := range []string{"/health", "/metrics", "/api/posts"} {
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["migrate"])
	assert.NotNil(t, serveCmd.Flags().Lookup("port"))
}
