package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simplib/pkg/app"
	"simplib/pkg/config"
	"simplib/pkg/logging"
)

func setupApp(t *testing.T, driver string) *app.App {
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	cfg := &config.Config{
		HTTPAddr:         ":0",
		StoreDriver:      driver,
		DataDir:          filepath.Join(dir, "data"),
		SQLitePath:       ":memory:",
		BackupDir:        filepath.Join(dir, "backups"),
		BackupInterval:   time.Hour,
		BackupKeep:       3,
		MonthlyMinLoans:  25,
		CategoryMinBooks: 10,
		UnknownCategory:  "unknown",
	}
	a, err := app.New(cfg, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestHealthCheck(t *testing.T) {
	for _, driver := range []string{"csv", "sqlite"} {
		t.Run(driver, func(t *testing.T) {
			srv := newServer(setupApp(t, driver))

			w := httptest.NewRecorder()
			srv.Handler.ServeHTTP(w, httptest.NewRequest("GET", "/manage/health", nil))

			assert.Equal(t, http.StatusOK, w.Code)
			var response map[string]interface{}
			json.Unmarshal(w.Body.Bytes(), &response)
			assert.Equal(t, "UP", response["status"])
		})
	}
}

func TestStartBackups(t *testing.T) {
	a := setupApp(t, "csv")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, startBackups(ctx, a))

	// the first snapshot is taken right away
	assert.Eventually(t, func() bool {
		entries, err := os.ReadDir(a.Config.BackupDir)
		return err == nil && len(entries) == 1
	}, 2*time.Second, 10*time.Millisecond)
}
