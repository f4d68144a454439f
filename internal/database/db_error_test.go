package database

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"zapis/internal/config"
	"zapis/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDB_ErrorPaths(t *testing.T) {
	logger := zerolog.New(io.Discard)
	db, err := NewDB(":memory:", &logger)
	assert.NoError(t, err)
	db.Close() // Close the DB to trigger errors

	ctx := context.Background()

	t.Run("CreateLocation_Error", func(t *testing.T) {
		err := db.CreateLocation(ctx, &models.Location{})
		assert.Error(t, err)
	})

	t.Run("CreateWorker_Error", func(t *testing.T) {
		err := db.CreateWorker(ctx, &models.Worker{FirstName: "x"})
		assert.Error(t, err)
	})

	t.Run("ListWorkers_Error", func(t *testing.T) {
		_, err := db.ListWorkers(ctx)
		assert.Error(t, err)
	})

	t.Run("CreateAppointmentGuarded_Error", func(t *testing.T) {
		err := db.CreateAppointmentGuarded(ctx, &models.Appointment{ScheduledFor: time.Now()}, nil)
		assert.Error(t, err)
	})

	t.Run("GetWorkerAppointments_Error", func(t *testing.T) {
		_, err := db.GetWorkerAppointments(ctx, 1, models.DateFilter{})
		assert.Error(t, err)
	})

	t.Run("CancelAppointment_Error", func(t *testing.T) {
		err := db.CancelAppointmentWithVersion(ctx, 1, 1)
		assert.Error(t, err)
	})
}

func TestBackupService_Extended(t *testing.T) {
	logger := zerolog.New(io.Discard)
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "source.db")
	storagePath := filepath.Join(tempDir, "backups")

	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	cfg := config.BackupConfig{
		Enabled:     true,
		StoragePath: storagePath,
	}
	s := NewBackupService(db, cfg, &logger)

	t.Run("Fallback", func(t *testing.T) {
		backupPath := filepath.Join(storagePath, "zapis_fallback.db")
		require.NoError(t, os.MkdirAll(storagePath, 0o755))

		assert.NoError(t, s.performBackupFallback(backupPath))

		_, err := os.Stat(backupPath)
		assert.NoError(t, err)
	})

	t.Run("Loop", func(t *testing.T) {
		cfgLoop := cfg
		cfgLoop.Schedule = "10ms"
		cfgLoop.StoragePath = filepath.Join(tempDir, "backups_loop")
		sLoop := NewBackupService(db, cfgLoop, &logger)

		ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
		defer cancel()

		sLoop.Start(ctx)

		files, _ := os.ReadDir(cfgLoop.StoragePath)
		assert.True(t, len(files) > 0)
	})
}

func TestBackupService_StorageError(t *testing.T) {
	// StoragePath under a regular file makes MkdirAll fail
	tmpFile, err := os.CreateTemp(t.TempDir(), "notadir")
	require.NoError(t, err)
	tmpFile.Close()

	logger := zerolog.New(io.Discard)
	db, err := NewDB(filepath.Join(t.TempDir(), "src.db"), &logger)
	require.NoError(t, err)
	defer db.Close()

	bs := NewBackupService(db, config.BackupConfig{Enabled: true, StoragePath: tmpFile.Name() + "/subdir"}, &logger)

	_, err = bs.PerformBackup(context.Background())
	assert.Error(t, err)
}

func TestNewDB_Error(t *testing.T) {
	tmpDir := t.TempDir()

	logger := zerolog.New(io.Discard)
	_, err := NewDB(tmpDir, &logger)
	assert.Error(t, err)
}
