package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.ServerAddress != ":8080" {
		t.Errorf("ServerAddress = %q", cfg.ServerAddress)
	}
	if cfg.MongoDB != "coffices" {
		t.Errorf("MongoDB = %q", cfg.MongoDB)
	}
	if cfg.PlacesTimeout != 10*time.Second {
		t.Errorf("PlacesTimeout = %v", cfg.PlacesTimeout)
	}
	if cfg.MigrationBatchSize != 5 {
		t.Errorf("MigrationBatchSize = %d", cfg.MigrationBatchSize)
	}
	if cfg.MigrationBatchDelay != time.Second {
		t.Errorf("MigrationBatchDelay = %v", cfg.MigrationBatchDelay)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", ":9999")
	t.Setenv("MONGO_DB", "coffices_test")
	t.Setenv("PLACES_TIMEOUT_SECS", "3")
	t.Setenv("MIGRATION_BATCH_DELAY_MS", "250")

	cfg := Load()
	if cfg.ServerAddress != ":9999" {
		t.Errorf("ServerAddress = %q", cfg.ServerAddress)
	}
	if cfg.MongoDB != "coffices_test" {
		t.Errorf("MongoDB = %q", cfg.MongoDB)
	}
	if cfg.PlacesTimeout != 3*time.Second {
		t.Errorf("PlacesTimeout = %v", cfg.PlacesTimeout)
	}
	if cfg.MigrationBatchDelay != 250*time.Millisecond {
		t.Errorf("MigrationBatchDelay = %v", cfg.MigrationBatchDelay)
	}
}

func TestLoadIgnoresUnparsableInt(t *testing.T) {
	t.Setenv("PLACES_TIMEOUT_SECS", "not-a-number")
	cfg := Load()
	if cfg.PlacesTimeout != 10*time.Second {
		t.Errorf("PlacesTimeout = %v, want default", cfg.PlacesTimeout)
	}
}
