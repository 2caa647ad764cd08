package backend

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"gestmais/internal/config"
	"gestmais/internal/log"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Error("expected error for unknown backend")
	}

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:    "postgres",
		DatabaseURL:    "postgres://localhost/gestmais",
		DBMaxOpenConns: 8,
		DBMaxIdleConns: 2,
	})
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if cfg.Type != PostgresBackend || cfg.Pool.MaxOpenConns != 8 || cfg.Pool.MaxIdleConns != 2 {
		t.Errorf("FromAppConfig() = %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{"memory", Config{Type: MemoryBackend}, ""},
		{"invalid type", Config{Type: "sheets"}, "invalid backend type"},
		{"sqlite without path", Config{Type: SQLiteBackend}, "SQLite database path"},
		{"postgres without url", Config{Type: PostgresBackend}, "database URL"},
		{"amqp without queue", Config{Type: MemoryBackend, AMQPURL: "amqp://localhost/", AMQPExchange: "x"}, "exchange and queue"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestCreateMemoryBackendFromSeed(t *testing.T) {
	f := NewFactory(log.Discard())
	res, err := f.CreateBackend(context.Background(), Config{
		Type:     MemoryBackend,
		SeedFile: filepath.Join("..", "storage", "testdata", "seed.json"),
	})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	defer res.Close()

	if res.Publisher != nil {
		t.Error("no publisher expected without AMQP_URL")
	}
	rec, err := res.Store.GetResidentApartment(context.Background(), "user-1a")
	if err != nil {
		t.Fatalf("GetResidentApartment() error = %v", err)
	}
	if rec.Unit != "1A" {
		t.Errorf("unit = %q, want 1A", rec.Unit)
	}
}

func TestCreateSQLiteBackend(t *testing.T) {
	f := NewFactory(log.Discard())
	res, err := f.CreateBackend(context.Background(), Config{
		Type:         SQLiteBackend,
		SQLiteDBPath: filepath.Join(t.TempDir(), "gestmais.db"),
	})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	if res.Cleanup == nil {
		t.Fatal("sqlite backend must have a cleanup")
	}
	if err := res.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestJoinCleanups(t *testing.T) {
	var order []string
	fn := joinCleanups(
		func() error { order = append(order, "store"); return nil },
		nil,
		func() error { order = append(order, "amqp"); return context.Canceled },
	)
	if err := fn(); err == nil {
		t.Error("expected the amqp error to surface")
	}
	if strings.Join(order, ",") != "store,amqp" {
		t.Errorf("order = %v", order)
	}
}
