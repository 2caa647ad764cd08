package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gestmais/internal/storage"
	"gestmais/internal/storage/memory"
)

func TestLoadSeedFileErrors(t *testing.T) {
	if _, err := storage.LoadSeedFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := storage.LoadSeedFile(bad); err == nil {
		t.Error("expected decode error")
	}
}

func TestApplySeedDefaults(t *testing.T) {
	s := memory.New()
	seed := storage.Seed{Buildings: []storage.SeedBuilding{{
		Name:              "Sem dia",
		MonthlyQuotaCents: 1000,
		QuotaMode:         "global",
		Apartments:        []storage.SeedApartment{{Unit: "A"}},
	}}}
	if err := storage.ApplySeed(context.Background(), s, seed); err != nil {
		t.Fatalf("ApplySeed: %v", err)
	}
	b, err := s.GetBuilding(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetBuilding: %v", err)
	}
	if b.PaymentDueDay != 1 {
		t.Errorf("PaymentDueDay = %d, want 1", b.PaymentDueDay)
	}
	if b.QuotaMode != "flat" {
		t.Errorf("QuotaMode = %q, want flat", b.QuotaMode)
	}
}

func TestApplySeedRejects(t *testing.T) {
	tests := []struct {
		name string
		seed storage.Seed
		want string
	}{
		{
			name: "bad quota mode",
			seed: storage.Seed{Buildings: []storage.SeedBuilding{{Name: "X", QuotaMode: "weird"}}},
			want: "quota mode",
		},
		{
			name: "unknown unit",
			seed: storage.Seed{Buildings: []storage.SeedBuilding{{
				Name:      "X",
				QuotaMode: "flat",
				Projects: []storage.SeedProject{{
					Name: "P", Status: "active", StartMonth: 1, StartYear: 2025, Installments: 2,
					Payments: []storage.SeedInstallment{{Unit: "ZZ", Number: 1}},
				}},
			}}},
			want: "unknown unit",
		},
		{
			name: "bad payment status",
			seed: storage.Seed{Buildings: []storage.SeedBuilding{{
				Name:      "X",
				QuotaMode: "flat",
				Apartments: []storage.SeedApartment{{
					Unit:     "A",
					Payments: []storage.SeedPayment{{Month: 1, Year: 2025, Status: "maybe"}},
				}},
			}}},
			want: "payment status",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := storage.ApplySeed(context.Background(), memory.New(), tt.seed)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("ApplySeed err = %v, want containing %q", err, tt.want)
			}
		})
	}
}
