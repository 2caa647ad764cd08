package memory

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"gestmais/internal/core"
	"gestmais/internal/storage"
)

func TestNewFromSeedFile(t *testing.T) {
	ctx := context.Background()
	s, err := NewFromSeedFile(ctx, filepath.Join("..", "testdata", "seed.json"))
	if err != nil {
		t.Fatalf("NewFromSeedFile: %v", err)
	}

	rec, err := s.GetResidentApartment(ctx, "user-1a")
	if err != nil {
		t.Fatalf("GetResidentApartment: %v", err)
	}
	if rec.Unit != "1A" || rec.Building.Name != "Edifício Aurora" {
		t.Errorf("unexpected record: %+v", rec)
	}

	projects, err := s.ListActiveProjects(ctx, rec.BuildingID)
	if err != nil || len(projects) != 1 {
		t.Fatalf("ListActiveProjects = %+v, %v", projects, err)
	}

	items, err := s.ListInstallments(ctx, storage.InstallmentFilter{ApartmentID: rec.ID, ProjectIDs: []int64{projects[0].ID}})
	if err != nil || len(items) != 5 {
		t.Fatalf("ListInstallments = %d, %v; want 5", len(items), err)
	}
	for i, it := range items {
		if it.Number != i+1 {
			t.Errorf("items[%d].Number = %d, want %d", i, it.Number, i+1)
		}
	}
}

func TestNewFromSeedFileEmptyPath(t *testing.T) {
	s, err := NewFromSeedFile(context.Background(), "")
	if err != nil {
		t.Fatalf("NewFromSeedFile: %v", err)
	}
	if _, err := s.GetBuilding(context.Background(), 1); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected empty store, got err=%v", err)
	}
}

func TestUpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	s := New()
	b, _ := s.CreateBuilding(ctx, core.Building{Name: "B", QuotaMode: core.QuotaFlat, PaymentDueDay: 1})
	a, err := s.CreateApartment(ctx, core.Apartment{BuildingID: b, Unit: "1"})
	if err != nil {
		t.Fatalf("CreateApartment: %v", err)
	}

	p := core.RegularPayment{ApartmentID: a, Month: 2, Year: 2025, Status: core.PaymentLate}
	if err := s.UpsertRegularPayment(ctx, p); err != nil {
		t.Fatal(err)
	}
	p.Status, p.Amount = core.PaymentPaid, 100
	if err := s.UpsertRegularPayment(ctx, p); err != nil {
		t.Fatal(err)
	}

	got, _ := s.ListRegularPayments(ctx, a, 2025)
	if len(got) != 1 || got[0] != p {
		t.Errorf("ListRegularPayments = %+v, want [%+v]", got, p)
	}

	if err := s.UpsertRegularPayment(ctx, core.RegularPayment{ApartmentID: 999, Month: 1, Year: 2025, Status: core.PaymentPaid}); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("unknown apartment err = %v, want ErrNotFound", err)
	}
}

func TestResidentUniqueness(t *testing.T) {
	ctx := context.Background()
	s := New()
	b, _ := s.CreateBuilding(ctx, core.Building{Name: "B", QuotaMode: core.QuotaFlat, PaymentDueDay: 1})
	if _, err := s.CreateApartment(ctx, core.Apartment{BuildingID: b, Unit: "1", ResidentID: "u"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateApartment(ctx, core.Apartment{BuildingID: b, Unit: "2", ResidentID: "u"}); err == nil {
		t.Error("expected error for duplicate resident")
	}
	if _, err := s.GetResidentApartment(ctx, ""); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("empty resident err = %v, want ErrNotFound", err)
	}
}

func TestBuildingPaymentsScopedToBuilding(t *testing.T) {
	ctx := context.Background()
	s := New()
	b1, _ := s.CreateBuilding(ctx, core.Building{Name: "B1", QuotaMode: core.QuotaFlat, PaymentDueDay: 1})
	b2, _ := s.CreateBuilding(ctx, core.Building{Name: "B2", QuotaMode: core.QuotaFlat, PaymentDueDay: 1})
	a1, _ := s.CreateApartment(ctx, core.Apartment{BuildingID: b1, Unit: "1"})
	a2, _ := s.CreateApartment(ctx, core.Apartment{BuildingID: b2, Unit: "1"})

	for _, id := range []int64{a1, a2} {
		if err := s.UpsertRegularPayment(ctx, core.RegularPayment{ApartmentID: id, Month: 1, Year: 2025, Status: core.PaymentPaid, Amount: 10}); err != nil {
			t.Fatal(err)
		}
	}

	got, _ := s.ListBuildingRegularPayments(ctx, b1, 2025)
	if len(got) != 1 || got[0].ApartmentID != a1 {
		t.Errorf("ListBuildingRegularPayments(b1) = %+v", got)
	}
}

func TestConcurrentUpserts(t *testing.T) {
	ctx := context.Background()
	s := New()
	b, _ := s.CreateBuilding(ctx, core.Building{Name: "B", QuotaMode: core.QuotaFlat, PaymentDueDay: 1})
	a, _ := s.CreateApartment(ctx, core.Apartment{BuildingID: b, Unit: "1"})

	var wg sync.WaitGroup
	for m := 1; m <= 12; m++ {
		wg.Add(1)
		go func(month int) {
			defer wg.Done()
			_ = s.UpsertRegularPayment(ctx, core.RegularPayment{ApartmentID: a, Month: month, Year: 2025, Status: core.PaymentPaid, Amount: 1})
		}(m)
	}
	wg.Wait()

	got, _ := s.ListRegularPayments(ctx, a, 2025)
	if len(got) != 12 {
		t.Errorf("got %d payments, want 12", len(got))
	}
}
