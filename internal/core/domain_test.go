package core

import (
	"errors"
	"testing"
	"time"
)

func TestParseQuotaMode(t *testing.T) {
	cases := []struct {
		in   string
		want QuotaMode
		ok   bool
	}{
		{"flat", QuotaFlat, true},
		{"global", QuotaFlat, true},
		{" Permillage ", QuotaPermillage, true},
		{"", "", false},
		{"shares", "", false},
	}
	for _, tc := range cases {
		got, err := ParseQuotaMode(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.want, got, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidQuotaMode) {
			t.Fatalf("%q expected ErrInvalidQuotaMode, got %v", tc.in, err)
		}
	}
}

func TestParsePaymentStatus(t *testing.T) {
	for _, s := range []string{"paid", "PENDING", " late "} {
		if _, err := ParsePaymentStatus(s); err != nil {
			t.Fatalf("%q expected ok, got %v", s, err)
		}
	}
	if _, err := ParsePaymentStatus("partial"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestParseProjectStatus(t *testing.T) {
	if ParseProjectStatus("active") != ProjectActive {
		t.Fatal("expected active")
	}
	for _, s := range []string{"closed", "completed", ""} {
		if ParseProjectStatus(s) != ProjectClosed {
			t.Fatalf("%q expected closed", s)
		}
	}
}

func TestBuildingValidate(t *testing.T) {
	good := Building{Name: "Edifício Aurora", MonthlyQuota: 85000, QuotaMode: QuotaPermillage, PaymentDueDay: 8}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Building{
		{Name: "", MonthlyQuota: 1, QuotaMode: QuotaFlat, PaymentDueDay: 1},
		{Name: "a", MonthlyQuota: -1, QuotaMode: QuotaFlat, PaymentDueDay: 1},
		{Name: "a", MonthlyQuota: 1, QuotaMode: "", PaymentDueDay: 1},
		{Name: "a", MonthlyQuota: 1, QuotaMode: QuotaFlat, PaymentDueDay: 0},
		{Name: "a", MonthlyQuota: 1, QuotaMode: QuotaFlat, PaymentDueDay: 32},
	}
	for i, b := range bads {
		if err := b.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestApartmentValidate(t *testing.T) {
	if err := (Apartment{BuildingID: 1, Unit: "1A", Permillage: 0}).Validate(); err != nil {
		t.Fatalf("zero permillage must be accepted, got %v", err)
	}
	bads := []Apartment{
		{BuildingID: 0, Unit: "1A"},
		{BuildingID: 1, Unit: " "},
		{BuildingID: 1, Unit: "1A", Permillage: -1},
		{BuildingID: 1, Unit: "1A", Permillage: 1000.5},
	}
	for i, a := range bads {
		if err := a.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestRegularPaymentValidate(t *testing.T) {
	good := RegularPayment{ApartmentID: 1, Month: 12, Year: 2025, Status: PaymentPaid, Amount: 14167}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []RegularPayment{
		{ApartmentID: 0, Month: 1, Year: 2025, Status: PaymentPaid},
		{ApartmentID: 1, Month: 0, Year: 2025, Status: PaymentPaid},
		{ApartmentID: 1, Month: 13, Year: 2025, Status: PaymentPaid},
		{ApartmentID: 1, Month: 1, Year: 2025, Status: "unknown"},
		{ApartmentID: 1, Month: 1, Year: 2025, Status: PaymentPaid, Amount: -1},
	}
	for i, p := range bads {
		if err := p.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestProjectValidate(t *testing.T) {
	good := ExtraordinaryProject{BuildingID: 1, Name: "Fachada", Status: ProjectActive, StartMonth: 1, StartYear: 2025, Installments: 6, PaymentDueDay: 1}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bad := good
	bad.Installments = 0
	if err := bad.Validate(); !errors.Is(err, ErrInvalidProject) {
		t.Fatalf("expected ErrInvalidProject, got %v", err)
	}
}

func TestAsOfFrom(t *testing.T) {
	lisbon, err := time.LoadLocation("Europe/Lisbon")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// 23:30 UTC on Jan 31 is still Jan 31 in Lisbon (UTC+0 in winter).
	ts := time.Date(2025, 1, 31, 23, 30, 0, 0, time.UTC)
	got := AsOfFrom(ts, lisbon)
	if got != (AsOf{Day: 31, Month: 1, Year: 2025}) {
		t.Errorf("AsOfFrom = %+v", got)
	}
	tokyo := time.FixedZone("JST", 9*3600)
	got = AsOfFrom(ts, tokyo)
	if got != (AsOf{Day: 1, Month: 2, Year: 2025}) {
		t.Errorf("AsOfFrom(JST) = %+v", got)
	}
}
