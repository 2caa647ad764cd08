package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"gestmais/internal/core"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{}, nil)
	if err == nil {
		t.Fatal("expected error for missing GOOGLE_SPREADSHEET_ID")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadCredentials(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "sa.json")
	if err := os.WriteFile(file, []byte(`{"type":"service_account"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	tests := []struct {
		name    string
		cfg     Config
		want    string
		wantErr string
	}{
		{"inline wins", Config{CredentialsJSON: `{"inline":true}`, CredentialsFile: file}, `{"inline":true}`, ""},
		{"file", Config{CredentialsFile: file}, `{"type":"service_account"}`, ""},
		{"missing file", Config{CredentialsFile: filepath.Join(dir, "nope.json")}, "", "read service account file"},
		{"nothing", Config{}, "", "missing service account credentials"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := loadCredentials(tt.cfg)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("loadCredentials() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("loadCredentials() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("loadCredentials() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestQuoteSheet(t *testing.T) {
	tests := map[string]string{
		"2025 Aurora":   "'2025 Aurora'",
		"2025 D'Ouro":   "'2025 D''Ouro'",
		"2025 Edifício": "'2025 Edifício'",
	}
	for in, want := range tests {
		if got := quoteSheet(in); got != want {
			t.Errorf("quoteSheet(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWriteStatement_NilService(t *testing.T) {
	c := &Client{spreadsheetID: "test"}
	_, err := c.WriteStatement(context.Background(), 2025, core.BuildingOverview{BuildingID: 1, Name: "Aurora"})
	if err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Fatalf("expected not initialized error, got %v", err)
	}
}

type recordedCall struct {
	method string
	path   string
	query  string
	body   string
}

func TestWriteStatement_CreatesTabAndWrites(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []recordedCall
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		calls = append(calls, recordedCall{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery, body: string(body)})
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodGet {
			json.NewEncoder(w).Encode(map[string]any{
				"sheets": []any{map[string]any{"properties": map[string]any{"title": "Outro"}}},
			})
			return
		}
		io.WriteString(w, "{}")
	}))
	defer srv.Close()

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()),
		goption.WithoutAuthentication())
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	c := newWithService(svc, "sheet-id")

	ov := core.BuildingOverview{
		BuildingID: 1,
		Name:       "Aurora",
		Apartments: []core.ApartmentStatusLine{{ApartmentID: 1, Unit: "1A", ResidentName: "=1+1"}},
	}
	ref, err := c.WriteStatement(context.Background(), 2025, ov)
	if err != nil {
		t.Fatalf("WriteStatement() error = %v", err)
	}
	if ref != "'2025 Aurora'!A1:H3" {
		t.Errorf("ref = %q", ref)
	}

	mu.Lock()
	defer mu.Unlock()
	var added, cleared, updated bool
	for _, call := range calls {
		switch {
		case strings.HasSuffix(call.path, ":batchUpdate"):
			added = strings.Contains(call.body, "2025 Aurora")
		case strings.HasSuffix(call.path, ":clear"):
			cleared = true
		case call.method == http.MethodPut:
			updated = strings.Contains(call.body, `"'1A"`)
			if !strings.Contains(call.body, `"'=1+1"`) {
				t.Errorf("resident name not escaped in body: %s", call.body)
			}
			if !strings.Contains(call.body, `"0.00"`) {
				t.Errorf("amounts should be sent unescaped: %s", call.body)
			}
			if !strings.Contains(call.query, "valueInputOption=USER_ENTERED") {
				t.Errorf("query = %q", call.query)
			}
		}
	}
	if !added || !cleared || !updated {
		t.Errorf("added=%v cleared=%v updated=%v, calls=%+v", added, cleared, updated, calls)
	}
}

func TestEscapeText(t *testing.T) {
	rows := [][]any{
		{"Fração", "Residente", "Permilagem", "Quota mensal", "Em dívida (quotas)", "Em dívida (extraordinárias)", "Total em dívida", "Estado"},
		{"1/2", "=HYPERLINK(\"http://x\")", "166.67", "141.67", "0.00", "-1.00", "140.67", "warning"},
		{"Total", "Aurora", "", "850.00", "0.00", "0.00", "0.00", "ok"},
	}
	got := escapeText(rows)

	tests := []struct {
		name     string
		row, col int
		want     any
	}{
		{"header text", 0, 3, "'Quota mensal"},
		{"unit that looks like a date", 1, 0, "'1/2"},
		{"resident that looks like a formula", 1, 1, "'=HYPERLINK(\"http://x\")"},
		{"permillage stays numeric", 1, 2, "166.67"},
		{"negative balance stays numeric", 1, 5, "-1.00"},
		{"status", 1, 7, "'warning"},
		{"empty cell", 2, 2, ""},
		{"building name", 2, 1, "'Aurora"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got[tt.row][tt.col] != tt.want {
				t.Errorf("escapeText()[%d][%d] = %v, want %v", tt.row, tt.col, got[tt.row][tt.col], tt.want)
			}
		})
	}
	if rows[1][1] != "=HYPERLINK(\"http://x\")" {
		t.Errorf("input rows modified: %v", rows[1][1])
	}
}
