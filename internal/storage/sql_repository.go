package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"gestmais/internal/core"
)

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know.
	sqlx.BindDriver(DialectSQLite, sqlx.QUESTION)
}

// PoolConfig tunes the connection pool.
type PoolConfig struct {
	MaxOpenConns int
	MaxIdleConns int
	MaxIdleTime  time.Duration
}

// SQLRepository implements Store over SQLite or PostgreSQL.
type SQLRepository struct {
	db      *sqlx.DB
	dialect string
}

// NewSQLiteRepository opens (creating if needed) the SQLite file at dbPath and migrates it.
func NewSQLiteRepository(dbPath string) (*SQLRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	dsn := SQLiteDSN(dbPath)

	if err := RunMigrations(DialectSQLite, dsn); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sqlx.Open(DialectSQLite, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLRepository{db: db, dialect: DialectSQLite}, nil
}

// SQLiteDSN enables foreign keys and a busy timeout on every pooled connection.
func SQLiteDSN(dbPath string) string {
	return dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// NewPostgresRepository connects to PostgreSQL, migrates, and applies the pool settings.
func NewPostgresRepository(ctx context.Context, dsn string, pool PoolConfig) (*SQLRepository, error) {
	if err := RunMigrations(DialectPostgres, dsn); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sqlx.Open(DialectPostgres, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.MaxIdleTime > 0 {
		db.SetConnMaxIdleTime(pool.MaxIdleTime)
	}

	return &SQLRepository{db: db, dialect: DialectPostgres}, nil
}

func (r *SQLRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Dialect reports which database the repository talks to.
func (r *SQLRepository) Dialect() string {
	return r.dialect
}

type buildingRow struct {
	ID                int64  `db:"id"`
	Name              string `db:"name"`
	MonthlyQuotaCents int64  `db:"monthly_quota_cents"`
	QuotaMode         string `db:"quota_mode"`
	PaymentDueDay     int    `db:"payment_due_day"`
}

func (b buildingRow) toCore() core.Building {
	mode, err := core.ParseQuotaMode(b.QuotaMode)
	if err != nil {
		mode = core.QuotaFlat
	}
	return core.Building{
		ID:            b.ID,
		Name:          b.Name,
		MonthlyQuota:  b.MonthlyQuotaCents,
		QuotaMode:     mode,
		PaymentDueDay: b.PaymentDueDay,
	}
}

type apartmentRow struct {
	ID           int64          `db:"id"`
	BuildingID   int64          `db:"building_id"`
	Unit         string         `db:"unit"`
	Permillage   float64        `db:"permillage"`
	ResidentID   sql.NullString `db:"resident_id"`
	ResidentName string         `db:"resident_name"`
}

func (a apartmentRow) toCore() core.Apartment {
	return core.Apartment{
		ID:           a.ID,
		BuildingID:   a.BuildingID,
		Unit:         a.Unit,
		Permillage:   a.Permillage,
		ResidentID:   a.ResidentID.String,
		ResidentName: a.ResidentName,
	}
}

type apartmentRecordRow struct {
	apartmentRow
	BuildingName      string `db:"building_name"`
	MonthlyQuotaCents int64  `db:"monthly_quota_cents"`
	QuotaMode         string `db:"quota_mode"`
	PaymentDueDay     int    `db:"payment_due_day"`
}

func (a apartmentRecordRow) toCore() ApartmentRecord {
	return ApartmentRecord{
		Apartment: a.apartmentRow.toCore(),
		Building: buildingRow{
			ID:                a.BuildingID,
			Name:              a.BuildingName,
			MonthlyQuotaCents: a.MonthlyQuotaCents,
			QuotaMode:         a.QuotaMode,
			PaymentDueDay:     a.PaymentDueDay,
		}.toCore(),
	}
}

type regularPaymentRow struct {
	ApartmentID int64  `db:"apartment_id"`
	Month       int    `db:"month"`
	Year        int    `db:"year"`
	Status      string `db:"status"`
	AmountCents int64  `db:"amount_cents"`
}

func (p regularPaymentRow) toCore() core.RegularPayment {
	status, err := core.ParsePaymentStatus(p.Status)
	if err != nil {
		status = core.PaymentPending
	}
	return core.RegularPayment{
		ApartmentID: p.ApartmentID,
		Month:       p.Month,
		Year:        p.Year,
		Status:      status,
		Amount:      p.AmountCents,
	}
}

type projectRow struct {
	ID            int64  `db:"id"`
	BuildingID    int64  `db:"building_id"`
	Name          string `db:"name"`
	Status        string `db:"status"`
	StartMonth    int    `db:"start_month"`
	StartYear     int    `db:"start_year"`
	Installments  int    `db:"installments"`
	PaymentDueDay int    `db:"payment_due_day"`
}

func (p projectRow) toCore() core.ExtraordinaryProject {
	return core.ExtraordinaryProject{
		ID:            p.ID,
		BuildingID:    p.BuildingID,
		Name:          p.Name,
		Status:        core.ParseProjectStatus(p.Status),
		StartMonth:    p.StartMonth,
		StartYear:     p.StartYear,
		Installments:  p.Installments,
		PaymentDueDay: p.PaymentDueDay,
	}
}

type installmentRow struct {
	ProjectID         int64  `db:"project_id"`
	ApartmentID       int64  `db:"apartment_id"`
	InstallmentNumber int    `db:"installment_number"`
	ExpectedCents     int64  `db:"expected_cents"`
	PaidCents         int64  `db:"paid_cents"`
	Status            string `db:"status"`
}

func (i installmentRow) toCore() core.ExtraordinaryInstallment {
	status, err := core.ParsePaymentStatus(i.Status)
	if err != nil {
		status = core.PaymentPending
	}
	return core.ExtraordinaryInstallment{
		ProjectID:   i.ProjectID,
		ApartmentID: i.ApartmentID,
		Number:      i.InstallmentNumber,
		Expected:    i.ExpectedCents,
		Paid:        i.PaidCents,
		Status:      status,
	}
}

func (r *SQLRepository) GetBuilding(ctx context.Context, buildingID int64) (core.Building, error) {
	var row buildingRow
	query := r.db.Rebind(`SELECT id, name, monthly_quota_cents, quota_mode, payment_due_day
		FROM buildings WHERE id = ?`)
	if err := r.db.GetContext(ctx, &row, query, buildingID); err != nil {
		return core.Building{}, notFound(err, "building %d", buildingID)
	}
	return row.toCore(), nil
}

func (r *SQLRepository) ListApartments(ctx context.Context, buildingID int64) ([]core.Apartment, error) {
	var rows []apartmentRow
	query := r.db.Rebind(`SELECT id, building_id, unit, permillage, resident_id, resident_name
		FROM apartments WHERE building_id = ? ORDER BY unit, id`)
	if err := r.db.SelectContext(ctx, &rows, query, buildingID); err != nil {
		return nil, fmt.Errorf("list apartments for building %d: %w", buildingID, err)
	}
	out := make([]core.Apartment, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toCore())
	}
	return out, nil
}

const apartmentRecordSelect = `SELECT a.id, a.building_id, a.unit, a.permillage, a.resident_id, a.resident_name,
		b.name AS building_name, b.monthly_quota_cents, b.quota_mode, b.payment_due_day
	FROM apartments a
	JOIN buildings b ON b.id = a.building_id`

func (r *SQLRepository) GetApartment(ctx context.Context, apartmentID int64) (ApartmentRecord, error) {
	var row apartmentRecordRow
	query := r.db.Rebind(apartmentRecordSelect + ` WHERE a.id = ?`)
	if err := r.db.GetContext(ctx, &row, query, apartmentID); err != nil {
		return ApartmentRecord{}, notFound(err, "apartment %d", apartmentID)
	}
	return row.toCore(), nil
}

func (r *SQLRepository) GetResidentApartment(ctx context.Context, userID string) (ApartmentRecord, error) {
	if userID == "" {
		return ApartmentRecord{}, fmt.Errorf("resident %q: %w", userID, ErrNotFound)
	}
	var row apartmentRecordRow
	query := r.db.Rebind(apartmentRecordSelect + ` WHERE a.resident_id = ?`)
	if err := r.db.GetContext(ctx, &row, query, userID); err != nil {
		return ApartmentRecord{}, notFound(err, "resident %q", userID)
	}
	return row.toCore(), nil
}

func (r *SQLRepository) ListRegularPayments(ctx context.Context, apartmentID int64, year int) ([]core.RegularPayment, error) {
	var rows []regularPaymentRow
	query := r.db.Rebind(`SELECT apartment_id, month, year, status, amount_cents
		FROM regular_payments WHERE apartment_id = ? AND year = ? ORDER BY month, id`)
	if err := r.db.SelectContext(ctx, &rows, query, apartmentID, year); err != nil {
		return nil, fmt.Errorf("list regular payments for apartment %d: %w", apartmentID, err)
	}
	return regularPayments(rows), nil
}

func (r *SQLRepository) ListBuildingRegularPayments(ctx context.Context, buildingID int64, year int) ([]core.RegularPayment, error) {
	var rows []regularPaymentRow
	query := r.db.Rebind(`SELECT p.apartment_id, p.month, p.year, p.status, p.amount_cents
		FROM regular_payments p
		JOIN apartments a ON a.id = p.apartment_id
		WHERE a.building_id = ? AND p.year = ?
		ORDER BY p.month, p.id`)
	if err := r.db.SelectContext(ctx, &rows, query, buildingID, year); err != nil {
		return nil, fmt.Errorf("list regular payments for building %d: %w", buildingID, err)
	}
	return regularPayments(rows), nil
}

func regularPayments(rows []regularPaymentRow) []core.RegularPayment {
	out := make([]core.RegularPayment, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toCore())
	}
	return out
}

func (r *SQLRepository) ListActiveProjects(ctx context.Context, buildingID int64) ([]core.ExtraordinaryProject, error) {
	var rows []projectRow
	query := r.db.Rebind(`SELECT id, building_id, name, status, start_month, start_year, installments, payment_due_day
		FROM extraordinary_projects WHERE building_id = ? AND status = ? ORDER BY id`)
	if err := r.db.SelectContext(ctx, &rows, query, buildingID, string(core.ProjectActive)); err != nil {
		return nil, fmt.Errorf("list active projects for building %d: %w", buildingID, err)
	}
	out := make([]core.ExtraordinaryProject, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toCore())
	}
	return out, nil
}

func (r *SQLRepository) ListInstallments(ctx context.Context, filter InstallmentFilter) ([]core.ExtraordinaryInstallment, error) {
	if filter.ProjectIDs != nil && len(filter.ProjectIDs) == 0 {
		return nil, nil
	}

	query := `SELECT project_id, apartment_id, installment_number, expected_cents, paid_cents, status
		FROM extraordinary_payments WHERE 1 = 1`
	var args []any
	if filter.ApartmentID != 0 {
		query += ` AND apartment_id = ?`
		args = append(args, filter.ApartmentID)
	}
	if filter.ProjectIDs != nil {
		query += ` AND project_id IN (?)`
		args = append(args, filter.ProjectIDs)
	}
	query += ` ORDER BY project_id, apartment_id, installment_number`

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("expand installment filter: %w", err)
	}

	var rows []installmentRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list installments: %w", err)
	}
	out := make([]core.ExtraordinaryInstallment, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toCore())
	}
	return out, nil
}

func (r *SQLRepository) UpsertRegularPayment(ctx context.Context, p core.RegularPayment) error {
	if err := p.Validate(); err != nil {
		return err
	}
	query := `INSERT INTO regular_payments (apartment_id, month, year, status, amount_cents)
		VALUES (:apartment_id, :month, :year, :status, :amount_cents)
		ON CONFLICT (apartment_id, month, year) DO UPDATE SET
		status = EXCLUDED.status,
		amount_cents = EXCLUDED.amount_cents,
		updated_at = CURRENT_TIMESTAMP`
	_, err := r.db.NamedExecContext(ctx, query, regularPaymentRow{
		ApartmentID: p.ApartmentID,
		Month:       p.Month,
		Year:        p.Year,
		Status:      string(p.Status),
		AmountCents: p.Amount,
	})
	if err != nil {
		return fmt.Errorf("upsert regular payment %d/%d for apartment %d: %w", p.Month, p.Year, p.ApartmentID, err)
	}
	return nil
}

func (r *SQLRepository) CreateBuilding(ctx context.Context, b core.Building) (int64, error) {
	if err := b.Validate(); err != nil {
		return 0, err
	}
	query := `INSERT INTO buildings (name, monthly_quota_cents, quota_mode, payment_due_day)
		VALUES (:name, :monthly_quota_cents, :quota_mode, :payment_due_day)
		RETURNING id`
	return r.insertReturningID(ctx, query, buildingRow{
		Name:              b.Name,
		MonthlyQuotaCents: b.MonthlyQuota,
		QuotaMode:         string(b.QuotaMode),
		PaymentDueDay:     b.PaymentDueDay,
	})
}

func (r *SQLRepository) CreateApartment(ctx context.Context, a core.Apartment) (int64, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}
	query := `INSERT INTO apartments (building_id, unit, permillage, resident_id, resident_name)
		VALUES (:building_id, :unit, :permillage, :resident_id, :resident_name)
		RETURNING id`
	return r.insertReturningID(ctx, query, apartmentRow{
		BuildingID:   a.BuildingID,
		Unit:         a.Unit,
		Permillage:   a.Permillage,
		ResidentID:   sql.NullString{String: a.ResidentID, Valid: a.ResidentID != ""},
		ResidentName: a.ResidentName,
	})
}

func (r *SQLRepository) CreateProject(ctx context.Context, p core.ExtraordinaryProject) (int64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	query := `INSERT INTO extraordinary_projects (building_id, name, status, start_month, start_year, installments, payment_due_day)
		VALUES (:building_id, :name, :status, :start_month, :start_year, :installments, :payment_due_day)
		RETURNING id`
	return r.insertReturningID(ctx, query, projectRow{
		BuildingID:    p.BuildingID,
		Name:          p.Name,
		Status:        string(p.Status),
		StartMonth:    p.StartMonth,
		StartYear:     p.StartYear,
		Installments:  p.Installments,
		PaymentDueDay: p.PaymentDueDay,
	})
}

func (r *SQLRepository) UpsertInstallment(ctx context.Context, i core.ExtraordinaryInstallment) error {
	if err := i.Validate(); err != nil {
		return err
	}
	query := `INSERT INTO extraordinary_payments (project_id, apartment_id, installment_number, expected_cents, paid_cents, status)
		VALUES (:project_id, :apartment_id, :installment_number, :expected_cents, :paid_cents, :status)
		ON CONFLICT (project_id, apartment_id, installment_number) DO UPDATE SET
		expected_cents = EXCLUDED.expected_cents,
		paid_cents = EXCLUDED.paid_cents,
		status = EXCLUDED.status,
		updated_at = CURRENT_TIMESTAMP`
	_, err := r.db.NamedExecContext(ctx, query, installmentRow{
		ProjectID:         i.ProjectID,
		ApartmentID:       i.ApartmentID,
		InstallmentNumber: i.Number,
		ExpectedCents:     i.Expected,
		PaidCents:         i.Paid,
		Status:            string(i.Status),
	})
	if err != nil {
		return fmt.Errorf("upsert installment %d of project %d: %w", i.Number, i.ProjectID, err)
	}
	return nil
}

func (r *SQLRepository) insertReturningID(ctx context.Context, query string, arg any) (int64, error) {
	rows, err := r.db.NamedQueryContext(ctx, query, arg)
	if err != nil {
		return 0, fmt.Errorf("insert: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, fmt.Errorf("insert: %w", err)
		}
		return 0, errors.New("insert returned no id")
	}
	var id int64
	if err := rows.Scan(&id); err != nil {
		return 0, fmt.Errorf("scan inserted id: %w", err)
	}
	return id, nil
}

func notFound(err error, format string, args ...any) error {
	what := fmt.Sprintf(format, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("get %s: %w", what, err)
}
