package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gestmais/internal/core"
	"gestmais/internal/log"
	"gestmais/internal/storage"
)

// Repository is the part of the store the payment status engine uses.
type Repository interface {
	storage.Reader
	storage.PaymentWriter
}

// PaymentPublisher announces recorded regular payments to downstream consumers.
type PaymentPublisher interface {
	PublishPaymentRecorded(ctx context.Context, buildingID int64, p core.RegularPayment) error
}

// UpdatePaymentRequest marks one month of an apartment's regular quota.
// A nil Amount on a paid mark records the apartment's apportioned quota;
// on any other mark it records zero.
type UpdatePaymentRequest struct {
	ApartmentID int64
	Month       int
	Year        int
	Status      string
	Amount      *int64
}

// PaymentStatusService computes payment status summaries. Every call re-reads
// its source records; nothing is cached between calls.
type PaymentStatusService struct {
	repo      Repository
	publisher PaymentPublisher
	logger    *log.Logger
	events    *log.StructuredLogger
	policy    StatusPolicy
	now       func() time.Time
	loc       *time.Location

	residentChecker  DueChecker
	apartmentChecker DueChecker
}

// Option configures a PaymentStatusService.
type Option func(*PaymentStatusService)

// WithPublisher sets the publisher notified after each recorded payment.
func WithPublisher(p PaymentPublisher) Option {
	return func(s *PaymentStatusService) { s.publisher = p }
}

func WithLogger(l *log.Logger) Option {
	return func(s *PaymentStatusService) {
		if l != nil {
			s.logger = l.WithComponent(log.ComponentPayments)
		}
	}
}

func WithPolicy(p StatusPolicy) Option {
	return func(s *PaymentStatusService) { s.policy = p }
}

// WithClock replaces time.Now, for tests and historical reports.
func WithClock(now func() time.Time) Option {
	return func(s *PaymentStatusService) { s.now = now }
}

// WithLocation sets the time zone whose calendar date is used as the as-of date.
func WithLocation(loc *time.Location) Option {
	return func(s *PaymentStatusService) { s.loc = loc }
}

// WithDueRule forces one extraordinary due rule on every entry point.
// The empty rule keeps the per-view defaults.
func WithDueRule(rule DueRule) Option {
	return func(s *PaymentStatusService) {
		if rule == "" {
			return
		}
		if checker, err := GetDueChecker(rule); err == nil {
			s.residentChecker = checker
			s.apartmentChecker = checker
		}
	}
}

// NewPaymentStatusService builds the service. The resident view uses the
// month-only due rule and the apartment and building views the day-aware one,
// unless WithDueRule says otherwise.
func NewPaymentStatusService(repo Repository, opts ...Option) *PaymentStatusService {
	s := &PaymentStatusService{
		repo:             repo,
		logger:           log.FromContext(context.Background()).WithComponent(log.ComponentPayments),
		policy:           DefaultStatusPolicy(),
		now:              time.Now,
		residentChecker:  MonthOnlyChecker{},
		apartmentChecker: DayAwareChecker{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.events = log.NewStructuredLogger(s.logger)
	return s
}

// AsOf returns the calendar date summaries are currently evaluated against.
func (s *PaymentStatusService) AsOf() core.AsOf {
	return core.AsOfFrom(s.now(), s.loc)
}

// ResidentPaymentStatus summarises the apartment assigned to a resident user.
func (s *PaymentStatusService) ResidentPaymentStatus(ctx context.Context, userID string) (core.PaymentStatusSummary, error) {
	const op = "ResidentPaymentStatus"

	rec, err := s.repo.GetResidentApartment(ctx, userID)
	if err != nil {
		f := s.fail(ctx, op, userID, err, log.NewFields().WithUser(userID))
		if f.Kind == FailureNotFound {
			f.Message = MessageNoApartment
		}
		return core.PaymentStatusSummary{}, f
	}

	summary, err := s.apartmentSummary(ctx, op, rec, s.residentChecker)
	if err != nil {
		return core.PaymentStatusSummary{}, err
	}
	if rec.ResidentName != "" {
		summary.Label = rec.ResidentName + " · " + summary.Label
	}
	return summary, nil
}

// ApartmentPaymentStatus summarises one apartment.
func (s *PaymentStatusService) ApartmentPaymentStatus(ctx context.Context, apartmentID int64) (core.PaymentStatusSummary, error) {
	const op = "ApartmentPaymentStatus"

	rec, err := s.repo.GetApartment(ctx, apartmentID)
	if err != nil {
		return core.PaymentStatusSummary{}, s.fail(ctx, op, idString(apartmentID), err, log.NewFields().WithApartment(0, apartmentID))
	}
	return s.apartmentSummary(ctx, op, rec, s.apartmentChecker)
}

func (s *PaymentStatusService) apartmentSummary(ctx context.Context, op string, rec storage.ApartmentRecord, checker DueChecker) (core.PaymentStatusSummary, error) {
	asOf := s.AsOf()
	entity := idString(rec.ID)
	fields := func() log.LogFields { return log.NewFields().WithApartment(rec.BuildingID, rec.ID) }

	monthly := core.Apportion(core.ClampQuota(rec.Building.MonthlyQuota), rec.Building.QuotaMode, rec.Permillage)

	payments, err := s.repo.ListRegularPayments(ctx, rec.ID, asOf.Year)
	if err != nil {
		return core.PaymentStatusSummary{}, s.fail(ctx, op, entity, err, fields())
	}
	regular := EvaluateRegular(payments, monthly, RegularCutoff(asOf, rec.Building.PaymentDueDay))

	projects, err := s.repo.ListActiveProjects(ctx, rec.BuildingID)
	if err != nil {
		return core.PaymentStatusSummary{}, s.fail(ctx, op, entity, err, fields())
	}

	var extra core.ExtraordinarySummary
	if len(projects) > 0 {
		items, err := s.repo.ListInstallments(ctx, storage.InstallmentFilter{
			ApartmentID: rec.ID,
			ProjectIDs:  projectIDs(projects),
		})
		if err != nil {
			return core.PaymentStatusSummary{}, s.fail(ctx, op, entity, err, fields())
		}
		extra = EvaluateExtraordinary(ScheduleInstallments(projects, items), asOf, checker)
	}

	return s.individualSummary(unitLabel(rec.Unit), regular, extra, asOf), nil
}

func (s *PaymentStatusService) individualSummary(label string, regular core.RegularSummary, extra core.ExtraordinarySummary, asOf core.AsOf) core.PaymentStatusSummary {
	total := regular.Balance + extra.Balance
	status, msg := s.policy.Classify(total, regular.OverdueMonths+extra.OverdueInstallments)
	return core.PaymentStatusSummary{
		Label:         label,
		Status:        status,
		Message:       msg,
		Regular:       regular,
		Extraordinary: extra,
		TotalBalance:  total,
		AsOf:          asOf,
		GeneratedAt:   s.now(),
	}
}

// buildingSnapshot holds every record a building view needs, read once.
type buildingSnapshot struct {
	building   core.Building
	apartments []core.Apartment
	dues       map[int64]int64
	payments   []core.RegularPayment
	projects   []core.ExtraordinaryProject
	items      []ScheduledInstallment
	asOf       core.AsOf
}

func (s *PaymentStatusService) loadBuilding(ctx context.Context, op string, buildingID int64) (buildingSnapshot, error) {
	entity := idString(buildingID)
	fields := func() log.LogFields { return log.NewFields().WithBuilding(buildingID) }
	snap := buildingSnapshot{asOf: s.AsOf()}

	b, err := s.repo.GetBuilding(ctx, buildingID)
	if err != nil {
		return snap, s.fail(ctx, op, entity, err, fields())
	}
	snap.building = b

	snap.apartments, err = s.repo.ListApartments(ctx, buildingID)
	if err != nil {
		return snap, s.fail(ctx, op, entity, err, fields())
	}
	base := core.ClampQuota(b.MonthlyQuota)
	snap.dues = make(map[int64]int64, len(snap.apartments))
	for _, a := range snap.apartments {
		snap.dues[a.ID] = core.Apportion(base, b.QuotaMode, a.Permillage)
	}

	snap.payments, err = s.repo.ListBuildingRegularPayments(ctx, buildingID, snap.asOf.Year)
	if err != nil {
		return snap, s.fail(ctx, op, entity, err, fields())
	}

	snap.projects, err = s.repo.ListActiveProjects(ctx, buildingID)
	if err != nil {
		return snap, s.fail(ctx, op, entity, err, fields())
	}
	if len(snap.projects) > 0 {
		items, err := s.repo.ListInstallments(ctx, storage.InstallmentFilter{ProjectIDs: projectIDs(snap.projects)})
		if err != nil {
			return snap, s.fail(ctx, op, entity, err, fields())
		}
		snap.items = ScheduleInstallments(snap.projects, items)
	}
	return snap, nil
}

func (s *PaymentStatusService) buildingSummary(snap buildingSnapshot) core.PaymentStatusSummary {
	cutoff := RegularCutoff(snap.asOf, snap.building.PaymentDueDay)
	regular := EvaluateRegularBuilding(snap.payments, snap.dues, cutoff)

	extra := EvaluateExtraordinary(snap.items, snap.asOf, s.apartmentChecker)
	extra.ActiveProjects = len(snap.projects)

	total := regular.Balance + extra.Balance
	status, msg := ClassifyBuilding(total)
	return core.PaymentStatusSummary{
		Label:         snap.building.Name,
		Status:        status,
		Message:       msg,
		Regular:       regular,
		Extraordinary: extra,
		TotalBalance:  total,
		AsOf:          snap.asOf,
		GeneratedAt:   s.now(),
	}
}

// BuildingPaymentStatus summarises a whole building. Its status has no critical tier.
func (s *PaymentStatusService) BuildingPaymentStatus(ctx context.Context, buildingID int64) (core.PaymentStatusSummary, error) {
	snap, err := s.loadBuilding(ctx, "BuildingPaymentStatus", buildingID)
	if err != nil {
		return core.PaymentStatusSummary{}, err
	}
	return s.buildingSummary(snap), nil
}

// BuildingOverview returns the building summary plus each apartment's own
// status, evaluated with the apartment view's rules from a single read of the building.
func (s *PaymentStatusService) BuildingOverview(ctx context.Context, buildingID int64) (core.BuildingOverview, error) {
	snap, err := s.loadBuilding(ctx, "BuildingOverview", buildingID)
	if err != nil {
		return core.BuildingOverview{}, err
	}

	paymentsByApt := make(map[int64][]core.RegularPayment, len(snap.apartments))
	for _, p := range snap.payments {
		paymentsByApt[p.ApartmentID] = append(paymentsByApt[p.ApartmentID], p)
	}
	itemsByApt := make(map[int64][]ScheduledInstallment, len(snap.apartments))
	for _, it := range snap.items {
		itemsByApt[it.ApartmentID] = append(itemsByApt[it.ApartmentID], it)
	}

	cutoff := RegularCutoff(snap.asOf, snap.building.PaymentDueDay)
	lines := make([]core.ApartmentStatusLine, 0, len(snap.apartments))
	for _, a := range snap.apartments {
		regular := EvaluateRegular(paymentsByApt[a.ID], snap.dues[a.ID], cutoff)
		extra := EvaluateExtraordinary(itemsByApt[a.ID], snap.asOf, s.apartmentChecker)
		lines = append(lines, core.ApartmentStatusLine{
			ApartmentID:  a.ID,
			Unit:         a.Unit,
			ResidentName: a.ResidentName,
			Permillage:   a.Permillage,
			Summary:      s.individualSummary(unitLabel(a.Unit), regular, extra, snap.asOf),
		})
	}

	return core.BuildingOverview{
		BuildingID: snap.building.ID,
		Name:       snap.building.Name,
		Summary:    s.buildingSummary(snap),
		Apartments: lines,
	}, nil
}

// UpdatePaymentStatus records (insert or overwrite) one month of an apartment's
// regular quota, then publishes a payment-recorded event. A publish failure is
// logged and does not fail the update.
func (s *PaymentStatusService) UpdatePaymentStatus(ctx context.Context, req UpdatePaymentRequest) (core.RegularPayment, error) {
	const op = "UpdatePaymentStatus"
	entity := idString(req.ApartmentID)

	status, err := core.ParsePaymentStatus(req.Status)
	if err != nil {
		return core.RegularPayment{}, validationFailure(op, entity, err)
	}
	if req.Amount != nil && *req.Amount < 0 {
		return core.RegularPayment{}, validationFailure(op, entity, core.ErrInvalidAmount)
	}

	rec, err := s.repo.GetApartment(ctx, req.ApartmentID)
	if err != nil {
		return core.RegularPayment{}, s.fail(ctx, op, entity, err, log.NewFields().WithApartment(0, req.ApartmentID))
	}

	p := core.RegularPayment{
		ApartmentID: rec.ID,
		Month:       req.Month,
		Year:        req.Year,
		Status:      status,
	}
	switch {
	case req.Amount != nil:
		p.Amount = *req.Amount
	case status == core.PaymentPaid:
		p.Amount = core.Apportion(core.ClampQuota(rec.Building.MonthlyQuota), rec.Building.QuotaMode, rec.Permillage)
	}
	if err := p.Validate(); err != nil {
		return core.RegularPayment{}, validationFailure(op, entity, err)
	}

	if err := s.repo.UpsertRegularPayment(ctx, p); err != nil {
		return core.RegularPayment{}, s.fail(ctx, op, entity, err,
			log.NewFields().WithApartment(rec.BuildingID, rec.ID).WithPayment(p.Month, p.Year, string(p.Status), p.Amount))
	}
	s.events.LogPaymentRecorded(ctx, rec.BuildingID, rec.ID, p.Month, p.Year, string(p.Status), p.Amount)

	if s.publisher == nil {
		s.logger.DebugContext(ctx, "No publisher configured, skipping payment event")
		return p, nil
	}
	if err := s.publisher.PublishPaymentRecorded(ctx, rec.BuildingID, p); err != nil {
		s.events.LogError(ctx, "Failed to publish payment event", err, log.OpPublish,
			log.NewFields().WithApartment(rec.BuildingID, rec.ID))
	}
	return p, nil
}

// fail converts a storage error into a Failure, logging storage failures with their cause.
func (s *PaymentStatusService) fail(ctx context.Context, op, entity string, err error, fields log.LogFields) *Failure {
	if errors.Is(err, storage.ErrNotFound) {
		return notFoundFailure(op, entity, err)
	}
	if errors.Is(err, core.ErrInvalidMonth) || errors.Is(err, core.ErrInvalidStatus) || errors.Is(err, core.ErrInvalidAmount) {
		return validationFailure(op, entity, err)
	}
	s.events.LogError(ctx, "Payment status storage failure", err, op,
		fields.WithErrorType(log.ErrorTypeDatabase))
	return storageFailure(op, entity, err)
}

func projectIDs(projects []core.ExtraordinaryProject) []int64 {
	ids := make([]int64, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ID)
	}
	return ids
}

func unitLabel(unit string) string {
	return fmt.Sprintf("Fração %s", unit)
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}
