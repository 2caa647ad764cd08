package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"gestmais/internal/amqp"
	"gestmais/internal/core"
	"gestmais/internal/log"
	"gestmais/internal/services"
	"gestmais/internal/sheets"
)

// OverviewSource computes a building's current statement.
type OverviewSource interface {
	BuildingOverview(ctx context.Context, buildingID int64) (core.BuildingOverview, error)
}

// StatementWorker re-exports a building's statement whenever one of its
// payments changes. Exports of one building run one at a time. Callers that
// arrive while a run is in flight share the next run, which reads the
// building after they arrived.
type StatementWorker struct {
	overviews OverviewSource
	sheets    sheets.StatementWriter
	logger    *log.Logger
	group     singleflight.Group

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewStatementWorker(overviews OverviewSource, writer sheets.StatementWriter, logger *log.Logger) *StatementWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &StatementWorker{
		overviews: overviews,
		sheets:    writer,
		logger:    logger.WithComponent(log.ComponentWorker),
		locks:     make(map[int64]*sync.Mutex),
	}
}

// HandlePaymentRecorded processes a single payment recorded message from AMQP.
// Buildings that no longer exist are acknowledged and skipped; any other
// failure is returned so the message is requeued.
func (w *StatementWorker) HandlePaymentRecorded(ctx context.Context, msg *amqp.PaymentRecordedMessage) error {
	w.logger.InfoContext(ctx, "Processing payment recorded message",
		log.FieldMessageID, msg.MessageID,
		log.FieldBuildingID, msg.BuildingID,
		log.FieldApartmentID, msg.ApartmentID)

	_, err := w.ExportBuilding(ctx, msg.BuildingID)
	if errors.Is(err, services.ErrNotFound) {
		w.logger.WarnContext(ctx, "Skipping statement for unknown building",
			log.FieldMessageID, msg.MessageID,
			log.FieldBuildingID, msg.BuildingID)
		return nil
	}
	return err
}

// ExportBuilding computes the building overview and writes it to the
// statement tab of the as-of year.
func (w *StatementWorker) ExportBuilding(ctx context.Context, buildingID int64) (string, error) {
	key := strconv.FormatInt(buildingID, 10)
	v, err, shared := w.group.Do(key, func() (any, error) {
		lock := w.buildingLock(buildingID)
		lock.Lock()
		defer lock.Unlock()
		// Later callers must not join a run whose read may predate their payment.
		w.group.Forget(key)
		return w.export(ctx, buildingID)
	})
	if err != nil {
		return "", err
	}
	if shared {
		w.logger.DebugContext(ctx, "Statement export shared with a concurrent run", log.FieldBuildingID, buildingID)
	}
	return v.(string), nil
}

func (w *StatementWorker) buildingLock(buildingID int64) *sync.Mutex {
	w.mu.Lock()
	defer w.mu.Unlock()
	l, ok := w.locks[buildingID]
	if !ok {
		l = &sync.Mutex{}
		w.locks[buildingID] = l
	}
	return l
}

func (w *StatementWorker) export(ctx context.Context, buildingID int64) (string, error) {
	ov, err := w.overviews.BuildingOverview(ctx, buildingID)
	if err != nil {
		return "", fmt.Errorf("building overview: %w", err)
	}

	year := ov.Summary.AsOf.Year
	ref, err := w.sheets.WriteStatement(ctx, year, ov)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to write statement",
			log.FieldBuildingID, buildingID,
			log.FieldOperation, log.OpExport,
			log.FieldError, err)
		return "", fmt.Errorf("write statement: %w", err)
	}

	w.logger.InfoContext(ctx, "Successfully exported statement",
		log.FieldBuildingID, buildingID,
		log.FieldSheetsRef, ref,
		log.FieldBalance, ov.Summary.TotalBalance,
		log.FieldStatus, string(ov.Summary.Status))
	return ref, nil
}
