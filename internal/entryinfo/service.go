package entryinfo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iudanet/entrypack/internal/models"
	"github.com/iudanet/entrypack/internal/storage"
)

// ErrConsistency indicates a violated invariant this service owns, for
// example a superseded entry info without its warning record. It is logged
// and self-healed, not surfaced to callers of get operations.
var ErrConsistency = errors.New("consistency violation")

// ErrInvalidTransition запрошенный переход запрещен машиной состояний
var ErrInvalidTransition = errors.New("invalid status transition")

// Aggregate is the entry info together with the upstream records it
// references. The completeness collaborator receives it read-only.
type Aggregate struct {
	EntryInfo    *models.EntryInfo
	Passport     *models.Passport
	PersonalInfo *models.PersonalInfo
	TravelInfo   *models.TravelInfo
	FundItems    []*models.FundItem
}

// CompletenessFunc reports per-category completed/total counts and missing
// field names for one entry info. The field catalog is country-specific and
// supplied by the caller; this core never computes it.
type CompletenessFunc func(ctx context.Context, agg Aggregate) (models.CompletionMetrics, error)

// ReminderScheduler reschedules the arrival reminder when the arrival date
// backing a submitted document changes. External collaborator; failures are
// best effort and never revert a transition.
type ReminderScheduler interface {
	RescheduleArrivalReminder(ctx context.Context, userID, destination, arrivalDate string) error
}

// Repositories are the stores the state machine reads upstream data from.
type Repositories struct {
	EntryInfo    storage.EntryInfoRepository
	Passports    storage.PassportRepository
	PersonalInfo storage.PersonalInfoRepository
	TravelInfo   storage.TravelInfoRepository
	FundItems    storage.FundItemRepository
}

// Service управляет жизненным циклом EntryInfo:
// incomplete -> ready -> submitted -> superseded -> ready.
// Статус сначала сохраняется в хранилище и только потом считается
// измененным; при неудачной записи запись перечитывается из базы.
type Service struct {
	repos        Repositories
	warnings     storage.WarningStore
	completeness CompletenessFunc
	reminders    ReminderScheduler
	logger       *slog.Logger
}

// NewService creates the state machine service. completeness is required;
// reminders may be nil when the app runs without notifications.
func NewService(
	repos Repositories,
	warnings storage.WarningStore,
	completeness CompletenessFunc,
	reminders ReminderScheduler,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repos:        repos,
		warnings:     warnings,
		completeness: completeness,
		reminders:    reminders,
		logger:       logger,
	}
}

// Submit attaches a submitted arrival-card document and moves the entry info
// to submitted. doc.Fields is the submission snapshot: the field names whose
// values went into the document. Allowed from ready, or from submitted when
// attaching an additional card type.
func (s *Service) Submit(ctx context.Context, entryInfoID string, doc models.SubmittedDocument) (*models.EntryInfo, error) {
	ei, err := s.repos.EntryInfo.GetEntryInfoByID(ctx, entryInfoID)
	if err != nil {
		return nil, fmt.Errorf("failed to load entry info: %w", err)
	}

	if ei.Status != models.EntryStatusSubmitted && !ei.Status.CanTransitionTo(models.EntryStatusSubmitted) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, ei.Status, models.EntryStatusSubmitted)
	}
	if doc.QRRef == "" && doc.PDFRef == "" {
		return nil, fmt.Errorf("submitted document must carry a QR or PDF reference")
	}

	if doc.SubmittedAt.IsZero() {
		doc.SubmittedAt = time.Now()
	}
	ei.Documents = append(ei.Documents, doc)
	ei.Status = models.EntryStatusSubmitted

	stored, err := s.repos.EntryInfo.SaveEntryInfo(ctx, ei)
	if err != nil {
		// Не доверяем памяти после неудачной записи
		return nil, fmt.Errorf("failed to persist submission: %w", err)
	}
	return stored, nil
}

// ReviewDataChange walks every entry info the user owns and reacts to the
// change: incomplete records are re-checked for completeness, submitted
// records whose snapshot overlaps the changed fields are superseded, and
// superseded records move forward to ready once the data is complete again.
func (s *Service) ReviewDataChange(ctx context.Context, event models.DataChangeEvent) error {
	entryInfos, err := s.repos.EntryInfo.GetEntryInfosByUserID(ctx, event.UserID)
	if err != nil {
		return fmt.Errorf("failed to load entry infos: %w", err)
	}

	var firstErr error
	for _, ei := range entryInfos {
		if err := s.reviewOne(ctx, ei, event); err != nil {
			s.logger.Error("entry info review failed",
				"entry_info_id", ei.ID,
				"status", ei.Status,
				"error", err,
			)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (s *Service) reviewOne(ctx context.Context, ei *models.EntryInfo, event models.DataChangeEvent) error {
	// Событие с направлением касается только записей этого направления
	if event.Change.Destination != "" && event.Change.Destination != ei.Destination {
		return nil
	}

	switch ei.Status {
	case models.EntryStatusIncomplete:
		return s.promoteIfComplete(ctx, ei)

	case models.EntryStatusSubmitted:
		return s.supersedeIfStale(ctx, ei, event)

	case models.EntryStatusSuperseded:
		// Движение только вперед: после правки данных запись снова ready,
		// но не submitted. Предупреждение живет до подтверждения.
		if !event.Touches(ei.SnapshotFields()) {
			return nil
		}
		return s.promoteIfComplete(ctx, ei)
	}
	return nil
}

// promoteIfComplete re-runs the completeness check and moves the record
// forward to ready when everything required is filled in.
func (s *Service) promoteIfComplete(ctx context.Context, ei *models.EntryInfo) error {
	metrics, err := s.checkCompleteness(ctx, ei)
	if err != nil {
		return err
	}

	ei.Metrics = metrics
	if !metrics.Complete() {
		// Сохраняем только обновленные метрики, статус не меняется
		if _, err := s.repos.EntryInfo.SaveEntryInfo(ctx, ei); err != nil {
			return fmt.Errorf("failed to persist metrics: %w", err)
		}
		return nil
	}

	return s.transition(ctx, ei, models.EntryStatusReady)
}

// supersedeIfStale diffs the changed fields against the union of snapshot
// fields captured at submission. Unrelated edits never force resubmission.
func (s *Service) supersedeIfStale(ctx context.Context, ei *models.EntryInfo, event models.DataChangeEvent) error {
	snapshot := ei.SnapshotFields()
	if !event.Touches(snapshot) {
		return nil
	}

	if err := s.transition(ctx, ei, models.EntryStatusSuperseded); err != nil {
		return err
	}

	warning := &models.ResubmissionWarning{
		EntryInfoID: ei.ID,
		UserID:      ei.UserID,
		Reason:      fmt.Sprintf("submitted data changed: %v", event.Change.UpdatedFields),
		CreatedAt:   time.Now(),
	}
	if err := s.warnings.SaveWarning(ctx, warning); err != nil {
		// Superseded без предупреждения - нарушение инварианта
		return fmt.Errorf("%w: superseded entry %s without warning: %w", ErrConsistency, ei.ID, err)
	}

	// Побочный эффект перехода: изменение даты прилета переносит напоминание.
	// Best effort - неудача логируется и не откатывает переход.
	if s.reminders != nil && event.Touches([]string{models.FieldArrivalDate}) {
		arrival := s.currentArrivalDate(ctx, ei)
		if err := s.reminders.RescheduleArrivalReminder(ctx, ei.UserID, ei.Destination, arrival); err != nil {
			s.logger.Warn("failed to reschedule arrival reminder",
				"entry_info_id", ei.ID,
				"destination", ei.Destination,
				"error", err,
			)
		}
	}

	return nil
}

// transition persists the status first and only then updates the in-memory
// record. On a failed write the record is re-read so memory and storage
// never disagree.
func (s *Service) transition(ctx context.Context, ei *models.EntryInfo, target models.EntryStatus) error {
	if !ei.Status.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, ei.Status, target)
	}

	if err := s.repos.EntryInfo.UpdateEntryInfoStatus(ctx, ei.ID, target); err != nil {
		if fresh, rerr := s.repos.EntryInfo.GetEntryInfoByID(ctx, ei.ID); rerr == nil {
			*ei = *fresh
		}
		return fmt.Errorf("failed to persist status %s: %w", target, err)
	}

	ei.Status = target
	return nil
}

// checkCompleteness loads the referenced upstream records and runs the
// injected completeness function over the aggregate.
func (s *Service) checkCompleteness(ctx context.Context, ei *models.EntryInfo) (models.CompletionMetrics, error) {
	agg := Aggregate{EntryInfo: ei}

	if ei.PassportID != "" {
		p, err := s.repos.Passports.GetPassportByID(ctx, ei.PassportID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return models.CompletionMetrics{}, fmt.Errorf("failed to load passport: %w", err)
		}
		agg.Passport = p
	} else if passports, err := s.repos.Passports.GetPassportsByUserID(ctx, ei.UserID); err == nil && len(passports) > 0 {
		// Без явной ссылки берем основной паспорт (он первый в выдаче)
		agg.Passport = passports[0]
	}

	pi, err := s.repos.PersonalInfo.GetPersonalInfoByUserID(ctx, ei.UserID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return models.CompletionMetrics{}, fmt.Errorf("failed to load personal info: %w", err)
	}
	agg.PersonalInfo = pi

	ti, err := s.repos.TravelInfo.GetTravelInfoByDestination(ctx, ei.UserID, ei.Destination)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return models.CompletionMetrics{}, fmt.Errorf("failed to load travel info: %w", err)
	}
	agg.TravelInfo = ti

	funds, err := s.repos.FundItems.GetFundItemsByUserID(ctx, ei.UserID)
	if err != nil {
		return models.CompletionMetrics{}, fmt.Errorf("failed to load fund items: %w", err)
	}
	agg.FundItems = funds

	metrics, err := s.completeness(ctx, agg)
	if err != nil {
		return models.CompletionMetrics{}, fmt.Errorf("completeness check failed: %w", err)
	}
	return metrics, nil
}

// currentArrivalDate reads the arrival date as persisted now, for the
// reminder side effect.
func (s *Service) currentArrivalDate(ctx context.Context, ei *models.EntryInfo) string {
	ti, err := s.repos.TravelInfo.GetTravelInfoByDestination(ctx, ei.UserID, ei.Destination)
	if err != nil {
		return ""
	}
	return ti.ArrivalDate
}

// Warnings returns the user's pending resubmission warnings, newest first,
// capped at limit (limit <= 0 means no cap).
func (s *Service) Warnings(ctx context.Context, userID string, limit int) ([]*models.ResubmissionWarning, error) {
	return s.warnings.GetWarningsByUser(ctx, userID, limit)
}

// WarningFor returns the pending warning for one entry info, or nil when none
// is pending. A superseded entry info without a warning is a consistency
// violation: it is logged and the warning is re-derived from the persisted
// status instead of failing the caller.
func (s *Service) WarningFor(ctx context.Context, entryInfoID string) (*models.ResubmissionWarning, error) {
	w, err := s.warnings.GetWarningByEntryInfo(ctx, entryInfoID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	ei, err := s.repos.EntryInfo.GetEntryInfoByID(ctx, entryInfoID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if ei.Status != models.EntryStatusSuperseded {
		return nil, nil
	}

	// Self-heal: восстанавливаем предупреждение из сохраненного статуса
	s.logger.Error("consistency violation: superseded entry info without warning",
		"entry_info_id", entryInfoID,
	)
	healed := &models.ResubmissionWarning{
		EntryInfoID: ei.ID,
		UserID:      ei.UserID,
		Reason:      "submitted data changed",
		CreatedAt:   time.Now(),
	}
	if serr := s.warnings.SaveWarning(ctx, healed); serr != nil {
		return nil, fmt.Errorf("%w: failed to re-derive warning: %w", ErrConsistency, serr)
	}
	return healed, nil
}

// AcknowledgeWarning clears the warning once the user has seen it.
func (s *Service) AcknowledgeWarning(ctx context.Context, entryInfoID string) error {
	return s.warnings.ClearWarning(ctx, entryInfoID)
}
