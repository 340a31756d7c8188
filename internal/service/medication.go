package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vcscsvcscs/healthmate/internal/backend"
	"github.com/vcscsvcscs/healthmate/internal/repository"
	"github.com/vcscsvcscs/healthmate/pkg/model"
)

// ErrNoDosesRemaining is returned when a dose is marked on a course with no doses left
var ErrNoDosesRemaining = errors.New("no doses remaining for this medication")

// ValidationError reports invalid caller input. It is raised before any remote call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// MedicationBackend is the remote side of medication CRUD
type MedicationBackend interface {
	ListMedications(ctx context.Context) ([]model.Medication, error)
	CreateMedication(ctx context.Context, req backend.CreateMedicationRequest) (*model.Medication, error)
	DeleteMedication(ctx context.Context, id string) error
}

// SessionInvalidator forces a logout after the backend rejects the credential
type SessionInvalidator interface {
	Invalidate(ctx context.Context, reason string)
}

// CourseCompletedEvent is emitted when a dose brings a course to zero remaining doses
type CourseCompletedEvent struct {
	MedicationID string    `json:"medicationId"`
	Name         string    `json:"name"`
	TotalDoses   int       `json:"totalDoses"`
	At           time.Time `json:"at"`
}

// CourseCompletedListener receives course completion events
type CourseCompletedListener func(CourseCompletedEvent)

// MedicationInput is a new medication as entered by the user
type MedicationInput struct {
	Name         string
	Dosage       string
	Frequency    model.Frequency
	PrescribedBy string
	StartDate    *model.Date
	EndDate      *model.Date
	Instructions *string
}

// MedicationList is the active/completed partition of the current medications
type MedicationList struct {
	Active    []model.MedicationView `json:"active"`
	Completed []model.MedicationView `json:"completed"`
}

// MedicationEngine tracks medication courses and the local dose ledger. The
// medication records are server-authoritative; the ledger is local only and
// persisted under its own key.
type MedicationEngine struct {
	mu          sync.Mutex
	medications []model.Medication
	ledger      model.DoseLedger
	listeners   []CourseCompletedListener

	remote  MedicationBackend
	session SessionInvalidator
	store   *repository.Store
	now     func() time.Time
	logger  *zap.Logger
}

// NewMedicationEngine creates an engine and loads the persisted dose ledger
func NewMedicationEngine(ctx context.Context, remote MedicationBackend, store *repository.Store, logger *zap.Logger) *MedicationEngine {
	e := &MedicationEngine{
		ledger: model.DoseLedger{},
		remote: remote,
		store:  store,
		now:    time.Now,
		logger: logger,
	}

	var loaded model.DoseLedger
	if store.Load(ctx, repository.KeyDoseLedger, &loaded) {
		for id, n := range loaded {
			if n > 0 {
				e.ledger[id] = n
			}
		}
	}

	return e
}

// SetSessionInvalidator wires the session that is invalidated on 401/403
func (e *MedicationEngine) SetSessionInvalidator(s SessionInvalidator) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session = s
}

// OnCourseCompleted registers a listener for course completion
func (e *MedicationEngine) OnCourseCompleted(l CourseCompletedListener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, l)
}

// Refresh replaces the local collection with the backend's
func (e *MedicationEngine) Refresh(ctx context.Context) error {
	meds, err := e.remote.ListMedications(ctx)
	if err != nil {
		e.handleRemoteError(ctx, err)
		e.logger.Error("failed to fetch medications", zap.Error(err))
		return fmt.Errorf("failed to fetch medications: %w", err)
	}

	e.mu.Lock()
	e.medications = append([]model.Medication(nil), meds...)
	e.mu.Unlock()

	e.logger.Info("medications refreshed", zap.Int("count", len(meds)))
	return nil
}

// Clear drops the loaded medications. The dose ledger is kept.
func (e *MedicationEngine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.medications = nil
}

// Validate checks a medication input and fills the start date default
func (in *MedicationInput) Validate(now time.Time) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Dosage = strings.TrimSpace(in.Dosage)
	in.PrescribedBy = strings.TrimSpace(in.PrescribedBy)

	if in.Name == "" {
		return newValidationError("name", "medication name is required")
	}
	if in.Dosage == "" {
		return newValidationError("dosage", "medication dosage is required")
	}
	if in.Frequency == "" {
		return newValidationError("frequency", "medication frequency is required")
	}
	if !ValidFrequency(in.Frequency) {
		return newValidationError("frequency", "unknown frequency %q", in.Frequency)
	}
	if in.PrescribedBy == "" {
		return newValidationError("prescribedBy", "prescriber is required")
	}
	if in.StartDate == nil || in.StartDate.IsZero() {
		today := model.DateOf(now)
		in.StartDate = &today
	}
	if in.EndDate == nil || in.EndDate.IsZero() {
		return newValidationError("endDate", "end date is required")
	}
	if in.EndDate.Before(*in.StartDate) {
		return newValidationError("endDate", "end date must not be before start date")
	}
	if in.Instructions != nil && strings.TrimSpace(*in.Instructions) == "" {
		in.Instructions = nil
	}
	return nil
}

// AddMedication validates the input, computes the prescribed dose count and
// creates the medication remotely. The local collection only changes on success.
func (e *MedicationEngine) AddMedication(ctx context.Context, in MedicationInput) (*model.Medication, error) {
	if err := in.Validate(e.now()); err != nil {
		return nil, err
	}

	req := backend.CreateMedicationRequest{
		Name:         in.Name,
		Dosage:       in.Dosage,
		Frequency:    in.Frequency,
		PrescribedBy: in.PrescribedBy,
		StartDate:    *in.StartDate,
		EndDate:      in.EndDate,
		TotalDoses:   ComputeTotalDoses(in.Frequency, in.StartDate, in.EndDate),
		Instructions: in.Instructions,
	}

	created, err := e.remote.CreateMedication(ctx, req)
	if err != nil {
		e.handleRemoteError(ctx, err)
		e.logger.Error("failed to add medication",
			zap.Error(err),
			zap.String("medication_name", in.Name),
		)
		return nil, fmt.Errorf("failed to add medication: %w", err)
	}

	e.mu.Lock()
	e.medications = append(e.medications, *created)
	e.mu.Unlock()

	e.logger.Info("medication added successfully",
		zap.String("medication_id", created.ID),
		zap.String("name", created.Name),
		zap.Int("total_doses", created.TotalDoses),
	)

	return created, nil
}

// DeleteMedication deletes the medication remotely, then drops it and its
// ledger entry locally
func (e *MedicationEngine) DeleteMedication(ctx context.Context, id string) error {
	if id == "" {
		return newValidationError("id", "medication ID is required")
	}

	if err := e.remote.DeleteMedication(ctx, id); err != nil {
		e.handleRemoteError(ctx, err)
		e.logger.Error("failed to delete medication",
			zap.Error(err),
			zap.String("medication_id", id),
		)
		return fmt.Errorf("failed to delete medication: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	kept := e.medications[:0]
	for _, m := range e.medications {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	e.medications = kept

	delete(e.ledger, id)
	e.saveLedgerLocked(ctx)

	e.logger.Info("medication deleted successfully", zap.String("medication_id", id))
	return nil
}

// MarkDoseTaken records one dose and returns the new count. A known
// medication with no remaining doses is rejected with ErrNoDosesRemaining.
func (e *MedicationEngine) MarkDoseTaken(ctx context.Context, id string) (int, error) {
	if id == "" {
		return 0, newValidationError("id", "medication ID is required")
	}

	e.mu.Lock()

	med, known := e.findLocked(id)
	before := e.ledger[id]
	if known && RemainingDoses(med, before) == 0 {
		e.mu.Unlock()
		return before, ErrNoDosesRemaining
	}

	taken := before + 1
	e.ledger[id] = taken
	e.saveLedgerLocked(ctx)

	var event *CourseCompletedEvent
	if known && RemainingDoses(med, taken) == 0 {
		event = &CourseCompletedEvent{
			MedicationID: med.ID,
			Name:         med.Name,
			TotalDoses:   med.TotalDoses,
			At:           e.now(),
		}
	}
	listeners := append([]CourseCompletedListener(nil), e.listeners...)
	e.mu.Unlock()

	e.logger.Debug("dose taken", zap.String("medication_id", id), zap.Int("doses_taken", taken))

	if event != nil {
		e.logger.Info("medication course completed",
			zap.String("medication_id", event.MedicationID),
			zap.Int("total_doses", event.TotalDoses),
		)
		for _, l := range listeners {
			l(*event)
		}
	}

	return taken, nil
}

// MarkDoseUntaken undoes one dose, floored at 0, and returns the new count
func (e *MedicationEngine) MarkDoseUntaken(ctx context.Context, id string) (int, error) {
	if id == "" {
		return 0, newValidationError("id", "medication ID is required")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	before, ok := e.ledger[id]
	if !ok {
		return 0, nil
	}

	taken := max(0, before-1)
	e.ledger[id] = taken
	e.saveLedgerLocked(ctx)

	e.logger.Debug("dose undone", zap.String("medication_id", id), zap.Int("doses_taken", taken))
	return taken, nil
}

// DosesTaken returns the ledger count for a medication
func (e *MedicationEngine) DosesTaken(id string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger[id]
}

// Ledger returns a copy of the dose ledger
func (e *MedicationEngine) Ledger() model.DoseLedger {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(model.DoseLedger, len(e.ledger))
	for id, n := range e.ledger {
		out[id] = n
	}
	return out
}

// Medications returns the medications with their derived state, in backend order
func (e *MedicationEngine) Medications() []model.MedicationView {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	views := make([]model.MedicationView, 0, len(e.medications))
	for _, m := range e.medications {
		views = append(views, viewOf(m, e.ledger[m.ID], now))
	}
	return views
}

// Views partitions the medications into active and completed courses
func (e *MedicationEngine) Views() MedicationList {
	list := MedicationList{
		Active:    []model.MedicationView{},
		Completed: []model.MedicationView{},
	}
	for _, v := range e.Medications() {
		if v.RemainingDoses > 0 {
			list.Active = append(list.Active, v)
		} else {
			list.Completed = append(list.Completed, v)
		}
	}
	return list
}

func viewOf(m model.Medication, taken int, now time.Time) model.MedicationView {
	return model.MedicationView{
		Medication:     m,
		DosesTaken:     taken,
		RemainingDoses: RemainingDoses(m, taken),
		Completed:      IsCompleted(m, taken, now),
		Status:         StatusText(m, taken, now),
	}
}

func (e *MedicationEngine) findLocked(id string) (model.Medication, bool) {
	for _, m := range e.medications {
		if m.ID == id {
			return m, true
		}
	}
	return model.Medication{}, false
}

// saveLedgerLocked persists the ledger. Storage errors are logged only.
func (e *MedicationEngine) saveLedgerLocked(ctx context.Context) {
	if err := e.store.Save(ctx, repository.KeyDoseLedger, e.ledger); err != nil {
		e.logger.Warn("failed to persist dose ledger", zap.Error(err))
	}
}

func (e *MedicationEngine) handleRemoteError(ctx context.Context, err error) {
	if !errors.Is(err, backend.ErrUnauthorized) {
		return
	}
	e.mu.Lock()
	session := e.session
	e.mu.Unlock()
	if session != nil {
		session.Invalidate(ctx, "medication request rejected")
	}
}
