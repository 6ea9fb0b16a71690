package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/triagedesk/triagedesk/internal/domain/patient"
	"github.com/triagedesk/triagedesk/internal/domain/provider"
)

// Topics and event types published to the realtime channel.
const (
	TopicQueue       = "queue"
	TopicAssignments = "assignments"
	TopicAlerts      = "alerts"
	TopicProviders   = "providers"
	TopicSystem      = "system"

	EventQueueUpdated          = "QueueUpdated"
	EventAssignmentsMade       = "AssignmentsMade"
	EventCriticalAlert         = "CriticalAlert"
	EventProviderStatusChanged = "ProviderStatusChanged"
	EventSystemModeChanged     = "SystemModeChanged"
)

// EventPublisher fans engine events out to subscribed clients. Publishing
// happens after the triggering operation has been committed, so a consumer
// never observes an event ahead of its effects.
type EventPublisher interface {
	Publish(ctx context.Context, topic, eventType string, payload interface{}) error
}

// CriticalAlert is the payload broadcast when a newly scored patient lands
// in the Critical class.
type CriticalAlert struct {
	Message string           `json:"message"`
	Patient *patient.Patient `json:"patient"`
}

// Engine orchestrates scoring, ordering and assignment. A single mutex
// serializes every pass that reads and mutates the shared queue and
// provider pool (intake, discharge, manual trigger, aging sweep), which is
// what keeps one provider from being booked twice by concurrent passes.
type Engine struct {
	mu        sync.Mutex
	patients  patient.Repository
	providers provider.Repository

	scorer   Scorer
	fallback Scorer
	modes    *Modes
	aging    AgingPolicy
	sweep    time.Duration
	events   EventPublisher
	log      zerolog.Logger
	now      func() time.Time
}

// Options configures an Engine. Zero values select the deterministic
// scorer, the default aging policy and a two minute sweep cadence.
type Options struct {
	Scorer        Scorer
	Aging         AgingPolicy
	SweepInterval time.Duration
	Events        EventPublisher
	Logger        zerolog.Logger
	Now           func() time.Time
}

func New(patients patient.Repository, providers provider.Repository, opts Options) *Engine {
	e := &Engine{
		patients:  patients,
		providers: providers,
		scorer:    opts.Scorer,
		fallback:  FallbackScorer{},
		modes:     NewModes(),
		aging:     opts.Aging,
		sweep:     opts.SweepInterval,
		events:    opts.Events,
		log:       opts.Logger,
		now:       opts.Now,
	}
	if e.scorer == nil {
		e.scorer = RuleScorer{}
	}
	if e.aging == (AgingPolicy{}) {
		e.aging = DefaultAgingPolicy()
	}
	if e.sweep <= 0 {
		e.sweep = 2 * time.Minute
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// score runs the configured strategy and recovers through the degraded
// fallback on any failure. Scoring never fails an intake.
func (e *Engine) score(ctx context.Context, p *patient.Patient) ScoreResult {
	res, err := e.scorer.Score(ctx, p)
	if err != nil {
		e.log.Warn().Err(err).Str("patient", p.Name).Msg("external scorer failed, using fallback")
		res, _ = e.fallback.Score(ctx, p)
	}
	return res
}

// Intake validates, scores and registers a new patient, then runs an
// assignment pass so an idle doctor picks the patient up immediately.
func (e *Engine) Intake(ctx context.Context, p *patient.Patient) (*patient.Patient, error) {
	if err := patient.ValidateIntake(p); err != nil {
		return nil, err
	}

	res := e.score(ctx, p)
	p.ArrivalTime = e.now()
	p.Status = patient.StatusWaiting
	p.BaseScore = res.Score
	p.UrgencyScore = res.Score
	p.PriorityClass = res.Class
	p.Explanation = res.Explanation

	if err := e.patients.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}

	e.mu.Lock()
	queue, bindings, docs, err := e.runPass(ctx)
	e.mu.Unlock()
	if err != nil {
		e.log.Error().Err(err).Msg("assignment pass after intake failed")
	}

	if res.Class == patient.PriorityCritical {
		e.emit(ctx, TopicAlerts, EventCriticalAlert, CriticalAlert{
			Message: fmt.Sprintf("New CRITICAL patient: %s", p.Name),
			Patient: p,
		})
	}
	e.announcePass(ctx, queue, bindings, docs)

	if fresh, err := e.patients.GetByID(ctx, p.ID); err == nil {
		return fresh, nil
	}
	return p, nil
}

// Queue returns the current priority-ordered waiting queue.
func (e *Engine) Queue(ctx context.Context) ([]*patient.Patient, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	waiting, err := e.patients.ListByStatus(ctx, patient.StatusWaiting)
	if err != nil {
		return nil, fmt.Errorf("list waiting patients: %w", err)
	}
	return OrderQueue(waiting, e.modes.Snapshot()), nil
}

// TriggerAssignment runs one manual assignment pass.
func (e *Engine) TriggerAssignment(ctx context.Context) ([]Binding, error) {
	e.mu.Lock()
	queue, bindings, docs, err := e.runPass(ctx)
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}
	e.announcePass(ctx, queue, bindings, docs)
	return bindings, nil
}

// Discharge releases the patient's provider back to Available and runs a
// fresh assignment pass so the freed doctor picks up the next patient.
// Discharging an already-discharged patient is a no-op on provider state.
func (e *Engine) Discharge(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	var (
		p        *patient.Patient
		freed    *provider.Provider
		queue    []*patient.Patient
		bindings []Binding
		docs     []*provider.Provider
	)

	err := func() error {
		e.mu.Lock()
		defer e.mu.Unlock()

		var err error
		p, err = e.patients.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("load patient: %w", err)
		}
		if p.Status == patient.StatusDischarged {
			return nil
		}
		if !p.Status.CanTransitionTo(patient.StatusDischarged) {
			return fmt.Errorf("cannot discharge patient in status %s", p.Status)
		}

		providerID := p.AssignedProviderID
		p.Status = patient.StatusDischarged
		p.AssignedProviderID = nil
		if err := e.patients.Update(ctx, p); err != nil {
			return fmt.Errorf("update patient: %w", err)
		}

		if providerID != nil {
			doc, err := e.providers.GetByID(ctx, *providerID)
			if err != nil {
				e.log.Error().Err(err).Str("provider_id", providerID.String()).Msg("load assigned provider failed")
			} else {
				doc.Status = provider.StatusAvailable
				doc.CurrentPatientID = nil
				if err := e.providers.Update(ctx, doc); err != nil {
					e.log.Error().Err(err).Str("provider_id", doc.ID.String()).Msg("release provider failed")
				} else {
					freed = doc
				}
			}
		}

		queue, bindings, docs, err = e.runPass(ctx)
		if err != nil {
			e.log.Error().Err(err).Msg("assignment pass after discharge failed")
		}
		return nil
	}()
	if err != nil {
		return nil, err
	}

	if freed != nil {
		e.emit(ctx, TopicProviders, EventProviderStatusChanged, freed)
	}
	e.announcePass(ctx, queue, bindings, docs)
	return p, nil
}

// DeferPatient moves a Waiting patient out of the queue until manually
// reinstated.
func (e *Engine) DeferPatient(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	p, queue, err := e.changeQueueMembership(ctx, id, patient.StatusDeferred)
	if err != nil {
		return nil, err
	}
	if queue != nil {
		e.emit(ctx, TopicQueue, EventQueueUpdated, queue)
	}
	return p, nil
}

// Reinstate returns a Deferred patient to the waiting queue and runs an
// assignment pass.
func (e *Engine) Reinstate(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	p, _, err := e.changeQueueMembership(ctx, id, patient.StatusWaiting)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	queue, bindings, docs, err := e.runPass(ctx)
	e.mu.Unlock()
	if err != nil {
		e.log.Error().Err(err).Msg("assignment pass after reinstate failed")
	}
	e.announcePass(ctx, queue, bindings, docs)
	return p, nil
}

func (e *Engine) changeQueueMembership(ctx context.Context, id uuid.UUID, next patient.Status) (*patient.Patient, []*patient.Patient, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.patients.GetByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("load patient: %w", err)
	}
	if !p.Status.CanTransitionTo(next) {
		return nil, nil, fmt.Errorf("cannot move patient from %s to %s", p.Status, next)
	}
	p.Status = next
	if err := e.patients.Update(ctx, p); err != nil {
		return nil, nil, fmt.Errorf("update patient: %w", err)
	}

	waiting, err := e.patients.ListByStatus(ctx, patient.StatusWaiting)
	if err != nil {
		return p, nil, nil
	}
	return p, OrderQueue(waiting, e.modes.Snapshot()), nil
}

// SetMutationMode flips a stress-mutation flag and rebroadcasts the queue,
// whose ordering the flag may have changed.
func (e *Engine) SetMutationMode(ctx context.Context, mode Mode, active bool) (ModeSnapshot, error) {
	snap, err := e.modes.Set(mode, active)
	if err != nil {
		return snap, err
	}
	e.emit(ctx, TopicSystem, EventSystemModeChanged, snap)

	if queue, err := e.Queue(ctx); err == nil {
		e.emit(ctx, TopicQueue, EventQueueUpdated, queue)
	}
	return snap, nil
}

// MutationStatus returns the current stress-mutation flags.
func (e *Engine) MutationStatus() ModeSnapshot {
	return e.modes.Snapshot()
}

// ProviderStatusChanged implements provider.StatusNotifier. A provider
// manually returned to Available is handed the next queued patient.
func (e *Engine) ProviderStatusChanged(ctx context.Context, p *provider.Provider) {
	e.emit(ctx, TopicProviders, EventProviderStatusChanged, p)

	if p.Status != provider.StatusAvailable {
		return
	}
	e.mu.Lock()
	queue, bindings, docs, err := e.runPass(ctx)
	e.mu.Unlock()
	if err != nil {
		e.log.Error().Err(err).Msg("assignment pass after provider status change failed")
		return
	}
	e.announcePass(ctx, queue, bindings, docs)
}

// Start runs the periodic starvation aging sweep until ctx is cancelled.
func (e *Engine) Start(ctx context.Context) {
	ticker := time.NewTicker(e.sweep)
	defer ticker.Stop()

	e.log.Info().Dur("interval", e.sweep).Msg("starvation aging sweep started")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.SweepAging(ctx)
		}
	}
}

// SweepAging recomputes the starvation boost for every waiting patient.
// The boost derives from total elapsed wait, so calling this twice in the
// same minute changes nothing. Returns how many patients were boosted.
func (e *Engine) SweepAging(ctx context.Context) int {
	var (
		changed int
		queue   []*patient.Patient
	)

	func() {
		e.mu.Lock()
		defer e.mu.Unlock()

		waiting, err := e.patients.ListByStatus(ctx, patient.StatusWaiting)
		if err != nil {
			e.log.Error().Err(err).Msg("aging sweep: list waiting patients failed")
			return
		}
		now := e.now()
		for _, p := range waiting {
			if !e.aging.Apply(p, now) {
				continue
			}
			if err := e.patients.Update(ctx, p); err != nil {
				e.log.Error().Err(err).Str("patient_id", p.ID.String()).Msg("aging sweep: update failed")
				continue
			}
			changed++
		}
		if changed > 0 {
			queue = OrderQueue(waiting, e.modes.Snapshot())
		}
	}()

	if changed > 0 {
		e.log.Info().Int("boosted", changed).Msg("starvation aging applied")
		e.emit(ctx, TopicQueue, EventQueueUpdated, queue)
	}
	return changed
}

// runPass executes one order-and-assign pass. Caller must hold e.mu.
// Each binding commits both records or neither: a failed patient write
// drops the binding, a failed provider write rolls the patient back.
func (e *Engine) runPass(ctx context.Context) ([]*patient.Patient, []Binding, []*provider.Provider, error) {
	waiting, err := e.patients.ListByStatus(ctx, patient.StatusWaiting)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("list waiting patients: %w", err)
	}
	pool, err := e.providers.ListAvailableDoctors(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("list available doctors: %w", err)
	}

	ordered := OrderQueue(waiting, e.modes.Snapshot())
	proposed := MatchAssignments(ordered, pool)

	patByID := make(map[uuid.UUID]*patient.Patient, len(ordered))
	for _, p := range ordered {
		patByID[p.ID] = p
	}
	docByID := make(map[uuid.UUID]*provider.Provider, len(pool))
	for _, d := range pool {
		docByID[d.ID] = d
	}

	var (
		committed []Binding
		boundDocs []*provider.Provider
	)
	for _, b := range proposed {
		pat, doc := patByID[b.PatientID], docByID[b.ProviderID]
		if err := e.patients.Update(ctx, pat); err != nil {
			unbind(pat, doc)
			e.log.Error().Err(err).Str("patient_id", pat.ID.String()).Msg("binding commit failed, dropped")
			continue
		}
		if err := e.providers.Update(ctx, doc); err != nil {
			unbind(pat, doc)
			if rerr := e.patients.Update(ctx, pat); rerr != nil {
				e.log.Error().Err(rerr).Str("patient_id", pat.ID.String()).Msg("binding rollback failed, invariant at risk")
			}
			e.log.Error().Err(err).Str("provider_id", doc.ID.String()).Msg("binding commit failed, rolled back")
			continue
		}
		committed = append(committed, b)
		boundDocs = append(boundDocs, doc)
	}

	remaining := make([]*patient.Patient, 0, len(ordered))
	for _, p := range ordered {
		if p.Status == patient.StatusWaiting {
			remaining = append(remaining, p)
		}
	}
	return remaining, committed, boundDocs, nil
}

func (e *Engine) announcePass(ctx context.Context, queue []*patient.Patient, bindings []Binding, docs []*provider.Provider) {
	if queue != nil {
		e.emit(ctx, TopicQueue, EventQueueUpdated, queue)
	}
	if len(bindings) == 0 {
		return
	}
	e.emit(ctx, TopicAssignments, EventAssignmentsMade, bindings)
	for _, d := range docs {
		e.emit(ctx, TopicProviders, EventProviderStatusChanged, d)
	}
}

func (e *Engine) emit(ctx context.Context, topic, eventType string, payload interface{}) {
	if e.events == nil {
		return
	}
	if err := e.events.Publish(ctx, topic, eventType, payload); err != nil {
		e.log.Error().Err(err).Str("event", eventType).Msg("event publish failed")
	}
}
