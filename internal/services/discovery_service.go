package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"vinivici/internal/algorithms"
	"vinivici/internal/catapi"
	"vinivici/internal/logger"
	"vinivici/internal/models"
	"vinivici/internal/repositories"
	"vinivici/pkg/apperrors"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultBatchSize  = 10
	DefaultMaxRetries = 5

	discoverKey = "discover"
)

// StateListener receives every published snapshot. It must not block.
type StateListener func(models.Snapshot)

type DiscoveryService interface {
	// Discover fetches batches until it finds a candidate no ban rule
	// matches, or gives up after 1+MaxRetries batches. Calls made while a
	// discovery is in flight join it and share its result.
	Discover(ctx context.Context) (*models.Candidate, error)

	// StartDiscovery is Discover without waiting for the result.
	StartDiscovery(ctx context.Context)

	// EnsureStarted starts a discovery if none has ever run. Returns true if
	// it started one.
	EnsureStarted(ctx context.Context) bool

	// ToggleBan removes the rule if banned, adds it otherwise.
	ToggleBan(rule models.BanRule) ([]models.BanRule, error)
	ClearBans()
	Bans() []models.BanRule

	Snapshot() models.Snapshot
	Subscribe(listener StateListener)
}

// DiscoveryConfig bounds one discovery
type DiscoveryConfig struct {
	BatchSize  int
	MaxRetries int
}

func DefaultDiscoveryConfig() DiscoveryConfig {
	return DiscoveryConfig{BatchSize: DefaultBatchSize, MaxRetries: DefaultMaxRetries}
}

type discoveryService struct {
	searcher catapi.Searcher
	bans     repositories.BanRepository
	cfg      DiscoveryConfig
	lifetime context.Context
	now      func() time.Time

	// runMu makes begin+join atomic with forget+finish, so a caller marked
	// loading always joins a live run or starts a new one.
	runMu sync.Mutex
	group singleflight.Group

	mu        sync.Mutex
	state     models.UIState
	version   uint64
	listeners []StateListener
}

// NewDiscoveryService creates the controller owning the UI state.
// lifetime bounds background discoveries; they outlive the request that
// started them but not the process.
func NewDiscoveryService(
	lifetime context.Context,
	searcher catapi.Searcher,
	bans repositories.BanRepository,
	cfg DiscoveryConfig,
) DiscoveryService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if lifetime == nil {
		lifetime = context.Background()
	}
	s := &discoveryService{
		searcher: searcher,
		bans:     bans,
		cfg:      cfg,
		lifetime: lifetime,
		now:      time.Now,
	}
	s.state = models.UIState{Phase: models.PhaseIdle, UpdatedAt: s.now()}
	return s
}

// ================================
// Discovery
// ================================

func (s *discoveryService) Discover(ctx context.Context) (*models.Candidate, error) {
	select {
	case res := <-s.discover(ctx):
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.Candidate), nil
	case <-ctx.Done():
		// the shared run keeps going and still updates the UI state
		return nil, apperrors.ErrNetwork(ctx.Err())
	}
}

func (s *discoveryService) StartDiscovery(ctx context.Context) {
	ch := s.discover(ctx)
	go func() {
		res := <-ch
		if res.Err != nil {
			logger.CtxWarn(ctx, "Background discovery failed", "error", res.Err.Error())
		}
	}()
}

func (s *discoveryService) EnsureStarted(ctx context.Context) bool {
	s.mu.Lock()
	idle := s.state.Phase == models.PhaseIdle
	s.mu.Unlock()

	if !idle {
		return false
	}
	s.StartDiscovery(ctx)
	return true
}

// discover moves the state to loading before returning, so a page rendered
// right after a discover request already shows the spinner.
// Listeners are called after runMu is released, so they may start a
// discovery. The run waits on gate so its result is never published before
// the loading snapshot.
func (s *discoveryService) discover(ctx context.Context) <-chan singleflight.Result {
	gate := make(chan struct{})

	s.runMu.Lock()
	snap, started := s.begin()
	ch := s.group.DoChan(discoverKey, func() (interface{}, error) {
		<-gate
		runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		stop := context.AfterFunc(s.lifetime, cancel)
		defer stop()
		defer cancel()

		runCtx = logger.WithDiscoveryID(runCtx, uuid.NewString())
		return s.run(runCtx)
	})
	s.runMu.Unlock()

	if started {
		s.publish(snap)
	}
	close(gate)
	return ch
}

// run is the bounded retry loop. The deferred finish leaves the loading
// phase on every path, panics included.
func (s *discoveryService) run(ctx context.Context) (cand *models.Candidate, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.CtxError(ctx, "Discovery panicked", "panic", fmt.Sprint(r))
			cand, err = nil, apperrors.InternalError(fmt.Errorf("discovery panicked: %v", r))
		}
		s.runMu.Lock()
		s.group.Forget(discoverKey)
		snap := s.finish(ctx, cand, err)
		s.runMu.Unlock()

		s.publish(snap)
	}()

	maxAttempts := 1 + s.cfg.MaxRetries
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, apperrors.ErrNetwork(ctxErr)
		}
		s.setAttempt(attempt)

		batch, fetchErr := s.searcher.SearchImages(ctx, s.cfg.BatchSize)
		if fetchErr != nil {
			return nil, translateFetchError(fetchErr)
		}

		// rules are read per attempt so toggles made while loading apply
		found, ok := algorithms.FirstUnbanned(batch, s.bans.List())
		logger.DiscoveryLog(ctx, attempt, maxAttempts, len(batch), ok)
		if ok {
			return found, nil
		}
		if attempt < maxAttempts {
			logger.CtxWarn(ctx, "No unbanned cat found in batch, retrying",
				"attempt", attempt, "max_retries", s.cfg.MaxRetries)
		}
	}

	return nil, apperrors.ErrDiscoveryExhausted
}

func translateFetchError(err error) error {
	var statusErr *catapi.StatusError
	if errors.As(err, &statusErr) {
		return apperrors.ErrUpstreamStatus(statusErr.StatusCode, err)
	}
	return apperrors.ErrNetwork(err)
}

// ================================
// State machine
// ================================

// begin moves idle, ready or failed to loading and reports whether it did.
// Loading means a run is registered, so there is nothing to do then.
// Callers hold runMu and publish the snapshot.
func (s *discoveryService) begin() (models.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Phase == models.PhaseLoading {
		return models.Snapshot{}, false
	}
	s.state.Phase = models.PhaseLoading
	s.state.Attempts = 0
	s.state.ErrorMessage = ""
	s.state.UpdatedAt = s.now()
	return s.snapshotLocked(), true
}

func (s *discoveryService) setAttempt(attempt int) {
	s.mu.Lock()
	s.state.Attempts = attempt
	s.mu.Unlock()
}

// finish leaves the loading phase; callers hold runMu and publish the result.
func (s *discoveryService) finish(ctx context.Context, cand *models.Candidate, err error) models.Snapshot {
	s.mu.Lock()
	if err == nil && cand != nil {
		s.state.Phase = models.PhaseReady
		s.state.Current = cand
		s.state.ErrorMessage = ""
	} else {
		if err == nil {
			err = apperrors.ErrDiscoveryExhausted
		}
		s.state.Phase = models.PhaseFailed
		s.state.Current = nil
		s.state.ErrorMessage = apperrors.UserMessage(err)
	}
	s.state.UpdatedAt = s.now()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if err != nil {
		logger.CtxWarn(ctx, "Discovery failed", "error", err.Error(), "attempts", snap.State.Attempts)
	} else {
		logger.CtxInfo(ctx, "Discovery succeeded", "image_id", cand.ID, "attempts", snap.State.Attempts)
	}
	return snap
}

// ================================
// Ban list
// ================================

func (s *discoveryService) ToggleBan(rule models.BanRule) ([]models.BanRule, error) {
	if !rule.Type.Valid() {
		return nil, apperrors.ErrInvalidAttributeType
	}
	if strings.TrimSpace(rule.Value) == "" {
		return nil, apperrors.NewBadRequestError("Ban value must not be empty")
	}

	banned := s.bans.Toggle(rule)
	logger.Info("Ban list toggled", "type", rule.Type, "value", rule.Value, "banned", banned)

	s.mu.Lock()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.publish(snap)

	return snap.Bans, nil
}

func (s *discoveryService) ClearBans() {
	s.bans.Clear()

	s.mu.Lock()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.publish(snap)
}

func (s *discoveryService) Bans() []models.BanRule {
	return s.bans.List()
}

// ================================
// Snapshots
// ================================

func (s *discoveryService) Snapshot() models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.Snapshot{State: s.state, Bans: s.bans.List(), Version: s.version}
}

func (s *discoveryService) Subscribe(listener StateListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener)
}

// snapshotLocked bumps the version; callers hold s.mu.
func (s *discoveryService) snapshotLocked() models.Snapshot {
	s.version++
	return models.Snapshot{State: s.state, Bans: s.bans.List(), Version: s.version}
}

func (s *discoveryService) publish(snap models.Snapshot) {
	s.mu.Lock()
	listeners := append([]StateListener(nil), s.listeners...)
	s.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
}
