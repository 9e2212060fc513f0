// Package session holds the working state of one competition.
//
// A Session owns the saved protocol of its competition id. Every mutation is
// an explicit command that updates the in-memory state and persists it
// immediately. Sessions on different competition ids are independent.
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/mpapenbr/swimprotocol/log"
	"github.com/mpapenbr/swimprotocol/pkg/client"
	"github.com/mpapenbr/swimprotocol/pkg/identity"
	"github.com/mpapenbr/swimprotocol/pkg/model"
	"github.com/mpapenbr/swimprotocol/pkg/results"
	"github.com/mpapenbr/swimprotocol/pkg/storage"
	"github.com/mpapenbr/swimprotocol/pkg/submission"
)

var (
	ErrSubmitInProgress = errors.New("submit already in progress")
	ErrNoProtocol       = errors.New("no start protocol loaded, fetch it first")
	ErrInvalidDistance  = fmt.Errorf("relay distance must be within %d..%d m",
		model.MinRelayDistance, model.MaxRelayDistance)
	ErrUnknownEntry = errors.New("relay entry not found")
)

// API is the part of the competition server used by a session
//
//nolint:lll // ok for interface
type API interface {
	FetchStartProtocol(ctx context.Context, competitionID string) (*model.Protocol, error)
	SubmitFinishProtocol(ctx context.Context, competitionID string, entries []model.FinishProtocolEntry) (*client.SubmitResult, error)
}

var _ API = (*client.Client)(nil)

type (
	Option  func(*Session)
	Session struct {
		id         string
		store      storage.Store
		api        API
		l          *log.Logger
		mu         sync.Mutex
		saved      *model.SavedProtocol
		lastErr    string
		submitting atomic.Bool
	}
)

func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		s.l = l
	}
}

func New(competitionID string, store storage.Store, api API, opts ...Option) *Session {
	ret := &Session{
		id:    competitionID,
		store: store,
		api:   api,
		l:     log.Default().Named("session"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	ret.l = ret.l.With(log.String("competitionId", competitionID))
	return ret
}

func (s *Session) CompetitionID() string {
	return s.id
}

// Open loads the saved protocol. A failed read is logged and treated as
// absent. Returns true if a saved protocol is available.
func (s *Session) Open(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = ""
	return s.open(ctx)
}

func (s *Session) open(ctx context.Context) bool {
	sp, err := s.store.Load(ctx, s.id)
	switch {
	case err == nil:
		s.saved = sp
		s.l.Debug("saved protocol loaded",
			log.Int("results", len(sp.ResultTimes)),
			log.Int("relayResults", len(sp.RelayResults)),
			log.Time("savedAt", sp.SavedAt))
		return true
	case errors.Is(err, storage.ErrNotFound):
		s.l.Debug("no saved protocol")
	default:
		s.l.Warn("could not read saved protocol", log.ErrorField(err))
	}
	return false
}

// Refresh downloads the start protocol and saves it together with the
// results recorded so far. Generated discipline ids of the previous snapshot
// are carried over. The first successful refresh creates the saved record.
func (s *Session) Refresh(ctx context.Context) error {
	s.clearErr()
	p, err := s.api.FetchStartProtocol(ctx, s.id)
	if err != nil {
		return s.fail("could not fetch start protocol", err)
	}
	if ctx.Err() != nil {
		// nobody is interested in this response anymore
		return ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saved == nil {
		s.open(ctx)
	}
	next := model.NewSavedProtocol(s.id, p)
	if s.saved != nil {
		reused := identity.Reconcile(s.saved.Protocol, p)
		s.l.Debug("reconciled discipline ids", log.Int("reused", reused))
		next.ResultTimes = s.saved.ResultTimes.Clone()
		next.RelayResults = s.saved.RelayResults.Clone()
	}
	s.saved = next
	if err := s.store.Save(ctx, next); err != nil {
		return s.failLocked("could not save protocol", err)
	}
	s.l.Info("start protocol saved",
		log.String("competitionName", p.CompetitionName),
		log.Int("participants", p.ParticipantCount()))
	return nil
}

// Saved returns the current state or nil. The result must not be modified.
func (s *Session) Saved() *model.SavedProtocol {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved
}

// RecordResult stores the finish time for key. An empty value removes it.
func (s *Session) RecordResult(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = ""
	key, err := s.checkKey(key)
	if err != nil {
		return s.failLocked("could not record result", err)
	}
	if value == "" {
		delete(s.saved.ResultTimes, key)
	} else {
		s.saved.ResultTimes[key] = value
	}
	return s.persist(ctx)
}

// AddRelayEntry appends a leg to the relay result of key.
// The time is normalized to mm:ss:SS.
//
//nolint:whitespace // editor/linter issue
func (s *Session) AddRelayEntry(
	ctx context.Context,
	key string,
	distance int,
	time string,
) (model.RelayResultEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = ""
	key, err := s.checkKey(key)
	if err != nil {
		return model.RelayResultEntry{}, s.failLocked("could not add relay entry", err)
	}
	if distance < model.MinRelayDistance || distance > model.MaxRelayDistance {
		return model.RelayResultEntry{}, s.failLocked("could not add relay entry",
			ErrInvalidDistance)
	}
	normalized, err := results.NormalizeTime(time)
	if err != nil {
		return model.RelayResultEntry{}, s.failLocked("could not add relay entry", err)
	}
	entry := model.NewRelayResultEntry(distance, normalized)
	s.saved.RelayResults[key] = append(s.saved.RelayResults[key], entry)
	return entry, s.persist(ctx)
}

// RemoveRelayEntry deletes a single leg. The key is dropped with its last leg.
func (s *Session) RemoveRelayEntry(ctx context.Context, key string, entryID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = ""
	key, err := s.checkKey(key)
	if err != nil {
		return s.failLocked("could not remove relay entry", err)
	}
	legs := s.saved.RelayResults[key]
	idx := slices.IndexFunc(legs, func(e model.RelayResultEntry) bool { return e.ID == entryID })
	if idx < 0 {
		return s.failLocked("could not remove relay entry", ErrUnknownEntry)
	}
	legs = slices.Delete(slices.Clone(legs), idx, idx+1)
	if len(legs) == 0 {
		delete(s.saved.RelayResults, key)
	} else {
		s.saved.RelayResults[key] = legs
	}
	return s.persist(ctx)
}

// Entries builds the finish protocol without sending it
func (s *Session) Entries() ([]model.FinishProtocolEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saved == nil {
		return nil, ErrNoProtocol
	}
	return submission.Build(s.saved.Protocol, s.saved.ResultTimes, s.saved.RelayResults)
}

// Submit sends all qualifying results in a single request.
// Only one submit may be in flight per session.
func (s *Session) Submit(ctx context.Context) (*client.SubmitResult, error) {
	if !s.submitting.CompareAndSwap(false, true) {
		return nil, ErrSubmitInProgress
	}
	defer s.submitting.Store(false)
	s.clearErr()

	entries, err := s.Entries()
	if err != nil {
		return nil, s.fail("could not build finish protocol", err)
	}
	individual, relay := submission.Summary(entries)
	s.l.Info("submitting finish protocol",
		log.Int("individual", individual), log.Int("relay", relay))
	res, err := s.api.SubmitFinishProtocol(ctx, s.id, entries)
	if err != nil {
		return nil, s.fail("could not submit finish protocol", err)
	}
	return res, nil
}

func (s *Session) IsSubmitting() bool {
	return s.submitting.Load()
}

// LastError is the message of the most recent failed operation.
// It is cleared when the next operation starts.
func (s *Session) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// checkKey validates key and returns it in the form used by the builder
func (s *Session) checkKey(key string) (string, error) {
	if s.saved == nil {
		return "", ErrNoProtocol
	}
	d, p, err := model.ParseCompositeKey(key)
	if err != nil {
		return "", fmt.Errorf("%w: %q", err, key)
	}
	return model.CompositeKey(d, p), nil
}

// persist writes both result maps, s.mu must be held
func (s *Session) persist(ctx context.Context) error {
	if err := s.store.UpdateResults(ctx, s.id,
		s.saved.ResultTimes, s.saved.RelayResults); err != nil {
		return s.failLocked("could not save results", err)
	}
	return nil
}

func (s *Session) clearErr() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = ""
}

func (s *Session) fail(msg string, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failLocked(msg, err)
}

func (s *Session) failLocked(msg string, err error) error {
	ret := fmt.Errorf("%s: %w", msg, err)
	s.lastErr = ret.Error()
	s.l.Warn(msg, log.ErrorField(err))
	return ret
}
