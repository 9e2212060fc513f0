package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mpapenbr/swimprotocol/log"
	"github.com/mpapenbr/swimprotocol/pkg/model"
)

type (
	Option func(*blobStore)

	blobStore struct {
		backend Backend
		l       *log.Logger
		now     func() time.Time

		mu    sync.Mutex
		locks map[string]*sync.Mutex
	}
)

var _ Store = (*blobStore)(nil)

func WithLogger(l *log.Logger) Option {
	return func(s *blobStore) {
		s.l = l
	}
}

// WithClock replaces the clock used for SavedAt
func WithClock(now func() time.Time) Option {
	return func(s *blobStore) {
		s.now = now
	}
}

// New creates a Store on top of backend
func New(backend Backend, opts ...Option) Store {
	ret := &blobStore{
		backend: backend,
		l:       log.Default().Named("storage"),
		now:     time.Now,
		locks:   map[string]*sync.Mutex{},
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// lock serializes access to a single competition id
func (s *blobStore) lock(id string) func() {
	s.mu.Lock()
	m, ok := s.locks[id]
	if !ok {
		m = &sync.Mutex{}
		s.locks[id] = m
	}
	s.mu.Unlock()
	m.Lock()
	return m.Unlock
}

func (s *blobStore) Save(ctx context.Context, sp *model.SavedProtocol) error {
	if sp == nil || sp.Protocol == nil {
		return errors.New("save: missing protocol")
	}
	if err := ValidateID(sp.ID); err != nil {
		return err
	}
	defer s.lock(sp.ID)()
	return s.put(ctx, sp)
}

func (s *blobStore) put(ctx context.Context, sp *model.SavedProtocol) error {
	sp.SchemaVersion = model.CurrentSchemaVersion
	sp.SavedAt = s.now().UTC().Truncate(time.Millisecond)
	if sp.ResultTimes == nil {
		sp.ResultTimes = model.ResultTimes{}
	}
	if sp.RelayResults == nil {
		sp.RelayResults = model.RelayResults{}
	}
	data, err := encode(sp)
	if err != nil {
		return fmt.Errorf("encode saved protocol %s: %w", sp.ID, err)
	}
	if err := s.backend.Put(ctx, sp.ID, data); err != nil {
		s.l.Error("could not save protocol",
			log.String("id", sp.ID), log.ErrorField(err))
		return fmt.Errorf("save protocol %s: %w", sp.ID, err)
	}
	s.l.Debug("protocol saved",
		log.String("id", sp.ID),
		log.Int("results", len(sp.ResultTimes)),
		log.Int("relayResults", len(sp.RelayResults)))
	return nil
}

func (s *blobStore) Load(ctx context.Context, id string) (*model.SavedProtocol, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	defer s.lock(id)()
	return s.load(ctx, id)
}

func (s *blobStore) load(ctx context.Context, id string) (*model.SavedProtocol, error) {
	data, err := s.backend.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.l.Debug("protocol not found", log.String("id", id))
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load protocol %s: %w", id, err)
	}
	sp, version, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("load protocol %s: %w", id, err)
	}
	if sp.ID == "" {
		sp.ID = id
	}
	if version < model.CurrentSchemaVersion {
		s.upgrade(ctx, sp, version)
	}
	return sp, nil
}

// upgrade migrates sp and writes it back, so identities generated while
// decoding a legacy record are persisted.
func (s *blobStore) upgrade(ctx context.Context, sp *model.SavedProtocol, from int) {
	report := migrate(sp, from)
	if len(report.Kept) > 0 {
		s.l.Warn("legacy result keys could not be assigned to a discipline",
			log.String("id", sp.ID),
			log.Strings("keys", report.Kept))
	}
	s.l.Info("migrated saved protocol",
		log.String("id", sp.ID),
		log.Int("from", report.From),
		log.Int("to", model.CurrentSchemaVersion),
		log.Int("rekeyed", report.Rekeyed),
		log.Int("converted", report.Converted))
	savedAt := sp.SavedAt
	if err := s.put(ctx, sp); err != nil {
		s.l.Warn("could not persist migrated protocol",
			log.String("id", sp.ID), log.ErrorField(err))
	}
	// migration is not an edit
	sp.SavedAt = savedAt
}

//nolint:whitespace // editor/linter issue
func (s *blobStore) UpdateResults(
	ctx context.Context,
	id string,
	times model.ResultTimes,
	relay model.RelayResults,
) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	defer s.lock(id)()
	sp, err := s.load(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.l.Warn("cannot update results of unsaved protocol", log.String("id", id))
		}
		return err
	}
	sp.ResultTimes = times.Clone()
	if relay != nil {
		sp.RelayResults = relay.Clone()
	}
	return s.put(ctx, sp)
}

func (s *blobStore) Delete(ctx context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	defer s.lock(id)()
	if err := s.backend.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete protocol %s: %w", id, err)
	}
	s.l.Debug("protocol deleted", log.String("id", id))
	return nil
}

func (s *blobStore) List(ctx context.Context) ([]string, error) {
	keys, err := s.backend.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list protocols: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *blobStore) Close() error {
	return s.backend.Close()
}
