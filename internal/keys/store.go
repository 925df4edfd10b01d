package keys

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/logger"
)

// snapshot is immutable once published.
type snapshot struct {
	keys      []*SigningKey // newest first
	byID      map[string]*SigningKey
	retiredAt map[string]time.Time // keys no longer in the source
	current   *SigningKey
}

// Store holds the loaded key generations. Readers see a consistent snapshot
// without locking; Reload builds a new snapshot and swaps it in.
type Store struct {
	source    Source
	retention time.Duration
	now       func() time.Time

	reloadMu sync.Mutex
	snap     atomic.Pointer[snapshot]
}

type Option func(*Store)

// WithClock overrides the time used for retention bookkeeping.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates an empty store. retention is how long a key that vanished
// from the source stays published; it must cover the token lifetime.
func NewStore(source Source, retention time.Duration, opts ...Option) *Store {
	s := &Store{
		source:    source,
		retention: retention,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load performs the initial read of the source.
func (s *Store) Load(ctx context.Context) error {
	return s.Reload(ctx)
}

// Reload re-reads the source. On error the previous snapshot stays active.
func (s *Store) Reload(ctx context.Context) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	loaded, err := s.source.Load(ctx)
	if err != nil {
		logger.Error("key reload failed, keeping previous keys", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	next := s.build(loaded, s.snap.Load())
	s.snap.Store(next)

	fields := map[string]any{
		"keys":    len(next.keys),
		"retired": len(next.retiredAt),
	}
	if next.current != nil {
		fields["current_kid"] = next.current.ID
		logger.Info("signing keys loaded", fields)
	} else {
		logger.Warn("no signing key loaded, token issuance will fail", fields)
	}

	return nil
}

func (s *Store) build(loaded []*SigningKey, prev *snapshot) *snapshot {
	now := s.now()

	next := &snapshot{
		byID:      make(map[string]*SigningKey, len(loaded)),
		retiredAt: make(map[string]time.Time),
	}

	for _, k := range loaded {
		next.keys = append(next.keys, k)
		next.byID[k.ID] = k
	}

	// keys removed from the source stay verifiable until retention runs out
	if prev != nil {
		for _, k := range prev.keys {
			if _, ok := next.byID[k.ID]; ok {
				continue
			}
			retiredAt, ok := prev.retiredAt[k.ID]
			if !ok {
				retiredAt = now
			}
			if now.Sub(retiredAt) >= s.retention {
				logger.Info("retired key dropped from key set", map[string]any{
					"kid": k.ID,
				})
				continue
			}
			carried := k.publicOnly()
			next.keys = append(next.keys, carried)
			next.byID[k.ID] = carried
			next.retiredAt[k.ID] = retiredAt
		}
	}

	sort.SliceStable(next.keys, func(i, j int) bool {
		a, b := next.keys[i], next.keys[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})

	for _, k := range next.keys {
		if k.CanSign() {
			next.current = k
			break
		}
	}

	return next
}

// Current returns the most recent key that holds private material.
func (s *Store) Current() (*SigningKey, error) {
	snap := s.snap.Load()
	if snap == nil || snap.current == nil {
		return nil, ErrNoKeysAvailable
	}
	return snap.current, nil
}

// PublicKeys returns every published key, newest first.
func (s *Store) PublicKeys() []PublicKey {
	snap := s.snap.Load()
	if snap == nil {
		return nil
	}

	out := make([]PublicKey, 0, len(snap.keys))
	for _, k := range snap.keys {
		out = append(out, PublicKey{
			ID:        k.ID,
			Algorithm: k.Algorithm,
			Key:       k.Public,
			Current:   k == snap.current,
		})
	}
	return out
}

// PublicKey looks up a published key by kid.
func (s *Store) PublicKey(kid string) (PublicKey, bool) {
	snap := s.snap.Load()
	if snap == nil {
		return PublicKey{}, false
	}
	k, ok := snap.byID[kid]
	if !ok {
		return PublicKey{}, false
	}
	return PublicKey{
		ID:        k.ID,
		Algorithm: k.Algorithm,
		Key:       k.Public,
		Current:   k == snap.current,
	}, true
}

// Len returns the number of published keys.
func (s *Store) Len() int {
	snap := s.snap.Load()
	if snap == nil {
		return 0
	}
	return len(snap.keys)
}
