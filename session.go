package gridcalc

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
	"google.golang.org/grpc/codes"
)

// Session serializes access to a document. the engine itself is not safe
// for concurrent use, so every caller that may run concurrently goes
// through a session.
type Session struct {
	id  uuid.UUID
	doc *Document
	sem *semaphore.Weighted
	log zerolog.Logger
}

// NewSession wraps doc. log receives the session id on every event.
func NewSession(doc *Document, log zerolog.Logger) *Session {
	id := uuid.New()
	return &Session{
		id:  id,
		doc: doc,
		sem: semaphore.NewWeighted(1),
		log: log.With().Str("session", id.String()).Logger(),
	}
}

// ID returns the session identifier
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Do runs fn with exclusive access to the document. it blocks until no
// other call is in flight or ctx is done.
func (s *Session) Do(ctx context.Context, fn func(*Document) error) error {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.sem.Release(1)
	return fn(s.doc)
}

// SetValue applies one edit, waiting for any edit in flight
func (s *Session) SetValue(ctx context.Context, ref CellRef, in RawInput) ([]CellRef, error) {
	var changes []CellRef
	err := s.Do(ctx, func(d *Document) error {
		var err error
		changes, err = d.SetValue(ref, in)
		return err
	})
	if err != nil {
		s.log.Debug().Stringer("cell", ref).Err(err).Msg("edit failed")
	}
	return changes, err
}

// TrySetValue applies one edit only if no other edit is in flight
func (s *Session) TrySetValue(ref CellRef, in RawInput) ([]CellRef, error) {
	if !s.sem.TryAcquire(1) {
		s.log.Warn().Stringer("cell", ref).Msg("edit rejected, session busy")
		return nil, NewApplicationError(codes.Unavailable, "another edit is in progress")
	}
	defer s.sem.Release(1)
	return s.doc.SetValue(ref, in)
}

// Snapshot returns the persisted form under the session lock
func (s *Session) Snapshot(ctx context.Context) (StoredGrid, error) {
	var stored StoredGrid
	err := s.Do(ctx, func(d *Document) error {
		stored = d.Snapshot()
		return nil
	})
	return stored, err
}
