package activity

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/opsboard/backend/internal"
	"github.com/opsboard/backend/internal/core/events"
)

// Service is the ledger. Writes are serialized by a mutex around the
// sequence-assign-and-append step so racing mutations cannot lose entries or
// scramble insertion order; reads go straight to the repository.
type Service struct {
	repo   Repository
	bus    *events.EventBus
	logger *slog.Logger

	mu        sync.Mutex
	seq       int64
	seqLoaded bool
}

// NewService creates the ledger service. bus may be nil when no live-update
// consumers exist (CLI commands, tests).
func NewService(repo Repository, bus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		bus:    bus,
		logger: logger,
	}
}

// Record validates and appends one entry. The write is rejected before any
// state change if the category is unknown or the action label empty; a
// storage failure is returned to the caller, never dropped.
func (s *Service) Record(in RecordInput) (*Entry, error) {
	if err := in.Validate(); err != nil {
		s.logger.Warn("activity entry rejected",
			"category", in.Category,
			"action", in.Action,
			"user_id", in.UserID,
			"error", err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadSeqLocked(); err != nil {
		return nil, err
	}

	s.seq++
	entry := &Entry{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Seq:       s.seq,
		UserID:    in.UserID,
		UserName:  in.UserName,
		Category:  in.Category,
		Action:    in.Action,
		Details:   in.Details,
		Changes:   in.Changes,
	}

	if err := s.repo.Append(entry); err != nil {
		s.seq--
		s.logger.Error("activity entry write failed",
			"category", entry.Category,
			"action", entry.Action,
			"error", err)
		return nil, internal.NewStorageError("failed to persist activity entry", err)
	}

	s.logger.Info("activity entry recorded",
		"entry_id", entry.ID,
		"category", entry.Category,
		"action", entry.Action,
		"user_id", entry.UserID)

	if s.bus != nil {
		_ = s.bus.Publish(context.Background(), events.NewActivityRecordedEvent(entry.ID, string(entry.Category), entry.Action))
	}

	return entry, nil
}

// Query returns the entries matching the filter in canonical order:
// most recent first, same-timestamp ties by insertion sequence.
func (s *Service) Query(filter Filter) ([]*Entry, error) {
	entries, err := s.repo.List(filter)
	if err != nil {
		return nil, internal.NewStorageError("failed to read activity log", err)
	}
	return entries, nil
}

// Vocabularies projects the distinct user names, action labels and
// categories present in the full unfiltered log.
func (s *Service) Vocabularies() (*Vocabularies, error) {
	entries, err := s.repo.List(Filter{})
	if err != nil {
		return nil, internal.NewStorageError("failed to read activity log", err)
	}

	names := map[string]struct{}{}
	actions := map[string]struct{}{}
	cats := map[Category]struct{}{}
	for _, e := range entries {
		names[e.UserName] = struct{}{}
		actions[e.Action] = struct{}{}
		cats[e.Category] = struct{}{}
	}

	vocab := &Vocabularies{
		UserNames: sortedKeys(names),
		Actions:   sortedKeys(actions),
	}
	for _, c := range Categories() {
		if _, ok := cats[c]; ok {
			vocab.Categories = append(vocab.Categories, c)
		}
	}
	return vocab, nil
}

// Export serializes the given entries losslessly: every field including ids,
// timestamps, sequences and field-level changes survives a round trip.
func (s *Service) Export(entries []*Entry) ([]byte, error) {
	payload := ExportPayload{
		ExportedAt: time.Now().UTC(),
		Entries:    entries,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, internal.NewInternalError("failed to serialize activity export", err)
	}
	return raw, nil
}

// Import restores the ledger from an export payload, replacing current
// contents. Ids, timestamps and sequences are preserved as exported; this is
// a restore, not a re-recording.
func (s *Service) Import(raw []byte) error {
	var payload ExportPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return internal.NewValidationError("malformed activity export payload", internal.ErrCodeInvalidSnapshot).WithCause(err)
	}
	return s.Restore(payload.Entries)
}

// Restore replaces the ledger contents with the given entries, keeping their
// ids, timestamps and sequences, and resumes the sequence counter past the
// highest restored value.
func (s *Service) Restore(entries []*Entry) error {
	for _, e := range entries {
		if e.ID == "" {
			return internal.NewValidationError("entry without id in export payload", internal.ErrCodeInvalidSnapshot)
		}
		if !e.Category.Valid() {
			return ErrInvalidCategory
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.ReplaceAll(entries); err != nil {
		return internal.NewStorageError("failed to restore activity log", err)
	}

	var max int64
	for _, e := range entries {
		if e.Seq > max {
			max = e.Seq
		}
	}
	s.seq = max
	s.seqLoaded = true

	s.logger.Info("activity log restored", "entries", len(entries))
	return nil
}

// ClearAll empties the ledger. Irreversible; the caller is responsible for
// confirming intent before invoking it.
func (s *Service) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.DeleteAll(); err != nil {
		return internal.NewStorageError("failed to clear activity log", err)
	}

	s.logger.Info("activity log cleared")
	return nil
}

// loadSeqLocked resumes the sequence counter from storage on first use so
// insertion order stays monotonic across restarts. Caller holds s.mu.
func (s *Service) loadSeqLocked() error {
	if s.seqLoaded {
		return nil
	}
	max, err := s.repo.MaxSeq()
	if err != nil {
		return internal.NewStorageError("failed to read activity sequence", err)
	}
	s.seq = max
	s.seqLoaded = true
	return nil
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
