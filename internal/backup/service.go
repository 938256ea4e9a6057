package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/opsboard/backend/internal"
	"github.com/opsboard/backend/internal/activity"
	"github.com/opsboard/backend/internal/authz"
	"github.com/opsboard/backend/internal/core/events"
	"github.com/opsboard/backend/internal/employee"
	"github.com/opsboard/backend/internal/user"
)

// UserStore is the slice of user persistence the backup flow needs.
type UserStore interface {
	List() ([]*user.User, error)
	ReplaceAll(users []*user.User) error
}

type EmployeeStore interface {
	List(includeDismissed bool) ([]*employee.Employee, error)
	ReplaceAll(employees []*employee.Employee) error
}

// Ledger covers reading the full log for a snapshot, restoring it, and
// recording the restore itself.
type Ledger interface {
	Query(filter activity.Filter) ([]*activity.Entry, error)
	Restore(entries []*activity.Entry) error
	Record(in activity.RecordInput) (*activity.Entry, error)
}

type Service struct {
	users     UserStore
	employees EmployeeStore
	ledger    Ledger
	bus       *events.EventBus
	clock     Clock
	logger    *slog.Logger
}

func NewService(users UserStore, employees EmployeeStore, ledger Ledger, bus *events.EventBus, clock Clock, logger *slog.Logger) *Service {
	if clock == nil {
		clock = SystemClock
	}
	return &Service{
		users:     users,
		employees: employees,
		ledger:    ledger,
		bus:       bus,
		clock:     clock,
		logger:    logger,
	}
}

// BuildSnapshot assembles the current full state.
func (s *Service) BuildSnapshot(snapshotType SnapshotType) (*Snapshot, error) {
	if !snapshotType.Valid() {
		return nil, internal.NewValidationError("unknown snapshot type", internal.ErrCodeInvalidSnapshot)
	}

	users, err := s.users.List()
	if err != nil {
		return nil, internal.NewStorageError("failed to read users for snapshot", err)
	}
	employees, err := s.employees.List(true)
	if err != nil {
		return nil, internal.NewStorageError("failed to read employees for snapshot", err)
	}
	entries, err := s.ledger.Query(activity.Filter{})
	if err != nil {
		return nil, err
	}

	records := make([]UserRecord, 0, len(users))
	for _, u := range users {
		records = append(records, toUserRecord(u))
	}

	snap := &Snapshot{
		Timestamp: s.clock.Now().UTC(),
		Type:      snapshotType,
		Data: SnapshotData{
			Users:        records,
			Employees:    employees,
			ActivityLogs: entries,
		},
	}

	s.logger.Info("snapshot built",
		"type", snapshotType,
		"users", len(users),
		"employees", len(employees),
		"activity_entries", len(entries))
	return snap, nil
}

// Export builds a snapshot and serializes it.
func (s *Service) Export(snapshotType SnapshotType) ([]byte, error) {
	snap, err := s.BuildSnapshot(snapshotType)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, internal.NewInternalError("failed to serialize snapshot", err)
	}
	if s.bus != nil {
		_ = s.bus.Publish(context.Background(), events.NewBackupCompletedEvent(string(snapshotType), len(raw)))
	}
	return raw, nil
}

// Restore replaces users, employees and the activity log with the snapshot
// contents. Ledger entries keep their original ids and timestamps; the
// restore itself is then recorded as a fresh system entry attributed to the
// acting superadmin.
func (s *Service) Restore(actor *authz.Subject, raw []byte) error {
	if !authz.IsSuperAdmin(actor) {
		s.logger.Warn("snapshot restore denied", "actor_id", actorID(actor))
		return internal.ErrAccessDenied
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return internal.NewValidationError("malformed snapshot payload", internal.ErrCodeInvalidSnapshot).WithCause(err)
	}
	if !snap.Type.Valid() {
		return internal.NewValidationError("unknown snapshot type", internal.ErrCodeInvalidSnapshot)
	}
	if snap.Timestamp.IsZero() {
		return internal.NewValidationError("snapshot without timestamp", internal.ErrCodeInvalidSnapshot)
	}

	restoredUsers := make([]*user.User, 0, len(snap.Data.Users))
	for _, r := range snap.Data.Users {
		restoredUsers = append(restoredUsers, r.toUser())
	}
	if err := s.users.ReplaceAll(restoredUsers); err != nil {
		return internal.NewStorageError("failed to restore users", err)
	}
	if err := s.employees.ReplaceAll(snap.Data.Employees); err != nil {
		return internal.NewStorageError("failed to restore employees", err)
	}
	if err := s.ledger.Restore(snap.Data.ActivityLogs); err != nil {
		return err
	}

	_, err := s.ledger.Record(activity.RecordInput{
		UserID:   actor.ID,
		UserName: actor.Name,
		Category: activity.CategorySystem,
		Action:   "Restaurar",
		Details:  fmt.Sprintf("Backup de %s restaurado", snap.Timestamp.Format("2006-01-02 15:04")),
	})
	if err != nil {
		s.logger.Error("failed to record snapshot restore in activity log", "error", err)
		return err
	}

	s.logger.Info("snapshot restored",
		"snapshot_timestamp", snap.Timestamp,
		"users", len(snap.Data.Users),
		"employees", len(snap.Data.Employees),
		"activity_entries", len(snap.Data.ActivityLogs))
	return nil
}

// RunAuto is the scheduler entry point: build an auto snapshot and hand it to
// the sink.
func (s *Service) RunAuto(sink SnapshotSink) error {
	raw, err := s.Export(SnapshotAuto)
	if err != nil {
		return err
	}
	return sink.Store(raw)
}

// SnapshotSink receives serialized auto-snapshots.
type SnapshotSink interface {
	Store(raw []byte) error
}

func actorID(actor *authz.Subject) int64 {
	if actor == nil {
		return 0
	}
	return actor.ID
}
