package backup

import (
	"time"

	"github.com/opsboard/backend/internal/activity"
	"github.com/opsboard/backend/internal/authz"
	"github.com/opsboard/backend/internal/employee"
	"github.com/opsboard/backend/internal/user"
)

type SnapshotType string

const (
	SnapshotAuto   SnapshotType = "auto"
	SnapshotManual SnapshotType = "manual"
)

func (t SnapshotType) Valid() bool {
	return t == SnapshotAuto || t == SnapshotManual
}

// Snapshot is the full-state backup document. Everything needed to rebuild
// the dashboard state lives under Data; restoring it is lossless, including
// ledger ids, timestamps and sequences.
type Snapshot struct {
	Timestamp time.Time    `json:"timestamp"`
	Type      SnapshotType `json:"type"`
	Data      SnapshotData `json:"data"`
}

type SnapshotData struct {
	Users        []UserRecord         `json:"users"`
	Employees    []*employee.Employee `json:"employees"`
	ActivityLogs []*activity.Entry    `json:"activityLogs"`
}

// UserRecord is the snapshot shape of a user. Unlike the API model it
// carries the password hash; without it a restored user could not log in.
type UserRecord struct {
	ID           int64               `json:"id"`
	Email        string              `json:"email"`
	Name         string              `json:"name"`
	PasswordHash string              `json:"passwordHash"`
	Role         authz.Role          `json:"role"`
	Cargo        string              `json:"cargo,omitempty"`
	Blocked      bool                `json:"blocked"`
	Permissions  authz.PermissionSet `json:"permissions"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

func toUserRecord(u *user.User) UserRecord {
	return UserRecord{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		Cargo:        u.Cargo,
		Blocked:      u.Blocked,
		Permissions:  u.Permissions,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (r UserRecord) toUser() *user.User {
	return &user.User{
		ID:           r.ID,
		Email:        r.Email,
		Name:         r.Name,
		PasswordHash: r.PasswordHash,
		Role:         r.Role,
		Cargo:        r.Cargo,
		Blocked:      r.Blocked,
		Permissions:  r.Permissions,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// Clock abstracts time for the scheduler so tests can drive it without
// sleeping.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time                         { return time.Now() }
func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// SystemClock is the production Clock.
var SystemClock Clock = systemClock{}
