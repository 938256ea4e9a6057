// Package activity is the append-only record of who did what, when, and what
// changed. Entries are written by the components performing a mutation and
// never edited in place; the only destructive operations are a full clear and
// a restore from a previously exported snapshot.
package activity

import (
	"time"

	"github.com/opsboard/backend/internal"
	activityDatamodel "github.com/opsboard/backend/internal/core/datamodel/activity"
)

type Category string

const (
	CategoryData      Category = "data"
	CategoryTraining  Category = "training"
	CategoryDismissal Category = "dismissal"
	CategoryUser      Category = "user"
	CategoryDocument  Category = "document"
	CategoryChat      Category = "chat"
	CategoryAgenda    Category = "agenda"
	CategoryExport    Category = "export"
	CategorySystem    Category = "system"
)

var categories = map[Category]struct{}{
	CategoryData:      {},
	CategoryTraining:  {},
	CategoryDismissal: {},
	CategoryUser:      {},
	CategoryDocument:  {},
	CategoryChat:      {},
	CategoryAgenda:    {},
	CategoryExport:    {},
	CategorySystem:    {},
}

func (c Category) Valid() bool {
	_, ok := categories[c]
	return ok
}

// Categories returns the fixed category vocabulary in a stable order.
func Categories() []Category {
	return []Category{
		CategoryData, CategoryTraining, CategoryDismissal, CategoryUser,
		CategoryDocument, CategoryChat, CategoryAgenda, CategoryExport,
		CategorySystem,
	}
}

// FieldChange is one field-level diff attached to an entry, already rendered
// as display strings by the component that performed the mutation.
type FieldChange struct {
	Field    string `json:"field"`
	OldValue string `json:"oldValue"`
	NewValue string `json:"newValue"`
}

// Entry is one immutable ledger record. Seq is a per-process monotonic
// counter persisted with the entry so that same-millisecond writes keep
// their insertion order across reads, restarts and export round trips.
type Entry struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Seq       int64         `json:"seq"`
	UserID    int64         `json:"userId"`
	UserName  string        `json:"userName"`
	Category  Category      `json:"category"`
	Action    string        `json:"action"`
	Details   string        `json:"details"`
	Changes   []FieldChange `json:"changes,omitempty"`
}

// Filter narrows a query. Zero values mean "no constraint"; populated fields
// combine with logical AND. From and To are inclusive on the entry timestamp.
type Filter struct {
	From     *time.Time
	To       *time.Time
	UserName string
	Action   string
	Category Category
}

func (f Filter) Matches(e *Entry) bool {
	if f.From != nil && e.Timestamp.Before(*f.From) {
		return false
	}
	if f.To != nil && e.Timestamp.After(*f.To) {
		return false
	}
	if f.UserName != "" && e.UserName != f.UserName {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	return true
}

// Repository is the ledger's storage port. List returns entries in canonical
// order: most recent first, same-timestamp ties broken by descending Seq.
type Repository interface {
	Append(entry *Entry) error
	List(filter Filter) ([]*Entry, error)
	ReplaceAll(entries []*Entry) error
	DeleteAll() error
	MaxSeq() (int64, error)
	Count() (int64, error)
}

var (
	ErrInvalidCategory = internal.NewValidationError("unknown activity category", internal.ErrCodeInvalidCategory)
	ErrEmptyAction     = internal.NewValidationError("action label must not be empty", internal.ErrCodeInvalidAction)
)

func ToDataModel(e *Entry) (*activityDatamodel.Entry, error) {
	changes, err := activityDatamodel.EncodeChanges(changesToDatamodel(e.Changes))
	if err != nil {
		return nil, err
	}
	return &activityDatamodel.Entry{
		ID:        e.ID,
		Timestamp: e.Timestamp,
		Seq:       e.Seq,
		UserID:    e.UserID,
		UserName:  e.UserName,
		Category:  string(e.Category),
		Action:    e.Action,
		Details:   e.Details,
		Changes:   changes,
	}, nil
}

func FromDataModel(m *activityDatamodel.Entry) (*Entry, error) {
	decoded, err := activityDatamodel.DecodeChanges(m.Changes)
	if err != nil {
		return nil, err
	}
	return &Entry{
		ID:        m.ID,
		Timestamp: m.Timestamp,
		Seq:       m.Seq,
		UserID:    m.UserID,
		UserName:  m.UserName,
		Category:  Category(m.Category),
		Action:    m.Action,
		Details:   m.Details,
		Changes:   changesFromDatamodel(decoded),
	}, nil
}

func changesToDatamodel(changes []FieldChange) []activityDatamodel.FieldChange {
	if len(changes) == 0 {
		return nil
	}
	out := make([]activityDatamodel.FieldChange, len(changes))
	for i, c := range changes {
		out[i] = activityDatamodel.FieldChange{Field: c.Field, OldValue: c.OldValue, NewValue: c.NewValue}
	}
	return out
}

func changesFromDatamodel(changes []activityDatamodel.FieldChange) []FieldChange {
	if len(changes) == 0 {
		return nil
	}
	out := make([]FieldChange, len(changes))
	for i, c := range changes {
		out[i] = FieldChange{Field: c.Field, OldValue: c.OldValue, NewValue: c.NewValue}
	}
	return out
}
