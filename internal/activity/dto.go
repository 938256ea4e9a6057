package activity

import (
	"time"

	"github.com/opsboard/backend/internal"
)

// RecordInput is what a mutating component supplies; id, timestamp and
// sequence are assigned by the service, never by the caller.
type RecordInput struct {
	UserID   int64         `json:"userId"`
	UserName string        `json:"userName"`
	Category Category      `json:"category"`
	Action   string        `json:"action"`
	Details  string        `json:"details"`
	Changes  []FieldChange `json:"changes,omitempty"`
}

func (in RecordInput) Validate() error {
	if !in.Category.Valid() {
		return ErrInvalidCategory
	}
	if in.Action == "" {
		return ErrEmptyAction
	}
	return nil
}

// QueryDTO carries the raw filter values from the HTTP layer. Dates use the
// dashboard's day granularity; both bounds are inclusive.
type QueryDTO struct {
	FromDate string `json:"fromDate,omitempty"`
	ToDate   string `json:"toDate,omitempty"`
	UserName string `json:"userName,omitempty"`
	Action   string `json:"action,omitempty"`
	Category string `json:"category,omitempty"`
}

const dateLayout = "2006-01-02"

func (q QueryDTO) ToFilter() (Filter, error) {
	filter := Filter{
		UserName: q.UserName,
		Action:   q.Action,
	}

	if q.Category != "" {
		category := Category(q.Category)
		if !category.Valid() {
			return Filter{}, ErrInvalidCategory
		}
		filter.Category = category
	}

	if q.FromDate != "" {
		from, err := time.Parse(dateLayout, q.FromDate)
		if err != nil {
			return Filter{}, internal.NewValidationFieldError("fromDate", "must be YYYY-MM-DD", internal.ErrCodeValidationFailed)
		}
		filter.From = &from
	}

	if q.ToDate != "" {
		to, err := time.Parse(dateLayout, q.ToDate)
		if err != nil {
			return Filter{}, internal.NewValidationFieldError("toDate", "must be YYYY-MM-DD", internal.ErrCodeValidationFailed)
		}
		// inclusive upper bound: the whole of the named day
		end := to.AddDate(0, 0, 1).Add(-time.Nanosecond)
		filter.To = &end
	}

	return filter, nil
}

// ExportPayload is the lossless serialization of a set of entries. Reimport
// reproduces the entries by value, original ids and timestamps included.
type ExportPayload struct {
	ExportedAt time.Time `json:"exportedAt"`
	Entries    []*Entry  `json:"entries"`
}

// Vocabularies are the distinct values present in the full log, used to
// populate filter dropdowns. Derived on demand, never stored.
type Vocabularies struct {
	UserNames  []string   `json:"userNames"`
	Actions    []string   `json:"actions"`
	Categories []Category `json:"categories"`
}
