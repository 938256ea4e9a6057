package employee

import (
	"time"

	"github.com/shopspring/decimal"

	datamodel "github.com/opsboard/backend/internal/core/datamodel/employee"
)

// Status of a roster entry. Dismissed employees stay on the roster for the
// audit trail; they are filtered out of the default listing.
type Status string

const (
	StatusActive    Status = "active"
	StatusDismissed Status = "dismissed"
)

type Employee struct {
	ID           int64           `json:"id"`
	Registration string          `json:"registration"`
	Name         string          `json:"name"`
	Cargo        string          `json:"cargo"`
	Department   string          `json:"department"`
	Salary       decimal.Decimal `json:"salary"`
	Status       Status          `json:"status"`
	HireDate     time.Time       `json:"hireDate"`
	DismissedAt  *time.Time      `json:"dismissedAt,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// Repository defines persistence for the roster.
type Repository interface {
	Create(e *Employee) error
	GetByID(id int64) (*Employee, error)
	GetByRegistration(registration string) (*Employee, error)
	List(includeDismissed bool) ([]*Employee, error)
	Update(e *Employee) error
	ReplaceAll(employees []*Employee) error
}

func ToDataModel(e *Employee) *datamodel.Employee {
	return &datamodel.Employee{
		ID:           e.ID,
		Registration: e.Registration,
		Name:         e.Name,
		Cargo:        e.Cargo,
		Department:   e.Department,
		Salary:       e.Salary,
		Status:       string(e.Status),
		HireDate:     e.HireDate,
		DismissedAt:  e.DismissedAt,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func FromDataModel(m *datamodel.Employee) *Employee {
	return &Employee{
		ID:           m.ID,
		Registration: m.Registration,
		Name:         m.Name,
		Cargo:        m.Cargo,
		Department:   m.Department,
		Salary:       m.Salary,
		Status:       Status(m.Status),
		HireDate:     m.HireDate,
		DismissedAt:  m.DismissedAt,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
