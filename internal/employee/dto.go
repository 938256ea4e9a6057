package employee

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/opsboard/backend/internal"
	"github.com/opsboard/backend/internal/core/common/validation"
)

type CreateEmployeeDTO struct {
	Registration string `json:"registration" validate:"required,max=32"`
	Name         string `json:"name" validate:"required,max=255"`
	Cargo        string `json:"cargo" validate:"required,max=255"`
	Department   string `json:"department" validate:"max=255"`
	Salary       string `json:"salary" validate:"required"`
	HireDate     string `json:"hireDate" validate:"required"`
}

// UpdateEmployeeDTO carries only the editable fields. Pointers distinguish
// "leave unchanged" from "set to zero value".
type UpdateEmployeeDTO struct {
	Name       *string `json:"name,omitempty" validate:"omitempty,max=255"`
	Cargo      *string `json:"cargo,omitempty" validate:"omitempty,max=255"`
	Department *string `json:"department,omitempty" validate:"omitempty,max=255"`
	Salary     *string `json:"salary,omitempty"`
}

type DismissEmployeeDTO struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

func (d CreateEmployeeDTO) Validate() error { return validation.Struct(d) }

func (d UpdateEmployeeDTO) Validate() error { return validation.Struct(d) }

func (d DismissEmployeeDTO) Validate() error { return validation.Struct(d) }

func parseSalary(raw string) (decimal.Decimal, error) {
	salary, err := decimal.NewFromString(raw)
	if err != nil || salary.IsNegative() {
		return decimal.Zero, internal.NewValidationFieldError("salary", "salary must be a non-negative decimal", internal.ErrCodeInvalidFormat)
	}
	return salary, nil
}

func parseHireDate(raw string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, internal.NewValidationFieldError("hireDate", "hireDate must be YYYY-MM-DD", internal.ErrCodeInvalidFormat)
	}
	return t, nil
}
