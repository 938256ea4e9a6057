package employee

import (
	"time"

	"github.com/shopspring/decimal"
)

type Employee struct {
	ID           int64           `gorm:"primaryKey"`
	Registration string          `gorm:"column:registration;size:32;uniqueIndex;not null"`
	Name         string          `gorm:"column:name;not null"`
	Cargo        string          `gorm:"column:cargo"`
	Department   string          `gorm:"column:department"`
	Salary       decimal.Decimal `gorm:"column:salary;type:decimal(14,2);not null"`
	Status       string          `gorm:"column:status;size:16;not null;default:active"`
	HireDate     time.Time       `gorm:"column:hire_date"`
	DismissedAt  *time.Time      `gorm:"column:dismissed_at"`
	CreatedAt    time.Time       `gorm:"column:created_at;default:now()"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;default:now()"`
}

func (Employee) TableName() string {
	return "employees"
}
