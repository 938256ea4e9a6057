package postgres

import (
	"gorm.io/gorm"

	employeeDatamodel "github.com/opsboard/backend/internal/core/datamodel/employee"
	"github.com/opsboard/backend/internal/employee"
)

// EmployeeRepository implements the employee.Repository interface using GORM.
type EmployeeRepository struct {
	db *gorm.DB
}

func NewEmployeeRepository(db *gorm.DB) employee.Repository {
	return &EmployeeRepository{db: db}
}

func (r *EmployeeRepository) Create(e *employee.Employee) error {
	model := employee.ToDataModel(e)
	if err := r.db.Create(model).Error; err != nil {
		return err
	}
	e.ID = model.ID
	return nil
}

func (r *EmployeeRepository) GetByID(id int64) (*employee.Employee, error) {
	var model employeeDatamodel.Employee
	if err := r.db.First(&model, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return employee.FromDataModel(&model), nil
}

func (r *EmployeeRepository) GetByRegistration(registration string) (*employee.Employee, error) {
	var model employeeDatamodel.Employee
	if err := r.db.First(&model, "registration = ?", registration).Error; err != nil {
		return nil, err
	}
	return employee.FromDataModel(&model), nil
}

func (r *EmployeeRepository) List(includeDismissed bool) ([]*employee.Employee, error) {
	query := r.db.Order("name ASC")
	if !includeDismissed {
		query = query.Where("status = ?", string(employee.StatusActive))
	}

	var models []employeeDatamodel.Employee
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	out := make([]*employee.Employee, 0, len(models))
	for i := range models {
		out = append(out, employee.FromDataModel(&models[i]))
	}
	return out, nil
}

func (r *EmployeeRepository) Update(e *employee.Employee) error {
	return r.db.Save(employee.ToDataModel(e)).Error
}

// ReplaceAll swaps the whole roster atomically, used by restore.
func (r *EmployeeRepository) ReplaceAll(employees []*employee.Employee) error {
	models := make([]*employeeDatamodel.Employee, 0, len(employees))
	for _, e := range employees {
		models = append(models, employee.ToDataModel(e))
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&employeeDatamodel.Employee{}).Error; err != nil {
			return err
		}
		if len(models) > 0 {
			if err := tx.CreateInBatches(models, 200).Error; err != nil {
				return err
			}
		}
		// restored rows carry explicit ids the BIGSERIAL sequence knows
		// nothing about; advance it so the next Create does not collide
		if tx.Dialector.Name() == "postgres" {
			return tx.Exec(
				"SELECT setval('employees_id_seq', (SELECT GREATEST(COALESCE(MAX(id), 0), 1) FROM employees))",
			).Error
		}
		return nil
	})
}
