package employee

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/opsboard/backend/internal"
	"github.com/opsboard/backend/internal/activity"
	"github.com/opsboard/backend/internal/authz"
	"github.com/opsboard/backend/internal/core/events"
)

// TabID is the dashboard section the roster lives under.
const TabID = "quadro"

// ActivityRecorder is the slice of the ledger the roster service writes to.
type ActivityRecorder interface {
	Record(in activity.RecordInput) (*activity.Entry, error)
}

type Service struct {
	repo   Repository
	ledger ActivityRecorder
	bus    *events.EventBus
	logger *slog.Logger
}

func NewService(repo Repository, ledger ActivityRecorder, bus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		ledger: ledger,
		bus:    bus,
		logger: logger,
	}
}

func (s *Service) Create(actor *authz.Subject, dto CreateEmployeeDTO) (*Employee, error) {
	if !authz.CanEditSection(actor, TabID) {
		s.logger.Warn("employee create denied", "actor_id", actorID(actor))
		return nil, internal.ErrAccessDenied
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	salary, err := parseSalary(dto.Salary)
	if err != nil {
		return nil, err
	}
	hireDate, err := parseHireDate(dto.HireDate)
	if err != nil {
		return nil, err
	}

	if existing, err := s.repo.GetByRegistration(dto.Registration); err == nil && existing != nil {
		return nil, internal.ErrRegistrationTaken
	}

	now := time.Now()
	e := &Employee{
		Registration: dto.Registration,
		Name:         dto.Name,
		Cargo:        dto.Cargo,
		Department:   dto.Department,
		Salary:       salary,
		Status:       StatusActive,
		HireDate:     hireDate,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(e); err != nil {
		s.logger.Error("failed to create employee", "error", err, "registration", dto.Registration)
		return nil, internal.NewStorageError("failed to create employee", err)
	}

	if err := s.audit(actor, activity.CategoryData, "Criar",
		fmt.Sprintf("Funcionário %s adicionado ao quadro", e.Name), nil); err != nil {
		return nil, err
	}

	s.publish(e.ID, "create")
	s.logger.Info("employee created", "employee_id", e.ID, "actor_id", actorID(actor))
	return e, nil
}

func (s *Service) GetByID(actor *authz.Subject, id int64) (*Employee, error) {
	if !authz.CanAccessTab(actor, TabID) {
		return nil, internal.ErrAccessDenied
	}
	e, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.ErrEmployeeNotFound
	}
	return e, nil
}

func (s *Service) List(actor *authz.Subject, includeDismissed bool) ([]*Employee, error) {
	if !authz.CanAccessTab(actor, TabID) {
		return nil, internal.ErrAccessDenied
	}
	list, err := s.repo.List(includeDismissed)
	if err != nil {
		return nil, internal.NewStorageError("failed to list employees", err)
	}
	return list, nil
}

// Update applies the provided fields and records a single ledger entry with
// one change per modified field. A no-op update records nothing.
func (s *Service) Update(actor *authz.Subject, id int64, dto UpdateEmployeeDTO) (*Employee, error) {
	if !authz.CanEditSection(actor, TabID) {
		s.logger.Warn("employee update denied", "actor_id", actorID(actor), "employee_id", id)
		return nil, internal.ErrAccessDenied
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	e, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.ErrEmployeeNotFound
	}

	var changes []activity.FieldChange
	if dto.Name != nil && *dto.Name != e.Name {
		changes = append(changes, activity.FieldChange{Field: "name", OldValue: e.Name, NewValue: *dto.Name})
		e.Name = *dto.Name
	}
	if dto.Cargo != nil && *dto.Cargo != e.Cargo {
		changes = append(changes, activity.FieldChange{Field: "cargo", OldValue: e.Cargo, NewValue: *dto.Cargo})
		e.Cargo = *dto.Cargo
	}
	if dto.Department != nil && *dto.Department != e.Department {
		changes = append(changes, activity.FieldChange{Field: "department", OldValue: e.Department, NewValue: *dto.Department})
		e.Department = *dto.Department
	}
	if dto.Salary != nil {
		salary, err := parseSalary(*dto.Salary)
		if err != nil {
			return nil, err
		}
		if !salary.Equal(e.Salary) {
			changes = append(changes, activity.FieldChange{Field: "salary", OldValue: e.Salary.String(), NewValue: salary.String()})
			e.Salary = salary
		}
	}

	if len(changes) == 0 {
		return e, nil
	}

	e.UpdatedAt = time.Now()
	if err := s.repo.Update(e); err != nil {
		s.logger.Error("failed to update employee", "error", err, "employee_id", id)
		return nil, internal.NewStorageError("failed to update employee", err)
	}

	if err := s.audit(actor, activity.CategoryData, "Editar",
		fmt.Sprintf("Funcionário %s atualizado", e.Name), changes); err != nil {
		return nil, err
	}

	s.publish(e.ID, "update")
	return e, nil
}

// Dismiss marks the employee dismissed and records the mutation under the
// dismissal category.
func (s *Service) Dismiss(actor *authz.Subject, id int64, dto DismissEmployeeDTO) (*Employee, error) {
	if !authz.CanEditSection(actor, TabID) {
		s.logger.Warn("employee dismissal denied", "actor_id", actorID(actor), "employee_id", id)
		return nil, internal.ErrAccessDenied
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	e, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.ErrEmployeeNotFound
	}
	if e.Status == StatusDismissed {
		return nil, internal.ErrAlreadyDismissed
	}

	now := time.Now()
	e.Status = StatusDismissed
	e.DismissedAt = &now
	e.UpdatedAt = now
	if err := s.repo.Update(e); err != nil {
		s.logger.Error("failed to dismiss employee", "error", err, "employee_id", id)
		return nil, internal.NewStorageError("failed to dismiss employee", err)
	}

	changes := []activity.FieldChange{
		{Field: "status", OldValue: string(StatusActive), NewValue: string(StatusDismissed)},
	}
	if err := s.audit(actor, activity.CategoryDismissal, "Desligar",
		fmt.Sprintf("Funcionário %s desligado: %s", e.Name, dto.Reason), changes); err != nil {
		return nil, err
	}

	s.publish(e.ID, "dismiss")
	s.logger.Info("employee dismissed", "employee_id", e.ID, "actor_id", actorID(actor))
	return e, nil
}

func (s *Service) audit(actor *authz.Subject, category activity.Category, action, details string, changes []activity.FieldChange) error {
	_, err := s.ledger.Record(activity.RecordInput{
		UserID:   actorID(actor),
		UserName: actorName(actor),
		Category: category,
		Action:   action,
		Details:  details,
		Changes:  changes,
	})
	if err != nil {
		s.logger.Error("failed to record roster mutation in activity log", "action", action, "error", err)
	}
	return err
}

func (s *Service) publish(employeeID int64, operation string) {
	if s.bus != nil {
		_ = s.bus.Publish(context.Background(), events.NewEmployeeUpdatedEvent(employeeID, operation))
	}
}

func actorID(actor *authz.Subject) int64 {
	if actor == nil {
		return 0
	}
	return actor.ID
}

func actorName(actor *authz.Subject) string {
	if actor == nil {
		return ""
	}
	return actor.Name
}
