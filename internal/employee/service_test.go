package employee_test

import (
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/opsboard/backend/internal"
	"github.com/opsboard/backend/internal/activity"
	"github.com/opsboard/backend/internal/authz"
	"github.com/opsboard/backend/internal/employee"
)

func TestEmployee(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Employee Module Suite")
}

type mockEmployeeRepository struct {
	employees map[int64]*employee.Employee
	nextID    int64
}

func newMockEmployeeRepository() *mockEmployeeRepository {
	return &mockEmployeeRepository{employees: make(map[int64]*employee.Employee), nextID: 1}
}

func (m *mockEmployeeRepository) Create(e *employee.Employee) error {
	e.ID = m.nextID
	m.nextID++
	copied := *e
	m.employees[e.ID] = &copied
	return nil
}

func (m *mockEmployeeRepository) GetByID(id int64) (*employee.Employee, error) {
	e, ok := m.employees[id]
	if !ok {
		return nil, errors.New("employee not found")
	}
	copied := *e
	return &copied, nil
}

func (m *mockEmployeeRepository) GetByRegistration(registration string) (*employee.Employee, error) {
	for _, e := range m.employees {
		if e.Registration == registration {
			copied := *e
			return &copied, nil
		}
	}
	return nil, errors.New("employee not found")
}

func (m *mockEmployeeRepository) List(includeDismissed bool) ([]*employee.Employee, error) {
	var out []*employee.Employee
	for _, e := range m.employees {
		if !includeDismissed && e.Status == employee.StatusDismissed {
			continue
		}
		copied := *e
		out = append(out, &copied)
	}
	return out, nil
}

func (m *mockEmployeeRepository) Update(e *employee.Employee) error {
	copied := *e
	m.employees[e.ID] = &copied
	return nil
}

func (m *mockEmployeeRepository) ReplaceAll(employees []*employee.Employee) error {
	m.employees = make(map[int64]*employee.Employee)
	for _, e := range employees {
		copied := *e
		m.employees[e.ID] = &copied
	}
	return nil
}

type mockLedger struct {
	recorded    []activity.RecordInput
	recordError error
}

func (m *mockLedger) Record(in activity.RecordInput) (*activity.Entry, error) {
	if m.recordError != nil {
		return nil, m.recordError
	}
	m.recorded = append(m.recorded, in)
	return &activity.Entry{ID: "entry", Category: in.Category, Action: in.Action}, nil
}

func strptr(s string) *string { return &s }

var _ = ginkgo.Describe("Employee Service", func() {
	var (
		repo    *mockEmployeeRepository
		ledger  *mockLedger
		service *employee.Service

		editor *authz.Subject
		viewer *authz.Subject
	)

	validDTO := employee.CreateEmployeeDTO{
		Registration: "R-0042",
		Name:         "Maria Souza",
		Cargo:        "Analista",
		Department:   "Operações",
		Salary:       "4200.50",
		HireDate:     "2024-03-11",
	}

	seed := func() *employee.Employee {
		e, err := service.Create(editor, validDTO)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		ledger.recorded = nil
		return e
	}

	ginkgo.BeforeEach(func() {
		repo = newMockEmployeeRepository()
		ledger = &mockLedger{}
		service = employee.NewService(repo, ledger, nil,
			slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))

		editor = &authz.Subject{ID: 7, Name: "Editora", Role: authz.RoleUser,
			Permissions: authz.PermissionSet{TabGrants: []authz.TabGrant{
				{TabID: employee.TabID, CanView: true, CanEdit: true},
			}}}
		viewer = &authz.Subject{ID: 8, Name: "Leitora", Role: authz.RoleUser,
			Permissions: authz.PermissionSet{TabGrants: []authz.TabGrant{
				{TabID: employee.TabID, CanView: true, CanEdit: false},
			}}}
	})

	ginkgo.Describe("Create", func() {
		ginkgo.It("lets a section editor add to the roster and records it", func() {
			e, err := service.Create(editor, validDTO)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(e.ID).NotTo(gomega.BeZero())
			gomega.Expect(e.Status).To(gomega.Equal(employee.StatusActive))
			gomega.Expect(e.Salary.String()).To(gomega.Equal("4200.5"))

			gomega.Expect(ledger.recorded).To(gomega.HaveLen(1))
			gomega.Expect(ledger.recorded[0].Category).To(gomega.Equal(activity.CategoryData))
			gomega.Expect(ledger.recorded[0].Action).To(gomega.Equal("Criar"))
			gomega.Expect(ledger.recorded[0].UserName).To(gomega.Equal("Editora"))
		})

		ginkgo.It("denies a view-only grant", func() {
			_, err := service.Create(viewer, validDTO)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrAccessDenied))
			gomega.Expect(ledger.recorded).To(gomega.BeEmpty())
		})

		ginkgo.It("rejects a duplicate registration number", func() {
			seed()
			_, err := service.Create(editor, validDTO)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrRegistrationTaken))
		})

		ginkgo.It("rejects a negative salary", func() {
			dto := validDTO
			dto.Registration = "R-0043"
			dto.Salary = "-10"
			_, err := service.Create(editor, dto)
			gomega.Expect(err).To(gomega.HaveOccurred())
		})
	})

	ginkgo.Describe("List and GetByID", func() {
		ginkgo.It("requires section view", func() {
			noAccess := &authz.Subject{ID: 9, Name: "Fora", Role: authz.RoleUser}
			_, err := service.List(noAccess, false)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrAccessDenied))
		})

		ginkgo.It("filters dismissed employees by default", func() {
			e := seed()
			_, err := service.Dismiss(editor, e.ID, employee.DismissEmployeeDTO{Reason: "fim de contrato"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			active, err := service.List(viewer, false)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(active).To(gomega.BeEmpty())

			all, err := service.List(viewer, true)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(all).To(gomega.HaveLen(1))
		})
	})

	ginkgo.Describe("Update", func() {
		ginkgo.It("records one change per modified field", func() {
			e := seed()

			updated, err := service.Update(editor, e.ID, employee.UpdateEmployeeDTO{
				Cargo:  strptr("Coordenadora"),
				Salary: strptr("5000"),
			})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(updated.Cargo).To(gomega.Equal("Coordenadora"))

			gomega.Expect(ledger.recorded).To(gomega.HaveLen(1))
			gomega.Expect(ledger.recorded[0].Action).To(gomega.Equal("Editar"))
			gomega.Expect(ledger.recorded[0].Changes).To(gomega.ConsistOf(
				activity.FieldChange{Field: "cargo", OldValue: "Analista", NewValue: "Coordenadora"},
				activity.FieldChange{Field: "salary", OldValue: "4200.5", NewValue: "5000"},
			))
		})

		ginkgo.It("records nothing for a no-op update", func() {
			e := seed()

			_, err := service.Update(editor, e.ID, employee.UpdateEmployeeDTO{Cargo: strptr("Analista")})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(ledger.recorded).To(gomega.BeEmpty())
		})

		ginkgo.It("denies a view-only grant", func() {
			e := seed()
			_, err := service.Update(viewer, e.ID, employee.UpdateEmployeeDTO{Cargo: strptr("Diretora")})
			gomega.Expect(err).To(gomega.MatchError(internal.ErrAccessDenied))
		})
	})

	ginkgo.Describe("Dismiss", func() {
		ginkgo.It("marks the employee dismissed under the dismissal category", func() {
			e := seed()

			dismissed, err := service.Dismiss(editor, e.ID, employee.DismissEmployeeDTO{Reason: "pedido de demissão"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(dismissed.Status).To(gomega.Equal(employee.StatusDismissed))
			gomega.Expect(dismissed.DismissedAt).NotTo(gomega.BeNil())

			gomega.Expect(ledger.recorded).To(gomega.HaveLen(1))
			gomega.Expect(ledger.recorded[0].Category).To(gomega.Equal(activity.CategoryDismissal))
			gomega.Expect(ledger.recorded[0].Changes).To(gomega.Equal([]activity.FieldChange{
				{Field: "status", OldValue: "active", NewValue: "dismissed"},
			}))
		})

		ginkgo.It("refuses to dismiss twice", func() {
			e := seed()
			_, err := service.Dismiss(editor, e.ID, employee.DismissEmployeeDTO{Reason: "primeira"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			_, err = service.Dismiss(editor, e.ID, employee.DismissEmployeeDTO{Reason: "segunda"})
			gomega.Expect(err).To(gomega.MatchError(internal.ErrAlreadyDismissed))
		})

		ginkgo.It("surfaces a failed audit write", func() {
			e := seed()
			ledger.recordError = errors.New("disk full")

			_, err := service.Dismiss(editor, e.ID, employee.DismissEmployeeDTO{Reason: "falha"})
			gomega.Expect(err).To(gomega.HaveOccurred())
		})
	})
})
