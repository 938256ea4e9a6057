package postgres_test

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	employeeDatamodel "github.com/opsboard/backend/internal/core/datamodel/employee"
	"github.com/opsboard/backend/internal/employee"
	employeePostgres "github.com/opsboard/backend/internal/employee/postgres"
)

func TestEmployeePostgres(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Employee Postgres Suite")
}

var _ = Describe("Employee Repository", func() {
	var (
		db   *gorm.DB
		repo employee.Repository
	)

	roster := func(id int64, registration, name string) *employee.Employee {
		return &employee.Employee{
			ID:           id,
			Registration: registration,
			Name:         name,
			Cargo:        "Analista",
			Department:   "Operações",
			Salary:       decimal.NewFromInt(4200),
			Status:       employee.StatusActive,
			HireDate:     time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC),
			CreatedAt:    time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
			UpdatedAt:    time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
		}
	}

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(db.AutoMigrate(&employeeDatamodel.Employee{})).To(Succeed())

		repo = employeePostgres.NewEmployeeRepository(db)
	})

	Describe("ReplaceAll", func() {
		It("swaps the roster keeping restored ids", func() {
			Expect(repo.Create(roster(0, "R-0001", "Maria Souza"))).To(Succeed())

			Expect(repo.ReplaceAll([]*employee.Employee{
				roster(30, "R-0030", "Carla Dias"),
				roster(31, "R-0031", "Pedro Alves"),
			})).To(Succeed())

			list, err := repo.List(true)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(2))

			got, err := repo.GetByID(30)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Registration).To(Equal("R-0030"))
		})

		It("accepts an empty replacement set", func() {
			Expect(repo.Create(roster(0, "R-0001", "Maria Souza"))).To(Succeed())

			Expect(repo.ReplaceAll(nil)).To(Succeed())

			list, err := repo.List(true)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(BeEmpty())
		})

		It("hands out fresh non-colliding ids to employees created after a restore", func() {
			Expect(repo.ReplaceAll([]*employee.Employee{
				roster(42, "R-0042", "Carla Dias"),
			})).To(Succeed())

			created := roster(0, "R-0050", "Novo Contratado")
			Expect(repo.Create(created)).To(Succeed())
			Expect(created.ID).To(BeNumerically(">", 42))

			kept, err := repo.GetByID(42)
			Expect(err).NotTo(HaveOccurred())
			Expect(kept.Registration).To(Equal("R-0042"))
		})
	})
})
