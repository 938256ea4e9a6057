package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/opsboard/backend/internal/authz"
	activityDatamodel "github.com/opsboard/backend/internal/core/datamodel/activity"
	employeeDatamodel "github.com/opsboard/backend/internal/core/datamodel/employee"
	userDatamodel "github.com/opsboard/backend/internal/core/datamodel/user"
	"github.com/opsboard/backend/internal/employee"
	employeePostgres "github.com/opsboard/backend/internal/employee/postgres"
	"github.com/opsboard/backend/internal/user"
	userPostgres "github.com/opsboard/backend/internal/user/postgres"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with a superadmin account and sample roster data for development.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		if clearData {
			fmt.Println("Clearing existing data...")
			for _, model := range []interface{}{
				&activityDatamodel.Entry{},
				&userDatamodel.TabPermission{},
				&employeeDatamodel.Employee{},
				&userDatamodel.User{},
			} {
				if err := db.Where("1 = 1").Delete(model).Error; err != nil {
					log.Fatalf("failed to clear data: %v", err)
				}
			}
		}

		userRepo := userPostgres.NewUserRepository(db)
		employeeRepo := employeePostgres.NewEmployeeRepository(db)
		hash, _ := bcrypt.GenerateFromPassword([]byte("password"), cfg.Security.BCryptCost)
		now := time.Now()

		seedUsers := []*user.User{
			{
				Email:        "root@opsboard.local",
				Name:         "Root",
				PasswordHash: string(hash),
				Role:         authz.RoleSuperAdmin,
				CreatedAt:    now,
				UpdatedAt:    now,
			},
			{
				Email:        "gestora@opsboard.local",
				Name:         "Gestora",
				PasswordHash: string(hash),
				Role:         authz.RoleAdmin,
				Cargo:        "Gerente de Operações",
				Permissions:  authz.PermissionSet{CanManageUsers: true},
				CreatedAt:    now,
				UpdatedAt:    now,
			},
			{
				Email:        "analista@opsboard.local",
				Name:         "Analista",
				PasswordHash: string(hash),
				Role:         authz.RoleUser,
				Cargo:        "Analista",
				Permissions: authz.PermissionSet{TabGrants: []authz.TabGrant{
					{TabID: "quadro", CanView: true, CanEdit: false},
				}},
				CreatedAt: now,
				UpdatedAt: now,
			},
		}

		for _, u := range seedUsers {
			if existing, err := userRepo.GetByEmail(u.Email); err == nil && existing != nil {
				fmt.Println("user already exists, skipping:", u.Email)
				continue
			}
			if err := userRepo.Create(u); err != nil {
				log.Fatalf("failed to seed user %s: %v", u.Email, err)
			}
			fmt.Println("seeded user:", u.Email)
		}

		seedEmployees := []*employee.Employee{
			{
				Registration: "R-0001",
				Name:         "Maria Souza",
				Cargo:        "Analista",
				Department:   "Operações",
				Salary:       decimal.NewFromInt(4200),
				Status:       employee.StatusActive,
				HireDate:     time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC),
				CreatedAt:    now,
				UpdatedAt:    now,
			},
			{
				Registration: "R-0002",
				Name:         "João Lima",
				Cargo:        "Coordenador",
				Department:   "Comercial",
				Salary:       decimal.NewFromInt(6800),
				Status:       employee.StatusActive,
				HireDate:     time.Date(2021, 8, 16, 0, 0, 0, 0, time.UTC),
				CreatedAt:    now,
				UpdatedAt:    now,
			},
		}

		for _, e := range seedEmployees {
			if existing, err := employeeRepo.GetByRegistration(e.Registration); err == nil && existing != nil {
				fmt.Println("employee already exists, skipping:", e.Registration)
				continue
			}
			if err := employeeRepo.Create(e); err != nil {
				log.Fatalf("failed to seed employee %s: %v", e.Registration, err)
			}
			fmt.Println("seeded employee:", e.Registration)
		}

		fmt.Println("Seeding complete.")
	},
}
