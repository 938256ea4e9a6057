package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	userDatamodel "github.com/opsboard/backend/internal/core/datamodel/user"
	"github.com/opsboard/backend/internal/user"
)

// UserRepository implements the user.Repository interface using GORM.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.Repository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(u *user.User) error {
	model := user.ToDataModel(u)
	if err := r.db.Create(model).Error; err != nil {
		return err
	}
	u.ID = model.ID
	return nil
}

func (r *UserRepository) GetByID(id int64) (*user.User, error) {
	var model userDatamodel.User
	err := r.db.Preload("TabPermissions", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}
	return user.FromDataModel(&model), nil
}

func (r *UserRepository) GetByEmail(email string) (*user.User, error) {
	var model userDatamodel.User
	err := r.db.Preload("TabPermissions", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).First(&model, "email = ?", email).Error
	if err != nil {
		return nil, err
	}
	return user.FromDataModel(&model), nil
}

func (r *UserRepository) List() ([]*user.User, error) {
	var models []*userDatamodel.User
	err := r.db.Preload("TabPermissions", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Order("name ASC").Find(&models).Error
	if err != nil {
		return nil, err
	}

	users := make([]*user.User, 0, len(models))
	for _, model := range models {
		users = append(users, user.FromDataModel(model))
	}
	return users, nil
}

// Update saves the user row and replaces its grant list in one transaction
// so a permission edit can never be half-applied.
func (r *UserRepository) Update(u *user.User) error {
	model := user.ToDataModel(u)
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("TabPermissions").Save(modelWithoutGrants(model)).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", u.ID).Delete(&userDatamodel.TabPermission{}).Error; err != nil {
			return err
		}
		if len(model.TabPermissions) == 0 {
			return nil
		}
		grants := make([]userDatamodel.TabPermission, len(model.TabPermissions))
		copy(grants, model.TabPermissions)
		for i := range grants {
			grants[i].ID = 0
			grants[i].UserID = u.ID
		}
		return tx.Create(&grants).Error
	})
}

// ReplaceAll swaps the whole user collection atomically, used by restore.
// Ids are preserved so per-section grants and ledger references stay valid.
func (r *UserRepository) ReplaceAll(users []*user.User) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&userDatamodel.TabPermission{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&userDatamodel.User{}).Error; err != nil {
			return err
		}
		for _, u := range users {
			model := user.ToDataModel(u)
			for i := range model.TabPermissions {
				model.TabPermissions[i].ID = 0
			}
			if err := tx.Create(model).Error; err != nil {
				return err
			}
		}
		return syncIDSequence(tx, "users", "users_id_seq")
	})
}

// syncIDSequence advances a BIGSERIAL sequence past the explicit ids a
// restore inserted; the sequence does not follow them on its own and the
// next Create would otherwise collide with a restored row.
func syncIDSequence(tx *gorm.DB, table, sequence string) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	stmt := fmt.Sprintf(
		"SELECT setval('%s', (SELECT GREATEST(COALESCE(MAX(id), 0), 1) FROM %s))",
		sequence, table)
	return tx.Exec(stmt).Error
}

func modelWithoutGrants(m *userDatamodel.User) *userDatamodel.User {
	clone := *m
	clone.TabPermissions = nil
	return &clone
}
