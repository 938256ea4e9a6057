package user

import (
	"time"

	"github.com/opsboard/backend/internal/authz"
	userDatamodel "github.com/opsboard/backend/internal/core/datamodel/user"
)

type User struct {
	ID           int64                `json:"id"`
	Email        string               `json:"email"`
	Name         string               `json:"name"`
	PasswordHash string               `json:"-"`
	Role         authz.Role           `json:"role"`
	Cargo        string               `json:"cargo,omitempty"`
	Blocked      bool                 `json:"blocked"`
	Permissions  authz.PermissionSet  `json:"permissions"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// Subject projects the user into the authorization evaluator's input shape.
func (u *User) Subject() *authz.Subject {
	if u == nil {
		return nil
	}
	return &authz.Subject{
		ID:          u.ID,
		Name:        u.Name,
		Role:        u.Role,
		Blocked:     u.Blocked,
		Permissions: u.Permissions,
	}
}

func ToDataModel(u *User) *userDatamodel.User {
	model := &userDatamodel.User{
		ID:              u.ID,
		Email:           u.Email,
		Name:            u.Name,
		PasswordHash:    u.PasswordHash,
		Role:            string(u.Role),
		Cargo:           u.Cargo,
		Blocked:         u.Blocked,
		CanCreateGroups: u.Permissions.CanCreateGroups,
		CanManageUsers:  u.Permissions.CanManageUsers,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
	for i, grant := range u.Permissions.TabGrants {
		model.TabPermissions = append(model.TabPermissions, userDatamodel.TabPermission{
			UserID:   u.ID,
			TabID:    grant.TabID,
			CanView:  grant.CanView,
			CanEdit:  grant.CanEdit,
			Position: i,
		})
	}
	return model
}

func FromDataModel(m *userDatamodel.User) *User {
	u := &User{
		ID:           m.ID,
		Email:        m.Email,
		Name:         m.Name,
		PasswordHash: m.PasswordHash,
		Role:         authz.Role(m.Role),
		Cargo:        m.Cargo,
		Blocked:      m.Blocked,
		Permissions: authz.PermissionSet{
			CanCreateGroups: m.CanCreateGroups,
			CanManageUsers:  m.CanManageUsers,
		},
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	for _, grant := range m.TabPermissions {
		u.Permissions.TabGrants = append(u.Permissions.TabGrants, authz.TabGrant{
			TabID:   grant.TabID,
			CanView: grant.CanView,
			CanEdit: grant.CanEdit,
		})
	}
	return u
}
