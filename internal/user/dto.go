package user

import (
	"github.com/opsboard/backend/internal"
	"github.com/opsboard/backend/internal/authz"
	"github.com/opsboard/backend/internal/core/common/validation"
)

type CreateUserDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,min=1,max=120"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"required,oneof=superadmin admin user"`
	Cargo    string `json:"cargo,omitempty" validate:"max=120"`
}

func (dto CreateUserDTO) Validate() error {
	if err := validation.Struct(dto); err != nil {
		return err
	}
	return nil
}

type SetRoleDTO struct {
	Role string `json:"role" validate:"required,oneof=superadmin admin user"`
}

func (dto SetRoleDTO) Validate() error {
	if err := validation.Struct(dto); err != nil {
		return err
	}
	if !authz.ValidRole(authz.Role(dto.Role)) {
		return internal.NewValidationError("unknown role", internal.ErrCodeInvalidRole)
	}
	return nil
}

type SetBlockedDTO struct {
	Blocked bool `json:"blocked"`
}

type TabGrantDTO struct {
	TabID   string `json:"tabId" validate:"required,min=1,max=64"`
	CanView bool   `json:"canView"`
	CanEdit bool   `json:"canEdit"`
}

type UpdatePermissionsDTO struct {
	CanCreateGroups bool          `json:"canCreateGroups"`
	CanManageUsers  bool          `json:"canManageUsers"`
	TabPermissions  []TabGrantDTO `json:"tabPermissions" validate:"dive"`
}

func (dto UpdatePermissionsDTO) Validate() error {
	if err := validation.Struct(dto); err != nil {
		return err
	}
	return nil
}

func (dto UpdatePermissionsDTO) ToPermissionSet() authz.PermissionSet {
	set := authz.PermissionSet{
		CanCreateGroups: dto.CanCreateGroups,
		CanManageUsers:  dto.CanManageUsers,
	}
	for _, grant := range dto.TabPermissions {
		set.TabGrants = append(set.TabGrants, authz.TabGrant{
			TabID:   grant.TabID,
			CanView: grant.CanView,
			CanEdit: grant.CanEdit,
		})
	}
	return set
}
