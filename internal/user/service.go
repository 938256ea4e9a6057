package user

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/opsboard/backend/internal"
	"github.com/opsboard/backend/internal/activity"
	"github.com/opsboard/backend/internal/authz"
	"github.com/opsboard/backend/internal/core/events"
)

type Repository interface {
	Create(u *User) error
	GetByID(id int64) (*User, error)
	GetByEmail(email string) (*User, error)
	List() ([]*User, error)
	Update(u *User) error
	ReplaceAll(users []*User) error
}

// ActivityRecorder is the ledger's write port. Every user mutation leaves an
// entry here; a failed audit write is reported to the caller, not dropped.
type ActivityRecorder interface {
	Record(in activity.RecordInput) (*activity.Entry, error)
}

type Service struct {
	repo       Repository
	ledger     ActivityRecorder
	bus        *events.EventBus
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo Repository, ledger ActivityRecorder, bus *events.EventBus, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		ledger:     ledger,
		bus:        bus,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Create registers a new user. Only actors with the manage-users capability
// may do this, and only superadmins may mint another superadmin.
func (s *Service) Create(actor *authz.Subject, dto CreateUserDTO) (*User, error) {
	if !authz.CanManageUsers(actor) {
		s.logger.Warn("create user denied", "actor_id", actorID(actor))
		return nil, internal.ErrAccessDenied
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	role := authz.Role(dto.Role)
	if role == authz.RoleSuperAdmin && !authz.IsSuperAdmin(actor) {
		s.logger.Warn("superadmin grant denied", "actor_id", actorID(actor))
		return nil, internal.ErrAccessDenied
	}

	if existing, err := s.repo.GetByEmail(dto.Email); err == nil && existing != nil {
		return nil, internal.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	now := time.Now()
	u := &User{
		Email:        dto.Email,
		Name:         dto.Name,
		PasswordHash: string(hash),
		Role:         role,
		Cargo:        dto.Cargo,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(u); err != nil {
		s.logger.Error("failed to create user", "error", err, "email", dto.Email)
		return nil, internal.NewStorageError("failed to create user", err)
	}

	if err := s.audit(actor, "Criar", fmt.Sprintf("Usuário %s criado", u.Name), nil); err != nil {
		return nil, err
	}

	s.publish(u.ID, "create")
	s.logger.Info("user created", "user_id", u.ID, "role", u.Role, "actor_id", actorID(actor))
	return u, nil
}

func (s *Service) GetByID(id int64) (*User, error) {
	u, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.ErrUserNotFound
	}
	return u, nil
}

func (s *Service) List(actor *authz.Subject) ([]*User, error) {
	if !authz.CanManageUsers(actor) {
		return nil, internal.ErrAccessDenied
	}
	users, err := s.repo.List()
	if err != nil {
		return nil, internal.NewStorageError("failed to list users", err)
	}
	return users, nil
}

// SetRole promotes or demotes a user. Touching the superadmin tier in either
// direction is reserved to superadmins.
func (s *Service) SetRole(actor *authz.Subject, userID int64, dto SetRoleDTO) (*User, error) {
	if !authz.CanManageUsers(actor) {
		return nil, internal.ErrAccessDenied
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	u, err := s.repo.GetByID(userID)
	if err != nil {
		return nil, internal.ErrUserNotFound
	}

	newRole := authz.Role(dto.Role)
	if (newRole == authz.RoleSuperAdmin || u.Role == authz.RoleSuperAdmin) && !authz.IsSuperAdmin(actor) {
		s.logger.Warn("superadmin role change denied", "actor_id", actorID(actor), "user_id", userID)
		return nil, internal.ErrAccessDenied
	}
	if u.Role == newRole {
		return u, nil
	}

	oldRole := u.Role
	u.Role = newRole
	u.UpdatedAt = time.Now()

	if err := s.repo.Update(u); err != nil {
		return nil, internal.NewStorageError("failed to update user role", err)
	}

	action := "Promover"
	if rank(newRole) < rank(oldRole) {
		action = "Rebaixar"
	}
	changes := []activity.FieldChange{{Field: "role", OldValue: string(oldRole), NewValue: string(newRole)}}
	if err := s.audit(actor, action, fmt.Sprintf("Papel de %s alterado", u.Name), changes); err != nil {
		return nil, err
	}

	s.publish(u.ID, "role")
	return u, nil
}

// SetBlocked blocks or unblocks a user. A blocked user keeps their record
// and history but loses every capability until unblocked.
func (s *Service) SetBlocked(actor *authz.Subject, userID int64, blocked bool) (*User, error) {
	if !authz.CanManageUsers(actor) {
		return nil, internal.ErrAccessDenied
	}
	if actor != nil && actor.ID == userID && blocked {
		return nil, internal.NewValidationError("cannot block your own account", internal.ErrCodeValidationFailed)
	}

	u, err := s.repo.GetByID(userID)
	if err != nil {
		return nil, internal.ErrUserNotFound
	}
	if u.Role == authz.RoleSuperAdmin && !authz.IsSuperAdmin(actor) {
		return nil, internal.ErrAccessDenied
	}
	if u.Blocked == blocked {
		return u, nil
	}

	u.Blocked = blocked
	u.UpdatedAt = time.Now()

	if err := s.repo.Update(u); err != nil {
		return nil, internal.NewStorageError("failed to update user", err)
	}

	action := "Bloquear"
	details := fmt.Sprintf("Usuário %s bloqueado", u.Name)
	if !blocked {
		action = "Desbloquear"
		details = fmt.Sprintf("Usuário %s desbloqueado", u.Name)
	}
	changes := []activity.FieldChange{{
		Field:    "blocked",
		OldValue: fmt.Sprintf("%t", !blocked),
		NewValue: fmt.Sprintf("%t", blocked),
	}}
	if err := s.audit(actor, action, details, changes); err != nil {
		return nil, err
	}

	s.publish(u.ID, "blocked")
	return u, nil
}

// UpdatePermissions replaces the user's permission set wholesale, preserving
// grant order as submitted.
func (s *Service) UpdatePermissions(actor *authz.Subject, userID int64, dto UpdatePermissionsDTO) (*User, error) {
	if !authz.CanManageUsers(actor) {
		return nil, internal.ErrAccessDenied
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	u, err := s.repo.GetByID(userID)
	if err != nil {
		return nil, internal.ErrUserNotFound
	}

	changes := diffPermissions(u.Permissions, dto.ToPermissionSet())
	u.Permissions = dto.ToPermissionSet()
	u.UpdatedAt = time.Now()

	if err := s.repo.Update(u); err != nil {
		return nil, internal.NewStorageError("failed to update permissions", err)
	}

	if err := s.audit(actor, "Editar permissões", fmt.Sprintf("Permissões de %s atualizadas", u.Name), changes); err != nil {
		return nil, err
	}

	s.publish(u.ID, "permissions")
	return u, nil
}

func (s *Service) audit(actor *authz.Subject, action, details string, changes []activity.FieldChange) error {
	_, err := s.ledger.Record(activity.RecordInput{
		UserID:   actorID(actor),
		UserName: actorName(actor),
		Category: activity.CategoryUser,
		Action:   action,
		Details:  details,
		Changes:  changes,
	})
	if err != nil {
		s.logger.Error("failed to record user mutation in activity log", "action", action, "error", err)
	}
	return err
}

func (s *Service) publish(userID int64, operation string) {
	if s.bus != nil {
		_ = s.bus.Publish(context.Background(), events.NewUserUpdatedEvent(userID, operation))
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

func rank(r authz.Role) int {
	switch r {
	case authz.RoleSuperAdmin:
		return 2
	case authz.RoleAdmin:
		return 1
	default:
		return 0
	}
}

// diffPermissions renders a field-level change list for the audit trail.
func diffPermissions(old, next authz.PermissionSet) []activity.FieldChange {
	var changes []activity.FieldChange
	if old.CanCreateGroups != next.CanCreateGroups {
		changes = append(changes, activity.FieldChange{
			Field:    "canCreateGroups",
			OldValue: fmt.Sprintf("%t", old.CanCreateGroups),
			NewValue: fmt.Sprintf("%t", next.CanCreateGroups),
		})
	}
	if old.CanManageUsers != next.CanManageUsers {
		changes = append(changes, activity.FieldChange{
			Field:    "canManageUsers",
			OldValue: fmt.Sprintf("%t", old.CanManageUsers),
			NewValue: fmt.Sprintf("%t", next.CanManageUsers),
		})
	}

	oldGrants := map[string]authz.TabGrant{}
	for _, g := range old.TabGrants {
		if _, seen := oldGrants[g.TabID]; !seen {
			oldGrants[g.TabID] = g
		}
	}
	for _, g := range next.TabGrants {
		prev, existed := oldGrants[g.TabID]
		if !existed {
			changes = append(changes, activity.FieldChange{
				Field:    g.TabID,
				OldValue: "sem acesso",
				NewValue: grantLabel(g),
			})
			continue
		}
		if prev.CanView != g.CanView || prev.CanEdit != g.CanEdit {
			changes = append(changes, activity.FieldChange{
				Field:    g.TabID,
				OldValue: grantLabel(prev),
				NewValue: grantLabel(g),
			})
		}
		delete(oldGrants, g.TabID)
	}
	// grants present before and absent now
	for _, g := range old.TabGrants {
		if _, removed := oldGrants[g.TabID]; removed {
			changes = append(changes, activity.FieldChange{
				Field:    g.TabID,
				OldValue: grantLabel(g),
				NewValue: "sem acesso",
			})
			delete(oldGrants, g.TabID)
		}
	}
	return changes
}

func grantLabel(g authz.TabGrant) string {
	switch {
	case g.CanEdit:
		return "visualizar e editar"
	case g.CanView:
		return "visualizar"
	default:
		return "sem acesso"
	}
}
