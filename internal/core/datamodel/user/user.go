package user

import "time"

type User struct {
	ID              int64     `gorm:"primaryKey"`
	Email           string    `gorm:"column:email;uniqueIndex;not null"`
	Name            string    `gorm:"column:name;not null"`
	PasswordHash    string    `gorm:"column:password_hash;not null"`
	Role            string    `gorm:"column:role;size:32;not null;default:user"`
	Cargo           string    `gorm:"column:cargo"`
	Blocked         bool      `gorm:"column:blocked;default:false"`
	CanCreateGroups bool      `gorm:"column:can_create_groups;default:false"`
	CanManageUsers  bool      `gorm:"column:can_manage_users;default:false"`
	CreatedAt       time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt       time.Time `gorm:"column:updated_at;default:now()"`

	TabPermissions []TabPermission `gorm:"foreignKey:UserID"`
}

func (User) TableName() string {
	return "users"
}

// TabPermission is one per-section grant. Position preserves the order the
// grants were defined in, which matters because lookups are first-match.
type TabPermission struct {
	ID       int64  `gorm:"primaryKey"`
	UserID   int64  `gorm:"column:user_id;not null;index"`
	TabID    string `gorm:"column:tab_id;size:64;not null"`
	CanView  bool   `gorm:"column:can_view;default:false"`
	CanEdit  bool   `gorm:"column:can_edit;default:false"`
	Position int    `gorm:"column:position;not null;default:0"`
}

func (TabPermission) TableName() string {
	return "user_tab_permissions"
}
