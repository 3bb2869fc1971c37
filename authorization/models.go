// Package authorization provides user accounts, role lookup and the JWT
// middleware guarding authenticated endpoints.
package authorization

import "time"

// Role groups users under a named permission set.
type Role struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	Status      string    `gorm:"size:20;not null;default:'active'" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName pins the storage table for Role rows.
func (Role) TableName() string {
	return "roles"
}

// User is one account. The password column stores a bcrypt hash and never
// serializes into responses; RoleName is resolved from the role table for
// presentation.
type User struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:100;not null;uniqueIndex" json:"username"`
	Email     string    `gorm:"size:100;not null;uniqueIndex" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	RoleID    *uint64   `gorm:"index" json:"role_id,omitempty"`
	Status    string    `gorm:"size:20;not null;default:'active'" json:"status"`
	RoleName  string    `gorm:"-" json:"role_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName pins the storage table for User rows.
func (User) TableName() string {
	return "users"
}
