package apiv1

import (
	"errors"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"community-admin/meta"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Admin is an operator account of the back office
type Admin struct {
	meta.BaseResource `json:",inline"`

	// Username is the unique login name
	Username string `gorm:"size:100;not null;unique" json:"username" binding:"required"`

	// Email is the operator's email address
	Email string `gorm:"size:100;not null;unique" json:"email" binding:"required,email"`

	// Password is the bcrypt hash; plain text is accepted on write and hashed by the hooks
	Password string `gorm:"size:100;not null" json:"password,omitempty"`

	// FullName is the operator's display name
	FullName string `gorm:"size:100" json:"full_name,omitempty"`

	// IsActive indicates whether the account may sign in
	IsActive bool `gorm:"default:true" json:"is_active"`
}

// TableName specifies the table name for GORM
func (Admin) TableName() string {
	return "admins"
}

// isHashedPassword checks if a password is already hashed
func isHashedPassword(password string) bool {
	return strings.HasPrefix(password, "$2a$") || strings.HasPrefix(password, "$2b$")
}

// Validate checks the account fields. Kind and APIVersion are filled in by the create hook.
func (a *Admin) Validate() error {
	if a.Username == "" {
		return errors.New("username is required")
	}
	if len(a.Username) < 3 {
		return errors.New("username must be at least 3 characters long")
	}

	if a.Email == "" {
		return errors.New("email is required")
	}
	if !emailRegex.MatchString(a.Email) {
		return errors.New("invalid email format")
	}

	if a.Password == "" {
		return errors.New("password is required")
	}

	return nil
}

// SetPassword hashes and sets the admin's password
func (a *Admin) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.Password = string(hashedPassword)
	return nil
}

// CheckPassword verifies if the provided password matches the stored hash
func (a *Admin) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(a.Password), []byte(password)) == nil
}

// Sanitize drops the password hash before the account is rendered
func (a *Admin) Sanitize() {
	a.Password = ""
}

func (a *Admin) hashPassword() error {
	if a.Password == "" || isHashedPassword(a.Password) {
		return nil
	}
	return a.SetPassword(a.Password)
}

// BeforeCreate is a GORM hook that runs before creating an admin
func (a *Admin) BeforeCreate(tx *gorm.DB) error {
	a.Kind = "Admin"
	a.APIVersion = "v1"
	a.SetStatus("Active", "Admin created successfully", "Created")

	if err := a.Validate(); err != nil {
		return err
	}
	if err := a.hashPassword(); err != nil {
		return err
	}

	return a.BaseResource.BeforeCreate(tx)
}

// BeforeUpdate is a GORM hook that runs before updating an admin
func (a *Admin) BeforeUpdate(tx *gorm.DB) error {
	a.Kind = "Admin"
	a.APIVersion = "v1"
	a.SetStatus("Active", "Admin updated successfully", "Updated")

	if err := a.hashPassword(); err != nil {
		return err
	}

	return a.BaseResource.BeforeUpdate(tx)
}

// BeforeDelete is a GORM hook that runs before deleting an admin
func (a *Admin) BeforeDelete(tx *gorm.DB) error {
	a.SetStatus("Deleted", "Admin deleted successfully", "Deleted")
	return nil
}
