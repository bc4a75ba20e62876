package models

import (
	"time"
)

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleFaculty UserRole = "faculty"
	RoleAdmin   UserRole = "admin"
)

type UserStatus string

const (
	UserActive   UserStatus = "active"
	UserInactive UserStatus = "inactive"
)

type User struct {
	ID       uint       `json:"id" gorm:"primaryKey"`
	Username string     `json:"username" gorm:"uniqueIndex;not null;size:255" validate:"required,min=3,max=255"`
	Email    string     `json:"email" gorm:"uniqueIndex;not null;size:255" validate:"required,email"`
	Password string     `json:"-" gorm:"not null;size:255"`
	Role     UserRole   `json:"role" gorm:"not null;size:50;index" validate:"required,user_role"`
	Status   UserStatus `json:"status" gorm:"not null;default:active;size:50" validate:"omitempty,oneof=active inactive"`

	// Profile info
	Department *string `json:"department" gorm:"size:255"`
	RollNumber *string `json:"roll_number" gorm:"size:255"`
	Program    *string `json:"program" gorm:"size:255"`
	Semester   *string `json:"semester" gorm:"size:255"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Questions []Question `json:"questions,omitempty" gorm:"foreignKey:FacultyID"`
	Exams     []Exam     `json:"exams,omitempty" gorm:"foreignKey:CreatedBy"`
	Results   []Result   `json:"results,omitempty" gorm:"foreignKey:StudentID"`
}

func (User) TableName() string {
	return "users"
}

// PublicUser is the identity projection embedded in exam and result payloads.
type PublicUser struct {
	ID         uint       `json:"id"`
	Username   string     `json:"username"`
	Email      string     `json:"email"`
	Role       UserRole   `json:"role"`
	Status     UserStatus `json:"status"`
	Department *string    `json:"department,omitempty"`
	RollNumber *string    `json:"roll_number,omitempty"`
	Program    *string    `json:"program,omitempty"`
	Semester   *string    `json:"semester,omitempty"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		Role:       u.Role,
		Status:     u.Status,
		Department: u.Department,
		RollNumber: u.RollNumber,
		Program:    u.Program,
		Semester:   u.Semester,
	}
}
