package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserRole enumerates the roles understood by the RBAC middleware.
type UserRole string

const (
	RoleAdmin       UserRole = "ADMIN"
	RoleHeadteacher UserRole = "HEADTEACHER"
	RoleTeacher     UserRole = "TEACHER"
)

// User is an account that may authenticate against the API. Teachers carry
// the same ID used by TeacherSubjectAssignment rows.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	FullName     string    `db:"full_name" json:"full_name"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         UserRole  `db:"role" json:"role"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// JWTClaims carries identity inside access tokens.
type JWTClaims struct {
	UserID   string   `json:"uid"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"name"`
	jwt.RegisteredClaims
}

// LoginRequest is the credentials payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserInfo is the public projection of a user returned on login.
type UserInfo struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	Role     UserRole `json:"role"`
}

// LoginResponse carries the issued access token.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	IssuedAt    time.Time `json:"issued_at"`
	User        UserInfo  `json:"user"`
}
