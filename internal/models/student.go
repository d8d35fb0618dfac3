package models

import "github.com/golang-jwt/jwt/v5"

// StudentIdentity is the profile resolved at login. Name doubles as the
// numeric student key used by every feed.
type StudentIdentity struct {
	Name           string  `json:"name"`
	ID             string  `json:"id"`
	StudentKey     int64   `json:"student_key"`
	OrganizationID int64   `json:"organization_id"`
	Grade          int64   `json:"grade"`
	Class          int64   `json:"class"`
	Seat           int64   `json:"seat"`
	ChineseScore   float64 `json:"chinese_score"`
	MathScore      float64 `json:"math_score"`
	EnglishScore   float64 `json:"english_score"`
}

// LoginRequest carries the display name / organization id pair.
type LoginRequest struct {
	Name string `json:"name" validate:"required"`
	ID   string `json:"id" validate:"required"`
}

// LoginResponse returns the resolved profile with a session token.
type LoginResponse struct {
	AccessToken string          `json:"access_token"`
	ExpiresIn   int64           `json:"expires_in"`
	Student     StudentIdentity `json:"student"`
}

// StudentClaims is the JWT payload of a student session.
type StudentClaims struct {
	StudentKey     int64  `json:"student_key"`
	Name           string `json:"name"`
	ID             string `json:"id"`
	OrganizationID int64  `json:"organization_id"`
	Grade          int64  `json:"grade"`
	Class          int64  `json:"class"`
	Seat           int64  `json:"seat"`
	jwt.RegisteredClaims
}
