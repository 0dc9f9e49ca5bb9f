package auth

import "time"

// Config drives token verification and issuing.
type Config struct {
	Secret   string
	Issuer   string
	TokenTTL time.Duration
}

// IssueRequest identifies the subject of a new access token.
type IssueRequest struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
}

// IssuedToken is a signed bearer token.
type IssuedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Claims are extracted from the JWT token.
type Claims struct {
	UserID    int64
	Email     string
	TokenType string
	ExpiresAt time.Time
}
