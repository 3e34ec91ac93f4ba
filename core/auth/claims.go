package auth

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/PatelMeet-1/Student-Management-system-sub000/core"
)

// Roles
const (
	RoleAdmin   = "admin"   // -> ADMIN PORTAL
	RoleFaculty = "faculty" // -> FACULTY PORTAL
	RoleStudent = "student" // -> STUDENT PORTAL
)

const audience = "Results"

var (
	Roles = []string{RoleAdmin, RoleFaculty, RoleStudent}

	ErrInvalidRole    = errors.New("invalid role")
	ErrInvalidToken   = errors.New("invalid token")
	ErrRefreshExpired = errors.New("refresh has expired")

	nowFunc = time.Now
)

// Claims represents the authorization claims transmitted via a JWT.
// For students, Subject is the student ID their results are filed under.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Role         string `json:"role"`
}

func (c Claims) IsAdmin() bool   { return c.Role == RoleAdmin }
func (c Claims) IsFaculty() bool { return c.Role == RoleFaculty }
func (c Claims) IsStudent() bool { return c.Role == RoleStudent }

// IsStaff reports whether the claims belong to the admin or faculty portals.
func (c Claims) IsStaff() bool { return c.IsAdmin() || c.IsFaculty() }

func ValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// NewClaims returns the claims of a `role` token issued to `subject`.
// origIat keeps the original issue time across refreshes.
func NewClaims(subject, role string, conf *core.Config, origIat ...int64) (*Claims, error) {
	subject = core.CleanString(subject)
	if subject == "" {
		return nil, core.NewValidationError(nil, core.FieldError{Field: "subject", Error: "this field is required"})
	}
	if !ValidRole(role) {
		return nil, core.NewValidationError(ErrInvalidRole, core.FieldError{Field: "role", Error: ErrInvalidRole.Error()})
	}

	now := nowFunc()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   subject,
			Audience:  audience,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Role:         role,
	}, nil
}

// GenerateToken generates a HS256 signed JWT token string representing the Claims.
func GenerateToken(claims *Claims, secretKey string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// ParseToken verifies a signed token string and returns its Claims.
func ParseToken(tokenStr, secretKey string) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, ErrInvalidToken
		}
		return []byte(secretKey), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Refresh issues new claims for the same subject & role,
// as long as the refresh window started at the original issue time has not elapsed.
func Refresh(claims Claims, conf *core.Config) (*Claims, error) {
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(conf.Server.JWTRefreshExpirationDelta)
	if nowFunc().After(expTime) {
		return nil, ErrRefreshExpired
	}
	return NewClaims(claims.Subject, claims.Role, conf, claims.OrigIssuedAt)
}
