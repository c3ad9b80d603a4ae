package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-api/internal/policy"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	jwt.RegisteredClaims
	Role     string `json:"role"`
	DoctorID string `json:"doctor_id,omitempty"`
}

// IssueToken signs a bearer token carrying the actor's identity, role and
// linked doctor record.
func IssueToken(secret []byte, actor policy.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: string(actor.Role),
	}
	if actor.DoctorID != nil {
		claims.DoctorID = actor.DoctorID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates the token and reconstructs the actor.
func ParseToken(secret []byte, raw string) (policy.Actor, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return policy.Actor{}, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return policy.Actor{}, ErrInvalidToken
	}
	role, ok := policy.ParseRole(claims.Role)
	if !ok {
		return policy.Actor{}, ErrInvalidToken
	}

	actor := policy.Actor{UserID: userID, Role: role}
	if claims.DoctorID != "" {
		doctorID, err := uuid.Parse(claims.DoctorID)
		if err != nil {
			return policy.Actor{}, ErrInvalidToken
		}
		actor.DoctorID = &doctorID
	}
	return actor, nil
}
