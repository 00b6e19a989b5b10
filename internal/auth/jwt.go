package auth

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer is the iss claim of identity tokens.
const Issuer = "tokenboard"

// Claims are the identity claims carried by a bearer token.
type Claims struct {
	jwt.RegisteredClaims
	Role        Role        `json:"role"`
	CompanyRole CompanyRole `json:"company_role,omitempty"`
	OrgID       string      `json:"org,omitempty"`
}

// Verifier validates ES256 identity tokens.
type Verifier struct {
	publicKey *ecdsa.PublicKey
}

// NewVerifier creates a verifier from a PEM-encoded ECDSA public key.
func NewVerifier(publicKeyPEM string) (*Verifier, error) {
	if publicKeyPEM == "" {
		return nil, errors.New("JWT public key not provided")
	}

	publicKey, err := jwt.ParseECPublicKeyFromPEM([]byte(publicKeyPEM))
	if err != nil {
		return nil, err
	}

	return &Verifier{publicKey: publicKey}, nil
}

// Verify checks the token signature, issuer and expiry and returns the actor it names.
func (v *Verifier) Verify(tokenStr string) (*Actor, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodES256 {
			return nil, errors.New("invalid signing method")
		}
		return v.publicKey, nil
	},
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid claims")
	}

	return claims.actor()
}

func (c *Claims) actor() (*Actor, error) {
	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid sub UUID: %w", err)
	}

	actor := &Actor{
		UserID:      userID,
		Role:        c.Role,
		CompanyRole: c.CompanyRole,
	}

	if c.OrgID != "" {
		actor.OrgID, err = uuid.Parse(c.OrgID)
		if err != nil {
			return nil, fmt.Errorf("invalid org UUID: %w", err)
		}
	}

	if err := actor.Validate(); err != nil {
		return nil, err
	}

	return actor, nil
}
