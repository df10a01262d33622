package identity

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"

	sharedDomain "github.com/iworkr/iworkr-stack-sub004/internal/shared/domain"
)

// Claims carried by access tokens.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.StandardClaims
}

// TokenVerifier verifies HS256 bearer tokens.
type TokenVerifier struct {
	secret []byte
}

// NewTokenVerifier creates a verifier for tokens signed with secret.
func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret)}
}

// Verify parses the token and returns the identity in its subject claim.
func (v *TokenVerifier) Verify(token string) (Identity, error) {
	if len(v.secret) == 0 {
		return Identity{}, errors.Wrap(sharedDomain.ErrUnauthorized, "token verification is not configured")
	}

	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return Identity{}, errors.Wrap(sharedDomain.ErrUnauthorized, err.Error())
	}
	if !parsed.Valid {
		return Identity{}, errors.Wrap(sharedDomain.ErrUnauthorized, "invalid token")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Identity{}, errors.Wrap(sharedDomain.ErrUnauthorized, "token subject is not a user id")
	}

	return Identity{UserID: userID, Email: claims.Email}, nil
}

// Issue signs a token for userID. Used by the CLI's token command and tests.
func (v *TokenVerifier) Issue(userID uuid.UUID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		StandardClaims: jwt.StandardClaims{
			Subject:   userID.String(),
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
