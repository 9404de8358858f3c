package hubclient

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Auth modes understood by the client.
const (
	AuthBearer   = "bearer"
	AuthInternal = "internal"
	AuthJWT      = "jwt"
)

// HeaderInternalToken carries the shared token in internal mode.
const HeaderInternalToken = "X-Internal-Token"

const (
	jwtIssuer   = "lotuspetal-gateway"
	jwtLifetime = 60 * time.Second
)

// authenticator sets the hub credential on outgoing requests.
type authenticator struct {
	mode  string
	token string
	now   func() time.Time
}

func (a authenticator) apply(req *http.Request, tenant string) error {
	if a.token == "" {
		return nil
	}

	switch a.mode {
	case AuthInternal:
		req.Header.Set(HeaderInternalToken, a.token)
	case AuthJWT:
		signed, err := a.sign(tenant)
		if err != nil {
			return fmt.Errorf("sign hub token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+signed)
	default:
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	return nil
}

// sign issues a short-lived HS256 token keyed by the shared secret.
func (a authenticator) sign(tenant string) (string, error) {
	subject := tenant
	if subject == "" {
		subject = "*"
	}

	now := a.now()
	claims := jwt.RegisteredClaims{
		Issuer:    jwtIssuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(jwtLifetime)),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(a.token))
}
