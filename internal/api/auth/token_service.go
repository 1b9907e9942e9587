package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the verified caller extracted from a bearer token.
type Identity struct {
	AuthID string `json:"auth_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// Claims are the claims we read from provider-issued tokens. The auth id
// lives in the standard subject claim.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// TokenService verifies JWTs issued by the external auth provider. Tokens
// are signed HS256 with a secret shared with the provider; when a provider
// URL is configured, tokens that fail local verification get a second
// chance against the provider's userinfo endpoint.
type TokenService struct {
	secretKey   []byte
	providerURL string
	httpClient  *http.Client
}

// NewTokenService creates a token service. providerURL may be empty to
// disable the remote fallback.
func NewTokenService(secretKey, providerURL string, remoteTimeout time.Duration) *TokenService {
	if remoteTimeout <= 0 {
		remoteTimeout = 5 * time.Second
	}
	return &TokenService{
		secretKey:   []byte(secretKey),
		providerURL: strings.TrimRight(providerURL, "/"),
		httpClient:  &http.Client{Timeout: remoteTimeout},
	}
}

// Verify checks the token signature and expiry and returns the caller's
// identity.
func (ts *TokenService) Verify(ctx context.Context, tokenString string) (*Identity, error) {
	identity, err := ts.verifyLocal(tokenString)
	if err == nil {
		return identity, nil
	}
	if ts.providerURL == "" {
		return nil, err
	}
	return ts.verifyRemote(ctx, tokenString)
}

func (ts *TokenService) verifyLocal(tokenString string) (*Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return ts.secretKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token missing subject")
	}

	return &Identity{
		AuthID: claims.Subject,
		Email:  claims.Email,
		Name:   claims.Name,
	}, nil
}

// verifyRemote asks the auth provider directly. Used for token formats the
// shared secret cannot verify, such as provider session tokens.
func (ts *TokenService) verifyRemote(ctx context.Context, tokenString string) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.providerURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tokenString)

	resp, err := ts.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach auth provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth provider rejected token: status %d", resp.StatusCode)
	}

	var payload struct {
		ID           string `json:"id"`
		Email        string `json:"email"`
		UserMetadata struct {
			Name     string `json:"name"`
			FullName string `json:"full_name"`
		} `json:"user_metadata"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo response: %w", err)
	}
	if payload.ID == "" {
		return nil, fmt.Errorf("userinfo response missing user id")
	}

	name := payload.UserMetadata.Name
	if name == "" {
		name = payload.UserMetadata.FullName
	}
	return &Identity{AuthID: payload.ID, Email: payload.Email, Name: name}, nil
}
