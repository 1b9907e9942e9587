package auth

import (
	"github.com/labstack/echo/v4"
)

// GetIdentity extracts the verified identity from echo context. Returns nil
// when the request is anonymous.
func GetIdentity(c echo.Context) *Identity {
	v := c.Get(string(IdentityContextKey))
	if v == nil {
		return nil
	}
	identity, ok := v.(*Identity)
	if !ok {
		return nil
	}
	return identity
}

// AuthID returns the caller's auth id, or "" for anonymous requests.
func AuthID(c echo.Context) string {
	identity := GetIdentity(c)
	if identity == nil {
		return ""
	}
	return identity.AuthID
}
