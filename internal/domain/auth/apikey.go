// Package auth holds the API-key identity model used to authorize calls
// into the checkout core.
package auth

import "context"

// Scopes understood by the checkout core.
const (
	ScopeOrders = "orders"
	ScopeAdmin  = "admin"
)

// APIKeyInfo holds the identity and permission data for a validated API key.
type APIKeyInfo struct {
	ID      string
	KeyHash string
	UserID  string
	Name    string
	Scopes  []string
}

// HasScope reports whether the key grants the given scope. Admin keys
// implicitly grant every scope.
func (k *APIKeyInfo) HasScope(scope string) bool {
	for _, s := range k.Scopes {
		if s == scope || s == ScopeAdmin {
			return true
		}
	}
	return false
}

// Repository provides lookup of API keys by their HMAC hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error)
}
