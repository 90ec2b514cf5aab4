package auth

import (
	"context"

	"greenmag/domain"
)

const (
	identityKey privateKey = "identity"
)

type privateKey string

// SetIdentity returns a copy of ctx carrying the caller's identity.
func SetIdentity(ctx context.Context, ident *domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, ident)
}

// GetIdentity returns the caller's identity, or nil for anonymous callers.
func GetIdentity(ctx context.Context) *domain.Identity {
	if temp := ctx.Value(identityKey); temp != nil {
		if ident, ok := temp.(*domain.Identity); ok {
			return ident
		}
	}
	return nil
}
