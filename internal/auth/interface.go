package auth

import (
	"context"

	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/identity"
)

// ServiceInterface is the contract the HTTP layer depends on, so handlers
// can be tested without a database.
type ServiceInterface interface {
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	Authenticate(ctx context.Context, tokenString string) (*identity.Principal, error)
}

var _ ServiceInterface = (*Service)(nil)
