package identity

import (
	"net"

	apierrors "github.com/MrD-D-tech/impactusall-mvp-sub000/internal/errors"
)

// Actor is the identity behind an engagement action: an authenticated user
// or an anonymous IP address, never both. The zero value is invalid.
type Actor struct {
	userID string
	ip     string
}

// Authenticated returns the actor for a logged-in user
func Authenticated(userID string) Actor {
	return Actor{userID: userID}
}

// Anonymous returns the actor for a request with no session
func Anonymous(ip string) Actor {
	return Actor{ip: ip}
}

// ActorFor picks the authenticated identity when there is one, else the IP
func ActorFor(p *Principal, ip string) Actor {
	if p != nil && p.UserID != "" {
		return Authenticated(p.UserID)
	}
	return Anonymous(ip)
}

// IsAuthenticated reports whether the actor is a user
func (a Actor) IsAuthenticated() bool {
	return a.userID != ""
}

// UserID returns the user id, or "" for anonymous actors
func (a Actor) UserID() string {
	return a.userID
}

// IP returns the address of an anonymous actor
func (a Actor) IP() string {
	return a.ip
}

// Key is the single dedup column value: "user:<id>" or "ip:<addr>".
// Shared NAT or proxy addresses collapse into one anonymous actor.
func (a Actor) Key() string {
	if a.userID != "" {
		return "user:" + a.userID
	}
	return "ip:" + a.ip
}

// Validate rejects the zero value and malformed addresses
func (a Actor) Validate() error {
	if a.userID != "" {
		return nil
	}
	if a.ip == "" {
		return apierrors.ValidationError("actor", "an authenticated user or a source address is required")
	}
	if net.ParseIP(a.ip) == nil {
		return apierrors.ValidationError("actor", "source address is not a valid IP")
	}
	return nil
}

// Columns returns the (user_id, ip_address) pair with exactly one set
func (a Actor) Columns() (userID, ip *string) {
	if a.userID != "" {
		id := a.userID
		return &id, nil
	}
	addr := a.ip
	return nil, &addr
}
