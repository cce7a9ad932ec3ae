package model

import (
	"slices"
	"time"
)

// Identity is an authenticated principal as returned by the identity
// endpoint. Values are immutable once built; a new login replaces the whole
// Identity rather than mutating it.
type Identity struct {
	UserID   string   `json:"user_id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	Roles    []string `json:"roles"`
}

// NewIdentity builds an Identity with its own copy of roles. A nil roles
// slice is stored as an empty one so a JSON round trip yields an equal value.
func NewIdentity(userID, username, email, fullName string, roles []string) Identity {
	r := make([]string, len(roles))
	copy(r, roles)
	return Identity{
		UserID:   userID,
		Username: username,
		Email:    email,
		FullName: fullName,
		Roles:    r,
	}
}

// HasRole reports whether role is assigned to the identity.
func (i Identity) HasRole(role string) bool {
	return slices.Contains(i.Roles, role)
}

// Equal reports whether two identities agree on every field. Role order is
// significant here; callers comparing role sets should sort first.
func (i Identity) Equal(o Identity) bool {
	return i.UserID == o.UserID &&
		i.Username == o.Username &&
		i.Email == o.Email &&
		i.FullName == o.FullName &&
		slices.Equal(i.Roles, o.Roles)
}

// Session pairs an Identity with the opaque token issued alongside it.
// At most one Session is active per process; see session.Store.
type Session struct {
	Identity  Identity  `json:"identity"`
	Token     string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Clone returns a deep copy of the session.
func (s Session) Clone() Session {
	id := s.Identity
	return Session{
		Identity:  NewIdentity(id.UserID, id.Username, id.Email, id.FullName, id.Roles),
		Token:     s.Token,
		CreatedAt: s.CreatedAt,
	}
}
