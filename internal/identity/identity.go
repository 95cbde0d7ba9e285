// Package identity exposes the authenticated portal user to the advisor.
// Login and logout happen elsewhere; consumers only ever re-query.
package identity

import (
	"context"
	"strings"
	"sync"
)

type Role string

const (
	RoleJobSeeker Role = "Job Seeker"
	RoleEmployer  Role = "Employer"
)

// ParseRole maps the portal wire value to a Role. Unknown values yield "".
func ParseRole(s string) Role {
	normalized := strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(s)))
	switch normalized {
	case "jobseeker":
		return RoleJobSeeker
	case "employer":
		return RoleEmployer
	default:
		return ""
	}
}

type User struct {
	ID    string
	Name  string
	Email string
	Role  Role
}

// Authority answers who is logged in right now. A nil user with a nil error
// means nobody is.
type Authority interface {
	CurrentUser(ctx context.Context) (*User, error)
}

// Visible reports whether the advisor may be offered. It re-queries the
// authority every time; lookup errors hide the advisor.
func Visible(ctx context.Context, authority Authority) bool {
	if authority == nil {
		return false
	}

	user, err := authority.CurrentUser(ctx)
	if err != nil || user == nil {
		return false
	}

	return user.Role == RoleJobSeeker
}

// StaticAuthority holds a user in memory. Login and Logout may be called
// from any goroutine.
type StaticAuthority struct {
	mu   sync.RWMutex
	user *User
}

func NewStatic(user *User) *StaticAuthority {
	a := &StaticAuthority{}
	a.Login(user)
	return a
}

func (a *StaticAuthority) CurrentUser(context.Context) (*User, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.user == nil {
		return nil, nil
	}

	user := *a.user
	return &user, nil
}

func (a *StaticAuthority) Login(user *User) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if user == nil {
		a.user = nil
		return
	}

	copied := *user
	a.user = &copied
}

func (a *StaticAuthority) Logout() {
	a.Login(nil)
}
