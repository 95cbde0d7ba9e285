package identity

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/spigell/career-advisor/internal/portal"
)

const getUserPath = "/api/user/getuser"

type portalUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// PortalAuthority resolves the user from the portal on every call using the
// bearer token carried by the portal client.
type PortalAuthority struct {
	client *portal.Client
}

func NewPortal(client *portal.Client) *PortalAuthority {
	return &PortalAuthority{client: client}
}

func (a *PortalAuthority) CurrentUser(ctx context.Context) (*User, error) {
	var u portalUser
	if err := a.client.GetJSON(ctx, getUserPath, &u); err != nil {
		if portal.IsStatus(err, http.StatusUnauthorized, http.StatusForbidden) {
			a.client.Logger().Debug("portal token rejected, treating as logged out", zap.Error(err))
			return nil, nil
		}
		return nil, fmt.Errorf("getting current user: %w", err)
	}

	return &User{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  ParseRole(u.Role),
	}, nil
}
