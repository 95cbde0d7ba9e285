package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/career-advisor/internal/portal"
)

type failingAuthority struct{}

func (failingAuthority) CurrentUser(context.Context) (*User, error) {
	return nil, errors.New("portal down")
}

func TestParseRole(t *testing.T) {
	tests := map[string]Role{
		"Job Seeker":  RoleJobSeeker,
		"job_seeker":  RoleJobSeeker,
		"JobSeeker":   RoleJobSeeker,
		" Employer ":  RoleEmployer,
		"EMPLOYER":    RoleEmployer,
		"admin":       "",
		"":            "",
		"job-seeker ": RoleJobSeeker,
	}

	for in, expect := range tests {
		assert.Equal(t, expect, ParseRole(in), in)
	}
}

func TestVisible(t *testing.T) {
	ctx := context.Background()

	assert.False(t, Visible(ctx, nil))
	assert.False(t, Visible(ctx, failingAuthority{}))
	assert.False(t, Visible(ctx, NewStatic(nil)))
	assert.False(t, Visible(ctx, NewStatic(&User{Role: RoleEmployer})))
	assert.True(t, Visible(ctx, NewStatic(&User{Role: RoleJobSeeker})))
}

func TestStaticAuthorityIsRequeried(t *testing.T) {
	ctx := context.Background()
	a := NewStatic(&User{ID: "u1", Role: RoleJobSeeker})
	require.True(t, Visible(ctx, a))

	a.Logout()
	assert.False(t, Visible(ctx, a))

	a.Login(&User{ID: "u2", Role: RoleEmployer})
	assert.False(t, Visible(ctx, a))

	u := &User{ID: "u3", Role: RoleJobSeeker}
	a.Login(u)
	u.Role = RoleEmployer
	assert.True(t, Visible(ctx, a), "authority must not alias the caller's user")
}

func TestStaticAuthorityConcurrentUse(t *testing.T) {
	a := NewStatic(nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			a.Login(&User{Role: RoleJobSeeker})
			a.Logout()
		}()
		go func() {
			defer wg.Done()
			_ = Visible(context.Background(), a)
		}()
	}
	wg.Wait()
}

func TestPortalAuthority(t *testing.T) {
	var status atomic.Int32
	var role atomic.Value
	status.Store(http.StatusOK)
	role.Store("Job Seeker")

	r := chi.NewRouter()
	r.Get(getUserPath, func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "Bearer tok", req.Header.Get("Authorization"))
		if code := int(status.Load()); code != http.StatusOK {
			w.WriteHeader(code)
			_, _ = w.Write([]byte(`{"detail":"Token has expired"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"u1","name":"Ann","email":"ann@example.com","role":"` + role.Load().(string) + `","phone":123}`))
	})

	srv := httptest.NewServer(r)
	defer srv.Close()

	a := NewPortal(portal.New(srv.URL, "tok", time.Second, zap.NewNop()))
	ctx := context.Background()

	user, err := a.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, &User{ID: "u1", Name: "Ann", Email: "ann@example.com", Role: RoleJobSeeker}, user)
	assert.True(t, Visible(ctx, a))

	role.Store("Employer")
	assert.False(t, Visible(ctx, a))

	status.Store(http.StatusUnauthorized)
	user, err = a.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)

	status.Store(http.StatusInternalServerError)
	_, err = a.CurrentUser(ctx)
	require.Error(t, err)
	assert.False(t, Visible(ctx, a))
}
