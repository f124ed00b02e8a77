package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/keyxmakerx/steward/internal/apiclient"
	"github.com/keyxmakerx/steward/internal/apperror"
	"github.com/keyxmakerx/steward/internal/session"
)

// RemoteSource checks credentials against the upstream backend's auth
// contract. It implements both session.CredentialSource and
// session.LogoutNotifier.
//
// The auth endpoints sit outside the backend's envelope convention, so
// calls go through the client's raw path.
type RemoteSource struct {
	client *apiclient.Client
}

// NewRemoteSource creates a credential source over the upstream backend.
func NewRemoteSource(client *apiclient.Client) *RemoteSource {
	return &RemoteSource{client: client}
}

// loginResponse is the upstream's non-envelope login reply. Token and
// User are only present on success; Message only on failure.
type loginResponse struct {
	Success bool                `json:"success"`
	Token   string              `json:"token,omitempty"`
	User    *session.UserRecord `json:"user,omitempty"`
	Message string              `json:"message,omitempty"`
}

// Authenticate posts the credentials to the upstream login endpoint. An
// upstream rejection comes back as the same generic 401 the local source
// uses; upstream connectivity problems surface as 502s so the operator
// can tell a bad password from a dead backend.
func (s *RemoteSource) Authenticate(ctx context.Context, username, password string) (*session.UserRecord, error) {
	var resp loginResponse
	err := s.client.Raw(ctx, "POST", "/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, &resp)
	if err != nil {
		var callErr *apiclient.Error
		if errors.As(err, &callErr) && callErr.Kind == apiclient.KindUnauthorized {
			return nil, apperror.NewUnauthorized("invalid username or password")
		}
		return nil, apiclient.ToAppError(err)
	}

	if !resp.Success || resp.User == nil {
		// The upstream signals rejection in the body, not the status.
		return nil, apperror.NewUnauthorized("invalid username or password")
	}

	if resp.User.ID == "" || resp.User.Username == "" {
		return nil, apperror.NewInternal(fmt.Errorf("upstream login returned an incomplete user"))
	}

	return resp.User, nil
}

// NotifyLogout tells the upstream the session ended. Callers treat
// failures as non-fatal; this just reports them.
func (s *RemoteSource) NotifyLogout(ctx context.Context) error {
	if err := s.client.Raw(ctx, "POST", "/auth/logout", nil, nil); err != nil {
		return fmt.Errorf("notifying upstream logout: %w", err)
	}
	slog.Debug("upstream notified of logout")
	return nil
}
