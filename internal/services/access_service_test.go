package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energydash/internal/config"
	"energydash/internal/services"
	"energydash/internal/session"
	"energydash/internal/shared/testutil"
	"energydash/pkg/contracts/domain"
)

func TestAccessLogin(t *testing.T) {
	cfg := config.AuthConfig{Enabled: true, Username: "admin", Password: "changeme"}

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{name: "valid", username: "admin", password: "changeme"},
		{name: "wrong password", username: "admin", password: "nope", wantErr: services.ErrInvalidCredentials},
		{name: "wrong user", username: "root", password: "changeme", wantErr: services.ErrInvalidCredentials},
		{name: "case matters", username: "Admin", password: "changeme", wantErr: services.ErrInvalidCredentials},
		{name: "empty", wantErr: services.ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			access := services.NewAccessService(cfg, logger)
			sess := session.NewStore(time.Hour, nil).Create()

			err := access.Login(context.Background(), sess, tt.username, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.False(t, access.Allowed(sess))
				return
			}
			require.NoError(t, err)
			assert.True(t, access.Allowed(sess))
		})
	}
}

func TestAccessIsPerSession(t *testing.T) {
	access := services.NewAccessService(config.AuthConfig{Enabled: true, Username: "u", Password: "p"}, nil)
	store := session.NewStore(time.Hour, nil)
	first, second := store.Create(), store.Create()

	require.NoError(t, access.Login(context.Background(), first, "u", "p"))

	assert.True(t, access.Allowed(first))
	assert.False(t, access.Allowed(second))
}

func TestAccessLogout(t *testing.T) {
	access := services.NewAccessService(config.AuthConfig{Enabled: true, Username: "u", Password: "p"}, nil)
	sess := session.NewStore(time.Hour, nil).Create()
	require.NoError(t, access.Login(context.Background(), sess, "u", "p"))

	access.Logout(context.Background(), sess)

	assert.False(t, access.Allowed(sess))
	assert.Equal(t, "", access.Describe(sess).Username)
}

func TestAccessDisabled(t *testing.T) {
	access := services.NewAccessService(config.AuthConfig{}, nil)
	sess := session.NewStore(time.Hour, nil).Create()

	assert.False(t, access.Required())
	assert.True(t, access.Allowed(sess))
	assert.True(t, access.Allowed(nil))
}

func TestAccessDescribe(t *testing.T) {
	access := services.NewAccessService(config.AuthConfig{Enabled: true, Username: "u", Password: "p"}, nil)
	sess := session.NewStore(time.Hour, nil).Create()
	require.NoError(t, access.Login(context.Background(), sess, "u", "p"))
	sess.Remember(domain.AggregationRequest{Dataset: "global", Metric: domain.MetricGas})

	resp := access.Describe(sess)

	assert.True(t, resp.AuthRequired)
	assert.True(t, resp.Authenticated)
	assert.Equal(t, "u", resp.Username)
	require.NotNil(t, resp.LastRequest)
	assert.Equal(t, "global", resp.LastRequest.Dataset)
}
