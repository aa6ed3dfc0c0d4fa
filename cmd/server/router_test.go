package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphandler "memberpanel/internal/application/handler"
	dirstore "memberpanel/internal/directory/store"
	jwttoken "memberpanel/internal/jwt_token"
	"memberpanel/internal/platform/config"
	id "memberpanel/pkg/domain"
	"memberpanel/pkg/testutil"
)

// Metrics register on the default registry, so the router is built once for all cases.
func TestRouter_InMemoryComposition(t *testing.T) {
	ctx := context.Background()
	cfg := config.Server{
		JWTSigningKey: "router-test-key",
		JWTIssuer:     "memberpanel",
		SeedDemoData:  true,
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	app, err := build(ctx, cfg, log)
	require.NoError(t, err)
	defer app.close()
	assert.Equal(t, "memory", app.storage)
	assert.Nil(t, app.relay)

	router := newRouter(cfg, app, log)

	// Seed ids are deterministic, so a scratch seed yields the same directory ids.
	demo, err := dirstore.SeedDemo(ctx, dirstore.NewInMemory())
	require.NoError(t, err)
	require.NotEmpty(t, demo.Members)

	reviewer := id.UserID(uuid.New())
	token, err := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer).GenerateAccessToken(reviewer, time.Hour)
	require.NoError(t, err)

	t.Run("healthz", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "status", "ok")
	})

	t.Run("admin routes require a bearer token", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/admin/panel-applications"))
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})

	t.Run("create then approve", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/admin/panel-applications", map[string]any{
			"member_id":         demo.Members[0].String(),
			"requested_role_id": demo.HeadOfficeRole.String(),
		})
		req.Header.Set("Authorization", "Bearer "+token)
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatus(t, rr, http.StatusCreated)
		created := testutil.UnmarshalResponse[apphandler.ApplicationResponse](t, rr)
		assert.NotEmpty(t, rr.Header().Get("X-Request-Id"))

		req = testutil.NewJSONRequest(t, http.MethodPost, "/admin/panel-applications/"+created.ID+"/approve", map[string]any{
			"email":    "router-test@example.org",
			"password": "long-enough-secret",
		})
		req.Header.Set("Authorization", "Bearer "+token)
		rr = testutil.DoRequest(router, req)
		testutil.AssertStatusOK(t, rr)
		approved := testutil.UnmarshalResponse[apphandler.ApplicationResponse](t, rr)
		assert.Equal(t, "APPROVED", approved.Status)
		require.NotNil(t, approved.ReviewedBy)
		assert.Equal(t, reviewer.String(), *approved.ReviewedBy)
	})

	t.Run("metrics", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/metrics"))
		testutil.AssertStatusOK(t, rr)
		assert.Contains(t, rr.Body.String(), "memberpanel_http_requests_total")
	})
}
