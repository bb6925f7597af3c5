package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JAZtrades/zarcaro-pay/internal/config"
	"github.com/JAZtrades/zarcaro-pay/internal/gateway"
	"github.com/JAZtrades/zarcaro-pay/internal/handlers"
	"github.com/JAZtrades/zarcaro-pay/internal/identity"
	"github.com/JAZtrades/zarcaro-pay/internal/storage"
)

func TestSetupRouter(t *testing.T) {
	// Setup dependencies
	db, err := storage.NewDB(":memory:")
	require.NoError(t, err, "failed to create database")
	defer db.Close()

	// Use relative paths for tests running in cmd/server
	if _, err := os.Stat("../../web/templates"); os.IsNotExist(err) {
		t.Skip("Template directory not found, skipping router test")
	}

	cfg := config.Config{}
	cfg.Server.TemplateDir = "../../web/templates"
	cfg.Stripe.PublishableKey = "pk_test_123"
	cfg.Plaid.Env = "sandbox"

	h := handlers.NewHandlers(db, gateway.NewClient("http://gateway.invalid"), identity.NewClient("http://idp.invalid", "http://idp.invalid", "key"), cfg)

	mux := setupRouter(h, "../../web/static")

	// Verify routes
	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		allowAlt   []int // Alternative acceptable status codes
	}{
		{
			name:       "Root redirects to /dashboard",
			method:     "GET",
			path:       "/",
			wantStatus: http.StatusFound,
		},
		{
			name:       "Static file access",
			method:     "GET",
			path:       "/static/style.css",
			wantStatus: http.StatusOK,
			allowAlt:   []int{http.StatusNotFound}, // File might not exist in test env
		},
		{
			name:       "Health is public",
			method:     "GET",
			path:       "/health",
			wantStatus: http.StatusOK,
		},
		{
			name:       "Login form is public",
			method:     "GET",
			path:       "/login",
			wantStatus: http.StatusOK,
		},
		{
			name:       "Dashboard requires auth",
			method:     "GET",
			path:       "/dashboard",
			wantStatus: http.StatusFound, // Should redirect to login
		},
		{
			name:       "Panels require auth",
			method:     "GET",
			path:       "/panel/history",
			wantStatus: http.StatusFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, http.NoBody)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			// Check if status matches expected or any alternative
			if len(tt.allowAlt) > 0 {
				acceptableStatuses := append([]int{tt.wantStatus}, tt.allowAlt...)
				assert.Contains(t, acceptableStatuses, w.Code,
					"%s %s returned unexpected status", tt.method, tt.path)
			} else {
				assert.Equal(t, tt.wantStatus, w.Code,
					"%s %s returned unexpected status", tt.method, tt.path)
			}
		})
	}
}
