// Package api exposes the synchronized inventory over a JSON HTTP API.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/erazemk/gudang/internal/auth"
	"github.com/erazemk/gudang/internal/blob"
	"github.com/erazemk/gudang/internal/inventory"
	"github.com/erazemk/gudang/internal/model"
)

// Deps are the collaborators the API serves from.
type Deps struct {
	Inventory *inventory.Controller
	Sessions  *auth.Service
	Blobs     blob.Store
	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer       prometheus.Gatherer
	AllowedOrigins []string
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{Sessions: d.Sessions}
	publicHandler := &PublicHandler{Inventory: d.Inventory}
	itemsHandler := &ItemsHandler{Inventory: d.Inventory, Blobs: d.Blobs}
	locationsHandler := &LocationsHandler{Inventory: d.Inventory}
	usersHandler := &UsersHandler{Inventory: d.Inventory}
	adminHandler := &AdminHandler{Inventory: d.Inventory}
	mediaHandler := &MediaHandler{Blobs: d.Blobs}

	authMW := AuthMiddleware(d.Sessions)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireStaff := RequireRole(model.RoleStaff)

	staff := func(h http.HandlerFunc) http.Handler { return authMW(requireStaff(h)) }
	admin := func(h http.HandlerFunc) http.Handler { return authMW(requireAdmin(h)) }

	// Public.
	mux.HandleFunc("GET /api/public/branding", publicHandler.Branding)
	mux.HandleFunc("GET /api/public/items", publicHandler.Items)
	mux.HandleFunc("GET /api/public/locations", publicHandler.Locations)
	mux.HandleFunc("GET /api/status", publicHandler.Status)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("GET /media/{key...}", mediaHandler.Get)

	// Session.
	mux.Handle("POST /api/auth/logout", staff(authHandler.Logout))
	mux.Handle("GET /api/auth/me", staff(authHandler.Me))
	mux.Handle("PUT /api/auth/password", staff(authHandler.ChangePassword))

	// Dashboard (staff+).
	mux.Handle("POST /api/refresh", staff(adminHandler.Refresh))
	mux.Handle("GET /api/stats", staff(adminHandler.Stats))

	// Items (staff+).
	mux.Handle("GET /api/items", staff(itemsHandler.List))
	mux.Handle("POST /api/items", staff(itemsHandler.Create))
	mux.Handle("PUT /api/items/{id}", staff(itemsHandler.Update))
	mux.Handle("DELETE /api/items/{id}", staff(itemsHandler.Delete))
	mux.Handle("PUT /api/items/{id}/photo", staff(itemsHandler.UploadPhoto))
	mux.Handle("POST /api/items/import", staff(itemsHandler.Import))
	mux.Handle("GET /api/items/export", staff(itemsHandler.Export))

	// Locations (staff+).
	mux.Handle("GET /api/locations", staff(locationsHandler.List))
	mux.Handle("POST /api/locations", staff(locationsHandler.Create))
	mux.Handle("PUT /api/locations/{id}", staff(locationsHandler.Update))
	mux.Handle("DELETE /api/locations/{id}", staff(locationsHandler.Delete))

	// Users, branding and backups (admin only).
	mux.Handle("GET /api/users", admin(usersHandler.List))
	mux.Handle("POST /api/users", admin(usersHandler.Create))
	mux.Handle("PUT /api/users/{id}", admin(usersHandler.Update))
	mux.Handle("DELETE /api/users/{id}", admin(usersHandler.Delete))
	mux.Handle("PUT /api/branding", admin(adminHandler.UpdateBranding))
	mux.Handle("GET /api/backup", admin(adminHandler.Backup))
	mux.Handle("POST /api/backup", admin(adminHandler.Restore))

	if d.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	var h http.Handler = mux
	if len(d.AllowedOrigins) > 0 {
		h = cors.Handler(cors.Options{
			AllowedOrigins: d.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			ExposedHeaders: []string{staleHeader},
			MaxAge:         300,
		})(h)
	}
	h = LoggingMiddleware(h)
	h = middleware.Recoverer(h)
	h = middleware.RequestID(h)
	return h
}
