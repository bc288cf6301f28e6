package handlers

import (
	"database/sql"
	"net/http"

	"dialysisfind/auth"
	"dialysisfind/location"
	"dialysisfind/models"

	"go.uber.org/zap"
)

// NewMux registers every API route. Dashboard routes need an OWNER or ADMIN
// token, admin routes an ADMIN token.
func NewMux(db *sql.DB, table *location.Table, jwtSecret []byte, logger *zap.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/centers", SearchHandler(db, table, logger))
	mux.HandleFunc("GET /api/centers/{slug}", CenterHandler(db, logger))
	mux.HandleFunc("GET /api/units", UnitsHandler(db, logger))
	mux.HandleFunc("GET /api/detect-location", DetectLocationHandler(db, logger))

	mux.HandleFunc("GET /api/states", StatesHandler(table))
	mux.HandleFunc("GET /api/locations", LocationParamsHandler(table))
	mux.HandleFunc("GET /api/locations/{state}", LocationPageHandler(db, table, logger))
	mux.HandleFunc("GET /api/locations/{state}/{city}", LocationPageHandler(db, table, logger))

	authenticate := auth.Authenticate(jwtSecret)
	owners := func(h http.Handler) http.Handler {
		return authenticate(auth.Authorize(models.RoleOwner, models.RoleAdmin)(h))
	}
	admins := func(h http.Handler) http.Handler {
		return authenticate(auth.Authorize(models.RoleAdmin)(h))
	}

	mux.Handle("GET /api/dashboard/centers", owners(DashboardCentersHandler(db, logger)))
	mux.Handle("PATCH /api/dashboard/centers/{id}", owners(UpdateCenterHandler(db, logger)))
	mux.Handle("PUT /api/admin/centers/{id}/owner", admins(AssignOwnerHandler(db, logger)))

	return mux
}
