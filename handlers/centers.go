package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"dialysisfind/database"
	"dialysisfind/location"

	"go.uber.org/zap"
)

// CenterHandler returns one center by its slug.
func CenterHandler(db *sql.DB, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := r.PathValue("slug")
		c, err := database.GetCenterBySlug(r.Context(), db, slug)
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Center not found")
			return
		}
		if err != nil {
			logger.Error("Center lookup failed", zap.String("slug", slug), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Something went wrong")
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

// LocationPageHandler serves the data behind /{state} and /{state}/{city}
// location pages. Unknown slugs are a 404; known ones are resolved to display
// names before querying centers.
func LocationPageHandler(db *sql.DB, table *location.Table, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stateSlug := r.PathValue("state")
		citySlug := r.PathValue("city")

		if !table.IsValidLocation(stateSlug, citySlug) {
			writeError(w, http.StatusNotFound, "Location not found")
			return
		}

		names := table.ResolveDisplayNames(stateSlug, citySlug)
		centers, err := database.ListCentersByLocation(r.Context(), db, names.State, names.City)
		if err != nil {
			logger.Error("Location centers query failed",
				zap.String("state", names.State),
				zap.String("city", names.City),
				zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Something went wrong")
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"params":  location.Params{State: stateSlug, City: citySlug},
			"names":   names,
			"centers": centers,
		})
	}
}
