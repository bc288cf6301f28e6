package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"dialysisfind/location"

	"go.uber.org/zap"
)

// StatesHandler returns every routable state with its cities, for filter
// population.
func StatesHandler(table *location.Table) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, table.States())
	}
}

// LocationParamsHandler lists every state and state/city page for static
// generation.
func LocationParamsHandler(table *location.Table) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := table.GenerateAllLocationParams()
		if params == nil {
			params = []location.Params{}
		}
		writeJSON(w, http.StatusOK, params)
	}
}

// UnitsHandler retrieves the distinct unit labels across all centers.
func UnitsHandler(db *sql.DB, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := db.QueryContext(r.Context(), "SELECT DISTINCT unnest(units) AS unit FROM centers ORDER BY unit ASC")
		if err != nil {
			logger.Error("Units query failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Something went wrong")
			return
		}
		defer rows.Close()

		units := []string{}
		for rows.Next() {
			var u string
			if err := rows.Scan(&u); err == nil {
				units = append(units, u)
			}
		}
		writeJSON(w, http.StatusOK, units)
	}
}

// DetectLocationHandler picks the state and city of the center closest to
// the given coordinates, so the UI can preselect a location page.
func DetectLocationHandler(db *sql.DB, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		latStr := r.URL.Query().Get("lat")
		lonStr := r.URL.Query().Get("lon")
		if latStr == "" || lonStr == "" {
			writeError(w, http.StatusBadRequest, "lat and lon are required")
			return
		}
		lat, errLat := strconv.ParseFloat(latStr, 64)
		lon, errLon := strconv.ParseFloat(lonStr, 64)
		if errLat != nil || errLon != nil {
			writeError(w, http.StatusBadRequest, "lat and lon must be numbers")
			return
		}

		logger.Debug("Detecting location", zap.Float64("lat", lat), zap.Float64("lon", lon))

		query := fmt.Sprintf(`
			SELECT c.state, c.city
			FROM centers c
			WHERE c.latitude IS NOT NULL AND c.longitude IS NOT NULL
			ORDER BY %s ASC
			LIMIT 1
		`, haversineSQL(1, 2))

		var state, city string
		err := db.QueryRowContext(r.Context(), query, lat, lon).Scan(&state, &city)
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "Could not detect location")
			return
		}
		if err != nil {
			logger.Error("Closest center query failed", zap.Float64("lat", lat), zap.Float64("lon", lon), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Could not detect location")
			return
		}

		writeJSON(w, http.StatusOK, location.Params{
			State: location.Slugify(state),
			City:  location.Slugify(city),
		})
	}
}
