package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"dialysisfind/auth"
	"dialysisfind/database"
	"dialysisfind/models"

	"go.uber.org/zap"
)

// DashboardCentersHandler lists the centers owned by the caller.
func DashboardCentersHandler(db *sql.DB, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.FromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		centers, err := database.ListCentersByOwner(r.Context(), db, claims.UserID)
		if err != nil {
			logger.Error("Owner centers query failed", zap.String("owner", claims.UserID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Something went wrong")
			return
		}
		writeJSON(w, http.StatusOK, centers)
	}
}

// UpdateCenterHandler lets an owner edit the contact details of a center
// they own. Admins may edit any center.
func UpdateCenterHandler(db *sql.DB, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.FromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		id := r.PathValue("id")
		center, err := database.GetCenterByID(r.Context(), db, id)
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Center not found")
			return
		}
		if err != nil {
			logger.Error("Center lookup failed", zap.String("id", id), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Something went wrong")
			return
		}

		if err := auth.CanManageCenter(claims, center.OwnerID); err != nil {
			writeError(w, http.StatusForbidden, "You do not manage this center")
			return
		}

		var upd models.ContactUpdate
		if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if err := database.UpdateCenterContact(r.Context(), db, id, upd); err != nil {
			logger.Error("Center update failed", zap.String("id", id), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Failed to update center")
			return
		}

		logger.Info("Center contact updated", zap.String("id", id), zap.String("by", claims.UserID))
		writeJSON(w, http.StatusOK, map[string]string{"message": "Center updated successfully"})
	}
}
