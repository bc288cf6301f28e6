package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"dialysisfind/database"

	"go.uber.org/zap"
)

type assignOwnerRequest struct {
	OwnerID *string `json:"owner_id"`
}

// AssignOwnerHandler assigns a center to an owner account, or unassigns it
// when owner_id is null.
func AssignOwnerHandler(db *sql.DB, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		var req assignOwnerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		err := database.AssignOwner(r.Context(), db, id, req.OwnerID)
		switch {
		case errors.Is(err, database.ErrInvalidOwner):
			writeError(w, http.StatusBadRequest, "User cannot own centers")
			return
		case errors.Is(err, database.ErrNotFound):
			writeError(w, http.StatusNotFound, "Center not found")
			return
		case err != nil:
			logger.Error("Owner assignment failed", zap.String("center", id), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Failed to assign owner")
			return
		}

		owner := ""
		if req.OwnerID != nil {
			owner = *req.OwnerID
		}
		logger.Info("Center owner assigned", zap.String("center", id), zap.String("owner", owner))
		writeJSON(w, http.StatusOK, map[string]string{"message": "Owner updated successfully"})
	}
}
