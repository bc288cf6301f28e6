package handlers

import (
	"database/sql"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"dialysisfind/database"
	"dialysisfind/location"
	"dialysisfind/models"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

const (
	DefaultLimit    = 12
	DefaultRadiusKm = 50.0
)

type SearchParams struct {
	Page        int
	Limit       int
	Offset      int
	Name        string
	State       string
	City        string
	Units       []string
	Lat         float64
	Lon         float64
	RadiusKm    float64
	HasLocation bool
	Sort        string
}

// ParseSearchParams extracts center search filters from the URL query.
// State and city arrive as slugs and are resolved to display names.
func ParseSearchParams(query url.Values, table *location.Table) SearchParams {
	p := SearchParams{
		Limit: DefaultLimit,
	}

	p.Page, _ = strconv.Atoi(query.Get("page"))
	if p.Page <= 0 {
		p.Page = 1
	}
	p.Offset = (p.Page - 1) * p.Limit

	p.Name = strings.TrimSpace(query.Get("q"))
	if p.Name == "" {
		p.Name = strings.TrimSpace(query.Get("name"))
	}

	if stateSlug := query.Get("state"); stateSlug != "" && stateSlug != location.Slugify(location.AllStates) {
		names := table.ResolveDisplayNames(stateSlug, query.Get("city"))
		p.State = names.State
		p.City = names.City
	}

	for _, u := range strings.Split(query.Get("units"), ",") {
		if u = strings.TrimSpace(u); u != "" {
			p.Units = append(p.Units, u)
		}
	}
	if u := strings.TrimSpace(query.Get("unit")); u != "" {
		p.Units = append(p.Units, u)
	}

	latStr, lonStr := query.Get("lat"), query.Get("lon")
	if latStr != "" && lonStr != "" {
		lat, errLat := strconv.ParseFloat(latStr, 64)
		lon, errLon := strconv.ParseFloat(lonStr, 64)
		if errLat == nil && errLon == nil {
			p.Lat, p.Lon = lat, lon
			p.RadiusKm, _ = strconv.ParseFloat(query.Get("radius"), 64)
			if p.RadiusKm <= 0 {
				p.RadiusKm = DefaultRadiusKm
			}
			p.HasLocation = true
		}
	}

	p.Sort = query.Get("sort")
	return p
}

// haversineSQL is the great-circle distance in km from the point given by
// the two placeholders to the center row.
func haversineSQL(latIdx, lonIdx int) string {
	return fmt.Sprintf(`(6371 * 2 * ASIN(SQRT(
		POWER(SIN(RADIANS(c.latitude - $%[1]d::float8) / 2), 2) +
		COS(RADIANS($%[1]d::float8)) * COS(RADIANS(c.latitude)) *
		POWER(SIN(RADIANS(c.longitude - $%[2]d::float8) / 2), 2))))`, latIdx, lonIdx)
}

// BuildSearchQueries generates the count and result queries for p along
// with their shared arguments.
func BuildSearchQueries(p SearchParams) (string, string, []interface{}) {
	var args []interface{}
	var conditions []string
	idx := 1

	distanceExpr := "NULL::float8"
	if p.HasLocation {
		distanceExpr = haversineSQL(idx, idx+1)
		args = append(args, p.Lat, p.Lon)
		idx += 2

		conditions = append(conditions, "c.latitude IS NOT NULL AND c.longitude IS NOT NULL")
		conditions = append(conditions, fmt.Sprintf("%s <= $%d", distanceExpr, idx))
		args = append(args, p.RadiusKm)
		idx++
	}

	if p.State != "" {
		conditions = append(conditions, fmt.Sprintf("lower(c.state) = lower($%d)", idx))
		args = append(args, p.State)
		idx++
	}

	if p.City != "" {
		conditions = append(conditions, fmt.Sprintf("lower(c.city) = lower($%d)", idx))
		args = append(args, p.City)
		idx++
	}

	if p.Name != "" {
		conditions = append(conditions, fmt.Sprintf("(c.name ILIKE $%d OR c.address ILIKE $%d OR c.city ILIKE $%d)", idx, idx, idx))
		args = append(args, "%"+database.EscapeLike(p.Name)+"%")
		idx++
	}

	if len(p.Units) > 0 {
		conditions = append(conditions, fmt.Sprintf("c.units @> $%d", idx))
		args = append(args, pq.Array(p.Units))
		idx++
	}

	whereStr := ""
	if len(conditions) > 0 {
		whereStr = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT COUNT(*) FROM centers c " + whereStr
	resultQuery := fmt.Sprintf("SELECT %s, %s AS distance FROM centers c %s", database.CenterColumns, distanceExpr, whereStr)

	return countQuery, resultQuery, args
}

func orderBy(p SearchParams) string {
	switch p.Sort {
	case "name":
		return "ORDER BY c.name ASC, c.id ASC"
	case "updated":
		return "ORDER BY c.updated_at DESC, c.id ASC"
	}
	if p.HasLocation {
		return "ORDER BY distance ASC, c.id ASC"
	}
	return "ORDER BY c.name ASC, c.id ASC"
}

// SearchHandler counts matching centers for pagination and returns the
// requested page.
func SearchHandler(db *sql.DB, table *location.Table, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := ParseSearchParams(r.URL.Query(), table)
		countQ, resultQ, args := BuildSearchQueries(p)

		var totalCount int
		if err := db.QueryRowContext(r.Context(), countQ, args...).Scan(&totalCount); err != nil {
			logger.Error("Count query failed", zap.Error(err))
			writeJSON(w, http.StatusOK, map[string]interface{}{"centers": []models.Center{}, "pages": 0, "total_count": 0})
			return
		}

		totalPages := int(math.Ceil(float64(totalCount) / float64(p.Limit)))
		if p.Page > totalPages && totalPages > 0 {
			writeJSON(w, http.StatusOK, map[string]interface{}{"centers": []models.Center{}, "pages": totalPages, "total_count": totalCount})
			return
		}

		finalQuery := fmt.Sprintf("%s %s LIMIT %d OFFSET %d", resultQ, orderBy(p), p.Limit, p.Offset)
		rows, err := db.QueryContext(r.Context(), finalQuery, args...)
		if err != nil {
			logger.Error("Search result query failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Something went wrong")
			return
		}
		defer rows.Close()

		results := []models.Center{}
		for rows.Next() {
			var distance sql.NullFloat64
			c, err := database.ScanCenter(rows, &distance)
			if err != nil {
				logger.Warn("Skipping unreadable center row", zap.Error(err))
				continue
			}
			if distance.Valid {
				c.Distance = &distance.Float64
			}
			results = append(results, c)
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"centers":     results,
			"pages":       totalPages,
			"total_count": totalCount,
		})
	}
}
