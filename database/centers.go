package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"dialysisfind/dedup"
	"dialysisfind/location"
	"dialysisfind/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrNotFound     = errors.New("database: not found")
	ErrInvalidOwner = errors.New("database: user cannot own centers")
)

// CenterColumns is the select list matched by ScanCenter.
const CenterColumns = "c.id, c.slug, c.name, c.address, c.phone, c.website, c.state, c.city, c.units, " +
	"c.latitude, c.longitude, c.geo_status, c.owner_id, c.created_at, c.updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

// ScanCenter reads one row selected with CenterColumns, followed by any
// extra destinations.
func ScanCenter(row rowScanner, extra ...any) (models.Center, error) {
	var c models.Center
	var lat, lon sql.NullFloat64
	var owner sql.NullString
	dest := []any{&c.ID, &c.Slug, &c.Name, &c.Address, &c.Phone, &c.Website, &c.State, &c.City,
		pq.Array(&c.Units), &lat, &lon, &c.GeoStatus, &owner, &c.CreatedAt, &c.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return c, err
	}
	if lat.Valid && lon.Valid {
		c.Latitude, c.Longitude = &lat.Float64, &lon.Float64
	}
	if owner.Valid {
		c.OwnerID = &owner.String
	}
	if c.Units == nil {
		c.Units = []string{}
	}
	return c, nil
}

// InsertCenters stores merged centers for one state in a single
// transaction and returns how many rows were written. Slugs are derived from
// the center name and suffixed -2, -3, ... until unique. Centers without
// coordinates are stored as PENDING for the geocoding worker.
func InsertCenters(ctx context.Context, db *sql.DB, state string, centers []dedup.MergedCenter) (int, error) {
	return writeCenters(ctx, db, state, centers, false)
}

// ReplaceCenters is InsertCenters after deleting every stored center of
// state in the same transaction, so re-importing a state does not leave
// "-2" copies behind. Owner assignments of the deleted rows are lost.
func ReplaceCenters(ctx context.Context, db *sql.DB, state string, centers []dedup.MergedCenter) (int, error) {
	return writeCenters(ctx, db, state, centers, true)
}

func writeCenters(ctx context.Context, db *sql.DB, state string, centers []dedup.MergedCenter, replace bool) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if replace {
		if _, err := tx.ExecContext(ctx, "DELETE FROM centers WHERE state = $1", state); err != nil {
			return 0, fmt.Errorf("clear %s: %w", state, err)
		}
	}

	used := map[string]struct{}{}
	for i, c := range centers {
		slug, err := uniqueSlug(ctx, tx, c.Name, used)
		if err != nil {
			return 0, fmt.Errorf("center %d: %w", i, err)
		}

		lat, lon, status := nullCoordinates(c.Latitude, c.Longitude)
		units := c.Units
		if units == nil {
			units = []string{}
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO centers (id, slug, name, address, phone, website, state, city, units, latitude, longitude, geo_status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`, uuid.NewString(), slug, c.Name, stringField(c.Fields, "address"), stringField(c.Fields, "phone"),
			stringField(c.Fields, "website"), state, stringField(c.Fields, "city"), pq.Array(units), lat, lon, status)
		if err != nil {
			return 0, fmt.Errorf("insert %q: %w", c.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(centers), nil
}

func uniqueSlug(ctx context.Context, tx *sql.Tx, name string, used map[string]struct{}) (string, error) {
	base := location.Slugify(name)
	if base == "" {
		base = "center"
	}
	for n := 1; ; n++ {
		slug := base
		if n > 1 {
			slug = base + "-" + strconv.Itoa(n)
		}
		if _, taken := used[slug]; taken {
			continue
		}
		var exists bool
		if err := tx.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM centers WHERE slug = $1)", slug).Scan(&exists); err != nil {
			return "", err
		}
		if !exists {
			used[slug] = struct{}{}
			return slug, nil
		}
	}
}

func nullCoordinates(lat, lon float64) (sql.NullFloat64, sql.NullFloat64, string) {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return sql.NullFloat64{}, sql.NullFloat64{}, models.GeoStatusPending
	}
	return sql.NullFloat64{Float64: lat, Valid: true}, sql.NullFloat64{Float64: lon, Valid: true}, models.GeoStatusResolved
}

// stringField returns a passthrough scrape field when it is a JSON string.
func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func GetCenterBySlug(ctx context.Context, db *sql.DB, slug string) (models.Center, error) {
	return getCenter(ctx, db, "c.slug = $1", slug)
}

func GetCenterByID(ctx context.Context, db *sql.DB, id string) (models.Center, error) {
	if !validID(id) {
		return models.Center{}, ErrNotFound
	}
	return getCenter(ctx, db, "c.id = $1", id)
}

func getCenter(ctx context.Context, db *sql.DB, where string, arg any) (models.Center, error) {
	row := db.QueryRowContext(ctx, "SELECT "+CenterColumns+" FROM centers c WHERE "+where, arg)
	c, err := ScanCenter(row)
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrNotFound
	}
	return c, err
}

// ListCentersByLocation returns the centers of a state, narrowed to a city
// when city is non-empty. Names are compared case-insensitively and never as
// patterns.
func ListCentersByLocation(ctx context.Context, db *sql.DB, state, city string) ([]models.Center, error) {
	query := "SELECT " + CenterColumns + " FROM centers c WHERE lower(c.state) = lower($1)"
	args := []any{state}
	if city != "" {
		query += " AND lower(c.city) = lower($2)"
		args = append(args, city)
	}
	query += " ORDER BY c.name ASC"
	return queryCenters(ctx, db, query, args...)
}

func ListCentersByOwner(ctx context.Context, db *sql.DB, ownerID string) ([]models.Center, error) {
	if !validID(ownerID) {
		return []models.Center{}, nil
	}
	return queryCenters(ctx, db, "SELECT "+CenterColumns+" FROM centers c WHERE c.owner_id = $1 ORDER BY c.name ASC", ownerID)
}

func queryCenters(ctx context.Context, db *sql.DB, query string, args ...any) ([]models.Center, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Center{}
	for rows.Next() {
		c, err := ScanCenter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func GetUser(ctx context.Context, db *sql.DB, id string) (models.User, error) {
	var u models.User
	if !validID(id) {
		return u, ErrNotFound
	}
	err := db.QueryRowContext(ctx, "SELECT id, email, name, role FROM users WHERE id = $1", id).
		Scan(&u.ID, &u.Email, &u.Name, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrNotFound
	}
	return u, err
}

// AssignOwner sets or, with a nil ownerID, clears the owner of a center. The
// new owner must exist and hold the OWNER or ADMIN role.
func AssignOwner(ctx context.Context, db *sql.DB, centerID string, ownerID *string) error {
	if !validID(centerID) {
		return ErrNotFound
	}
	if ownerID != nil {
		u, err := GetUser(ctx, db, *ownerID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return ErrInvalidOwner
			}
			return err
		}
		if u.Role != models.RoleOwner && u.Role != models.RoleAdmin {
			return ErrInvalidOwner
		}
	}

	res, err := db.ExecContext(ctx, "UPDATE centers SET owner_id = $1, updated_at = now() WHERE id = $2", ownerID, centerID)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

// UpdateCenterContact applies the non-nil fields of upd.
func UpdateCenterContact(ctx context.Context, db *sql.DB, centerID string, upd models.ContactUpdate) error {
	if !validID(centerID) {
		return ErrNotFound
	}
	res, err := db.ExecContext(ctx, `
		UPDATE centers
		SET address = COALESCE($1, address),
		    phone = COALESCE($2, phone),
		    website = COALESCE($3, website),
		    updated_at = now()
		WHERE id = $4
	`, upd.Address, upd.Phone, upd.Website, centerID)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

// PendingCenters returns up to limit centers still waiting for coordinates.
func PendingCenters(ctx context.Context, db *sql.DB, limit int) ([]models.Center, error) {
	return queryCenters(ctx, db, "SELECT "+CenterColumns+" FROM centers c WHERE c.geo_status = $1 ORDER BY c.created_at ASC LIMIT $2",
		models.GeoStatusPending, limit)
}

func ResolveCoordinates(ctx context.Context, db *sql.DB, centerID string, lat, lon float64) error {
	if !validID(centerID) {
		return ErrNotFound
	}
	res, err := db.ExecContext(ctx, `
		UPDATE centers
		SET latitude = $1, longitude = $2, geo_status = $3, updated_at = now()
		WHERE id = $4
	`, lat, lon, models.GeoStatusResolved, centerID)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike quotes the LIKE metacharacters of s so it matches literally
// under PostgreSQL's default backslash escape.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// validID reports whether id can be compared against a UUID column.
// PostgreSQL rejects malformed values with 22P02 instead of matching nothing.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
