package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"dialysisfind/auth"
	"dialysisfind/location"
	"dialysisfind/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	testSecret = []byte("handlers-secret")
	centerCols = []string{"id", "slug", "name", "address", "phone", "website", "state", "city", "units",
		"latitude", "longitude", "geo_status", "owner_id", "created_at", "updated_at"}
	testTime = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
)

const (
	centerID     = "4b7e9c1a-2f3d-4e5a-8b6c-0d1e2f3a4b5c"
	ownerID      = "9a8b7c6d-5e4f-4a3b-9c2d-1e0f9a8b7c6d"
	otherOwnerID = "1f2e3d4c-5b6a-4978-8a9b-0c1d2e3f4a5b"
	missingID    = "00000000-0000-4000-8000-000000000000"
)

func testTable() *location.Table {
	return location.NewTable([]location.Entry{
		{State: location.AllStates},
		{State: "Selangor", Cities: []string{"Shah Alam", "Kajang"}},
		{State: location.FederalTerritories},
		{State: "Kuala Lumpur", Cities: []string{"Cheras"}},
	})
}

func newTestMux(t *testing.T) (http.Handler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewMux(db, testTable(), testSecret, zap.NewNop()), mock
}

func token(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := auth.NewToken(testSecret, userID, role, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

func serve(h http.Handler, method, target, authz, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func centerRow(rows *sqlmock.Rows, id, name, owner string) *sqlmock.Rows {
	var ownerVal interface{}
	if owner != "" {
		ownerVal = owner
	}
	return rows.AddRow(id, location.Slugify(name), name, "", "", "", "Selangor", "Kajang", "{HD}",
		2.99, 101.79, models.GeoStatusResolved, ownerVal, testTime, testTime)
}

func TestParseSearchParams(t *testing.T) {
	q := url.Values{}
	q.Set("page", "3")
	q.Set("q", " renal ")
	q.Set("state", "selangor")
	q.Set("city", "shah-alam")
	q.Set("units", "HD, PD,")
	q.Set("lat", "3.07")
	q.Set("lon", "101.51")

	p := ParseSearchParams(q, testTable())
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 24, p.Offset)
	assert.Equal(t, "renal", p.Name)
	assert.Equal(t, "Selangor", p.State)
	assert.Equal(t, "Shah Alam", p.City)
	assert.Equal(t, []string{"HD", "PD"}, p.Units)
	assert.True(t, p.HasLocation)
	assert.Equal(t, DefaultRadiusKm, p.RadiusKm)

	all := url.Values{}
	all.Set("state", "all-states")
	all.Set("lat", "abc")
	all.Set("lon", "101")
	p = ParseSearchParams(all, testTable())
	assert.Empty(t, p.State)
	assert.False(t, p.HasLocation)
	assert.Equal(t, 1, p.Page)
}

func TestBuildSearchQueries(t *testing.T) {
	countQ, resultQ, args := BuildSearchQueries(SearchParams{
		State:       "Selangor",
		Name:        "renal",
		Units:       []string{"HD"},
		Lat:         3.0,
		Lon:         101.5,
		RadiusKm:    10,
		HasLocation: true,
	})

	assert.Contains(t, countQ, "SELECT COUNT(*) FROM centers c WHERE")
	assert.Contains(t, countQ, "lower(c.state) = lower($4)")
	assert.Contains(t, countQ, "c.name ILIKE $5")
	assert.Contains(t, countQ, "c.units @> $6")
	assert.Contains(t, resultQ, "AS distance")
	require.Len(t, args, 6)
	assert.Equal(t, []interface{}{3.0, 101.5, 10.0, "Selangor", "%renal%"}, args[:5])

	countQ, _, args = BuildSearchQueries(SearchParams{})
	assert.Equal(t, "SELECT COUNT(*) FROM centers c ", countQ)
	assert.Empty(t, args)
}

func TestBuildSearchQueries_WildcardsMatchLiterally(t *testing.T) {
	p := ParseSearchParams(url.Values{"state": {"a%"}, "q": {`50%_off\`}}, testTable())
	assert.Equal(t, "A%", p.State)

	countQ, _, args := BuildSearchQueries(p)
	assert.Contains(t, countQ, "lower(c.state) = lower($1)")
	assert.NotContains(t, countQ, "c.state ILIKE")
	assert.Equal(t, []interface{}{"A%", `%50\%\_off\\%`}, args)
}

func TestSearchHandler(t *testing.T) {
	h, mock := newTestMux(t)

	mock.ExpectQuery("SELECT COUNT").WithArgs("Selangor").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(13))
	rows := sqlmock.NewRows(append(centerCols, "distance"))
	rows.AddRow(centerID, "renal-care", "Renal Care", "", "", "", "Selangor", "Kajang", "{HD}",
		2.99, 101.79, models.GeoStatusResolved, nil, testTime, testTime, nil)
	mock.ExpectQuery("AS distance FROM centers c").WithArgs("Selangor").WillReturnRows(rows)

	rec := serve(h, http.MethodGet, "/api/centers?state=selangor", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Centers    []models.Center `json:"centers"`
		Pages      int             `json:"pages"`
		TotalCount int             `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Pages)
	assert.Equal(t, 13, body.TotalCount)
	require.Len(t, body.Centers, 1)
	assert.Equal(t, "Renal Care", body.Centers[0].Name)
	assert.Nil(t, body.Centers[0].Distance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchHandler_PageOutOfRange(t *testing.T) {
	h, mock := newTestMux(t)
	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	rec := serve(h, http.MethodGet, "/api/centers?page=5", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"centers":[],"pages":1,"total_count":3}`, rec.Body.String())
}

func TestLocationParamsHandler(t *testing.T) {
	h, _ := newTestMux(t)
	rec := serve(h, http.MethodGet, "/api/locations", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var params []location.Params
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &params))
	assert.Equal(t, testTable().GenerateAllLocationParams(), params)
	assert.Equal(t, location.Params{State: "kuala-lumpur", City: "cheras"}, params[4])
}

func TestLocationPageHandler(t *testing.T) {
	t.Run("unknown state", func(t *testing.T) {
		h, _ := newTestMux(t)
		rec := serve(h, http.MethodGet, "/api/locations/penang", "", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("city outside state", func(t *testing.T) {
		h, _ := newTestMux(t)
		rec := serve(h, http.MethodGet, "/api/locations/selangor/cheras", "", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("city page", func(t *testing.T) {
		h, mock := newTestMux(t)
		mock.ExpectQuery("FROM centers c WHERE lower\\(c.state\\) = lower\\(\\$1\\) AND lower\\(c.city\\) = lower\\(\\$2\\)").
			WithArgs("Selangor", "Kajang").
			WillReturnRows(centerRow(sqlmock.NewRows(centerCols), centerID, "Kajang Dialysis", ""))

		rec := serve(h, http.MethodGet, "/api/locations/selangor/kajang", "", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Names   location.Names  `json:"names"`
			Centers []models.Center `json:"centers"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, location.Names{State: "Selangor", City: "Kajang"}, body.Names)
		require.Len(t, body.Centers, 1)
		assert.Equal(t, "kajang-dialysis", body.Centers[0].Slug)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCenterHandler(t *testing.T) {
	h, mock := newTestMux(t)
	mock.ExpectQuery("WHERE c.slug = \\$1").WithArgs("nope").WillReturnRows(sqlmock.NewRows(centerCols))

	rec := serve(h, http.MethodGet, "/api/centers/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDashboardCentersHandler(t *testing.T) {
	t.Run("requires token", func(t *testing.T) {
		h, _ := newTestMux(t)
		rec := serve(h, http.MethodGet, "/api/dashboard/centers", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("plain users are forbidden", func(t *testing.T) {
		h, _ := newTestMux(t)
		rec := serve(h, http.MethodGet, "/api/dashboard/centers", token(t, "u1", models.RoleUser), "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("owner sees own centers", func(t *testing.T) {
		h, mock := newTestMux(t)
		mock.ExpectQuery("WHERE c.owner_id = \\$1").WithArgs(ownerID).
			WillReturnRows(centerRow(sqlmock.NewRows(centerCols), centerID, "Renal Care", ownerID))

		rec := serve(h, http.MethodGet, "/api/dashboard/centers", token(t, ownerID, models.RoleOwner), "")
		require.Equal(t, http.StatusOK, rec.Code)

		var centers []models.Center
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &centers))
		require.Len(t, centers, 1)
		require.NotNil(t, centers[0].OwnerID)
		assert.Equal(t, ownerID, *centers[0].OwnerID)
	})
}

func TestUpdateCenterHandler(t *testing.T) {
	t.Run("other owner is forbidden", func(t *testing.T) {
		h, mock := newTestMux(t)
		mock.ExpectQuery("WHERE c.id = \\$1").WithArgs(centerID).
			WillReturnRows(centerRow(sqlmock.NewRows(centerCols), centerID, "Renal Care", otherOwnerID))

		rec := serve(h, http.MethodPatch, "/api/dashboard/centers/"+centerID, token(t, ownerID, models.RoleOwner), `{"phone":"03"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("owner updates own center", func(t *testing.T) {
		h, mock := newTestMux(t)
		mock.ExpectQuery("WHERE c.id = \\$1").WithArgs(centerID).
			WillReturnRows(centerRow(sqlmock.NewRows(centerCols), centerID, "Renal Care", ownerID))
		mock.ExpectExec("UPDATE centers").WithArgs(nil, "03-1111", nil, centerID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		rec := serve(h, http.MethodPatch, "/api/dashboard/centers/"+centerID, token(t, ownerID, models.RoleOwner), `{"phone":"03-1111"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("malformed id", func(t *testing.T) {
		h, mock := newTestMux(t)
		rec := serve(h, http.MethodPatch, "/api/dashboard/centers/abc", token(t, ownerID, models.RoleOwner), `{"phone":"03"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("bad body", func(t *testing.T) {
		h, mock := newTestMux(t)
		mock.ExpectQuery("WHERE c.id = \\$1").WithArgs(centerID).
			WillReturnRows(centerRow(sqlmock.NewRows(centerCols), centerID, "Renal Care", ""))

		rec := serve(h, http.MethodPatch, "/api/dashboard/centers/"+centerID, token(t, "admin", models.RoleAdmin), `{`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAssignOwnerHandler(t *testing.T) {
	t.Run("owners cannot assign", func(t *testing.T) {
		h, _ := newTestMux(t)
		rec := serve(h, http.MethodPut, "/api/admin/centers/"+centerID+"/owner", token(t, ownerID, models.RoleOwner), `{"owner_id":"`+ownerID+`"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin assigns", func(t *testing.T) {
		h, mock := newTestMux(t)
		mock.ExpectQuery("FROM users").WithArgs(ownerID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "role"}).AddRow(ownerID, "o@example.com", "O", models.RoleOwner))
		mock.ExpectExec("UPDATE centers SET owner_id").WithArgs(ownerID, centerID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		rec := serve(h, http.MethodPut, "/api/admin/centers/"+centerID+"/owner", token(t, "admin", models.RoleAdmin), `{"owner_id":"`+ownerID+`"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown user", func(t *testing.T) {
		h, mock := newTestMux(t)
		mock.ExpectQuery("FROM users").WithArgs(missingID).WillReturnError(sql.ErrNoRows)

		rec := serve(h, http.MethodPut, "/api/admin/centers/"+centerID+"/owner", token(t, "admin", models.RoleAdmin), `{"owner_id":"`+missingID+`"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed owner id", func(t *testing.T) {
		h, mock := newTestMux(t)
		rec := serve(h, http.MethodPut, "/api/admin/centers/"+centerID+"/owner", token(t, "admin", models.RoleAdmin), `{"owner_id":"abc"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("malformed center id", func(t *testing.T) {
		h, mock := newTestMux(t)
		rec := serve(h, http.MethodPut, "/api/admin/centers/abc/owner", token(t, "admin", models.RoleAdmin), `{"owner_id":null}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing center", func(t *testing.T) {
		h, mock := newTestMux(t)
		mock.ExpectExec("UPDATE centers SET owner_id").WithArgs(nil, missingID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		rec := serve(h, http.MethodPut, "/api/admin/centers/"+missingID+"/owner", token(t, "admin", models.RoleAdmin), `{"owner_id":null}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestDetectLocationHandler(t *testing.T) {
	t.Run("missing coordinates", func(t *testing.T) {
		h, _ := newTestMux(t)
		rec := serve(h, http.MethodGet, "/api/detect-location?lat=3.1", "", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("nearest center", func(t *testing.T) {
		h, mock := newTestMux(t)
		mock.ExpectQuery("SELECT c.state, c.city").WithArgs(3.0, 101.5).
			WillReturnRows(sqlmock.NewRows([]string{"state", "city"}).AddRow("Selangor", "Shah Alam"))

		rec := serve(h, http.MethodGet, "/api/detect-location?lat=3.0&lon=101.5", "", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"state":"selangor","city":"shah-alam"}`, rec.Body.String())
	})
}
