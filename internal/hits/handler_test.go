package hits

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"explorewithme-backend/internal/store/storetest"
)

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	st := NewStore(storetest.OpenDB(t))
	require.NoError(t, st.Migrate())

	r := gin.New()
	NewHandler(st, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return r
}

func postHit(t *testing.T, r http.Handler, uri, ip, ts string) int {
	t.Helper()
	body := `{"app":"ewm-main-service","uri":"` + uri + `","ip":"` + ip + `","timestamp":"` + ts + `"}`
	req := httptest.NewRequest(http.MethodPost, "/hit", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func getStats(t *testing.T, r http.Handler, params url.Values) (int, []ViewStats) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats?"+params.Encode(), nil))
	var out []ViewStats
	if w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w.Code, out
}

func TestHitsAndStats(t *testing.T) {
	r := newRouter(t)
	for _, h := range []struct{ uri, ip string }{
		{"/events/1", "10.0.0.1"},
		{"/events/1", "10.0.0.1"},
		{"/events/1", "10.0.0.2"},
		{"/events/2", "10.0.0.1"},
	} {
		require.Equal(t, http.StatusCreated, postHit(t, r, h.uri, h.ip, "2026-10-15 12:00:00"))
	}

	window := url.Values{"start": {"2026-10-01 00:00:00"}, "end": {"2026-10-31 00:00:00"}}

	code, all := getStats(t, r, window)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []ViewStats{
		{App: "ewm-main-service", URI: "/events/1", Hits: 3},
		{App: "ewm-main-service", URI: "/events/2", Hits: 1},
	}, all)

	uniq := url.Values{"start": window["start"], "end": window["end"], "uris": {"/events/1,/events/2"}, "unique": {"true"}}
	code, got := getStats(t, r, uniq)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(2), got[0].Hits)

	repeated := url.Values{"start": window["start"], "end": window["end"], "uris": {"/events/2"}}
	_, got = getStats(t, r, repeated)
	require.Len(t, got, 1)
	assert.Equal(t, "/events/2", got[0].URI)

	outside := url.Values{"start": {"2027-01-01 00:00:00"}, "end": {"2027-02-01 00:00:00"}}
	code, got = getStats(t, r, outside)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, got)
}

func TestStatsRejectsBadWindow(t *testing.T) {
	r := newRouter(t)

	code, _ := getStats(t, r, url.Values{"start": {"2026-10-31 00:00:00"}, "end": {"2026-10-01 00:00:00"}})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = getStats(t, r, url.Values{"start": {"yesterday"}, "end": {"2026-10-01 00:00:00"}})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSaveHitValidates(t *testing.T) {
	r := newRouter(t)

	assert.Equal(t, http.StatusBadRequest, postHit(t, r, "/events/1", "10.0.0.1", "2026-10-15T12:00:00"))
	assert.Equal(t, http.StatusBadRequest, postHit(t, r, "", "10.0.0.1", "2026-10-15 12:00:00"))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"/a", "/b", "/c"}, splitList([]string{"/a, /b", "/c", ""}))
	assert.Nil(t, splitList(nil))
}
