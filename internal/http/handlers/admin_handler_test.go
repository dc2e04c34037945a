package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-tellonym/internal/domain"
	"github.com/tbourn/go-tellonym/internal/repo"
	"github.com/tbourn/go-tellonym/internal/services"
)

func newAdminRouter(t *testing.T) (*gin.Engine, *services.AdminService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:admin_handlers_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	svc := &services.AdminService{Store: repo.NewConfigStore(db, "dep", domain.DefaultSettings("dep"))}

	h := New(svc)
	r := gin.New()
	g := r.Group("/admin")
	g.GET("/settings", h.GetSettings)
	g.PATCH("/settings", h.UpdateSettings)
	g.GET("/bans", h.ListBans)
	g.PUT("/bans/:user_id", h.Ban)
	g.DELETE("/bans/:user_id", h.Unban)
	g.GET("/stats/messages", h.MessageStats)
	g.DELETE("/stats/messages", h.ResetMessageStats)
	g.GET("/stats/rate", h.RateStats)
	return r, svc
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %T: %v (%s)", v, err, w.Body.String())
	}
	return v
}

func TestSettings_GetAndPatch(t *testing.T) {
	r, _ := newAdminRouter(t)

	w := do(r, http.MethodGet, "/admin/settings", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET settings: %d", w.Code)
	}
	got := decode[SettingsResponse](t, w)
	if !got.Enabled || got.RatePolicy != (domain.RatePolicy{Limit: 5, WindowMinutes: 1}) {
		t.Fatalf("defaults unexpected: %+v", got)
	}

	w = do(r, http.MethodPatch, "/admin/settings", `{"log_channel_id":"123456789012345678","enabled":false,"rate_limit":3}`)
	if w.Code != http.StatusOK {
		t.Fatalf("PATCH settings: %d %s", w.Code, w.Body.String())
	}
	got = decode[SettingsResponse](t, w)
	if got.LogChannelID != "123456789012345678" || got.Enabled {
		t.Fatalf("patch not applied: %+v", got)
	}
	if got.RatePolicy != (domain.RatePolicy{Limit: 3, WindowMinutes: 1}) {
		t.Fatalf("rate limit should merge with stored window: %+v", got.RatePolicy)
	}

	w = do(r, http.MethodPatch, "/admin/settings", `{"rate_window_minutes":15}`)
	got = decode[SettingsResponse](t, w)
	if got.RatePolicy != (domain.RatePolicy{Limit: 3, WindowMinutes: 15}) || got.LogChannelID != "123456789012345678" {
		t.Fatalf("second patch lost fields: %+v", got)
	}
}

func TestSettings_PatchRejectsBadInput(t *testing.T) {
	r, _ := newAdminRouter(t)
	cases := []struct {
		name, body, code string
	}{
		{"not json", `{`, ErrCodeBadRequest},
		{"negative limit", `{"rate_limit":-1}`, ErrCodeBadRequest},
		{"zero window", `{"rate_window_minutes":0}`, ErrCodeBadRequest},
		{"bad channel", `{"admin_log_channel_id":"general"}`, ErrCodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(r, http.MethodPatch, "/admin/settings", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d; want 400 (%s)", w.Code, w.Body.String())
			}
			if er := decode[ErrorResponse](t, w); er.Code != tc.code {
				t.Fatalf("code = %q; want %q", er.Code, tc.code)
			}
		})
	}
}

func TestBans_Lifecycle(t *testing.T) {
	r, _ := newAdminRouter(t)
	ids := []string{"111111111111111111", "222222222222222222", "333333333333333333"}

	for _, id := range ids {
		if w := do(r, http.MethodPut, "/admin/bans/"+id, ""); w.Code != http.StatusNoContent {
			t.Fatalf("ban %s: %d %s", id, w.Code, w.Body.String())
		}
	}
	if w := do(r, http.MethodPut, "/admin/bans/"+ids[0], ""); w.Code != http.StatusConflict {
		t.Fatalf("duplicate ban: %d", w.Code)
	}
	if w := do(r, http.MethodPut, "/admin/bans/someone", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("invalid id: %d", w.Code)
	}

	w := do(r, http.MethodGet, "/admin/bans?page=1&page_size=2", "")
	page := decode[ListBansResponse](t, w)
	if len(page.Bans) != 2 || page.Pagination.Total != 3 || page.Pagination.TotalPages != 2 || !page.Pagination.HasNext {
		t.Fatalf("page 1 unexpected: %+v", page)
	}
	w = do(r, http.MethodGet, "/admin/bans?page=2&page_size=2", "")
	page = decode[ListBansResponse](t, w)
	if len(page.Bans) != 1 || page.Pagination.HasNext {
		t.Fatalf("page 2 unexpected: %+v", page)
	}

	if w := do(r, http.MethodDelete, "/admin/bans/"+ids[1], ""); w.Code != http.StatusNoContent {
		t.Fatalf("unban: %d", w.Code)
	}
	if w := do(r, http.MethodDelete, "/admin/bans/"+ids[1], ""); w.Code != http.StatusNotFound {
		t.Fatalf("unban twice: %d", w.Code)
	}

	settings := decode[SettingsResponse](t, do(r, http.MethodGet, "/admin/settings", ""))
	if settings.BannedCount != 2 {
		t.Fatalf("banned_count = %d", settings.BannedCount)
	}
}

func TestStats_MessagesAndRate(t *testing.T) {
	r, svc := newAdminRouter(t)
	ctx := context.Background()
	for _, mt := range []domain.MessageType{domain.TypeQuestion, domain.TypeQuestion, domain.TypeConfession} {
		if err := svc.Store.IncrementCounter(ctx, mt); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}

	st := decode[services.MessageStats](t, do(r, http.MethodGet, "/admin/stats/messages", ""))
	if st.Total != 3 || st.Counts[domain.TypeQuestion] != 2 {
		t.Fatalf("stats unexpected: %+v", st)
	}
	prev := decode[services.MessageStats](t, do(r, http.MethodDelete, "/admin/stats/messages", ""))
	if prev.Total != 3 {
		t.Fatalf("reset should return previous counts: %+v", prev)
	}
	st = decode[services.MessageStats](t, do(r, http.MethodGet, "/admin/stats/messages", ""))
	if st.Total != 0 {
		t.Fatalf("counts not reset: %+v", st)
	}

	rs := decode[services.RateStats](t, do(r, http.MethodGet, "/admin/stats/rate", ""))
	if rs.Limit != 5 || rs.WindowMinutes != 1 || rs.TrackedUsers != 0 {
		t.Fatalf("rate stats unexpected: %+v", rs)
	}
}

type brokenAdmin struct{ AdminService }

func (brokenAdmin) Config(context.Context) (domain.Config, error) {
	return domain.Config{}, errors.New("db down")
}

func TestAdmin_InternalErrorEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/settings", New(brokenAdmin{}).GetSettings)

	w := do(r, http.MethodGet, "/settings", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if er := decode[ErrorResponse](t, w); er.Code != ErrCodeInternal || strings.Contains(er.Message, "db down") {
		t.Fatalf("internal details leaked: %+v", er)
	}
}

func TestClampPagination(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := map[string][2]int{
		"":                     {1, 20},
		"page=0&page_size=0":   {1, 1},
		"page=3&page_size=500": {3, 100},
		"page=x&page_size=y":   {1, 20},
	}
	for q, want := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/bans?"+q, nil)
		pg := clampPagination(c)
		if pg.Number != want[0] || pg.Size != want[1] {
			t.Errorf("clampPagination(%q) = %+v; want %v", q, pg, want)
		}
	}
}
