package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/moderation"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/moderation/moderationtest"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/routes"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	testSecret     = "test-secret"
	testAdminToken = "admin-token"
)

type testServer struct {
	app     *fiber.App
	fixture *moderationtest.Fixture
	admin   uuid.UUID
	t       *testing.T
}

func newTestServer(t *testing.T, adminUserIDs ...string) *testServer {
	t.Helper()
	f := moderationtest.NewFixture()
	cfg := &config.Config{
		JWTSecret:   testSecret,
		AdminToken:  testAdminToken,
		CORSOrigins: "*",
	}
	for _, id := range adminUserIDs {
		if cfg.AdminUserIDs != "" {
			cfg.AdminUserIDs += ","
		}
		cfg.AdminUserIDs += id
	}

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	routes.Setup(app, cfg, nil,
		handlers.NewHealthHandler(func() error { return nil }),
		handlers.NewModerationHandler(f.Orchestrator, handlers.NewValidator()),
	)
	return &testServer{app: app, fixture: f, admin: uuid.New(), t: t}
}

func bearer(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID.String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + signed
}

func (s *testServer) do(method, path string, body interface{}, headers map[string]string) (int, []byte) {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			s.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := s.app.Test(req, -1)
	if err != nil {
		s.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out
}

func (s *testServer) asUser(userID uuid.UUID) map[string]string {
	return map[string]string{"Authorization": bearer(s.t, userID)}
}

func (s *testServer) asAdmin() map[string]string {
	return map[string]string{"X-Admin-Token": testAdminToken, "X-Admin-ID": s.admin.String()}
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	return out
}

func (s *testServer) submit(reporter, reported uuid.UUID, contentID string) models.Report {
	s.t.Helper()
	status, body := s.do(http.MethodPost, "/api/reports", map[string]interface{}{
		"reported_user_id": reported,
		"content_type":     "song",
		"content_id":       contentID,
		"reason":           "explicit content",
	}, s.asUser(reporter))
	if status != fiber.StatusCreated {
		s.t.Fatalf("expected 201, got %d: %s", status, body)
	}
	return decode[models.Report](s.t, body)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	status, body := s.do(http.MethodGet, "/api/health", nil, nil)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if got := decode[dto.HealthResponse](t, body); got.DB != "ok" {
		t.Errorf("expected db ok, got %q", got.DB)
	}
}

func TestCreateReport(t *testing.T) {
	s := newTestServer(t)
	reporter, reported := uuid.New(), uuid.New()

	report := s.submit(reporter, reported, "song-1")
	if report.State != models.ReportOpen || report.ReporterID != reporter {
		t.Errorf("unexpected report %+v", report)
	}

	status, body := s.do(http.MethodPost, "/api/reports", map[string]interface{}{
		"reported_user_id": reported,
		"content_type":     "song",
		"content_id":       "song-1",
		"reason":           "again",
	}, s.asUser(reporter))
	if status != fiber.StatusConflict {
		t.Errorf("expected 409 for duplicate, got %d: %s", status, body)
	}
}

func TestCreateReport_Errors(t *testing.T) {
	s := newTestServer(t)
	reporter := uuid.New()

	tests := []struct {
		name    string
		body    map[string]interface{}
		headers map[string]string
		want    int
	}{
		{"no token", map[string]interface{}{"reason": "x"}, nil, fiber.StatusUnauthorized},
		{"missing reason", map[string]interface{}{
			"reported_user_id": uuid.New(), "content_type": "song",
		}, s.asUser(reporter), fiber.StatusBadRequest},
		{"unknown content type", map[string]interface{}{
			"reported_user_id": uuid.New(), "content_type": "story", "reason": "x",
		}, s.asUser(reporter), fiber.StatusBadRequest},
		{"self report", map[string]interface{}{
			"reported_user_id": reporter, "content_type": "profile", "reason": "x",
		}, s.asUser(reporter), fiber.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := s.do(http.MethodPost, "/api/reports", tt.body, tt.headers)
			if status != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, status, body)
			}
		})
	}
}

func TestCreateReport_RateLimited(t *testing.T) {
	s := newTestServer(t)
	reporter := uuid.New()
	for _, id := range []string{"a", "b", "c"} {
		s.submit(reporter, uuid.New(), id)
	}

	status, body := s.do(http.MethodPost, "/api/reports", map[string]interface{}{
		"reported_user_id": uuid.New(), "content_type": "song", "content_id": "d", "reason": "x",
	}, s.asUser(reporter))
	if status != fiber.StatusTooManyRequests {
		t.Errorf("expected 429, got %d: %s", status, body)
	}
}

func TestAdminAccess(t *testing.T) {
	listedAdmin := uuid.New()
	s := newTestServer(t, listedAdmin.String())

	tests := []struct {
		name    string
		headers map[string]string
		want    int
	}{
		{"anonymous", nil, fiber.StatusUnauthorized},
		{"regular user", s.asUser(uuid.New()), fiber.StatusForbidden},
		{"listed admin", s.asUser(listedAdmin), fiber.StatusOK},
		{"admin token", s.asAdmin(), fiber.StatusOK},
		{"admin token without id", map[string]string{"X-Admin-Token": testAdminToken}, fiber.StatusBadRequest},
		{"wrong admin token", map[string]string{"X-Admin-Token": "nope"}, fiber.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := s.do(http.MethodGet, "/api/admin/moderation/reports", nil, tt.headers)
			if status != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, status, body)
			}
		})
	}
}

func TestResolveReport(t *testing.T) {
	s := newTestServer(t)
	reporter, reported := uuid.New(), uuid.New()
	report := s.submit(reporter, reported, "song-1")
	s.fixture.Content.Put(models.ContentSong, "song-1")

	path := "/api/admin/moderation/reports/" + report.ID.String() + "/resolve"
	status, body := s.do(http.MethodPost, path, map[string]interface{}{
		"sanction_type": "temporary_suspension",
		"reason":        "explicit content",
		"duration_days": 5,
		"purge_content": true,
	}, s.asAdmin())
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}

	res := decode[moderation.Resolution](t, body)
	if res.Report.State != models.ReportResolved {
		t.Errorf("expected resolved, got %s", res.Report.State)
	}
	if res.Report.ResolvedBy == nil || *res.Report.ResolvedBy != s.admin {
		t.Errorf("expected resolved by %s, got %v", s.admin, res.Report.ResolvedBy)
	}
	if res.Sanction.Type != models.SanctionTemporarySuspension || res.Sanction.AdminID != s.admin {
		t.Errorf("unexpected sanction %+v", res.Sanction)
	}
	if !res.ContentPurged {
		t.Error("expected content purged")
	}
	if got := s.fixture.Reputation.Score(reporter); got != 25 {
		t.Errorf("expected +25, got %d", got)
	}

	status, _ = s.do(http.MethodPost, path, map[string]interface{}{
		"sanction_type": "warning", "reason": "again",
	}, s.asAdmin())
	if status != fiber.StatusConflict {
		t.Errorf("expected 409 on second resolve, got %d", status)
	}
}

func TestResolveReport_Errors(t *testing.T) {
	s := newTestServer(t)
	report := s.submit(uuid.New(), uuid.New(), "song-1")
	path := "/api/admin/moderation/reports/" + report.ID.String() + "/resolve"

	tests := []struct {
		name string
		path string
		body map[string]interface{}
		want int
	}{
		{"bad id", "/api/admin/moderation/reports/nope/resolve", map[string]interface{}{"sanction_type": "warning", "reason": "x"}, fiber.StatusBadRequest},
		{"unknown report", "/api/admin/moderation/reports/" + uuid.NewString() + "/resolve", map[string]interface{}{"sanction_type": "warning", "reason": "x"}, fiber.StatusNotFound},
		{"unknown sanction type", path, map[string]interface{}{"sanction_type": "ban", "reason": "x"}, fiber.StatusBadRequest},
		{"temporary without duration", path, map[string]interface{}{"sanction_type": "temporary_suspension", "reason": "x"}, fiber.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := s.do(http.MethodPost, tt.path, tt.body, s.asAdmin())
			if status != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, status, body)
			}
		})
	}
	if len(s.fixture.Ledger.All()) != 0 {
		t.Error("expected no sanctions written")
	}
}

func TestDismissAndReopen(t *testing.T) {
	s := newTestServer(t)
	report := s.submit(uuid.New(), uuid.New(), "song-1")
	base := "/api/admin/moderation/reports/" + report.ID.String()

	status, _ := s.do(http.MethodPost, base+"/reopen", nil, s.asAdmin())
	if status != fiber.StatusConflict {
		t.Errorf("expected 409 reopening an open report, got %d", status)
	}

	status, body := s.do(http.MethodPost, base+"/dismiss", nil, s.asAdmin())
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	if got := decode[models.Report](t, body); got.State != models.ReportDismissed {
		t.Errorf("expected dismissed, got %s", got.State)
	}

	status, body = s.do(http.MethodPost, base+"/reopen", nil, s.asAdmin())
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	if got := decode[models.Report](t, body); got.State != models.ReportOpen || got.ResolvedBy != nil {
		t.Errorf("expected open report without resolver, got %+v", got)
	}

	status, body = s.do(http.MethodGet, base, nil, s.asAdmin())
	if status != fiber.StatusOK {
		t.Errorf("expected 200, got %d: %s", status, body)
	}
}

func TestListReports(t *testing.T) {
	s := newTestServer(t)
	first := s.submit(uuid.New(), uuid.New(), "a")
	s.submit(uuid.New(), uuid.New(), "b")
	if status, body := s.do(http.MethodPost, "/api/admin/moderation/reports/"+first.ID.String()+"/dismiss", nil, s.asAdmin()); status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}

	status, body := s.do(http.MethodGet, "/api/admin/moderation/reports?state=open", nil, s.asAdmin())
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	list := decode[dto.ReportListResponse](t, body)
	if list.Total != 1 || len(list.Reports) != 1 {
		t.Errorf("expected 1 open report, got %d", list.Total)
	}
	if list.Limit != 20 {
		t.Errorf("expected default limit 20, got %d", list.Limit)
	}

	status, _ = s.do(http.MethodGet, "/api/admin/moderation/reports?state=closed", nil, s.asAdmin())
	if status != fiber.StatusBadRequest {
		t.Errorf("expected 400 for unknown state, got %d", status)
	}
}

func TestSanctionEndpoints(t *testing.T) {
	s := newTestServer(t)
	user := uuid.New()

	status, body := s.do(http.MethodPost, "/api/admin/moderation/sanctions", map[string]interface{}{
		"user_id":       user,
		"sanction_type": "permanent_suspension",
		"reason":        "fraud",
	}, s.asAdmin())
	if status != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", status, body)
	}
	sanction := decode[models.Sanction](t, body)
	if !s.fixture.Content.Suspended(user) {
		t.Error("expected user suspended")
	}

	status, body = s.do(http.MethodPost, "/api/admin/moderation/sanctions/"+sanction.ID.String()+"/revoke", nil, s.asAdmin())
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	if got := decode[models.Sanction](t, body); got.State != models.SanctionRevoked {
		t.Errorf("expected revoked, got %s", got.State)
	}
	if s.fixture.Content.Suspended(user) {
		t.Error("expected suspension lifted")
	}

	status, _ = s.do(http.MethodPost, "/api/admin/moderation/sanctions/"+sanction.ID.String()+"/revoke", nil, s.asAdmin())
	if status != fiber.StatusConflict {
		t.Errorf("expected 409 revoking twice, got %d", status)
	}

	status, body = s.do(http.MethodGet, "/api/admin/moderation/users/"+user.String()+"/sanctions", nil, s.asAdmin())
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	if got := decode[dto.SanctionListResponse](t, body); len(got.Sanctions) != 1 {
		t.Errorf("expected 1 sanction, got %d", len(got.Sanctions))
	}
}

func TestDependencyFailureHidesDetails(t *testing.T) {
	s := newTestServer(t)
	s.fixture.Reports.Err = errors.New("pq: connection refused")

	status, body := s.do(http.MethodGet, "/api/admin/moderation/reports/"+uuid.NewString(), nil, s.asAdmin())
	if status != fiber.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", status)
	}
	got := decode[dto.ErrorResponse](t, body)
	if got.Message != "Internal server error" {
		t.Errorf("expected hidden message, got %q", got.Message)
	}
}
