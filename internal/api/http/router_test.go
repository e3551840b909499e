package http

import (
	"bytes"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/transfer-service/internal/api/http/handlers"
	"github.com/spec-kit/transfer-service/internal/auth"
	"github.com/spec-kit/transfer-service/internal/directory"
	"github.com/spec-kit/transfer-service/internal/domain"
	"github.com/spec-kit/transfer-service/internal/events"
	"github.com/spec-kit/transfer-service/internal/observability"
	"github.com/spec-kit/transfer-service/internal/repository/memory"
	"github.com/spec-kit/transfer-service/internal/service"
	"github.com/spec-kit/transfer-service/internal/worker"
)

const seed = `
tenants:
  - id: tenant-1
    code: ALPHA
    name: Alpha Holdings
    departments:
      - { id: dept-10, code: SALES, name: Sales }
  - id: tenant-2
    code: BETA
    name: Beta Industries
    departments:
      - { id: dept-20, code: ENG, name: Engineering }
      - { id: dept-21, code: OPS, name: Operations }
`

type testServer struct {
	app    *fiber.App
	tokens *auth.TokenManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	dir, err := directory.ParseStatic([]byte(seed))
	if err != nil {
		t.Fatalf("parse seed: %v", err)
	}
	store := memory.NewStore()
	dispatcher := events.NewInMemoryDispatcher()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	transfers := service.NewTransferService(service.TransferDependencies{
		TransferRepo: store.Transfers(),
		Directory:    dir,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	handover := service.NewHandoverService(service.HandoverDependencies{
		TransferRepo: store.Transfers(),
		HandoverRepo: store.Handover(),
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	tokens := auth.NewTokenManager("test-secret", 5)

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("transfer-service", "test", nil, nil),
		Ops:            handlers.NewOpsHandler(metrics, worker.NewCompletionScheduler(transfers, 0, 10, logger)),
		Transfers:      handlers.NewTransfersHandler(transfers),
		Handover:       handlers.NewHandoverHandler(handover),
		Directory:      handlers.NewDirectoryHandler(dir),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
	})
	return &testServer{app: app, tokens: tokens}
}

func (s *testServer) token(t *testing.T, caller domain.Caller) string {
	t.Helper()
	token, _, err := s.tokens.GenerateToken(caller)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return token
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, raw, err)
		}
	}
	return resp.StatusCode, env
}

type transferBody struct {
	ID                   string  `json:"id"`
	RequestNumber        string  `json:"requestNumber"`
	Status               string  `json:"status"`
	TargetDepartmentID   *string `json:"targetDepartmentId"`
	TargetDepartmentName string  `json:"targetDepartmentName"`
	TargetTenantName     string  `json:"targetTenantName"`
	EffectiveDate        *string `json:"effectiveDate"`
	RequestedDate        string  `json:"requestedDate"`
	SourceApprovedBy     *string `json:"sourceApprovedBy"`
	TargetComment        string  `json:"targetComment"`
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return v
}

var (
	sourceOperator = domain.Caller{UserID: "u-src", UserName: "Source Manager", TenantID: "tenant-1", Role: domain.CallerRoleOperator}
	targetOperator = domain.Caller{UserID: "u-tgt", UserName: "Target Manager", TenantID: "tenant-2", Role: domain.CallerRoleOperator}
)

func createTransfer(t *testing.T, s *testServer, token string) transferBody {
	t.Helper()
	status, env := s.do(t, nethttp.MethodPost, "/api/v1/transfers", token, map[string]any{
		"employeeId":         "emp-1",
		"employeeName":       "Hanako Tanaka",
		"sourceDepartmentId": "dept-10",
		"targetTenantId":     "tenant-2",
		"targetDepartmentId": "dept-20",
		"effectiveDate":      "2025-04-01",
		"reason":             "reassignment",
	})
	if status != nethttp.StatusCreated {
		t.Fatalf("create: status %d error %+v", status, env.Error)
	}
	return decode[transferBody](t, env.Data)
}

func TestHealthAndUnknownRoute(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	if status, _ := s.do(t, nethttp.MethodGet, "/health/live", "", nil); status != nethttp.StatusOK {
		t.Fatalf("live: %d", status)
	}
	if status, _ := s.do(t, nethttp.MethodGet, "/health/ready", "", nil); status != nethttp.StatusOK {
		t.Fatalf("ready with no dependencies configured: %d", status)
	}
	status, env := s.do(t, nethttp.MethodGet, "/nope", "", nil)
	if status != nethttp.StatusNotFound || env.Error == nil || env.Error.Code != "NOT_FOUND" {
		t.Fatalf("unknown route: %d %+v", status, env.Error)
	}
}

func TestAPIRequiresToken(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	status, env := s.do(t, nethttp.MethodGet, "/api/v1/transfers", "", nil)
	if status != nethttp.StatusUnauthorized || env.Error == nil || env.Error.Code != "UNAUTHORIZED" {
		t.Fatalf("expected 401 envelope, got %d %+v", status, env.Error)
	}
}

func TestTransferLifecycleOverHTTP(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	src := s.token(t, sourceOperator)
	tgt := s.token(t, targetOperator)

	created := createTransfer(t, s, src)
	if !strings.HasPrefix(created.RequestNumber, "TRF-") || !strings.HasSuffix(created.RequestNumber, "-0001") {
		t.Fatalf("unexpected request number %q", created.RequestNumber)
	}
	if created.Status != "DRAFT" || created.TargetTenantName != "Beta Industries" || created.TargetDepartmentName != "Engineering" {
		t.Fatalf("unexpected draft %+v", created)
	}
	if created.EffectiveDate == nil || *created.EffectiveDate != "2025-04-01" {
		t.Fatalf("effective date not rendered as a date: %v", created.EffectiveDate)
	}

	base := "/api/v1/transfers/" + created.ID
	if status, env := s.do(t, nethttp.MethodPost, base+"/submit", src, nil); status != nethttp.StatusOK {
		t.Fatalf("submit: %d %+v", status, env.Error)
	}

	status, env := s.do(t, nethttp.MethodPost, base+"/approve-source", tgt, nil)
	if status != nethttp.StatusForbidden || env.Error.Code != "FORBIDDEN" {
		t.Fatalf("target approving source side: %d %+v", status, env.Error)
	}

	status, env = s.do(t, nethttp.MethodPost, base+"/approve-source", src, nil)
	if status != nethttp.StatusOK {
		t.Fatalf("approve source: %d %+v", status, env.Error)
	}
	if body := decode[transferBody](t, env.Data); body.Status != "PENDING_TARGET" || body.SourceApprovedBy == nil {
		t.Fatalf("unexpected after approve source %+v", body)
	}

	status, env = s.do(t, nethttp.MethodPost, base+"/approve-source", src, nil)
	if status != nethttp.StatusConflict || env.Error.Code != "INVALID_STATE" {
		t.Fatalf("repeat approve source: %d %+v", status, env.Error)
	}

	status, env = s.do(t, nethttp.MethodPost, base+"/reject", tgt, map[string]string{"reason": " "})
	if status != nethttp.StatusBadRequest || env.Error.Code != "VALIDATION_FAILED" {
		t.Fatalf("reject without reason: %d %+v", status, env.Error)
	}

	status, env = s.do(t, nethttp.MethodPost, base+"/reject", tgt, map[string]string{"reason": "no headcount"})
	if status != nethttp.StatusOK {
		t.Fatalf("reject: %d %+v", status, env.Error)
	}
	if body := decode[transferBody](t, env.Data); body.Status != "REJECTED" || body.TargetComment != "no headcount" {
		t.Fatalf("unexpected after reject %+v", body)
	}

	status, env = s.do(t, nethttp.MethodPost, base+"/cancel", src, map[string]string{"reason": "late"})
	if status != nethttp.StatusConflict || env.Error.Code != "INVALID_STATE" {
		t.Fatalf("cancel after reject: %d %+v", status, env.Error)
	}
}

func TestUpdateClearsNullableFields(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	src := s.token(t, sourceOperator)
	created := createTransfer(t, s, src)
	path := "/api/v1/transfers/" + created.ID

	status, env := s.do(t, nethttp.MethodPut, path, src, map[string]any{"targetDepartmentId": "dept-21"})
	if status != nethttp.StatusOK {
		t.Fatalf("update: %d %+v", status, env.Error)
	}
	if body := decode[transferBody](t, env.Data); body.TargetDepartmentName != "Operations" {
		t.Fatalf("expected name re-resolved, got %+v", body)
	}

	status, env = s.do(t, nethttp.MethodPut, path, src, map[string]any{"targetDepartmentId": nil, "effectiveDate": nil})
	if status != nethttp.StatusOK {
		t.Fatalf("clear: %d %+v", status, env.Error)
	}
	body := decode[transferBody](t, env.Data)
	if body.TargetDepartmentID != nil || body.EffectiveDate != nil {
		t.Fatalf("expected cleared fields, got %+v", body)
	}

	status, env = s.do(t, nethttp.MethodPut, path, src, map[string]any{"effectiveDate": "01/04/2025"})
	if status != nethttp.StatusBadRequest || env.Error.Details["field"] != "effectiveDate" {
		t.Fatalf("bad date: %d %+v", status, env.Error)
	}
}

func TestGetDeleteAndList(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	src := s.token(t, sourceOperator)

	status, env := s.do(t, nethttp.MethodGet, "/api/v1/transfers/missing", src, nil)
	if status != nethttp.StatusNotFound || env.Error.Code != "NOT_FOUND" {
		t.Fatalf("get missing: %d %+v", status, env.Error)
	}

	first := createTransfer(t, s, src)
	createTransfer(t, s, src)

	if status, env := s.do(t, nethttp.MethodDelete, "/api/v1/transfers/"+first.ID, src, nil); status != nethttp.StatusNoContent {
		t.Fatalf("delete: %d %+v", status, env.Error)
	}

	status, env = s.do(t, nethttp.MethodGet, "/api/v1/transfers?size=1&status=draft", src, nil)
	if status != nethttp.StatusOK {
		t.Fatalf("list: %d %+v", status, env.Error)
	}
	page := decode[struct {
		Content       []transferBody `json:"content"`
		TotalElements int            `json:"totalElements"`
		TotalPages    int            `json:"totalPages"`
	}](t, env.Data)
	if page.TotalElements != 1 || page.TotalPages != 1 || len(page.Content) != 1 {
		t.Fatalf("unexpected page %+v", page)
	}
	if !strings.HasSuffix(page.Content[0].RequestNumber, "-0002") {
		t.Fatalf("expected the surviving second request, got %s", page.Content[0].RequestNumber)
	}

	for _, query := range []string{"status=LOST", "type=PROMOTION", "page=abc"} {
		status, env := s.do(t, nethttp.MethodGet, "/api/v1/transfers?"+query, src, nil)
		if status != nethttp.StatusBadRequest || env.Error.Code != "VALIDATION_FAILED" {
			t.Errorf("%s: %d %+v", query, status, env.Error)
		}
	}

	status, env = s.do(t, nethttp.MethodGet, "/api/v1/transfers/summary", src, nil)
	if status != nethttp.StatusOK {
		t.Fatalf("summary: %d %+v", status, env.Error)
	}
}

func TestHandoverItemsOverHTTP(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	src := s.token(t, sourceOperator)
	tgt := s.token(t, targetOperator)
	created := createTransfer(t, s, src)
	base := "/api/v1/transfers/" + created.ID + "/handover-items"

	status, env := s.do(t, nethttp.MethodPost, base, src, map[string]string{"category": "ACCESS", "title": "Return badge"})
	if status != nethttp.StatusCreated {
		t.Fatalf("add: %d %+v", status, env.Error)
	}
	item := decode[struct {
		ID          string `json:"id"`
		IsCompleted bool   `json:"isCompleted"`
	}](t, env.Data)

	status, env = s.do(t, nethttp.MethodPost, base+"/"+item.ID+"/complete", tgt, nil)
	if status != nethttp.StatusOK {
		t.Fatalf("complete: %d %+v", status, env.Error)
	}
	status, env = s.do(t, nethttp.MethodPost, base+"/"+item.ID+"/complete", tgt, nil)
	if status != nethttp.StatusConflict || env.Error.Code != "INVALID_STATE" {
		t.Fatalf("complete twice: %d %+v", status, env.Error)
	}

	status, env = s.do(t, nethttp.MethodGet, base, src, nil)
	if status != nethttp.StatusOK {
		t.Fatalf("list: %d", status)
	}
	items := decode[[]struct {
		IsCompleted bool `json:"isCompleted"`
	}](t, env.Data)
	if len(items) != 1 || !items[0].IsCompleted {
		t.Fatalf("unexpected items %+v", items)
	}
}

func TestDirectoryAndAdminRoutes(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	src := s.token(t, sourceOperator)

	status, env := s.do(t, nethttp.MethodGet, "/api/v1/directory/tenants/tenant-2/departments", src, nil)
	if status != nethttp.StatusOK {
		t.Fatalf("departments: %d", status)
	}
	if depts := decode[[]map[string]any](t, env.Data); len(depts) != 2 {
		t.Fatalf("expected 2 departments, got %d", len(depts))
	}

	if status, _ := s.do(t, nethttp.MethodPost, "/api/v1/admin/completion-sweep", src, nil); status != nethttp.StatusForbidden {
		t.Fatalf("operator sweep: %d", status)
	}
	system := s.token(t, domain.SystemCaller("ops"))
	status, env = s.do(t, nethttp.MethodPost, "/api/v1/admin/completion-sweep", system, nil)
	if status != nethttp.StatusOK {
		t.Fatalf("system sweep: %d %+v", status, env.Error)
	}

	resp, err := s.app.Test(httptest.NewRequest(nethttp.MethodGet, "/metrics", nil))
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	var snap observability.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode metrics: %v", err)
	}
	if len(snap.Requests) == 0 || len(snap.Errors) == 0 {
		t.Fatalf("expected recorded requests and errors, got %+v", snap)
	}
}
