package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

type mockNotifier struct {
	notified []*Provider
}

func (m *mockNotifier) ProviderStatusChanged(_ context.Context, p *Provider) {
	m.notified = append(m.notified, p)
}

func handlerRequest(h echo.HandlerFunc, method, target, body string, params map[string]string) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for k, v := range params {
		c.SetParamNames(k)
		c.SetParamValues(v)
	}
	err := h(c)
	return rec, err
}

func TestCreateProviderHandler(t *testing.T) {
	repo := newMockRepo()
	notifier := &mockNotifier{}
	h := NewHandler(NewService(repo), notifier)

	body := `{"name":"Dr. Stone","role":"Doctor","capabilities":["Cardiology"]}`
	rec, err := handlerRequest(h.CreateProvider, http.MethodPost, "/api/v1/providers", body, nil)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}

	var created Provider
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.Status != StatusAvailable {
		t.Errorf("Status = %s, want Available by default", created.Status)
	}
}

func TestCreateProviderHandler_InvalidRole(t *testing.T) {
	h := NewHandler(NewService(newMockRepo()), nil)

	body := `{"name":"Dr. Who","role":"Timelord"}`
	_, err := handlerRequest(h.CreateProvider, http.MethodPost, "/api/v1/providers", body, nil)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestChangeStatusHandler_Notifies(t *testing.T) {
	repo := newMockRepo()
	notifier := &mockNotifier{}
	h := NewHandler(NewService(repo), notifier)
	ctx := context.Background()

	p := &Provider{Name: "Dr. Break", Role: RoleDoctor, Status: StatusAvailable}
	repo.Create(ctx, p)

	rec, err := handlerRequest(h.ChangeStatus, http.MethodPatch, "/x",
		`{"status":"On-Break"}`, map[string]string{"id": p.ID.String()})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	if len(notifier.notified) != 1 {
		t.Fatalf("notifier called %d times, want 1", len(notifier.notified))
	}
	if notifier.notified[0].Status != StatusOnBreak {
		t.Errorf("notified status = %s, want On-Break", notifier.notified[0].Status)
	}
}

func TestChangeStatusHandler_RejectedChangeDoesNotNotify(t *testing.T) {
	repo := newMockRepo()
	notifier := &mockNotifier{}
	h := NewHandler(NewService(repo), notifier)

	p := &Provider{Name: "Dr. Busy", Role: RoleDoctor, Status: StatusAvailable}
	repo.Create(context.Background(), p)

	_, err := handlerRequest(h.ChangeStatus, http.MethodPatch, "/x",
		`{"status":"Busy"}`, map[string]string{"id": p.ID.String()})
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
	if len(notifier.notified) != 0 {
		t.Error("rejected change must not notify")
	}
}

func TestListProvidersHandler(t *testing.T) {
	repo := newMockRepo()
	h := NewHandler(NewService(repo), nil)
	ctx := context.Background()

	repo.Create(ctx, &Provider{Name: "Dr. A", Role: RoleDoctor, Status: StatusAvailable})
	repo.Create(ctx, &Provider{Name: "Nurse B", Role: RoleNurse, Status: StatusAvailable})

	rec, err := handlerRequest(h.ListProviders, http.MethodGet, "/api/v1/providers", "", nil)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp struct {
		Data  []Provider `json:"data"`
		Total int        `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 2 || len(resp.Data) != 2 {
		t.Errorf("unexpected list response: total=%d len=%d", resp.Total, len(resp.Data))
	}
}

func TestGetProviderHandler_InvalidID(t *testing.T) {
	h := NewHandler(NewService(newMockRepo()), nil)

	_, err := handlerRequest(h.GetProvider, http.MethodGet, "/x", "", map[string]string{"id": "zzz"})
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}
