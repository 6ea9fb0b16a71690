package patient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type mockRepo struct {
	patients map[uuid.UUID]*Patient
}

func newMockRepo() *mockRepo {
	return &mockRepo{patients: make(map[uuid.UUID]*Patient)}
}

func (m *mockRepo) Create(_ context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.patients[p.ID] = p
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, fmt.Errorf("patient %s not found", id)
	}
	return p, nil
}

func (m *mockRepo) Update(_ context.Context, p *Patient) error {
	if _, ok := m.patients[p.ID]; !ok {
		return fmt.Errorf("patient %s not found", p.ID)
	}
	m.patients[p.ID] = p
	return nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Patient, int, error) {
	var out []*Patient
	for _, p := range m.patients {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ArrivalTime.After(out[j].ArrivalTime) })
	total := len(out)
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

func (m *mockRepo) ListByStatus(_ context.Context, status Status) ([]*Patient, error) {
	var out []*Patient
	for _, p := range m.patients {
		if p.Status == status {
			out = append(out, p)
		}
	}
	return out, nil
}

func seedHandler(t *testing.T) (*Handler, *mockRepo) {
	t.Helper()
	repo := newMockRepo()
	return NewHandler(NewService(repo)), repo
}

func get(h echo.HandlerFunc, target string, params map[string]string) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for k, v := range params {
		c.SetParamNames(k)
		c.SetParamValues(v)
	}
	err := h(c)
	return rec, err
}

func TestGetPatient(t *testing.T) {
	h, repo := seedHandler(t)
	p := &Patient{Name: "Jane", Age: 40, Gender: "Female", Status: StatusWaiting,
		PriorityClass: PriorityRoutine, ArrivalTime: time.Now()}
	repo.Create(context.Background(), p)

	rec, err := get(h.GetPatient, "/api/v1/patients/"+p.ID.String(),
		map[string]string{"id": p.ID.String()})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got Patient
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.ID != p.ID || got.Name != "Jane" {
		t.Errorf("unexpected patient: %+v", got)
	}
}

func TestGetPatient_InvalidID(t *testing.T) {
	h, _ := seedHandler(t)

	_, err := get(h.GetPatient, "/api/v1/patients/abc", map[string]string{"id": "abc"})
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestGetPatient_NotFound(t *testing.T) {
	h, _ := seedHandler(t)

	id := uuid.New().String()
	_, err := get(h.GetPatient, "/api/v1/patients/"+id, map[string]string{"id": id})
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 HTTPError, got %v", err)
	}
}

func TestListPatients_Paginated(t *testing.T) {
	h, repo := seedHandler(t)
	for i := 0; i < 3; i++ {
		repo.Create(context.Background(), &Patient{
			Name: fmt.Sprintf("p%d", i), Age: 30, Gender: "Male",
			Status: StatusWaiting, PriorityClass: PriorityRoutine,
			ArrivalTime: time.Now().Add(time.Duration(i) * time.Minute),
		})
	}

	rec, err := get(h.ListPatients, "/api/v1/patients?limit=2", nil)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp struct {
		Data    []Patient `json:"data"`
		Total   int       `json:"total"`
		HasMore bool      `json:"has_more"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 3 {
		t.Errorf("Total = %d, want 3", resp.Total)
	}
	if len(resp.Data) != 2 {
		t.Errorf("page size = %d, want 2", len(resp.Data))
	}
	if !resp.HasMore {
		t.Error("expected has_more on first page")
	}
}

func TestListPatients_StatusFilter(t *testing.T) {
	h, repo := seedHandler(t)
	repo.Create(context.Background(), &Patient{Name: "waiting", Age: 30, Gender: "Male",
		Status: StatusWaiting, PriorityClass: PriorityRoutine, ArrivalTime: time.Now()})
	repo.Create(context.Background(), &Patient{Name: "done", Age: 30, Gender: "Male",
		Status: StatusDischarged, PriorityClass: PriorityRoutine, ArrivalTime: time.Now()})

	rec, err := get(h.ListPatients, "/api/v1/patients?status=Waiting", nil)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var items []Patient
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(items) != 1 || items[0].Name != "waiting" {
		t.Errorf("unexpected filter result: %+v", items)
	}
}

func TestListPatients_InvalidStatus(t *testing.T) {
	h, _ := seedHandler(t)

	_, err := get(h.ListPatients, "/api/v1/patients?status=Sleeping", nil)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}
