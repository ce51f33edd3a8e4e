package projects

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/EmpoweredVote/EV-CityMap/internal/db"
)

// memStore is an in-memory Store for handler tests.
type memStore struct {
	mu       sync.Mutex
	users    map[string]User
	projects []Project
	next     int
}

func newMemStore() *memStore {
	return &memStore{users: map[string]User{}}
}

func (m *memStore) id() string {
	m.next++
	return fmt.Sprintf("id-%d", m.next)
}

func (m *memStore) IdentifyUser(_ context.Context, username string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	u := User{ID: m.id(), Username: username, CreatedAt: time.Now()}
	m.users[u.ID] = u
	return u, nil
}

func (m *memStore) UserExists(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return ErrUserNotFound
	}
	return nil
}

func (m *memStore) ListProjects(_ context.Context, userID, attribute string) ([]Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Project
	for i := len(m.projects) - 1; i >= 0; i-- {
		p := m.projects[i]
		if p.UserID != userID {
			continue
		}
		if attribute != "" && !contains(p.Attributes, attribute) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (m *memStore) SaveProject(_ context.Context, userID, name string, filters json.RawMessage) (Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := Project{ID: m.id(), UserID: userID, Name: name, Filters: string(filters), Attributes: filterAttributes(filters), CreatedAt: time.Now()}
	m.projects = append(m.projects, p)
	return p, nil
}

func (m *memStore) GetProject(_ context.Context, id string) (Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.projects {
		if p.ID == id {
			return p, nil
		}
	}
	return Project{}, ErrProjectNotFound
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestProjectLifecycle(t *testing.T) {
	h := SetupRoutes(newMemStore())

	rec := do(t, h, http.MethodPost, "/users/identify", `{"username":"  dana  "}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("identify: %d %s", rec.Code, rec.Body.String())
	}
	var user User
	json.NewDecoder(rec.Body).Decode(&user)
	if user.Username != "dana" || user.ID == "" {
		t.Fatalf("user = %+v", user)
	}

	again := do(t, h, http.MethodPost, "/users/identify", `{"username":"dana"}`)
	var same User
	json.NewDecoder(again.Body).Decode(&same)
	if same.ID != user.ID {
		t.Errorf("identify created a second user: %s vs %s", same.ID, user.ID)
	}

	base := "/users/" + user.ID + "/projects"
	rec = do(t, h, http.MethodPost, base, `{"name":"Tall","filters":[{"attribute":"height_ft","operator":">","value":100}]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("save: %d %s", rec.Code, rec.Body.String())
	}
	var saved map[string]any
	json.NewDecoder(rec.Body).Decode(&saved)
	fs, ok := saved["filters"].([]any)
	if !ok || len(fs) != 1 {
		t.Fatalf("filters not echoed: %v", saved["filters"])
	}

	rec = do(t, h, http.MethodPost, base, `{"name":"Zoned","filters":[{"attribute":"zoning","operator":"contains","value":"rc"}]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("save second: %d", rec.Code)
	}

	rec = do(t, h, http.MethodGet, base, "")
	var list struct {
		Projects []map[string]any `json:"projects"`
	}
	json.NewDecoder(rec.Body).Decode(&list)
	if len(list.Projects) != 2 || list.Projects[0]["name"] != "Zoned" {
		t.Fatalf("list = %+v", list.Projects)
	}

	rec = do(t, h, http.MethodGet, base+"?attribute=height_ft", "")
	list.Projects = nil
	json.NewDecoder(rec.Body).Decode(&list)
	if len(list.Projects) != 1 || list.Projects[0]["name"] != "Tall" {
		t.Fatalf("attribute list = %+v", list.Projects)
	}

	rec = do(t, h, http.MethodGet, "/projects/"+saved["id"].(string), "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"Tall"`) {
		t.Fatalf("load: %d %s", rec.Code, rec.Body.String())
	}
}

func TestProjectValidation(t *testing.T) {
	store := newMemStore()
	user, _ := store.IdentifyUser(context.Background(), "erin")
	h := SetupRoutes(store)
	base := "/users/" + user.ID + "/projects"

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		code   int
	}{
		{"empty username", http.MethodPost, "/users/identify", `{"username":"   "}`, http.StatusBadRequest},
		{"bad identify body", http.MethodPost, "/users/identify", `not json`, http.StatusBadRequest},
		{"missing name", http.MethodPost, base, `{"filters":[]}`, http.StatusBadRequest},
		{"filters not array", http.MethodPost, base, `{"name":"x","filters":{"a":1}}`, http.StatusBadRequest},
		{"null filters ok", http.MethodPost, base, `{"name":"x","filters":null}`, http.StatusCreated},
		{"unknown user list", http.MethodGet, "/users/nope/projects", "", http.StatusNotFound},
		{"unknown user save", http.MethodPost, "/users/nope/projects", `{"name":"x"}`, http.StatusNotFound},
		{"unknown project", http.MethodGet, "/projects/nope", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, tt.body)
			if rec.Code != tt.code {
				t.Errorf("code = %d, want %d; body %s", rec.Code, tt.code, rec.Body.String())
			}
		})
	}
}

func TestUnavailableWithoutStore(t *testing.T) {
	rec := do(t, SetupRoutes(nil), http.MethodPost, "/users/identify", `{"username":"a"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("code = %d", rec.Code)
	}
}

func TestProjectMarshalJSON(t *testing.T) {
	b, err := json.Marshal(Project{ID: "p", Name: "n", Filters: "not json"})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(b, []byte(`"filters":[]`)) || !bytes.Contains(b, []byte(`"attributes":[]`)) {
		t.Errorf("json = %s", b)
	}
}

func TestFilterAttributes(t *testing.T) {
	got := filterAttributes(json.RawMessage(`[{"attribute":"zoning"},{"attribute":"zoning"},{"attribute":5},"x",{"attribute":"height_m"}]`))
	if len(got) != 2 || got[0] != "zoning" || got[1] != "height_m" {
		t.Errorf("attributes = %v", got)
	}
}

func TestGormStore(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	if err := db.Connect(dsn); err != nil {
		t.Fatalf("connect: %v", err)
	}
	store, err := Init(db.DB)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	ctx := context.Background()

	name := fmt.Sprintf("test-user-%d", time.Now().UnixNano())
	u, err := store.IdentifyUser(ctx, name)
	if err != nil {
		t.Fatalf("identify: %v", err)
	}
	t.Cleanup(func() {
		db.DB.Where("user_id = ?", u.ID).Delete(&Project{})
		db.DB.Delete(&User{}, "id = ?", u.ID)
	})

	again, err := store.IdentifyUser(ctx, name)
	if err != nil || again.ID != u.ID {
		t.Fatalf("second identify = %+v, %v", again, err)
	}
	if err := store.UserExists(ctx, u.ID); err != nil {
		t.Fatalf("user exists: %v", err)
	}
	if err := store.UserExists(ctx, "not-a-uuid"); err != ErrUserNotFound {
		t.Fatalf("invalid id err = %v", err)
	}

	p, err := store.SaveProject(ctx, u.ID, "Tall", json.RawMessage(`[{"attribute":"height_ft","operator":">","value":100}]`))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	list, err := store.ListProjects(ctx, u.ID, "height_ft")
	if err != nil || len(list) != 1 || list[0].ID != p.ID {
		t.Fatalf("list = %+v, %v", list, err)
	}
	if list, _ := store.ListProjects(ctx, u.ID, "zoning"); len(list) != 0 {
		t.Fatalf("zoning list = %+v", list)
	}
	if _, err := store.GetProject(ctx, p.ID); err != nil {
		t.Fatalf("get: %v", err)
	}
}
