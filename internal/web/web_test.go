package web

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/erazemk/itemtag/internal/blob"
	"github.com/erazemk/itemtag/internal/db"
	"github.com/erazemk/itemtag/internal/model"
	"github.com/erazemk/itemtag/internal/store"
)

type testEnv struct {
	server  *httptest.Server
	codes   *blob.Dir
	uploads *blob.Dir
}

func setup(t *testing.T) *testEnv {
	t.Helper()

	database := db.NewTestDB(t)

	codes, err := blob.NewDir(filepath.Join(t.TempDir(), "qr"))
	if err != nil {
		t.Fatalf("creating codes dir: %v", err)
	}
	uploads, err := blob.NewDir(filepath.Join(t.TempDir(), "uploads"))
	if err != nil {
		t.Fatalf("creating uploads dir: %v", err)
	}

	router, err := NewRouter(database, codes, uploads)
	if err != nil {
		t.Fatalf("creating router: %v", err)
	}

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	if err := store.SaveItem(context.Background(), database, &model.Item{
		ID:       "SAVED001",
		Name:     "Drill",
		Location: "Shelf 3",
		BuyDate:  "2024-01-15",
		Owner:    "Alice",
		Remark:   "Needs <new> bits",
		Photo:    model.PhotoPrefix + "SAVED001_1700000000.jpg",
	}); err != nil {
		t.Fatalf("saving item: %v", err)
	}

	return &testEnv{server: server, codes: codes, uploads: uploads}
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return resp, string(body)
}

func TestAdminPage(t *testing.T) {
	env := setup(t)

	resp, body := get(t, env.server.URL+"/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	for _, want := range []string{"/static/admin.js", "/download_all", "<title>QR codes"} {
		if !strings.Contains(body, want) {
			t.Errorf("admin page missing %q", want)
		}
	}
}

func TestUnknownPathNotFound(t *testing.T) {
	env := setup(t)

	resp, _ := get(t, env.server.URL+"/nope")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestItemPageUnknownID(t *testing.T) {
	env := setup(t)

	resp, body := get(t, env.server.URL+"/item/NEWID123")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(body, "<code>NEWID123</code>") {
		t.Error("page does not show the id")
	}
	if !strings.Contains(body, `action="/item/NEWID123"`) {
		t.Error("form does not post to the item")
	}
	if !strings.Contains(body, `name="name" value=""`) {
		t.Error("name field is not empty")
	}
	if strings.Contains(body, `class="photo"`) {
		t.Error("unknown item shows a photo")
	}
}

func TestItemPageSavedItem(t *testing.T) {
	env := setup(t)

	resp, body := get(t, env.server.URL+"/item/SAVED001")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	for _, want := range []string{
		"<title>Drill",
		`name="name" value="Drill"`,
		`name="location" value="Shelf 3"`,
		`value="2024-01-15"`,
		`name="owner" value="Alice"`,
		"Needs &lt;new&gt; bits",
		`src="/uploads/SAVED001_1700000000.jpg"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("item page missing %q", want)
		}
	}
}

func TestStaticAssets(t *testing.T) {
	env := setup(t)

	for _, name := range []string{"style.css", "admin.js", "item.js"} {
		resp, body := get(t, env.server.URL+"/static/"+name)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", name, resp.StatusCode)
		}
		if body == "" {
			t.Errorf("%s: empty body", name)
		}
	}
}

func TestServeCodeImage(t *testing.T) {
	env := setup(t)

	data := []byte("\x89PNG\r\n\x1a\nfake")
	if err := env.codes.Put(context.Background(), "AB12CD34.png", bytes.NewReader(data)); err != nil {
		t.Fatalf("storing code: %v", err)
	}

	resp, body := get(t, env.server.URL+"/static/qr/AB12CD34.png")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", ct)
	}
	if body != string(data) {
		t.Error("body does not match stored image")
	}
}

func TestServeUpload(t *testing.T) {
	env := setup(t)

	if err := env.uploads.Put(context.Background(), "SAVED001_1700000000.jpg", strings.NewReader("jpeg")); err != nil {
		t.Fatalf("storing upload: %v", err)
	}

	resp, body := get(t, env.server.URL+"/uploads/SAVED001_1700000000.jpg")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body != "jpeg" {
		t.Errorf("body = %q, want jpeg", body)
	}
	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
}

func TestServeMissingBlob(t *testing.T) {
	env := setup(t)

	for _, path := range []string{"/static/qr/MISSING0.png", "/uploads/missing.jpg", "/uploads/..%5Csecret"} {
		resp, _ := get(t, env.server.URL+path)
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s: status = %d, want 404", path, resp.StatusCode)
		}
	}
}

func TestLoadTemplatesErrors(t *testing.T) {
	layout := &fstest.MapFile{Data: []byte(`{{define "layout"}}{{template "content" .}}{{end}}`)}

	tests := []struct {
		name string
		fsys fstest.MapFS
	}{
		{"missing layout", fstest.MapFS{}},
		{"missing page", fstest.MapFS{"layout.html": layout}},
		{"bad page", fstest.MapFS{
			"layout.html": layout,
			"admin.html":  {Data: []byte(`{{define "content"}}{{.Title}{{end}}`)},
			"item.html":   {Data: []byte(`{{define "content"}}{{end}}`)},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadTemplates(tt.fsys); err == nil {
				t.Error("expected error")
			}
		})
	}
}
