package web

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/itemtag/internal/blob"
	webembed "github.com/erazemk/itemtag/web"
)

// NewRouter creates the web page router with all page routes registered.
func NewRouter(db *sql.DB, codes, uploads blob.Store) (http.Handler, error) {
	s, err := NewServer(db, codes, uploads)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()

	// Generated files.
	mux.HandleFunc("GET /static/qr/{name}", s.ServeBlob(s.Codes))
	mux.HandleFunc("GET /uploads/{name}", s.ServeBlob(s.Uploads))

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	mux.HandleFunc("GET /{$}", s.AdminPage)
	mux.HandleFunc("GET /item/{id}", s.ItemPage)

	return mux, nil
}
