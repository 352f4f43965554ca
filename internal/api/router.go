package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/itemtag/internal/blob"
	"github.com/erazemk/itemtag/internal/codegen"
)

// NewRouter creates the router for the JSON and download endpoints.
func NewRouter(db *sql.DB, gen *codegen.Generator, uploads blob.Store, maxUploadBytes int64) http.Handler {
	mux := http.NewServeMux()

	codesHandler := &CodesHandler{Generator: gen}
	itemsHandler := &ItemsHandler{DB: db, Uploads: uploads, MaxUploadBytes: maxUploadBytes}

	mux.HandleFunc("GET /api/new", codesHandler.New)
	mux.HandleFunc("GET /download_all", codesHandler.DownloadAll)
	mux.HandleFunc("POST /item/{id}", itemsHandler.Save)

	return mux
}
