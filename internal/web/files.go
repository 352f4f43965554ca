package web

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"path"

	"github.com/erazemk/itemtag/internal/blob"
)

// ServeBlob returns a handler that streams the blob named by the {name}
// path value from st.
func (s *Server) ServeBlob(st blob.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		if !blob.ValidName(name) {
			http.NotFound(w, r)
			return
		}

		rc, err := st.Open(r.Context(), name)
		if errors.Is(err, fs.ErrNotExist) {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			slog.Error("failed to open file", "name", name, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		defer rc.Close()

		if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
			w.Header().Set("Content-Type", ct)
		} else {
			w.Header().Set("Content-Type", "application/octet-stream")
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		// Names embed a fresh id or a timestamp, so content never changes.
		w.Header().Set("Cache-Control", "public, max-age=86400")
		if _, err := io.Copy(w, rc); err != nil {
			slog.Error("failed to write file response", "name", name, "error", err)
		}
	}
}
