package api

import (
	"bytes"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/erazemk/itemtag/internal/blob"
	"github.com/erazemk/itemtag/internal/codegen"
)

// ArchiveName is the download filename of the code image archive.
const ArchiveName = "all_qr_codes.zip"

// CodesHandler handles code generation and the bulk archive.
type CodesHandler struct {
	Generator *codegen.Generator
}

// New handles GET /api/new.
func (h *CodesHandler) New(w http.ResponseWriter, r *http.Request) {
	code, err := h.Generator.Generate(r.Context())
	if err != nil {
		slog.Error("failed to generate code", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to generate code")
		return
	}

	slog.Info("code generated", "id", code.ID, "url", code.URL)
	jsonResponse(w, http.StatusOK, code)
}

// DownloadAll handles GET /download_all. The archive is rebuilt on every
// request and fully assembled before anything is written.
func (h *CodesHandler) DownloadAll(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := blob.WriteZip(r.Context(), h.Generator.Images, &buf); err != nil {
		slog.Error("failed to build code archive", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to build archive")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": ArchiveName}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("failed to write archive response", "error", err)
	}
}
