package api

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/erazemk/itemtag/internal/blob"
	"github.com/erazemk/itemtag/internal/imaging"
	"github.com/erazemk/itemtag/internal/model"
	"github.com/erazemk/itemtag/internal/store"
)

// multipartMemory is how much of a multipart form is kept in memory; the
// rest spills to temporary files.
const multipartMemory = 8 << 20

// ItemsHandler handles item form submissions.
type ItemsHandler struct {
	DB             *sql.DB
	Uploads        blob.Store
	MaxUploadBytes int64

	// Now is used for upload filenames. Nil uses time.Now.
	Now func() time.Time
}

// Save handles POST /item/{id}. Every field is replaced; a request without a
// usable photo clears the stored photo reference.
func (h *ItemsHandler) Save(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !blob.ValidName(id) {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if h.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		jsonError(w, http.StatusBadRequest, "request too large or invalid form")
		return
	}

	item := &model.Item{
		ID:       id,
		Name:     r.PostFormValue("name"),
		Location: r.PostFormValue("location"),
		BuyDate:  r.PostFormValue("buy_date"),
		Owner:    r.PostFormValue("owner"),
		Remark:   r.PostFormValue("remark"),
	}

	photo, err := h.savePhoto(r, id)
	if err != nil {
		slog.Error("failed to save photo", "item", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to save photo")
		return
	}
	item.Photo = photo

	if err := store.SaveItem(r.Context(), h.DB, item); err != nil {
		slog.Error("failed to save item", "item", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to save item")
		return
	}

	slog.Info("item saved", "item", id, "name", item.Name, "photo", item.Photo)
	jsonResponse(w, http.StatusOK, map[string]string{"status": "success"})
}

// savePhoto stores the uploaded photo, if any, and returns its reference.
// A missing upload, an empty filename or an empty file yields "".
func (h *ItemsHandler) savePhoto(r *http.Request, id string) (string, error) {
	file, header, err := r.FormFile("photo")
	if err != nil {
		return "", nil
	}
	defer file.Close()

	if header.Filename == "" {
		return "", nil
	}

	contentType, content, err := imaging.Sniff(file)
	if err != nil {
		return "", fmt.Errorf("reading photo: %w", err)
	}
	if contentType == "" {
		return "", nil
	}
	if !imaging.IsImage(contentType) {
		slog.Warn("upload does not look like an image", "item", id, "filename", header.Filename, "type", contentType)
	}

	name := fmt.Sprintf("%s_%d%s", id, h.now().Unix(), uploadExt(header.Filename, contentType))
	if err := h.Uploads.Put(r.Context(), name, content); err != nil {
		return "", fmt.Errorf("storing photo: %w", err)
	}
	return model.PhotoPrefix + name, nil
}

// uploadExt keeps the client's extension, lower-cased. Filenames without one
// get the extension of the sniffed type.
func uploadExt(filename, contentType string) string {
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" && ext != "." {
		return ext
	}
	return imaging.Extension(contentType)
}

func (h *ItemsHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}
