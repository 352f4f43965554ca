package web

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/itemtag/internal/model"
	"github.com/erazemk/itemtag/internal/store"
)

// AdminPage handles GET /.
func (s *Server) AdminPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "admin.html", &PageData{Title: "QR codes"})
}

// ItemPage handles GET /item/{id}. Unknown ids render an empty form.
func (s *Server) ItemPage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	item, err := store.GetItem(r.Context(), s.DB, id)
	if err != nil {
		slog.Error("failed to get item", "item", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	title := item.Name
	if title == "" {
		title = item.ID
	}

	s.Templates.Render(w, "item.html", &struct {
		PageData
		Item *model.Item
	}{
		PageData: PageData{Title: title},
		Item:     item,
	})
}
