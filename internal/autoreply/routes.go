package autoreply

import "github.com/go-chi/chi/v5"

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/ping", h.HandlePing)
	r.Get("/status", h.HandleStatus)
}
