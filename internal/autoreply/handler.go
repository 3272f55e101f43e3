package autoreply

import (
	"encoding/json"
	"net/http"
)

type StatusSource interface {
	Status() Status
}

type Handler struct {
	src StatusSource
}

func NewHandler(src StatusSource) *Handler {
	return &Handler{src: src}
}

// HandleStatus: текущее состояние бота, только чтение
func (h *Handler) HandleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.src.Status()); err != nil {
		http.Error(w, "encode error", http.StatusInternalServerError)
	}
}

func (h *Handler) HandlePing(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}
