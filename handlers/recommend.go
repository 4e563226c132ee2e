package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"reelkeep/models"
	"reelkeep/services/recs"
)

type recommendService interface {
	Similar(ctx context.Context, imdbID string) ([]models.Related, error)
	Recommended(ctx context.Context, imdbID string) ([]models.Related, error)
}

var _ recommendService = (*recs.Client)(nil)

// RecommendHandler serves similar/recommended lookups for presentation.
// These never touch the stored collection.
type RecommendHandler struct {
	Service recommendService
}

func NewRecommendHandler(service recommendService) *RecommendHandler {
	return &RecommendHandler{Service: service}
}

func (h *RecommendHandler) Similar(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.Service.Similar)
}

func (h *RecommendHandler) Recommended(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.Service.Recommended)
}

func (h *RecommendHandler) serve(w http.ResponseWriter, r *http.Request, fetch func(context.Context, string) ([]models.Related, error)) {
	imdbID := strings.TrimSpace(mux.Vars(r)["imdbID"])
	if imdbID == "" {
		http.Error(w, "imdb id is required", http.StatusBadRequest)
		return
	}

	related, err := fetch(r.Context(), imdbID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	writeJSON(w, related)
}
