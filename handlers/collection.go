package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"reelkeep/models"
	"reelkeep/services/collection"
	"reelkeep/services/store"
)

type collectionService interface {
	Sync(ctx context.Context, userID string) (models.SyncResult, error)
	AddManual(ctx context.Context, userID string, input models.ManualAdd) (models.MovieItem, error)
	SetListState(ctx context.Context, userID, key, state string) (models.MovieItem, error)
	SetUserEdit(ctx context.Context, userID, key string, edit models.UserEdit) (models.MovieItem, error)
	RecordPlay(ctx context.Context, userID, key string) (models.MovieItem, error)
	RemoveLocal(ctx context.Context, userID, key string) error
	QueryPage(ctx context.Context, userID, sortKey string, page int) ([]models.MovieItem, error)
	Dedup(ctx context.Context, userID string) (int, error)
}

var _ collectionService = (*collection.Service)(nil)

type CollectionHandler struct {
	Service collectionService
}

func NewCollectionHandler(service collectionService) *CollectionHandler {
	return &CollectionHandler{Service: service}
}

func (h *CollectionHandler) Sync(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	result, err := h.Service.Sync(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, result)
}

func (h *CollectionHandler) Query(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	sortKey := strings.TrimSpace(r.URL.Query().Get("sort"))
	page := 1
	if raw := strings.TrimSpace(r.URL.Query().Get("page")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "page must be an integer", http.StatusBadRequest)
			return
		}
		page = parsed
	}

	items, err := h.Service.QueryPage(r.Context(), userID, sortKey, page)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, items)
}

func (h *CollectionHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var input models.ManualAdd
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&input); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	item, err := h.Service.AddManual(r.Context(), userID, input)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, item)
}

func (h *CollectionHandler) SetListState(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	key, ok := requireKey(w, r)
	if !ok {
		return
	}

	var payload struct {
		State string `json:"state"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	item, err := h.Service.SetListState(r.Context(), userID, key, payload.State)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, item)
}

func (h *CollectionHandler) Edit(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	key, ok := requireKey(w, r)
	if !ok {
		return
	}

	var edit models.UserEdit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&edit); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	item, err := h.Service.SetUserEdit(r.Context(), userID, key, edit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, item)
}

func (h *CollectionHandler) RecordPlay(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	key, ok := requireKey(w, r)
	if !ok {
		return
	}

	item, err := h.Service.RecordPlay(r.Context(), userID, key)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, item)
}

func (h *CollectionHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	key, ok := requireKey(w, r)
	if !ok {
		return
	}

	if err := h.Service.RemoveLocal(r.Context(), userID, key); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CollectionHandler) Dedup(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	removed, err := h.Service.Dedup(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, map[string]int{"removed": removed})
}

func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := strings.TrimSpace(mux.Vars(r)["userID"])
	if userID == "" {
		http.Error(w, "user id is required", http.StatusBadRequest)
		return "", false
	}
	return userID, true
}

func requireKey(w http.ResponseWriter, r *http.Request) (string, bool) {
	key := strings.TrimSpace(mux.Vars(r)["key"])
	if key == "" {
		http.Error(w, "key is required", http.StatusBadRequest)
		return "", false
	}
	return key, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, collection.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, collection.ErrUserIDRequired),
		errors.Is(err, collection.ErrKeyRequired),
		errors.Is(err, collection.ErrTitleRequired),
		errors.Is(err, collection.ErrInvalidListState),
		errors.Is(err, store.ErrUserIDRequired),
		errors.Is(err, store.ErrKeyRequired):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrStoreUnavailable):
		status = http.StatusBadGateway
	}
	http.Error(w, err.Error(), status)
}
