package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"reelkeep/handlers"
)

// Register wires the HTTP operation surface onto the router.
func Register(r *mux.Router, ch *handlers.CollectionHandler, rh *handlers.RecommendHandler) {
	apiRouter := r.PathPrefix("/api").Subrouter()

	users := apiRouter.PathPrefix("/users/{userID}").Subrouter()
	users.HandleFunc("/sync", ch.Sync).Methods(http.MethodPost)
	users.HandleFunc("/collection", ch.Query).Methods(http.MethodGet)
	users.HandleFunc("/collection", ch.Add).Methods(http.MethodPost)
	users.HandleFunc("/collection/dedup", ch.Dedup).Methods(http.MethodPost)
	users.HandleFunc("/collection/{key}/list", ch.SetListState).Methods(http.MethodPatch)
	users.HandleFunc("/collection/{key}/plays", ch.RecordPlay).Methods(http.MethodPost)
	users.HandleFunc("/collection/{key}", ch.Edit).Methods(http.MethodPatch)
	users.HandleFunc("/collection/{key}", ch.Remove).Methods(http.MethodDelete)

	if rh != nil {
		media := apiRouter.PathPrefix("/media/{imdbID}").Subrouter()
		media.HandleFunc("/similar", rh.Similar).Methods(http.MethodGet)
		media.HandleFunc("/recommended", rh.Recommended).Methods(http.MethodGet)
	}

	apiRouter.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)
}
