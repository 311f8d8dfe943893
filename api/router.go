package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

func NewRouter(h *Handlers) *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(h.notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(h.methodNotAllowed)

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	u := r.PathPrefix("/users/{handle}").Subrouter()
	u.HandleFunc("/dashboard", h.Dashboard).Methods(http.MethodGet)
	u.HandleFunc("/stats", h.Stats).Methods(http.MethodGet)
	u.HandleFunc("/report", h.Report).Methods(http.MethodGet)
	u.HandleFunc("/compare", h.Compare).Methods(http.MethodGet)
	u.HandleFunc("/history", h.History).Methods(http.MethodGet)
	u.HandleFunc("/submissions", h.Submissions).Methods(http.MethodGet)
	u.HandleFunc("/layout", h.GetLayout).Methods(http.MethodGet)
	u.HandleFunc("/layout", h.UpdateLayout).Methods(http.MethodPut)

	r.HandleFunc("/watchlist", h.ListWatchlist).Methods(http.MethodGet)
	r.HandleFunc("/watchlist/top", h.TopWatchlist).Methods(http.MethodGet)
	r.HandleFunc("/watchlist/refresh", h.RefreshWatchlist).Methods(http.MethodPost)
	r.HandleFunc("/watchlist/{handle}", h.Track).Methods(http.MethodPut)
	r.HandleFunc("/watchlist/{handle}", h.Untrack).Methods(http.MethodDelete)

	return r
}
