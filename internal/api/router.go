package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter wires every route of the board API. Fixed paths under
// /api/boards are registered before the {id} patterns.
func NewRouter(s *Server) *mux.Router {
	r := mux.NewRouter()
	r.Use(recoverer(s.logger), requestLogger(s.logger))

	r.HandleFunc("/health", HealthHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/boards", s.ListBoardsHandler).Methods("GET")
	api.HandleFunc("/boards", s.CreateBoardHandler).Methods("POST")
	api.HandleFunc("/boards/load-demo", s.LoadDemoHandler).Methods("GET")
	api.HandleFunc("/boards/import", s.ImportBoardHandler).Methods("POST")
	api.HandleFunc("/boards/items", s.CreateItemHandler).Methods("POST")
	api.HandleFunc("/boards/items/{id}", s.UpdateItemHandler).Methods("PATCH")
	api.HandleFunc("/boards/items/{id}", s.DeleteItemHandler).Methods("DELETE")
	api.HandleFunc("/boards/{id}", s.GetBoardHandler).Methods("GET")
	api.HandleFunc("/boards/{id}", s.PutBoardHandler).Methods("PUT")
	api.HandleFunc("/boards/{id}", s.DeleteBoardHandler).Methods("DELETE")
	api.HandleFunc("/boards/{id}/export", s.ExportBoardHandler).Methods("GET")

	api.HandleFunc("/posts", s.ListPostsHandler).Methods("GET")
	api.HandleFunc("/posts", s.CreatePostHandler).Methods("POST")
	api.HandleFunc("/posts/{id}/replies", s.AddReplyHandler).Methods("POST")
	api.HandleFunc("/posts/{id}/like", s.LikePostHandler).Methods("POST")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		JSONResponse(w, http.StatusNotFound, map[string]any{"code": http.StatusNotFound, "error": "route not found"})
	})
	return r
}
