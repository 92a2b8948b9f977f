package routes

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"feedline/handler"
	"feedline/middleware"
)

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker func(ctx context.Context) error

// Handlers collects everything the router mounts.
type Handlers struct {
	Auth         *handler.AuthHandler
	Feed         *handler.FeedHandler
	Post         *handler.PostHandler
	Comment      *handler.CommentHandler
	Like         *handler.LikeHandler
	Share        *handler.ShareHandler
	Follow       *handler.FollowHandler
	User         *handler.UserHandler
	Notification *handler.NotificationHandler
}

// New builds the HTTP router. Everything under /api except auth sits
// behind the JWT middleware; /uploads serves stored post images.
func New(h Handlers, auth *middleware.AuthMiddleware, uploadsDir string, health HealthChecker) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		if health != nil {
			if err := health(req.Context()); err != nil {
				http.Error(w, "unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	r.PathPrefix("/uploads/").Handler(
		http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadsDir))),
	).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/register", h.Auth.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", h.Auth.Login).Methods(http.MethodPost)

	authed := api.NewRoute().Subrouter()
	authed.Use(auth.Handler)

	authed.HandleFunc("/feed", h.Feed.Dashboard).Methods(http.MethodGet)

	authed.HandleFunc("/users/search", h.User.Search).Methods(http.MethodGet)
	authed.HandleFunc("/users/{id}", h.User.Profile).Methods(http.MethodGet)
	authed.HandleFunc("/users/{id}/feed", h.Feed.Profile).Methods(http.MethodGet)
	authed.HandleFunc("/users/{id}/follow", h.Follow.Toggle).Methods(http.MethodPost)
	authed.HandleFunc("/users/{id}/followers", h.Follow.Followers).Methods(http.MethodGet)
	authed.HandleFunc("/users/{id}/following", h.Follow.Following).Methods(http.MethodGet)

	authed.HandleFunc("/posts", h.Post.Create).Methods(http.MethodPost)
	authed.HandleFunc("/posts/{id}", h.Post.Get).Methods(http.MethodGet)
	authed.HandleFunc("/posts/{id}", h.Post.Update).Methods(http.MethodPut)
	authed.HandleFunc("/posts/{id}", h.Post.Delete).Methods(http.MethodDelete)
	authed.HandleFunc("/posts/{id}/like", h.Like.Toggle).Methods(http.MethodPost)
	authed.HandleFunc("/posts/{id}/share", h.Share.Toggle).Methods(http.MethodPost)
	authed.HandleFunc("/posts/{id}/comments", h.Comment.Create).Methods(http.MethodPost)

	authed.HandleFunc("/comments/{id}", h.Comment.Update).Methods(http.MethodPut)
	authed.HandleFunc("/comments/{id}", h.Comment.Delete).Methods(http.MethodDelete)

	authed.HandleFunc("/notifications", h.Notification.List).Methods(http.MethodGet)
	authed.HandleFunc("/notifications/read", h.Notification.MarkAllRead).Methods(http.MethodPost)

	return r
}
