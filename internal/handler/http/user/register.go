package user

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"news-aggregator/internal/common/pagination"
)

// Register mounts the account routes. requireUser guards everything under
// /users/me; signupGuard (usually a rate limiter) wraps registration and may
// be nil.
func Register(r chi.Router, svc Service, cfg pagination.Config, requireUser, signupGuard func(http.Handler) http.Handler) {
	var register http.Handler = RegisterHandler{Svc: svc}
	if signupGuard != nil {
		register = signupGuard(register)
	}
	r.Method(http.MethodPost, "/users/register", register)

	r.Route("/users/me", func(me chi.Router) {
		me.Use(requireUser)

		meH := MeHandler{Svc: svc}
		me.Method(http.MethodGet, "/", meH)
		me.Method(http.MethodDelete, "/", meH)
		me.Method(http.MethodPut, "/notifications", PreferencesHandler{Svc: svc})

		saved := SavedHandler{Svc: svc, PaginationCfg: cfg}
		for _, m := range []string{http.MethodGet, http.MethodPost, http.MethodDelete} {
			me.Method(m, "/saved", saved)
		}

		topics, outlets := topicKind(svc), outletKind(svc)
		for _, m := range []string{http.MethodPost, http.MethodDelete} {
			me.Method(m, "/follow/topic", FollowHandler{kind: topics})
			me.Method(m, "/follow/outlet", FollowHandler{kind: outlets})
		}
		me.Method(http.MethodGet, "/followed/topics", FollowedHandler{kind: topics})
		me.Method(http.MethodGet, "/followed/outlets", FollowedHandler{kind: outlets})
	})
}
