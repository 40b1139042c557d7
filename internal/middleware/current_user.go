package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/pkordes/dive-logbook/internal/domain"
	"github.com/pkordes/dive-logbook/internal/session"
)

// UserFinder loads a user by primary key.
type UserFinder interface {
	GetByID(ctx context.Context, id int64) (domain.User, error)
}

// NewCurrentUser returns a middleware that resolves the session's user id to
// a domain.User once per request and stores it with session.WithCurrentUser.
// An id that no longer resolves (the account was deleted) is treated as
// anonymous. Any other lookup failure is passed to onError and the request
// stops there.
//
// Wire it after the session middleware.
func NewCurrentUser(finder UserFinder, onError func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := session.FromContext(r.Context()).UserID()
			if id == 0 {
				next.ServeHTTP(w, r)
				return
			}

			user, err := finder.GetByID(r.Context(), id)
			switch {
			case errors.Is(err, domain.ErrNotFound):
				next.ServeHTTP(w, r)
			case err != nil:
				onError(w, r, err)
			default:
				next.ServeHTTP(w, r.WithContext(session.WithCurrentUser(r.Context(), user)))
			}
		})
	}
}
