package roles

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"eduadmin/internal/session"
)

type Role string

const (
	SuperAdmin Role = "superadmin"
	Admin      Role = "admin"
	HeadMentor Role = "headmentor"
	Mentor     Role = "mentor"
)

const LoginRoute = "/login"

var landing = map[Role]string{
	SuperAdmin: "/superadmin/dashboard",
	Admin:      "/admin/courses",
	HeadMentor: "/headmentor/dashboard",
	Mentor:     "/mentor/groups",
}

// Parse normalizes the upstream spelling of a role ("HeadMentor",
// "head_mentor", "Head Mentor" all read as headmentor).
func Parse(s string) (Role, bool) {
	r := strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(s)))
	role := Role(r)
	_, ok := landing[role]
	return role, ok
}

// LandingRoute is where an operator with the given role starts.
func LandingRoute(role string) (string, bool) {
	r, ok := Parse(role)
	if !ok {
		return "", false
	}
	return landing[r], true
}

type userKey struct{}

// UserFrom returns the operator admitted by Gate.
func UserFrom(ctx context.Context) (session.User, bool) {
	u, ok := ctx.Value(userKey{}).(session.User)
	return u, ok
}

// Gate admits requests only while a session exists and its role is one of
// allowed. Rejections carry the route the operator should be sent to.
func Gate(store *session.Store, allowed ...Role) func(http.Handler) http.Handler {
	set := make(map[Role]bool, len(allowed))
	for _, r := range allowed {
		set[r] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := store.Get()
			if !ok {
				reject(w, http.StatusUnauthorized, "missing_session", LoginRoute)
				return
			}
			role, known := Parse(sess.User.Role)
			if !known {
				reject(w, http.StatusForbidden, "unknown_role", LoginRoute)
				return
			}
			if !set[role] {
				reject(w, http.StatusForbidden, "forbidden_role", landing[role])
				return
			}
			ctx := context.WithValue(r.Context(), userKey{}, sess.User)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Redirect sends the operator to their landing route, or to the login route
// without a session.
func Redirect(store *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target := LoginRoute
		if sess, ok := store.Get(); ok {
			if route, ok := LandingRoute(sess.User.Role); ok {
				target = route
			}
		}
		http.Redirect(w, r, target, http.StatusFound)
	}
}

func reject(w http.ResponseWriter, status int, code, redirect string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code, "redirect": redirect})
}
