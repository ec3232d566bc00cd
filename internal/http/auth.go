package http

import (
	"net/http"

	"eduadmin/internal/apiclient"
	"eduadmin/internal/roles"
)

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	sess, err := s.client.Login(r.Context(), apiclient.LoginRequest{Login: req.Login, Password: req.Password})
	if err != nil {
		switch apiclient.StatusOf(err) {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound:
			writeError(w, http.StatusUnauthorized, "invalid_credentials")
		default:
			s.writeUpstreamError(w, r, err)
		}
		return
	}
	route, ok := roles.LandingRoute(sess.User.Role)
	if !ok {
		s.client.Logout()
		writeError(w, http.StatusForbidden, "unknown_role")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": sess.User, "redirect": route})
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	s.client.Logout()
	writeJSON(w, http.StatusOK, map[string]string{"redirect": roles.LoginRoute})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, _ := roles.UserFrom(r.Context())
	route, _ := roles.LandingRoute(user.Role)
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": user, "landing": route})
}
