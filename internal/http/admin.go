package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"eduadmin/internal/apiclient"
	"eduadmin/internal/dashboard"
)

// Superadmin

var superAdminCollections = []apiclient.Collection{
	apiclient.Students, apiclient.Groups, apiclient.Courses, apiclient.Teachers,
	apiclient.Users, apiclient.Leads, apiclient.Salaries, apiclient.Checks,
}

func (s *Server) handleSuperAdminDashboard(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.loadPage(w, r, superAdminCollections...)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, dashboard.Summarize(snap))
}

func staffKind(r *http.Request) (apiclient.Staff, bool) {
	kind := apiclient.Staff(chi.URLParam(r, "kind"))
	return kind, kind == apiclient.StaffUsers || kind == apiclient.StaffTeachers
}

func (s *Server) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	kind, ok := staffKind(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown_staff_kind")
		return
	}
	records, err := s.client.List(r.Context(), apiclient.Collection(kind))
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{string(kind): records})
}

func (s *Server) handleRegisterEmployee(w http.ResponseWriter, r *http.Request) {
	kind, ok := staffKind(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown_staff_kind")
		return
	}
	var req apiclient.EmployeeRegistration
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	created, err := s.client.RegisterEmployee(r.Context(), kind, req)
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	kind, ok := staffKind(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown_staff_kind")
		return
	}
	var req apiclient.EmployeeUpdate
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	updated, err := s.client.UpdateEmployee(r.Context(), kind, chi.URLParam(r, "id"), req)
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	kind, ok := staffKind(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown_staff_kind")
		return
	}
	if err := s.client.DeleteEmployee(r.Context(), kind, chi.URLParam(r, "id")); err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Admin

func (s *Server) handleCourses(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.loadPage(w, r, apiclient.Courses, apiclient.Groups, apiclient.Students)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"courses": dashboard.Courses(snap.Get(apiclient.Courses), snap.Get(apiclient.Groups), snap.Get(apiclient.Students)),
		"errors":  snapshotErrors(snap),
	})
}

func (s *Server) handleCreateCourse(w http.ResponseWriter, r *http.Request) {
	var req apiclient.CourseInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	created, err := s.client.CreateCourse(r.Context(), req)
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateCourse(w http.ResponseWriter, r *http.Request) {
	var req apiclient.CourseInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	updated, err := s.client.UpdateCourse(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteCourse(w http.ResponseWriter, r *http.Request) {
	if err := s.client.DeleteCourse(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLeads(w http.ResponseWriter, r *http.Request) {
	leads, err := s.client.List(r.Context(), apiclient.Leads)
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"leads": leads})
}

func (s *Server) handleCreateLead(w http.ResponseWriter, r *http.Request) {
	var req apiclient.LeadInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	created, err := s.client.CreateLead(r.Context(), req)
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateLead(w http.ResponseWriter, r *http.Request) {
	var req apiclient.LeadInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	updated, err := s.client.UpdateLead(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteLead(w http.ResponseWriter, r *http.Request) {
	if err := s.client.DeleteLead(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
