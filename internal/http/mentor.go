package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"eduadmin/internal/apiclient"
	"eduadmin/internal/dashboard"
	"eduadmin/internal/entity"
	"eduadmin/internal/jobs"
	"eduadmin/internal/schedule"
)

// Head mentor

func (s *Server) handleHeadMentorDashboard(w http.ResponseWriter, r *http.Request) {
	s.writeGroupRows(w, r)
}

func (s *Server) handleFreezeExpired(w http.ResponseWriter, r *http.Request) {
	if s.freezer == nil {
		writeError(w, http.StatusServiceUnavailable, "freeze_unavailable")
		return
	}
	report, err := s.freezer.Run(r.Context())
	if errors.Is(err, jobs.ErrRunInProgress) {
		writeError(w, http.StatusConflict, "freeze_in_progress")
		return
	}
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Mentor

func (s *Server) handleMentorGroups(w http.ResponseWriter, r *http.Request) {
	s.writeGroupRows(w, r)
}

func (s *Server) writeGroupRows(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.loadPage(w, r, apiclient.Groups, apiclient.Courses, apiclient.Students)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"groups": dashboard.Groups(snap.Get(apiclient.Groups), snap.Get(apiclient.Courses), snap.Get(apiclient.Students), s.now()),
		"errors": snapshotErrors(snap),
	})
}

func (s *Server) handleGroupCalendar(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupId")
	now := s.now()
	year, month := now.Year(), now.Month()
	if v := r.URL.Query().Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1970 || y > 9999 {
			writeError(w, http.StatusBadRequest, "invalid_year")
			return
		}
		year = y
	}
	if v := r.URL.Query().Get("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			writeError(w, http.StatusBadRequest, "invalid_month")
			return
		}
		month = time.Month(m)
	}

	snap, ok := s.loadPage(w, r, apiclient.Groups, apiclient.Students)
	if !ok {
		return
	}
	if err, failed := snap.Errors[apiclient.Groups]; failed {
		s.writeUpstreamError(w, r, err)
		return
	}
	group, found := entity.FindByID(snap.Get(apiclient.Groups), entity.KindGroup, groupID)
	if !found {
		writeError(w, http.StatusNotFound, "group_not_found")
		return
	}

	start, end := schedule.MonthBounds(year, month)
	records, err := s.client.Attendance(r.Context(), groupID, start, end)
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sheet":  dashboard.MonthSheet(s.policy, group, snap.Get(apiclient.Students), records, year, month),
		"errors": snapshotErrors(snap),
	})
}

type markAttendanceRequest struct {
	StudentID string `json:"student_id"`
	Date      string `json:"date"`
	Status    bool   `json:"status"`
}

func (s *Server) handleMarkAttendance(w http.ResponseWriter, r *http.Request) {
	var req markAttendanceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	day, ok := entity.ParseTime(req.Date)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_date")
		return
	}
	mark := apiclient.NewAttendanceMark(chi.URLParam(r, "groupId"), req.StudentID, day.UTC(), req.Status)
	saved, err := s.client.MarkAttendance(r.Context(), mark)
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

type studentStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleStudentStatus(w http.ResponseWriter, r *http.Request) {
	var req studentStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if err := s.client.SetStudentStatus(r.Context(), chi.URLParam(r, "id"), req.Status); err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": chi.URLParam(r, "id"), "status": req.Status})
}
