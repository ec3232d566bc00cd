package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"

	"eduadmin/internal/entity"
	"eduadmin/internal/session"
)

// Collection names a list endpoint of the platform API.
type Collection string

const (
	Students Collection = "students"
	Groups   Collection = "groups"
	Courses  Collection = "courses"
	Teachers Collection = "teachers"
	Users    Collection = "users"
	Salaries Collection = "salaries"
	Checks   Collection = "checks"
	Leads    Collection = "leads"
)

var collectionPaths = map[Collection]string{
	Students: "/students",
	Groups:   "/groups",
	Courses:  "/courses",
	Teachers: "/teachers",
	Users:    "/users",
	Salaries: "/salaries",
	Checks:   "/checks",
	Leads:    "/leads/all",
}

// List fetches a collection. A 404 is an empty collection.
func (c *Client) List(ctx context.Context, col Collection) ([]entity.Record, error) {
	path, ok := collectionPaths[col]
	if !ok {
		return nil, errors.Errorf("unknown collection %q", col)
	}
	raw, err := c.Raw(ctx, http.MethodGet, path, nil, Tolerate(http.StatusNotFound))
	if err != nil {
		return nil, err
	}
	return UnwrapList(raw, string(col)), nil
}

// Attendance fetches a group's marks between two calendar days (inclusive).
func (c *Client) Attendance(ctx context.Context, groupID string, start, end time.Time) ([]entity.AttendanceRecord, error) {
	q := url.Values{}
	q.Set("group_id", groupID)
	q.Set("start_date", start.Format("2006-01-02"))
	q.Set("end_date", end.Format("2006-01-02"))
	raw, err := c.Raw(ctx, http.MethodGet, "/Attendance", nil, WithQuery(q), Tolerate(http.StatusNotFound))
	if err != nil {
		return nil, err
	}
	return entity.ParseAttendanceList(UnwrapList(raw, "attendance", "Attendance")), nil
}

func (c *Client) MarkAttendance(ctx context.Context, mark AttendanceMark) (entity.Record, error) {
	raw, err := c.Raw(ctx, http.MethodPost, "/Attendance", mark)
	if err != nil {
		return nil, err
	}
	return UnwrapObject(raw, "attendance"), nil
}

func (c *Client) SetStudentStatus(ctx context.Context, studentID, status string) error {
	if studentID == "" {
		return &ValidationError{Fields: []FieldError{{Field: "id", Message: "is required"}}}
	}
	return c.Do(ctx, http.MethodPut, "/students/"+url.PathEscape(studentID), StudentStatusUpdate{Status: status}, nil)
}

func (c *Client) FreezeStudent(ctx context.Context, studentID string) error {
	return c.SetStudentStatus(ctx, studentID, StatusFrozen)
}

func (c *Client) UnfreezeStudent(ctx context.Context, studentID string) error {
	return c.SetStudentStatus(ctx, studentID, StatusActive)
}

func (c *Client) CreateCourse(ctx context.Context, in CourseInput) (entity.Record, error) {
	return c.write(ctx, http.MethodPost, "/courses", in, "course")
}

func (c *Client) UpdateCourse(ctx context.Context, id string, in CourseInput) (entity.Record, error) {
	return c.write(ctx, http.MethodPut, "/courses/"+url.PathEscape(id), in, "course")
}

func (c *Client) DeleteCourse(ctx context.Context, id string) error {
	return c.Do(ctx, http.MethodDelete, "/courses/"+url.PathEscape(id), nil, nil)
}

func (c *Client) CreateLead(ctx context.Context, in LeadInput) (entity.Record, error) {
	return c.write(ctx, http.MethodPost, "/leads/intake", in, "lead")
}

func (c *Client) UpdateLead(ctx context.Context, id string, in LeadInput) (entity.Record, error) {
	return c.write(ctx, http.MethodPut, "/leads/"+url.PathEscape(id), in, "lead")
}

func (c *Client) DeleteLead(ctx context.Context, id string) error {
	return c.Do(ctx, http.MethodDelete, "/leads/"+url.PathEscape(id), nil, nil)
}

// Staff is either the users or the teachers collection.
type Staff string

const (
	StaffUsers    Staff = "users"
	StaffTeachers Staff = "teachers"
)

func (s Staff) valid() bool { return s == StaffUsers || s == StaffTeachers }

func (c *Client) RegisterEmployee(ctx context.Context, kind Staff, in EmployeeRegistration) (entity.Record, error) {
	if !kind.valid() {
		return nil, errors.Errorf("unknown staff kind %q", kind)
	}
	return c.write(ctx, http.MethodPost, "/"+string(kind)+"/register", in, "user", "teacher")
}

func (c *Client) UpdateEmployee(ctx context.Context, kind Staff, id string, in EmployeeUpdate) (entity.Record, error) {
	if !kind.valid() {
		return nil, errors.Errorf("unknown staff kind %q", kind)
	}
	return c.write(ctx, http.MethodPut, "/"+string(kind)+"/"+url.PathEscape(id), in, "user", "teacher")
}

func (c *Client) DeleteEmployee(ctx context.Context, kind Staff, id string) error {
	if !kind.valid() {
		return errors.Errorf("unknown staff kind %q", kind)
	}
	return c.Do(ctx, http.MethodDelete, "/"+string(kind)+"/"+url.PathEscape(id), nil, nil)
}

func (c *Client) write(ctx context.Context, method, path string, body interface{}, keys ...string) (entity.Record, error) {
	raw, err := c.Raw(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	return UnwrapObject(raw, keys...), nil
}

// Login exchanges credentials for a session and stores it. The user comes from
// the response when present and from the access token claims otherwise.
func (c *Client) Login(ctx context.Context, req LoginRequest) (session.Session, error) {
	var pair tokenPair
	if err := c.Do(ctx, http.MethodPost, "/auth/login", req, &pair, Public()); err != nil {
		return session.Session{}, err
	}
	if pair.access() == "" {
		return session.Session{}, &AuthError{Reason: "login_without_token"}
	}
	sess := session.Session{
		AccessToken:  pair.access(),
		RefreshToken: pair.refresh(),
	}
	if u, ok := pair.sessionUser(); ok {
		sess.User = u
	}
	claimed := c.userFromToken(sess.AccessToken)
	if sess.User.ID == "" {
		sess.User.ID = claimed.ID
	}
	if sess.User.Role == "" {
		sess.User.Role = claimed.Role
	}
	if sess.User.FullName == "" {
		sess.User.FullName = claimed.FullName
	}
	c.store.Set(sess)
	return sess, nil
}

func (c *Client) Logout() {
	c.store.Clear()
}
