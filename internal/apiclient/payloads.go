package apiclient

import "time"

// Student statuses understood by PUT /students/:id.
const (
	StatusFrozen = "muzlagan"
	StatusActive = "active"
)

type LoginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AttendanceMark struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	GroupID   string `json:"group_id" validate:"required"`
	StudentID string `json:"student_id" validate:"required"`
	Status    bool   `json:"status"`
}

// NewAttendanceMark stamps the mark at midnight UTC of day.
func NewAttendanceMark(groupID, studentID string, day time.Time, present bool) AttendanceMark {
	d := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return AttendanceMark{
		Date:      d.Format(time.RFC3339),
		GroupID:   groupID,
		StudentID: studentID,
		Status:    present,
	}
}

type StudentStatusUpdate struct {
	Status string `json:"status" validate:"required,student_status"`
}

type CourseInput struct {
	Name         string  `json:"name" validate:"required,max=120"`
	Duration     int     `json:"duration" validate:"gt=0"`
	DurationType string  `json:"duration_type" validate:"required,duration_unit"`
	Price        float64 `json:"price,omitempty" validate:"gte=0"`
	Description  string  `json:"description,omitempty" validate:"max=2000"`
}

type LeadInput struct {
	FullName string `json:"full_name" validate:"required"`
	Phone    string `json:"phone" validate:"required,min=7,max=20"`
	Course   string `json:"course,omitempty"`
	Source   string `json:"source,omitempty"`
	Status   string `json:"status,omitempty"`
	Note     string `json:"note,omitempty" validate:"max=1000"`
}

// EmployeeRegistration creates a staff account (POST /users/register or
// POST /teachers/register).
type EmployeeRegistration struct {
	FullName string  `json:"full_name" validate:"required"`
	Phone    string  `json:"phone" validate:"required,min=7,max=20"`
	Email    string  `json:"email,omitempty" validate:"omitempty,email"`
	Password string  `json:"password" validate:"required,min=6"`
	Role     string  `json:"role,omitempty"`
	Salary   float64 `json:"salary,omitempty" validate:"gte=0"`
}

type EmployeeUpdate struct {
	FullName string  `json:"full_name,omitempty"`
	Phone    string  `json:"phone,omitempty" validate:"omitempty,min=7,max=20"`
	Email    string  `json:"email,omitempty" validate:"omitempty,email"`
	Password string  `json:"password,omitempty" validate:"omitempty,min=6"`
	Role     string  `json:"role,omitempty"`
	Salary   float64 `json:"salary,omitempty" validate:"gte=0"`
}
