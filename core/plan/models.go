package plan

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/trezcool/studyplanner/core"
)

// Subject fields, as named in requests and validation errors.
const (
	FieldName              = "name"
	FieldTotalLectures     = "total_lectures"
	FieldLecturesCompleted = "lectures_completed"
	FieldHoursPerLecture   = "hours_per_lecture"
)

const (
	DefaultWorkingDaysPerWeek = 6
	DefaultHoursPerLecture    = 1.5
	NewSubjectName            = "New Subject"
)

// Date is a calendar date (UTC midnight). The zero Date means "unset".
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date.
func DateOf(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a YYYY-MM-DD date. The empty string yields an unset Date.
func ParseDate(s string) (Date, error) {
	s = core.CleanString(s)
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(core.DateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

func (d Date) IsSet() bool { return !d.IsZero() }

func (d Date) String() string {
	if !d.IsSet() {
		return ""
	}
	return d.Format(core.DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

type Subject struct {
	Name              string  `json:"name"`
	TotalLectures     int     `json:"total_lectures"`
	LecturesCompleted int     `json:"lectures_completed"`
	HoursPerLecture   float64 `json:"hours_per_lecture"`
}

// PendingLectures is the number of lectures left to study.
func (s Subject) PendingLectures() int {
	return s.TotalLectures - s.LecturesCompleted
}

type Schedule struct {
	StartDate          Date `json:"start_date"`
	TargetDate         Date `json:"target_date"`
	WorkingDaysPerWeek int  `json:"working_days_per_week"`
}

func (s Schedule) Equal(o Schedule) bool {
	return s.WorkingDaysPerWeek == o.WorkingDaysPerWeek &&
		s.StartDate.Equal(o.StartDate.Time) &&
		s.TargetDate.Equal(o.TargetDate.Time)
}

// ScheduleUpdate holds a partial Schedule; nil fields are left untouched.
type ScheduleUpdate struct {
	StartDate          *Date
	TargetDate         *Date
	WorkingDaysPerWeek *int
}

// Plan is the whole study plan of a student, saved and loaded as one document.
// Subjects are kept in display order.
type Plan struct {
	StudentName string    `json:"student_name"`
	Schedule    Schedule  `json:"schedule"`
	Subjects    []Subject `json:"subjects"`
}

// DefaultSubjects returns the subjects every new plan is seeded with.
func DefaultSubjects() []Subject {
	return []Subject{
		{Name: "Advanced Accounting", TotalLectures: 50, HoursPerLecture: DefaultHoursPerLecture},
		{Name: "Auditing", TotalLectures: 40, HoursPerLecture: DefaultHoursPerLecture},
		{Name: "Law", TotalLectures: 45, HoursPerLecture: DefaultHoursPerLecture},
		{Name: "Cost Accounting", TotalLectures: 35, HoursPerLecture: DefaultHoursPerLecture},
	}
}

// NewDefault returns the plan of a fresh session.
func NewDefault() Plan {
	return Plan{
		Schedule: Schedule{WorkingDaysPerWeek: DefaultWorkingDaysPerWeek},
		Subjects: DefaultSubjects(),
	}
}

// Clone returns a deep copy of the plan.
func (p Plan) Clone() Plan {
	c := p
	if p.Subjects != nil {
		c.Subjects = make([]Subject, len(p.Subjects))
		copy(c.Subjects, p.Subjects)
	}
	return c
}
