package plan

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/trezcool/studyplanner/core"
)

var (
	// errors
	ErrSubjectNotFound    = errors.New("subject not found")
	ErrLecturesOutOfRange = errors.New("completed lectures must stay between 0 and the total number of lectures")
	ErrUnknownField       = errors.New("unknown subject field")
	ErrInvalidValue       = errors.New("invalid value")
)

// Upper bounds of the subject counters, keeping every Report sum finite.
const (
	MaxLectures        = 100000
	MaxHoursPerLecture = 24.0
)

func (p *Plan) subject(index int) (*Subject, error) {
	if index < 0 || index >= len(p.Subjects) {
		return nil, ErrSubjectNotFound
	}
	return &p.Subjects[index], nil
}

// AddSubject appends a blank subject. Names need not be unique.
func (p *Plan) AddSubject() {
	p.Subjects = append(p.Subjects, Subject{
		Name:            NewSubjectName,
		HoursPerLecture: DefaultHoursPerLecture,
	})
}

func (p *Plan) RemoveSubject(index int) error {
	if _, err := p.subject(index); err != nil {
		return err
	}
	p.Subjects = append(p.Subjects[:index], p.Subjects[index+1:]...)
	return nil
}

// SetSubjectField parses value and assigns it to the given field of the subject at index.
// Values that would break the subject invariants are rejected with a core.ValidationError
// and the subject is left unchanged. Lowering the total below the completed count
// brings the completed count down with it.
func (p *Plan) SetSubjectField(index int, field, value string) error {
	subj, err := p.subject(index)
	if err != nil {
		return err
	}

	switch field {
	case FieldName:
		subj.Name = core.CleanString(value)

	case FieldTotalLectures:
		n, err := parseCount(field, value)
		if err != nil {
			return err
		}
		subj.TotalLectures = n
		if subj.LecturesCompleted > n {
			subj.LecturesCompleted = n
		}

	case FieldLecturesCompleted:
		n, err := parseCount(field, value)
		if err != nil {
			return err
		}
		if n > subj.TotalLectures {
			return core.NewFieldError(ErrLecturesOutOfRange, field)
		}
		subj.LecturesCompleted = n

	case FieldHoursPerLecture:
		h, err := strconv.ParseFloat(core.CleanString(value), 64)
		if err != nil || !validHours(h) {
			return invalidValue(field, hoursText(h, err))
		}
		subj.HoursPerLecture = h

	default:
		return core.NewValidationError(ErrUnknownField, core.FieldError{
			Field: "field",
			Error: fmt.Sprintf("%s %q", ErrUnknownField, field),
		})
	}
	return nil
}

// AdjustLecturesCompleted moves the completed counter of the subject at index by delta.
// The change is rejected as a whole if the result would leave [0, TotalLectures].
func (p *Plan) AdjustLecturesCompleted(index, delta int) error {
	subj, err := p.subject(index)
	if err != nil {
		return err
	}
	n := subj.LecturesCompleted + delta
	if n < 0 || n > subj.TotalLectures {
		return core.NewFieldError(ErrLecturesOutOfRange, FieldLecturesCompleted)
	}
	subj.LecturesCompleted = n
	return nil
}

// SetSchedule applies the set fields of upd. Date ranges are not checked here:
// a target date before the start date is reported by Compute instead.
func (p *Plan) SetSchedule(upd ScheduleUpdate) error {
	if upd.WorkingDaysPerWeek != nil {
		if d := *upd.WorkingDaysPerWeek; d < 1 || d > 7 {
			return invalidValue("working_days_per_week", "must be between 1 and 7")
		}
		p.Schedule.WorkingDaysPerWeek = *upd.WorkingDaysPerWeek
	}
	if upd.StartDate != nil {
		p.Schedule.StartDate = *upd.StartDate
	}
	if upd.TargetDate != nil {
		p.Schedule.TargetDate = *upd.TargetDate
	}
	return nil
}

func (p *Plan) SetStudentName(name string) {
	p.StudentName = core.CleanString(name)
}

// Reset restores the default plan.
func (p *Plan) Reset() {
	*p = NewDefault()
}

// Validate checks the invariants of a plan received as a whole (eg. loaded from storage).
func (p Plan) Validate() error {
	var flds []core.FieldError
	if d := p.Schedule.WorkingDaysPerWeek; d < 1 || d > 7 {
		flds = append(flds, core.FieldError{Field: "working_days_per_week", Error: "must be between 1 and 7"})
	}
	for i, s := range p.Subjects {
		prefix := fmt.Sprintf("subjects[%d].", i)
		if s.TotalLectures < 0 {
			flds = append(flds, core.FieldError{Field: prefix + FieldTotalLectures, Error: "must be a non-negative integer"})
		} else if s.TotalLectures > MaxLectures {
			flds = append(flds, core.FieldError{Field: prefix + FieldTotalLectures, Error: fmt.Sprintf("must be at most %d", MaxLectures)})
		}
		if s.LecturesCompleted < 0 || s.LecturesCompleted > s.TotalLectures {
			flds = append(flds, core.FieldError{Field: prefix + FieldLecturesCompleted, Error: ErrLecturesOutOfRange.Error()})
		}
		if !validHours(s.HoursPerLecture) {
			flds = append(flds, core.FieldError{Field: prefix + FieldHoursPerLecture, Error: hoursText(s.HoursPerLecture, nil)})
		}
	}
	if len(flds) > 0 {
		return core.NewValidationError(ErrInvalidValue, flds...)
	}
	return nil
}

func parseCount(field, value string) (int, error) {
	n, err := strconv.Atoi(core.CleanString(value))
	if err != nil || n < 0 {
		return 0, invalidValue(field, "must be a non-negative integer")
	}
	if n > MaxLectures {
		return 0, invalidValue(field, fmt.Sprintf("must be at most %d", MaxLectures))
	}
	return n, nil
}

func validHours(h float64) bool {
	return !math.IsNaN(h) && h > 0 && h <= MaxHoursPerLecture
}

func hoursText(h float64, err error) string {
	if err == nil && h > MaxHoursPerLecture {
		return fmt.Sprintf("must be at most %g", MaxHoursPerLecture)
	}
	return "must be a positive number"
}

func invalidValue(field, msg string) error {
	return core.NewValidationError(ErrInvalidValue, core.FieldError{Field: field, Error: msg})
}
