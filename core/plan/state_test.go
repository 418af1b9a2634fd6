package plan

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/studyplanner/core"
)

func fieldOf(t *testing.T, err error) string {
	t.Helper()
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr), "want *core.ValidationError, got %T (%v)", err, err)
	require.NotEmpty(t, vErr.Fields)
	return vErr.Fields[0].Field
}

func TestNewDefault(t *testing.T) {
	p := NewDefault()

	assert.Equal(t, "", p.StudentName)
	assert.False(t, p.Schedule.StartDate.IsSet())
	assert.False(t, p.Schedule.TargetDate.IsSet())
	assert.Equal(t, 6, p.Schedule.WorkingDaysPerWeek)
	require.Len(t, p.Subjects, 4)
	assert.Equal(t, Subject{Name: "Advanced Accounting", TotalLectures: 50, HoursPerLecture: 1.5}, p.Subjects[0])
	assert.Equal(t, Subject{Name: "Cost Accounting", TotalLectures: 35, HoursPerLecture: 1.5}, p.Subjects[3])
}

func TestPlan_AddSubject(t *testing.T) {
	p := NewDefault()
	p.AddSubject()
	p.AddSubject()

	require.Len(t, p.Subjects, 6)
	want := Subject{Name: "New Subject", HoursPerLecture: 1.5}
	assert.Equal(t, want, p.Subjects[4])
	assert.Equal(t, want, p.Subjects[5])
}

func TestPlan_RemoveSubject(t *testing.T) {
	p := NewDefault()

	require.NoError(t, p.RemoveSubject(1))
	require.Len(t, p.Subjects, 3)
	assert.Equal(t, []string{"Advanced Accounting", "Law", "Cost Accounting"}, subjectNames(p))

	for _, idx := range []int{-1, 3, 42} {
		assert.ErrorIs(t, p.RemoveSubject(idx), ErrSubjectNotFound, "index %d", idx)
	}
	assert.Len(t, p.Subjects, 3)
}

func TestPlan_SetSubjectField(t *testing.T) {
	tests := []struct {
		name      string
		index     int
		field     string
		value     string
		want      Subject
		wantErr   error
		wantField string
	}{
		{name: "name", field: FieldName, value: "  Taxation ", want: Subject{Name: "Taxation", TotalLectures: 10, LecturesCompleted: 4, HoursPerLecture: 1.5}},
		{name: "total", field: FieldTotalLectures, value: "20", want: Subject{Name: "Law", TotalLectures: 20, LecturesCompleted: 4, HoursPerLecture: 1.5}},
		{name: "total below completed clamps", field: FieldTotalLectures, value: "2", want: Subject{Name: "Law", TotalLectures: 2, LecturesCompleted: 2, HoursPerLecture: 1.5}},
		{name: "total zero", field: FieldTotalLectures, value: "0", want: Subject{Name: "Law", HoursPerLecture: 1.5}},
		{name: "total not a number", field: FieldTotalLectures, value: "ten", wantErr: ErrInvalidValue, wantField: FieldTotalLectures},
		{name: "total empty", field: FieldTotalLectures, value: "", wantErr: ErrInvalidValue, wantField: FieldTotalLectures},
		{name: "total negative", field: FieldTotalLectures, value: "-1", wantErr: ErrInvalidValue, wantField: FieldTotalLectures},
		{name: "total at max", field: FieldTotalLectures, value: "100000", want: Subject{Name: "Law", TotalLectures: MaxLectures, LecturesCompleted: 4, HoursPerLecture: 1.5}},
		{name: "total above max", field: FieldTotalLectures, value: "100001", wantErr: ErrInvalidValue, wantField: FieldTotalLectures},
		{name: "total max int", field: FieldTotalLectures, value: "9223372036854775807", wantErr: ErrInvalidValue, wantField: FieldTotalLectures},
		{name: "completed", field: FieldLecturesCompleted, value: "10", want: Subject{Name: "Law", TotalLectures: 10, LecturesCompleted: 10, HoursPerLecture: 1.5}},
		{name: "completed above total", field: FieldLecturesCompleted, value: "11", wantErr: ErrLecturesOutOfRange, wantField: FieldLecturesCompleted},
		{name: "completed above max", field: FieldLecturesCompleted, value: "100001", wantErr: ErrInvalidValue, wantField: FieldLecturesCompleted},
		{name: "hours", field: FieldHoursPerLecture, value: "2.25", want: Subject{Name: "Law", TotalLectures: 10, LecturesCompleted: 4, HoursPerLecture: 2.25}},
		{name: "hours NaN", field: FieldHoursPerLecture, value: "NaN", wantErr: ErrInvalidValue, wantField: FieldHoursPerLecture},
		{name: "hours Inf", field: FieldHoursPerLecture, value: "+Inf", wantErr: ErrInvalidValue, wantField: FieldHoursPerLecture},
		{name: "hours zero", field: FieldHoursPerLecture, value: "0", wantErr: ErrInvalidValue, wantField: FieldHoursPerLecture},
		{name: "hours at max", field: FieldHoursPerLecture, value: "24", want: Subject{Name: "Law", TotalLectures: 10, LecturesCompleted: 4, HoursPerLecture: MaxHoursPerLecture}},
		{name: "hours above max", field: FieldHoursPerLecture, value: "25", wantErr: ErrInvalidValue, wantField: FieldHoursPerLecture},
		{name: "hours huge", field: FieldHoursPerLecture, value: "1e308", wantErr: ErrInvalidValue, wantField: FieldHoursPerLecture},
		{name: "hours garbage", field: FieldHoursPerLecture, value: "1.5h", wantErr: ErrInvalidValue, wantField: FieldHoursPerLecture},
		{name: "unknown field", field: "colour", value: "red", wantErr: ErrUnknownField, wantField: "field"},
		{name: "unknown index", index: 3, field: FieldName, value: "x", wantErr: ErrSubjectNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := Subject{Name: "Law", TotalLectures: 10, LecturesCompleted: 4, HoursPerLecture: 1.5}
			p := Plan{Subjects: []Subject{orig}}

			err := p.SetSubjectField(tt.index, tt.field, tt.value)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				if tt.wantField != "" {
					assert.Equal(t, tt.wantField, fieldOf(t, err))
				}
				assert.Equal(t, orig, p.Subjects[0], "subject must be left unchanged")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Subjects[0])
		})
	}
}

func TestPlan_AdjustLecturesCompleted(t *testing.T) {
	p := Plan{Subjects: []Subject{{Name: "Law", TotalLectures: 3, HoursPerLecture: 1.5}}}

	// going up never passes the total
	for i := 0; i < 10; i++ {
		err := p.AdjustLecturesCompleted(0, 1)
		if i < 3 {
			require.NoError(t, err)
		} else {
			require.ErrorIs(t, err, ErrLecturesOutOfRange)
		}
		assert.LessOrEqual(t, p.Subjects[0].LecturesCompleted, 3)
	}
	assert.Equal(t, 3, p.Subjects[0].LecturesCompleted)

	// going down never passes 0
	for i := 0; i < 10; i++ {
		_ = p.AdjustLecturesCompleted(0, -1)
		assert.GreaterOrEqual(t, p.Subjects[0].LecturesCompleted, 0)
	}
	assert.Equal(t, 0, p.Subjects[0].LecturesCompleted)

	// a jump past the bounds is rejected as a whole
	require.NoError(t, p.AdjustLecturesCompleted(0, 2))
	assert.ErrorIs(t, p.AdjustLecturesCompleted(0, 5), ErrLecturesOutOfRange)
	assert.ErrorIs(t, p.AdjustLecturesCompleted(0, -5), ErrLecturesOutOfRange)
	assert.Equal(t, 2, p.Subjects[0].LecturesCompleted)

	assert.ErrorIs(t, p.AdjustLecturesCompleted(1, 1), ErrSubjectNotFound)
}

func TestPlan_AdjustLecturesCompleted_ZeroTotal(t *testing.T) {
	p := NewDefault()
	p.AddSubject()

	assert.ErrorIs(t, p.AdjustLecturesCompleted(4, 1), ErrLecturesOutOfRange)
	assert.ErrorIs(t, p.AdjustLecturesCompleted(4, -1), ErrLecturesOutOfRange)
	assert.Zero(t, p.Subjects[4].LecturesCompleted)
}

func TestPlan_SetSchedule(t *testing.T) {
	p := NewDefault()
	start, target := NewDate(2025, 5, 1), NewDate(2025, 4, 1)
	days := 5

	require.NoError(t, p.SetSchedule(ScheduleUpdate{StartDate: &start}))
	assert.Equal(t, start, p.Schedule.StartDate)
	assert.False(t, p.Schedule.TargetDate.IsSet())
	assert.Equal(t, 6, p.Schedule.WorkingDaysPerWeek)

	// reversed ranges are accepted
	require.NoError(t, p.SetSchedule(ScheduleUpdate{TargetDate: &target, WorkingDaysPerWeek: &days}))
	assert.Equal(t, Schedule{StartDate: start, TargetDate: target, WorkingDaysPerWeek: 5}, p.Schedule)

	unset := Date{}
	require.NoError(t, p.SetSchedule(ScheduleUpdate{StartDate: &unset}))
	assert.False(t, p.Schedule.StartDate.IsSet())

	for _, bad := range []int{0, 8, -1} {
		bad := bad
		err := p.SetSchedule(ScheduleUpdate{StartDate: &start, WorkingDaysPerWeek: &bad})
		require.ErrorIs(t, err, ErrInvalidValue)
		assert.Equal(t, "working_days_per_week", fieldOf(t, err))
	}
	assert.Equal(t, 5, p.Schedule.WorkingDaysPerWeek)
	assert.False(t, p.Schedule.StartDate.IsSet(), "rejected update must not be partially applied")
}

func TestPlan_Reset(t *testing.T) {
	p := NewDefault()
	p.SetStudentName("  Devi ")
	assert.Equal(t, "Devi", p.StudentName)
	start := NewDate(2025, 1, 1)
	require.NoError(t, p.SetSchedule(ScheduleUpdate{StartDate: &start}))
	require.NoError(t, p.RemoveSubject(0))

	p.Reset()
	assert.Equal(t, NewDefault(), p)
}

func TestPlan_Clone(t *testing.T) {
	p := NewDefault()
	c := p.Clone()
	c.Subjects[0].LecturesCompleted = 7

	assert.Zero(t, p.Subjects[0].LecturesCompleted)
}

func TestPlan_Validate(t *testing.T) {
	assert.NoError(t, NewDefault().Validate())

	p := Plan{
		Schedule: Schedule{WorkingDaysPerWeek: 9},
		Subjects: []Subject{{TotalLectures: 2, LecturesCompleted: 3, HoursPerLecture: 0}},
	}
	err := p.Validate()
	require.ErrorIs(t, err, ErrInvalidValue)

	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Len(t, vErr.Fields, 3)

	p = Plan{
		Schedule: Schedule{WorkingDaysPerWeek: 5},
		Subjects: []Subject{{TotalLectures: math.MaxInt, LecturesCompleted: 1, HoursPerLecture: 1e308}},
	}
	err = p.Validate()
	require.ErrorIs(t, err, ErrInvalidValue)
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, []core.FieldError{
		{Field: "subjects[0].total_lectures", Error: "must be at most 100000"},
		{Field: "subjects[0].hours_per_lecture", Error: "must be at most 24"},
	}, vErr.Fields)
}

func TestDate_JSON(t *testing.T) {
	var d Date
	require.NoError(t, d.UnmarshalJSON([]byte(`"2025-02-28"`)))
	assert.Equal(t, NewDate(2025, 2, 28), d)

	b, err := d.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"2025-02-28"`, string(b))

	require.NoError(t, d.UnmarshalJSON([]byte(`""`)))
	assert.False(t, d.IsSet())
	b, _ = d.MarshalJSON()
	assert.Equal(t, `""`, string(b))

	assert.Error(t, d.UnmarshalJSON([]byte(`"28/02/2025"`)))
}

func subjectNames(p Plan) []string {
	names := make([]string, 0, len(p.Subjects))
	for _, s := range p.Subjects {
		names = append(names, s.Name)
	}
	return names
}
