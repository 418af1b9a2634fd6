package plan

const (
	remarkReversedDates = "The target date is before the start date: fix the schedule to get a daily target."
	remarkNoWorkingDays = "No working days left before the target date."
	remarkAllDone       = "All lectures completed. Well done!"
)

// Report holds the study metrics derived from a Plan. It is never stored.
type Report struct {
	TotalPendingLectures int     `json:"total_pending_lectures"`
	TotalPendingHours    float64 `json:"total_pending_hours"`
	RequiredHoursPerDay  float64 `json:"required_hours_per_day"`
	TotalProgress        float64 `json:"total_progress"` // percentage
	WorkingDays          int     `json:"working_days"`
	Remarks              string  `json:"remarks,omitempty"`
}

// Compute derives the Report of p. It is recomputed from scratch on every call.
func Compute(p Plan) Report {
	var (
		rep                 Report
		total, completed    int
		scheduleUnreachable bool
	)

	for _, s := range p.Subjects {
		pending := s.PendingLectures()
		rep.TotalPendingLectures += pending
		rep.TotalPendingHours += float64(pending) * s.HoursPerLecture
		total += s.TotalLectures
		completed += s.LecturesCompleted
	}

	sched := p.Schedule
	if sched.StartDate.IsSet() && sched.TargetDate.IsSet() {
		days := calendarDays(sched.StartDate, sched.TargetDate)
		rep.WorkingDays = workingDays(days, sched.WorkingDaysPerWeek)
		if rep.WorkingDays > 0 {
			rep.RequiredHoursPerDay = rep.TotalPendingHours / float64(rep.WorkingDays)
		} else {
			scheduleUnreachable = true
			if days < 0 {
				rep.Remarks = remarkReversedDates
			} else {
				rep.Remarks = remarkNoWorkingDays
			}
			rep.WorkingDays = 0
		}
	}

	if total > 0 {
		rep.TotalProgress = 100 * float64(completed) / float64(total)
		if completed == total && !scheduleUnreachable {
			rep.Remarks = remarkAllDone
		}
	}
	return rep
}

// calendarDays is the number of days from start to target.
// It is negative when target is before start. Dates are UTC midnights, so the
// division is exact and does not saturate like time.Duration.
func calendarDays(start, target Date) int {
	return int((target.Unix() - start.Unix()) / secondsPerDay)
}

const secondsPerDay = 24 * 60 * 60

// workingDays spreads days over weeks of perWeek working days, rounding up.
func workingDays(days, perWeek int) int {
	n := days * perWeek
	if n <= 0 {
		return n / 7
	}
	return (n + 6) / 7
}
