package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/studyplanner/core"
	"github.com/trezcool/studyplanner/core/plan"
)

type (
	planRow struct {
		UserID             string    `db:"user_id"`
		StudentName        string    `db:"student_name"`
		StartDate          null.Time `db:"start_date"`
		TargetDate         null.Time `db:"target_date"`
		WorkingDaysPerWeek int       `db:"working_days_per_week"`
		UpdatedAt          time.Time `db:"updated_at"`
	}

	subjectRow struct {
		UserID            string  `db:"user_id"`
		Position          int     `db:"position"`
		Name              string  `db:"name"`
		TotalLectures     int     `db:"total_lectures"`
		LecturesCompleted int     `db:"lectures_completed"`
		HoursPerLecture   float64 `db:"hours_per_lecture"`
	}
)

func nullDate(d plan.Date) null.Time {
	return null.NewTime(d.Time, d.IsSet())
}

func dateOf(t null.Time) plan.Date {
	if !t.Valid {
		return plan.Date{}
	}
	return plan.DateOf(t.Time)
}

type planRepository struct {
	db      core.DB
	nowFunc func() time.Time // mockable
}

func NewPlanRepository(db core.DB) plan.Repository {
	return &planRepository{db: db, nowFunc: time.Now}
}

func (repo *planRepository) GetPlan(ctx context.Context, userID string) (plan.Plan, error) {
	var row planRow
	q := repo.db.Rebind(`SELECT user_id, student_name, start_date, target_date, working_days_per_week, updated_at
		FROM study_plans WHERE user_id = ?`)
	if err := sqlx.GetContext(ctx, repo.db, &row, q, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return plan.Plan{}, plan.ErrPlanNotFound
		}
		return plan.Plan{}, errors.Wrap(err, "selecting study plan")
	}

	var rows []subjectRow
	q = repo.db.Rebind(`SELECT user_id, position, name, total_lectures, lectures_completed, hours_per_lecture
		FROM subjects WHERE user_id = ? ORDER BY position`)
	if err := sqlx.SelectContext(ctx, repo.db, &rows, q, userID); err != nil {
		return plan.Plan{}, errors.Wrap(err, "selecting subjects")
	}

	p := plan.Plan{
		StudentName: row.StudentName,
		Schedule: plan.Schedule{
			StartDate:          dateOf(row.StartDate),
			TargetDate:         dateOf(row.TargetDate),
			WorkingDaysPerWeek: row.WorkingDaysPerWeek,
		},
		Subjects: make([]plan.Subject, 0, len(rows)),
	}
	for _, sr := range rows {
		p.Subjects = append(p.Subjects, plan.Subject{
			Name:              sr.Name,
			TotalLectures:     sr.TotalLectures,
			LecturesCompleted: sr.LecturesCompleted,
			HoursPerLecture:   sr.HoursPerLecture,
		})
	}
	return p, nil
}

// SavePlan replaces the stored plan of the user in one transaction.
func (repo *planRepository) SavePlan(ctx context.Context, userID string, p plan.Plan) error {
	row := planRow{
		UserID:             userID,
		StudentName:        p.StudentName,
		StartDate:          nullDate(p.Schedule.StartDate),
		TargetDate:         nullDate(p.Schedule.TargetDate),
		WorkingDaysPerWeek: p.Schedule.WorkingDaysPerWeek,
		UpdatedAt:          repo.nowFunc().UTC(),
	}

	return core.WithTx(ctx, repo.db, func(tx core.DBTransactor) error {
		q := `INSERT INTO study_plans (user_id, student_name, start_date, target_date, working_days_per_week, updated_at)
			VALUES (:user_id, :student_name, :start_date, :target_date, :working_days_per_week, :updated_at)
			ON CONFLICT (user_id) DO UPDATE SET
				student_name = excluded.student_name,
				start_date = excluded.start_date,
				target_date = excluded.target_date,
				working_days_per_week = excluded.working_days_per_week,
				updated_at = excluded.updated_at`
		if _, err := sqlx.NamedExecContext(ctx, tx, q, row); err != nil {
			return errors.Wrap(err, "upserting study plan")
		}

		if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM subjects WHERE user_id = ?"), userID); err != nil {
			return errors.Wrap(err, "deleting subjects")
		}
		if len(p.Subjects) == 0 {
			return nil
		}

		rows := make([]subjectRow, 0, len(p.Subjects))
		for i, s := range p.Subjects {
			rows = append(rows, subjectRow{
				UserID:            userID,
				Position:          i,
				Name:              s.Name,
				TotalLectures:     s.TotalLectures,
				LecturesCompleted: s.LecturesCompleted,
				HoursPerLecture:   s.HoursPerLecture,
			})
		}
		q = `INSERT INTO subjects (user_id, position, name, total_lectures, lectures_completed, hours_per_lecture)
			VALUES (:user_id, :position, :name, :total_lectures, :lectures_completed, :hours_per_lecture)`
		_, err := sqlx.NamedExecContext(ctx, tx, q, rows)
		return errors.Wrap(err, "inserting subjects")
	})
}
