package echoapi

import (
	"net/http"
	"net/mail"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/studyplanner/core"
	"github.com/trezcool/studyplanner/core/plan"
	"github.com/trezcool/studyplanner/core/user"
	exportsvc "github.com/trezcool/studyplanner/services/export"
)

type planApi struct {
	svc      *plan.Service
	userSvc  *user.Service
	mailSvc  core.EmailService
	validate *validator.Validate
}

func registerPlanAPI(g *echo.Group, jwt, sess echo.MiddlewareFunc, s *Server) {
	api := planApi{
		svc:      s.PlanSvc,
		userSvc:  s.UserSvc,
		mailSvc:  s.MailSvc,
		validate: s.Validate,
	}

	pg := g.Group("/plan", jwt, sess)
	pg.GET("", api.current)
	pg.GET("/report", api.report)
	pg.PUT("/student-name", api.setStudentName)
	pg.PATCH("/schedule", api.setSchedule)
	pg.POST("/subjects", api.addSubject)
	pg.PATCH("/subjects/:index", api.setSubjectField)
	pg.DELETE("/subjects/:index", api.removeSubject)
	pg.POST("/subjects/:index/lectures", api.adjustLectures)
	pg.POST("/reset", api.reset)
	pg.POST("/save", api.save)
	pg.GET("/quote", api.quote)
	pg.POST("/quote", api.refreshQuote)
	pg.GET("/export", api.export)
	pg.POST("/export/email", api.emailExport)
}

// apply runs an edit on the session's plan and responds with the resulting snapshot.
func (api *planApi) apply(ctx echo.Context, fn func(p *plan.Plan) error) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	snap, err := sess.Apply(fn)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, snap)
}

func (api *planApi) bind(ctx echo.Context, data interface{}) error {
	if err := ctx.Bind(data); err != nil {
		return errors.Wrapf(err, "binding to %T", data)
	}
	return api.validate.Struct(data)
}

func subjectIndex(ctx echo.Context) (int, error) {
	idx, err := strconv.Atoi(ctx.Param("index"))
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusNotFound, plan.ErrSubjectNotFound.Error())
	}
	return idx, nil
}

// Handlers

func (api *planApi) current(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess.Snapshot())
}

func (api *planApi) report(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess.Report())
}

func (api *planApi) setStudentName(ctx echo.Context) error {
	var data StudentNameRequest
	if err := api.bind(ctx, &data); err != nil {
		return err
	}
	return api.apply(ctx, func(p *plan.Plan) error {
		p.SetStudentName(data.StudentName)
		return nil
	})
}

func (api *planApi) setSchedule(ctx echo.Context) error {
	var data ScheduleRequest
	if err := api.bind(ctx, &data); err != nil {
		return err
	}
	upd, err := data.toUpdate()
	if err != nil {
		return err
	}
	return api.apply(ctx, func(p *plan.Plan) error { return p.SetSchedule(upd) })
}

func (api *planApi) addSubject(ctx echo.Context) error {
	return api.apply(ctx, func(p *plan.Plan) error {
		p.AddSubject()
		return nil
	})
}

func (api *planApi) setSubjectField(ctx echo.Context) error {
	idx, err := subjectIndex(ctx)
	if err != nil {
		return err
	}
	var data SubjectFieldRequest
	if err = api.bind(ctx, &data); err != nil {
		return err
	}
	return api.apply(ctx, func(p *plan.Plan) error { return p.SetSubjectField(idx, data.Field, data.Value) })
}

func (api *planApi) removeSubject(ctx echo.Context) error {
	idx, err := subjectIndex(ctx)
	if err != nil {
		return err
	}
	return api.apply(ctx, func(p *plan.Plan) error { return p.RemoveSubject(idx) })
}

func (api *planApi) adjustLectures(ctx echo.Context) error {
	idx, err := subjectIndex(ctx)
	if err != nil {
		return err
	}
	var data LecturesRequest
	if err = api.bind(ctx, &data); err != nil {
		return err
	}
	return api.apply(ctx, func(p *plan.Plan) error { return p.AdjustLecturesCompleted(idx, *data.Delta) })
}

func (api *planApi) reset(ctx echo.Context) error {
	return api.apply(ctx, func(p *plan.Plan) error {
		p.Reset()
		return nil
	})
}

func (api *planApi) save(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Save(ctx.Request().Context(), sess); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess.Snapshot())
}

func (api *planApi) quote(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, QuoteResponse{Quote: sess.Quote()})
}

func (api *planApi) refreshQuote(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, QuoteResponse{Quote: sess.RefreshQuote()})
}

func (api *planApi) export(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	snap := sess.Snapshot()
	buf, err := exportsvc.XLSX(snap.Plan, snap.Report)
	if err != nil {
		return errors.Wrap(err, "exporting plan")
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+exportsvc.XLSXFilename(snap.Plan.StudentName)+`"`)
	return ctx.Stream(http.StatusOK, exportsvc.XLSXContentType, buf)
}

// emailExport sends the report to the user, with the workbook attached.
func (api *planApi) emailExport(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	usr, err := api.userSvc.GetByID(ctx.Request().Context(), sess.UserID)
	if err != nil {
		return errors.Wrap(err, "finding user by ID")
	}

	snap := sess.Snapshot()
	buf, err := exportsvc.XLSX(snap.Plan, snap.Report)
	if err != nil {
		return errors.Wrap(err, "exporting plan")
	}

	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Your study report",
		TemplateName: "study_report",
		TemplateData: StudyReportData{StudentName: snap.Plan.StudentName, Report: snap.Report},
	}
	if err = msg.Attach(buf, exportsvc.XLSXFilename(snap.Plan.StudentName), exportsvc.XLSXContentType); err != nil {
		return errors.Wrap(err, "attaching workbook")
	}
	api.mailSvc.SendMessages(msg)

	return ctx.JSON(http.StatusAccepted, SuccessResponse{Success: "The report is on its way to " + usr.Email + "."})
}

type (
	StudentNameRequest struct {
		StudentName string `json:"student_name"`
	}

	// ScheduleRequest updates the fields it carries. An empty date unsets it.
	ScheduleRequest struct {
		StartDate          *string `json:"start_date" validate:"omitempty,isodate"`
		TargetDate         *string `json:"target_date" validate:"omitempty,isodate"`
		WorkingDaysPerWeek *int    `json:"working_days_per_week" validate:"omitempty,min=1,max=7"`
	}

	SubjectFieldRequest struct {
		Field string `json:"field" validate:"required,oneof=name total_lectures lectures_completed hours_per_lecture"`
		Value string `json:"value"`
	}

	LecturesRequest struct {
		Delta *int `json:"delta" validate:"required"`
	}

	QuoteResponse struct {
		Quote string `json:"quote"`
	}

	StudyReportData struct {
		StudentName string
		Report      plan.Report
	}
)

func (sr ScheduleRequest) toUpdate() (plan.ScheduleUpdate, error) {
	var upd plan.ScheduleUpdate
	for _, d := range []struct {
		field string
		raw   *string
		dst   **plan.Date
	}{
		{"start_date", sr.StartDate, &upd.StartDate},
		{"target_date", sr.TargetDate, &upd.TargetDate},
	} {
		if d.raw == nil {
			continue
		}
		date, err := plan.ParseDate(*d.raw)
		if err != nil {
			return plan.ScheduleUpdate{}, core.NewValidationError(plan.ErrInvalidValue, core.FieldError{
				Field: d.field,
				Error: d.field + " must be a date formatted as YYYY-MM-DD",
			})
		}
		*d.dst = &date
	}
	upd.WorkingDaysPerWeek = sr.WorkingDaysPerWeek
	return upd, nil
}
