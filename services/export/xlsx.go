package exportsvc

import (
	"bytes"
	"fmt"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/studyplanner/core/plan"
)

const (
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	subjectsSheet = "Subjects"
	reportSheet   = "Report"
)

var subjectsHeader = []interface{}{
	"Subject", "Total Lectures", "Completed", "Pending", "Hours/Lecture", "Pending Hours", "Progress (%)",
}

// XLSXFilename is the attachment name of the workbook of studentName's plan.
func XLSXFilename(studentName string) string {
	if studentName == "" {
		return "study-plan.xlsx"
	}
	return fmt.Sprintf("study-plan-%s.xlsx", slug(studentName))
}

// XLSX writes the plan and its report as a workbook with a Subjects and a Report sheet.
func XLSX(p plan.Plan, rep plan.Report) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", subjectsSheet); err != nil {
		return nil, errors.Wrap(err, "renaming sheet")
	}
	if _, err := f.NewSheet(reportSheet); err != nil {
		return nil, errors.Wrap(err, "creating report sheet")
	}

	styles, err := newStyles(f)
	if err != nil {
		return nil, err
	}
	if err = writeSubjects(f, p, styles); err != nil {
		return nil, errors.Wrap(err, "writing subjects")
	}
	if err = writeReport(f, p, rep, styles); err != nil {
		return nil, errors.Wrap(err, "writing report")
	}

	buf, err := f.WriteToBuffer()
	return buf, errors.Wrap(err, "writing workbook")
}

type styles struct {
	header, decimal, percent int
}

func newStyles(f *excelize.File) (styles, error) {
	var (
		s   styles
		err error
	)
	decimalFmt, percentFmt := "0.00", "0.0"

	s.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#4F46E5"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "#000000", Style: 1},
		},
	})
	if err != nil {
		return s, errors.Wrap(err, "creating header style")
	}
	if s.decimal, err = f.NewStyle(&excelize.Style{CustomNumFmt: &decimalFmt}); err != nil {
		return s, errors.Wrap(err, "creating decimal style")
	}
	if s.percent, err = f.NewStyle(&excelize.Style{CustomNumFmt: &percentFmt}); err != nil {
		return s, errors.Wrap(err, "creating percent style")
	}
	return s, nil
}

func writeSubjects(f *excelize.File, p plan.Plan, st styles) error {
	if err := f.SetSheetRow(subjectsSheet, "A1", &subjectsHeader); err != nil {
		return err
	}
	if err := f.SetCellStyle(subjectsSheet, "A1", "G1", st.header); err != nil {
		return err
	}

	for i, s := range p.Subjects {
		var progress float64
		if s.TotalLectures > 0 {
			progress = 100 * float64(s.LecturesCompleted) / float64(s.TotalLectures)
		}
		pending := s.PendingLectures()
		row := []interface{}{
			s.Name, s.TotalLectures, s.LecturesCompleted, pending,
			s.HoursPerLecture, float64(pending) * s.HoursPerLecture, progress,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err = f.SetSheetRow(subjectsSheet, cell, &row); err != nil {
			return err
		}
	}

	if n := len(p.Subjects); n > 0 {
		last := n + 1
		if err := f.SetCellStyle(subjectsSheet, "E2", fmt.Sprintf("F%d", last), st.decimal); err != nil {
			return err
		}
		if err := f.SetCellStyle(subjectsSheet, "G2", fmt.Sprintf("G%d", last), st.percent); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(subjectsSheet, "A", "A", 28); err != nil {
		return err
	}
	return f.SetColWidth(subjectsSheet, "B", "G", 15)
}

func writeReport(f *excelize.File, p plan.Plan, rep plan.Report, st styles) error {
	rows := [][]interface{}{
		{"Student", p.StudentName},
		{"Start Date", p.Schedule.StartDate.String()},
		{"Target Date", p.Schedule.TargetDate.String()},
		{"Working Days/Week", p.Schedule.WorkingDaysPerWeek},
		{"Working Days", rep.WorkingDays},
		{"Pending Lectures", rep.TotalPendingLectures},
		{"Pending Hours", rep.TotalPendingHours},
		{"Hours/Day Needed", rep.RequiredHoursPerDay},
		{"Progress (%)", rep.TotalProgress},
	}
	if rep.Remarks != "" {
		rows = append(rows, []interface{}{"Remarks", rep.Remarks})
	}

	for i, row := range rows {
		row := row
		if err := f.SetSheetRow(reportSheet, fmt.Sprintf("A%d", i+1), &row); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(reportSheet, "A1", fmt.Sprintf("A%d", len(rows)), st.header); err != nil {
		return err
	}
	if err := f.SetCellStyle(reportSheet, "B7", "B8", st.decimal); err != nil {
		return err
	}
	if err := f.SetCellStyle(reportSheet, "B9", "B9", st.percent); err != nil {
		return err
	}
	return f.SetColWidth(reportSheet, "A", "B", 22)
}
