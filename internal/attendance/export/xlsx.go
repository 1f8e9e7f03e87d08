// Package export renders attendance reports as spreadsheets.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/staffdesk/staffdesk-backend/internal/attendance/domain"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Attendance"

// ContentType is the MIME type of the rendered workbook
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var columns = []string{
	"Agent",
	"Present In Office",
	"Present From Home",
	"Absent",
	"Sick Leave",
	"Vacation",
	"Holiday",
	"Day Off",
	"Work on Holiday",
	"Sunday Work",
	"Extra Hours",
	"Working Hours",
}

// headerRow is where the column labels go; rows above it hold the title
const headerRow = 3

// FileName is the download name for a report over [from, to]
func FileName(from, to time.Time) string {
	return fmt.Sprintf("attendance_%s_%s.xlsx", domain.FormatDate(from), domain.FormatDate(to))
}

// TeamReport builds a workbook with one row per report, in the given order
func TeamReport(from, to time.Time, reports []domain.MonthlyReport) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	if err != nil {
		return nil, err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err != nil {
		return nil, err
	}

	title := fmt.Sprintf("Attendance %s to %s",
		from.Format(domain.DisplayLayout), to.Format(domain.DisplayLayout))
	if err := f.SetCellValue(sheetName, "A1", title); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheetName, "A1", "A1", titleStyle); err != nil {
		return nil, err
	}

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := setRow(f, headerRow, header); err != nil {
		return nil, err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(columns))
	if err := f.SetCellStyle(sheetName, "A3", fmt.Sprintf("%s%d", lastCol, headerRow), headerStyle); err != nil {
		return nil, err
	}

	for i, r := range reports {
		name := r.AgentName
		if name == "" {
			name = r.AgentID
		}
		row := []interface{}{
			name,
			r.PresentInOffice,
			r.WorkingFromHome,
			r.Absent,
			r.SickLeave,
			r.Vacation,
			r.Holiday,
			r.DayOff,
			r.WorkOnHoliday,
			r.SundayWork,
			r.ExtraHours.InexactFloat64(),
			r.WorkingHours.InexactFloat64(),
		}
		if err := setRow(f, headerRow+1+i, row); err != nil {
			return nil, err
		}
	}

	if err := f.SetColWidth(sheetName, "A", "A", 28); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(sheetName, "B", lastCol, 14); err != nil {
		return nil, err
	}
	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		XSplit:      1,
		YSplit:      headerRow,
		TopLeftCell: fmt.Sprintf("B%d", headerRow+1),
		ActivePane:  "bottomRight",
	}); err != nil {
		return nil, err
	}

	return f, nil
}

// WriteTeamReport renders the workbook straight to w
func WriteTeamReport(w io.Writer, from, to time.Time, reports []domain.MonthlyReport) error {
	f, err := TeamReport(from, to, reports)
	if err != nil {
		return fmt.Errorf("failed to build report workbook: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write report workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheetName, cell, &values)
}
