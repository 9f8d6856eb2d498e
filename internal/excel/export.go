package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/tashmeduni/navbat-back/internal/models"
)

// BuildScheduleReport renders a schedule's registration list as an xlsx
// workbook, one row per registration in queue order.
func BuildScheduleReport(sched *models.CatchupSchedule, regs []models.QueueRegistration) (*excelize.File, error) {
	f := excelize.NewFile()
	sheetName := "Registrations"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s — %s", sched.Name, sched.Date))
	f.MergeCell(sheetName, "A1", "G1")

	headers := []string{"#", "HEMIS ID", "Full name", "Course", "Phone", "Time slot", "Status"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		f.SetCellValue(sheetName, cell, h)
	}

	for i, reg := range regs {
		row := i + 3
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), reg.QueueNumber)
		if reg.Student != nil {
			f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), reg.Student.HemisID)
			f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), reg.Student.FullName)
			f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), reg.Student.Course)
			f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), reg.Student.PhoneNumber)
		}
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), reg.SelectedTimeSlot)
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), reg.Status)
	}

	f.SetColWidth(sheetName, "B", "C", 24)
	f.SetColWidth(sheetName, "E", "F", 16)

	return f, nil
}
