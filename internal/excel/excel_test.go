package excel

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/tashmeduni/navbat-back/internal/models"
)

func studentSheet(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	header := []interface{}{"HEMIS ID", "Full name", "Course", "Facultet ID", "Phone"}
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &header))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestParseStudents(t *testing.T) {
	buf := studentSheet(t, [][]interface{}{
		{"12345678", "Aliyev Alisher", 2, 1, "+998901234567"},
		{"87654321", "Karimova Nilufar", 3, 2, ""},
	})

	students, err := ParseStudents(buf)
	require.NoError(t, err)
	require.Len(t, students, 2)

	first := students[0]
	assert.Equal(t, "12345678", first.HemisID)
	assert.Equal(t, "Aliyev Alisher", first.FullName)
	assert.Equal(t, 2, first.Course)
	assert.Equal(t, uint(1), first.FacultetID)
	assert.Equal(t, "+998901234567", first.PhoneNumber)
	assert.True(t, first.IsActive)

	// Initial password is the HEMIS id.
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(first.PasswordHash), []byte("12345678")))
}

func TestParseStudentsSkipsIncompleteRows(t *testing.T) {
	buf := studentSheet(t, [][]interface{}{
		{"", "No Hemis"},
		{"11112222", ""},
		{"33334444", "Valid Student", 1, 1, ""},
	})

	students, err := ParseStudents(buf)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "33334444", students[0].HemisID)
}

func TestParseStudentsRejectsGarbage(t *testing.T) {
	_, err := ParseStudents(bytes.NewReader([]byte("not an xlsx")))
	assert.Error(t, err)
}

func TestBuildScheduleReport(t *testing.T) {
	sched := &models.CatchupSchedule{Name: "Informatics catch-up", Date: "2026-09-15"}
	regs := []models.QueueRegistration{
		{
			QueueNumber:      1,
			SelectedTimeSlot: "09:00-10:00",
			Status:           models.StatusArrived,
			Student: &models.Student{
				HemisID:     "12345678",
				FullName:    "Aliyev Alisher",
				Course:      2,
				PhoneNumber: "+998901234567",
			},
		},
		{
			QueueNumber:      2,
			SelectedTimeSlot: "09:00-10:00",
			Status:           models.StatusPending,
			Student:          &models.Student{HemisID: "87654321", FullName: "Karimova Nilufar"},
		},
	}

	f, err := BuildScheduleReport(sched, regs)
	require.NoError(t, err)
	defer f.Close()

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	reopened, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer reopened.Close()

	title, err := reopened.GetCellValue("Registrations", "A1")
	require.NoError(t, err)
	assert.Contains(t, title, "Informatics catch-up")
	assert.Contains(t, title, "2026-09-15")

	hemis, err := reopened.GetCellValue("Registrations", "B3")
	require.NoError(t, err)
	assert.Equal(t, "12345678", hemis)

	status, err := reopened.GetCellValue("Registrations", "G4")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, status)
}
