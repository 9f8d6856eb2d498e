package excel

import (
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/tashmeduni/navbat-back/internal/models"
)

// ParseStudents reads a HEMIS student export sheet. Expected columns on the
// first sheet: HEMIS ID, full name, course, facultet id, phone number. The
// first row is the header and is skipped. Initial password is the HEMIS id.
func ParseStudents(r io.Reader) ([]models.Student, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx has no sheets")
	}
	sheetName := sheets[0]
	log.Println("📖 Parsing student sheet:", sheetName)

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, err
	}

	var students []models.Student
	skipped := 0

	for rowIndex, row := range rows {
		if rowIndex == 0 {
			continue
		}
		if len(row) < 2 {
			skipped++
			continue
		}

		hemisID := strings.TrimSpace(row[0])
		fullName := strings.TrimSpace(row[1])
		if hemisID == "" || fullName == "" {
			skipped++
			log.Printf("⚠️ Skipped row %d: missing HEMIS id or name\n", rowIndex+1)
			continue
		}

		st := models.Student{
			HemisID:  hemisID,
			FullName: fullName,
			IsActive: true,
		}

		if len(row) > 2 {
			if course, err := strconv.Atoi(strings.TrimSpace(row[2])); err == nil {
				st.Course = course
			}
		}
		if len(row) > 3 {
			if facultetID, err := strconv.Atoi(strings.TrimSpace(row[3])); err == nil {
				st.FacultetID = uint(facultetID)
			}
		}
		if len(row) > 4 {
			st.PhoneNumber = strings.TrimSpace(row[4])
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(hemisID), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password at row %d: %w", rowIndex+1, err)
		}
		st.PasswordHash = string(hash)

		students = append(students, st)
	}

	log.Printf("✅ Parsed %d students, %d rows skipped\n", len(students), skipped)
	return students, nil
}
