package api

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/tashmeduni/navbat-back/internal/db"
	"github.com/tashmeduni/navbat-back/internal/excel"
	"github.com/tashmeduni/navbat-back/internal/external"
	"github.com/tashmeduni/navbat-back/internal/models"
	"github.com/tashmeduni/navbat-back/internal/respond"
)

// PaginatedResult is the page envelope for student listings.
type PaginatedResult struct {
	Data          interface{} `json:"data"`
	TotalElements int64       `json:"totalElements"`
	TotalPages    int64       `json:"totalPages"`
	PageSize      int         `json:"pageSize"`
	CurrentPage   int         `json:"currentPage"`
}

// StudentRequest is the create/update body for a student. Password defaults
// to the HEMIS id when omitted; students are expected to change it.
type StudentRequest struct {
	HemisID     string `json:"hemisId" binding:"required"`
	FullName    string `json:"fullname" binding:"required"`
	Course      int    `json:"course"`
	FacultetID  uint   `json:"facultetId"`
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password"`
	IsActive    *bool  `json:"isActive"`
}

// ListStudents godoc
// @Summary      List students
// @Tags         student
// @Produce      json
// @Param        page       query  int  false  "Page (1-based)"
// @Param        page_size  query  int  false  "Page size"
// @Success      200 {object} PaginatedResult
// @Security     BearerAuth
// @Router       /student [get]
func ListStudents(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "15"))

	students, total, err := db.ListStudents(c.Request.Context(), page, pageSize)
	if err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to fetch students")
		return
	}
	if pageSize < 1 {
		pageSize = 15
	}
	totalPages := (total + int64(pageSize) - 1) / int64(pageSize)
	respond.OK(c, PaginatedResult{
		Data:          students,
		TotalElements: total,
		TotalPages:    totalPages,
		PageSize:      pageSize,
		CurrentPage:   page,
	})
}

// CreateStudent godoc
// @Summary      Create a student
// @Tags         student
// @Accept       json
// @Produce      json
// @Param        body  body  StudentRequest  true  "Student info"
// @Success      201 {object} models.Student
// @Security     BearerAuth
// @Router       /student [post]
func CreateStudent(c *gin.Context) {
	var req StudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Fail(c, http.StatusBadRequest, "HEMIS id and full name are required")
		return
	}
	password := req.Password
	if password == "" {
		password = req.HemisID
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to create student")
		return
	}
	st := models.Student{
		HemisID:      req.HemisID,
		FullName:     req.FullName,
		Course:       req.Course,
		FacultetID:   req.FacultetID,
		PhoneNumber:  req.PhoneNumber,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if req.IsActive != nil {
		st.IsActive = *req.IsActive
	}
	if err := db.CreateStudent(c.Request.Context(), &st); err != nil {
		respond.Fail(c, http.StatusConflict, "Student with this HEMIS id already exists")
		return
	}
	respond.Created(c, st)
}

// UpdateStudent godoc
// @Summary      Update a student
// @Tags         student
// @Accept       json
// @Produce      json
// @Param        id    path  int             true  "Student ID"
// @Param        body  body  StudentRequest  true  "Student info"
// @Success      200 {object} models.Student
// @Security     BearerAuth
// @Router       /student/{id} [patch]
func UpdateStudent(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, "Invalid student id")
		return
	}
	var req StudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Fail(c, http.StatusBadRequest, "HEMIS id and full name are required")
		return
	}
	st := models.Student{
		ID:          uint(id),
		FullName:    req.FullName,
		Course:      req.Course,
		FacultetID:  req.FacultetID,
		PhoneNumber: req.PhoneNumber,
		IsActive:    true,
	}
	if req.IsActive != nil {
		st.IsActive = *req.IsActive
	}
	if err := db.UpdateStudent(c.Request.Context(), &st); err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to update student")
		return
	}
	respond.OK(c, st)
}

// DeleteStudent godoc
// @Summary      Delete a student
// @Tags         student
// @Produce      json
// @Param        id  path  int  true  "Student ID"
// @Success      200 {object} map[string]string
// @Security     BearerAuth
// @Router       /student/{id} [delete]
func DeleteStudent(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, "Invalid student id")
		return
	}
	if err := db.DeleteStudent(c.Request.Context(), uint(id)); err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to delete student")
		return
	}
	respond.OK(c, gin.H{"message": "Student deleted"})
}

// ImportStudents godoc
// @Summary      Import students from a HEMIS export sheet
// @Tags         student
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "xlsx file"
// @Success      200 {object} map[string]interface{}
// @Security     BearerAuth
// @Router       /student/import [post]
func ImportStudents(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, "xlsx file is required")
		return
	}
	defer file.Close()

	students, err := excel.ParseStudents(file)
	if err != nil {
		log.Println("failed to parse student sheet:", err)
		respond.Fail(c, http.StatusBadRequest, "Failed to parse xlsx file")
		return
	}

	saved, err := db.SaveStudents(c.Request.Context(), students)
	if err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to save students")
		return
	}
	respond.OK(c, gin.H{"message": "Students imported", "count": saved})
}

// StudentArrears godoc
// @Summary      Fetch a student's 2MB arrears from HEMIS
// @Tags         external
// @Produce      json
// @Param        hemisId  path  string  true  "HEMIS ID"
// @Success      200 {object} map[string]interface{}
// @Security     BearerAuth
// @Router       /external/get-2mb-student/{hemisId} [get]
func StudentArrears(client *external.HemisClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil {
			respond.Fail(c, http.StatusServiceUnavailable, "HEMIS integration is not configured")
			return
		}
		data, err := client.StudentArrears(c.Request.Context(), c.Param("hemisId"))
		if err != nil {
			log.Println("hemis arrears fetch failed:", err)
			respond.Fail(c, http.StatusBadGateway, "Failed to fetch arrears from HEMIS")
			return
		}
		respond.OK(c, data)
	}
}
