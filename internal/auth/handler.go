package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/tashmeduni/navbat-back/internal/config"
	"github.com/tashmeduni/navbat-back/internal/db"
	"github.com/tashmeduni/navbat-back/internal/respond"
)

// AdminLoginRequest is the body for the admin password login.
type AdminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AdminLoginHandler godoc
// @Summary      Admin login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  AdminLoginRequest  true  "Credentials"
// @Success      200 {object} map[string]interface{}
// @Failure      401 {object} map[string]interface{}
// @Router       /auth/admin-login [post]
func AdminLoginHandler(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AdminLoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Fail(c, http.StatusBadRequest, "Username and password are required")
			return
		}

		admin, err := db.GetAdminByUsername(c.Request.Context(), req.Username)
		if err != nil {
			respond.Fail(c, http.StatusInternalServerError, "Login failed")
			return
		}
		if admin == nil || bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)) != nil {
			respond.Fail(c, http.StatusUnauthorized, "Invalid username or password")
			return
		}

		pair, err := IssueTokens(cfg, Identity{ID: admin.ID, Role: RoleAdmin, Username: admin.Username})
		if err != nil {
			respond.Fail(c, http.StatusInternalServerError, "Failed to issue token")
			return
		}

		respond.OK(c, gin.H{
			"token":        pair.AccessToken,
			"refreshToken": pair.RefreshToken,
			"id":           admin.ID,
			"username":     admin.Username,
			"fullName":     admin.FullName,
		})
	}
}

// StudentLoginRequest is the body for the student HEMIS login.
type StudentLoginRequest struct {
	HemisID  string `json:"hemisId" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// StudentLoginHandler godoc
// @Summary      Student login by HEMIS id
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  StudentLoginRequest  true  "Credentials"
// @Success      200 {object} map[string]interface{}
// @Failure      401 {object} map[string]interface{}
// @Router       /auth/student-login [post]
func StudentLoginHandler(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req StudentLoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Fail(c, http.StatusBadRequest, "HEMIS id and password are required")
			return
		}

		student, err := db.GetStudentByHemisID(c.Request.Context(), req.HemisID)
		if err != nil {
			respond.Fail(c, http.StatusInternalServerError, "Login failed")
			return
		}
		if student == nil || !student.IsActive ||
			bcrypt.CompareHashAndPassword([]byte(student.PasswordHash), []byte(req.Password)) != nil {
			respond.Fail(c, http.StatusUnauthorized, "Invalid HEMIS id or password")
			return
		}

		pair, err := IssueTokens(cfg, Identity{ID: student.ID, Role: RoleStudent, HemisID: student.HemisID})
		if err != nil {
			respond.Fail(c, http.StatusInternalServerError, "Failed to issue token")
			return
		}

		respond.OK(c, gin.H{
			"token":        pair.AccessToken,
			"refreshToken": pair.RefreshToken,
			"id":           student.ID,
			"hemisId":      student.HemisID,
			"fullname":     student.FullName,
			"phoneNumber":  student.PhoneNumber,
			"facultetId":   student.FacultetID,
			"course":       student.Course,
		})
	}
}

// RefreshHandler godoc
// @Summary      Refresh token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      200 {object} map[string]interface{}
// @Failure      401 {object} map[string]interface{}
// @Router       /auth/refresh [post]
func RefreshHandler(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			RefreshToken string `json:"refreshToken" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Fail(c, http.StatusBadRequest, "Missing refresh token")
			return
		}

		id, err := ParseToken(cfg, req.RefreshToken, true)
		if err != nil {
			respond.Fail(c, http.StatusUnauthorized, "Invalid refresh token")
			return
		}

		pair, err := IssueTokens(cfg, id)
		if err != nil {
			respond.Fail(c, http.StatusInternalServerError, "Failed to issue token")
			return
		}
		respond.OK(c, pair)
	}
}
