package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tashmeduni/navbat-back/internal/db"
	"github.com/tashmeduni/navbat-back/internal/models"
	"github.com/tashmeduni/navbat-back/internal/respond"
)

// FacultetRequest is the create/update body for a faculty.
type FacultetRequest struct {
	Name       string `json:"name" binding:"required"`
	BuildingID uint   `json:"buildingId" binding:"required"`
}

// ListFacultets godoc
// @Summary      List faculties
// @Tags         facultet
// @Produce      json
// @Success      200 {array} models.Facultet
// @Security     BearerAuth
// @Router       /facultet [get]
func ListFacultets(c *gin.Context) {
	facultets, err := db.ListFacultets(c.Request.Context())
	if err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to fetch faculties")
		return
	}
	respond.OK(c, facultets)
}

// FacultetsByBuilding godoc
// @Summary      List faculties of a building
// @Tags         facultet
// @Produce      json
// @Param        id  path  int  true  "Building ID"
// @Success      200 {array} models.Facultet
// @Security     BearerAuth
// @Router       /facultet/by-building/{id} [get]
func FacultetsByBuilding(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, "Invalid building id")
		return
	}
	facultets, err := db.FacultetsByBuilding(c.Request.Context(), uint(id))
	if err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to fetch faculties")
		return
	}
	respond.OK(c, facultets)
}

// CreateFacultet godoc
// @Summary      Create a faculty
// @Tags         facultet
// @Accept       json
// @Produce      json
// @Param        body  body  FacultetRequest  true  "Faculty info"
// @Success      201 {object} models.Facultet
// @Security     BearerAuth
// @Router       /facultet [post]
func CreateFacultet(c *gin.Context) {
	var req FacultetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Fail(c, http.StatusBadRequest, "Faculty name and building are required")
		return
	}
	b, err := db.GetBuilding(c.Request.Context(), req.BuildingID)
	if err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to fetch building")
		return
	}
	if b == nil || b.IsDeleted {
		respond.Fail(c, http.StatusBadRequest, "Building not found")
		return
	}
	f := models.Facultet{Name: req.Name, BuildingID: req.BuildingID}
	if err := db.CreateFacultet(c.Request.Context(), &f); err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to create faculty")
		return
	}
	respond.Created(c, f)
}

// UpdateFacultet godoc
// @Summary      Update a faculty
// @Tags         facultet
// @Accept       json
// @Produce      json
// @Param        id    path  int              true  "Faculty ID"
// @Param        body  body  FacultetRequest  true  "Faculty info"
// @Success      200 {object} models.Facultet
// @Security     BearerAuth
// @Router       /facultet/{id} [patch]
func UpdateFacultet(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, "Invalid faculty id")
		return
	}
	var req FacultetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Fail(c, http.StatusBadRequest, "Faculty name and building are required")
		return
	}
	f := models.Facultet{ID: uint(id), Name: req.Name, BuildingID: req.BuildingID}
	if err := db.UpdateFacultet(c.Request.Context(), &f); err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to update faculty")
		return
	}
	respond.OK(c, f)
}

// DeleteFacultet godoc
// @Summary      Delete a faculty
// @Tags         facultet
// @Produce      json
// @Param        id  path  int  true  "Faculty ID"
// @Success      200 {object} map[string]string
// @Security     BearerAuth
// @Router       /facultet/{id} [delete]
func DeleteFacultet(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, "Invalid faculty id")
		return
	}
	if err := db.DeleteFacultet(c.Request.Context(), uint(id)); err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to delete faculty")
		return
	}
	respond.OK(c, gin.H{"message": "Faculty deleted"})
}
