package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tashmeduni/navbat-back/internal/db"
	"github.com/tashmeduni/navbat-back/internal/models"
	"github.com/tashmeduni/navbat-back/internal/respond"
)

// BuildingRequest is the create/update body for a building.
type BuildingRequest struct {
	Name          string `json:"name" binding:"required"`
	ComputerCount int    `json:"computerCount"`
	IsActive      *bool  `json:"isActive"`
}

// ListBuildings godoc
// @Summary      List buildings
// @Tags         building
// @Produce      json
// @Success      200 {array} models.Building
// @Security     BearerAuth
// @Router       /building [get]
func ListBuildings(c *gin.Context) {
	buildings, err := db.ListBuildings(c.Request.Context())
	if err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to fetch buildings")
		return
	}
	respond.OK(c, buildings)
}

// CreateBuilding godoc
// @Summary      Create a building
// @Tags         building
// @Accept       json
// @Produce      json
// @Param        body  body  BuildingRequest  true  "Building info"
// @Success      201 {object} models.Building
// @Failure      400 {object} map[string]string
// @Security     BearerAuth
// @Router       /building [post]
func CreateBuilding(c *gin.Context) {
	var req BuildingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Fail(c, http.StatusBadRequest, "Building name is required")
		return
	}
	if req.ComputerCount < 0 {
		respond.Fail(c, http.StatusBadRequest, "Computer count cannot be negative")
		return
	}
	b := models.Building{Name: req.Name, ComputerCount: req.ComputerCount, IsActive: true}
	if req.IsActive != nil {
		b.IsActive = *req.IsActive
	}
	if err := db.CreateBuilding(c.Request.Context(), &b); err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to create building")
		return
	}
	respond.Created(c, b)
}

// UpdateBuilding godoc
// @Summary      Update a building
// @Tags         building
// @Accept       json
// @Produce      json
// @Param        id    path  int              true  "Building ID"
// @Param        body  body  BuildingRequest  true  "Building info"
// @Success      200 {object} models.Building
// @Security     BearerAuth
// @Router       /building/{id} [patch]
func UpdateBuilding(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, "Invalid building id")
		return
	}
	var req BuildingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Fail(c, http.StatusBadRequest, "Building name is required")
		return
	}
	if req.ComputerCount < 0 {
		respond.Fail(c, http.StatusBadRequest, "Computer count cannot be negative")
		return
	}
	b, err := db.GetBuilding(c.Request.Context(), uint(id))
	if err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to fetch building")
		return
	}
	if b == nil || b.IsDeleted {
		respond.Fail(c, http.StatusNotFound, "Building not found")
		return
	}
	b.Name = req.Name
	b.ComputerCount = req.ComputerCount
	if req.IsActive != nil {
		b.IsActive = *req.IsActive
	}
	if err := db.UpdateBuilding(c.Request.Context(), b); err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to update building")
		return
	}
	respond.OK(c, b)
}

// DeleteBuilding godoc
// @Summary      Delete a building
// @Description  Soft delete; rejected while an active schedule references it
// @Tags         building
// @Produce      json
// @Param        id  path  int  true  "Building ID"
// @Success      200 {object} map[string]string
// @Failure      409 {object} map[string]string
// @Security     BearerAuth
// @Router       /building/{id} [delete]
func DeleteBuilding(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, "Invalid building id")
		return
	}
	if err := db.SoftDeleteBuilding(c.Request.Context(), uint(id)); err != nil {
		respond.Fail(c, http.StatusConflict, err.Error())
		return
	}
	respond.OK(c, gin.H{"message": "Building deleted"})
}
