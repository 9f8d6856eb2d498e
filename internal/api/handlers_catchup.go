package api

import (
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tashmeduni/navbat-back/internal/auth"
	"github.com/tashmeduni/navbat-back/internal/catchup"
	"github.com/tashmeduni/navbat-back/internal/excel"
	"github.com/tashmeduni/navbat-back/internal/respond"
)

// CatchupHandler exposes the queue domain over HTTP. All identity comes from
// the auth middleware and is passed into the service explicitly.
type CatchupHandler struct {
	svc *catchup.Service
}

func NewCatchupHandler(svc *catchup.Service) *CatchupHandler {
	return &CatchupHandler{svc: svc}
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return uint(id), true
}

// ListSchedules godoc
// @Summary      List catch-up schedules
// @Tags         catchup-schedule
// @Produce      json
// @Success      200 {array} models.CatchupSchedule
// @Security     BearerAuth
// @Router       /catchup-schedule [get]
func (h *CatchupHandler) ListSchedules(c *gin.Context) {
	scheds, err := h.svc.ListSchedules(c.Request.Context())
	if err != nil {
		respond.DomainError(c, err)
		return
	}
	respond.OK(c, scheds)
}

// CreateSchedule godoc
// @Summary      Create a catch-up schedule
// @Tags         catchup-schedule
// @Accept       json
// @Produce      json
// @Param        body  body  catchup.ScheduleInput  true  "Schedule"
// @Success      201 {object} models.CatchupSchedule
// @Failure      400 {object} map[string]interface{}
// @Security     BearerAuth
// @Router       /catchup-schedule [post]
func (h *CatchupHandler) CreateSchedule(c *gin.Context) {
	var in catchup.ScheduleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	sched, err := h.svc.CreateSchedule(c.Request.Context(), in)
	if err != nil {
		respond.DomainError(c, err)
		return
	}
	respond.Created(c, sched)
}

// GetSchedule godoc
// @Summary      Schedule detail with slot statistics
// @Tags         catchup-schedule
// @Produce      json
// @Param        id  path  int  true  "Schedule ID"
// @Success      200 {object} models.CatchupSchedule
// @Failure      404 {object} map[string]interface{}
// @Security     BearerAuth
// @Router       /catchup-schedule/{id} [get]
func (h *CatchupHandler) GetSchedule(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	sched, err := h.svc.ScheduleDetail(c.Request.Context(), id)
	if err != nil {
		respond.DomainError(c, err)
		return
	}
	respond.OK(c, sched)
}

// UpdateSchedule godoc
// @Summary      Update a catch-up schedule
// @Tags         catchup-schedule
// @Accept       json
// @Produce      json
// @Param        id    path  int                    true  "Schedule ID"
// @Param        body  body  catchup.ScheduleInput  true  "Schedule"
// @Success      200 {object} models.CatchupSchedule
// @Security     BearerAuth
// @Router       /catchup-schedule/{id} [patch]
func (h *CatchupHandler) UpdateSchedule(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in catchup.ScheduleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	sched, err := h.svc.UpdateSchedule(c.Request.Context(), id, in)
	if err != nil {
		respond.DomainError(c, err)
		return
	}
	respond.OK(c, sched)
}

// DeleteSchedule godoc
// @Summary      Delete a catch-up schedule and its queue
// @Tags         catchup-schedule
// @Produce      json
// @Param        id  path  int  true  "Schedule ID"
// @Success      200 {object} map[string]string
// @Security     BearerAuth
// @Router       /catchup-schedule/{id} [delete]
func (h *CatchupHandler) DeleteSchedule(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteSchedule(c.Request.Context(), id); err != nil {
		respond.DomainError(c, err)
		return
	}
	respond.OK(c, gin.H{"message": "Schedule deleted"})
}

// SchedulesByStudent godoc
// @Summary      Schedules the authenticated student is eligible for
// @Tags         catchup-schedule
// @Produce      json
// @Success      200 {array} models.CatchupSchedule
// @Security     BearerAuth
// @Router       /catchup-schedule/by-student [get]
func (h *CatchupHandler) SchedulesByStudent(c *gin.Context) {
	id, _ := auth.FromContext(c)
	scheds, err := h.svc.SchedulesForStudent(c.Request.Context(), id.ID)
	if err != nil {
		respond.DomainError(c, err)
		return
	}
	respond.OK(c, scheds)
}

// TimeSlotStatistics godoc
// @Summary      Per-slot seat statistics
// @Tags         catchup-schedule
// @Produce      json
// @Param        id  path  int  true  "Schedule ID"
// @Success      200 {array} models.TimeSlotStatistic
// @Failure      404 {object} map[string]interface{}
// @Security     BearerAuth
// @Router       /catchup-schedule/time-slot-statistics/{id} [get]
func (h *CatchupHandler) TimeSlotStatistics(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	stats, err := h.svc.SlotStatistics(c.Request.Context(), id)
	if err != nil {
		respond.DomainError(c, err)
		return
	}
	respond.OK(c, stats)
}

// RegisterQueueRequest is the student registration body.
type RegisterQueueRequest struct {
	CatchupScheduleID uint   `json:"catchupScheduleId" binding:"required"`
	SelectedTimeSlot  string `json:"selectedTimeSlot" binding:"required"`
}

// RegisterQueue godoc
// @Summary      Register the authenticated student into a time slot
// @Tags         catchup-schedule
// @Accept       json
// @Produce      json
// @Param        body  body  RegisterQueueRequest  true  "Slot choice"
// @Success      201 {object} models.QueueRegistration
// @Failure      403 {object} map[string]interface{}
// @Failure      409 {object} map[string]interface{}
// @Security     BearerAuth
// @Router       /catchup-schedule/register-queue [post]
func (h *CatchupHandler) RegisterQueue(c *gin.Context) {
	var req RegisterQueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Fail(c, http.StatusBadRequest, "Schedule and time slot are required")
		return
	}
	id, _ := auth.FromContext(c)
	reg, err := h.svc.Register(c.Request.Context(), id.ID, req.CatchupScheduleID, req.SelectedTimeSlot)
	if err != nil {
		respond.DomainError(c, err)
		return
	}
	respond.Created(c, reg)
}

// StudentQueues godoc
// @Summary      The authenticated student's registrations
// @Tags         catchup-schedule
// @Produce      json
// @Success      200 {array} models.QueueRegistration
// @Security     BearerAuth
// @Router       /catchup-schedule/queue-student [get]
func (h *CatchupHandler) StudentQueues(c *gin.Context) {
	id, _ := auth.FromContext(c)
	regs, err := h.svc.StudentRegistrations(c.Request.Context(), id.ID)
	if err != nil {
		respond.DomainError(c, err)
		return
	}
	respond.OK(c, regs)
}

// CancelQueue godoc
// @Summary      Cancel the authenticated student's registration
// @Tags         catchup-schedule
// @Produce      json
// @Param        id  path  int  true  "Registration ID"
// @Success      200 {object} map[string]string
// @Failure      409 {object} map[string]interface{}
// @Security     BearerAuth
// @Router       /catchup-schedule/queue-student/{id} [delete]
func (h *CatchupHandler) CancelQueue(c *gin.Context) {
	regID, ok := pathID(c)
	if !ok {
		return
	}
	id, _ := auth.FromContext(c)
	if err := h.svc.CancelRegistration(c.Request.Context(), id.ID, regID); err != nil {
		respond.DomainError(c, err)
		return
	}
	respond.OK(c, gin.H{"message": "Registration cancelled"})
}

// RegistrationsBySchedule godoc
// @Summary      Filterable registration list of a schedule
// @Tags         catchup-schedule
// @Produce      json
// @Param        catchupScheduleId  query  int     true   "Schedule ID"
// @Param        selectedTimeSlot   query  string  false  "Slot label"
// @Param        status             query  string  false  "Status filter"
// @Param        search             query  string  false  "Name or HEMIS id"
// @Success      200 {array} models.QueueRegistration
// @Security     BearerAuth
// @Router       /catchup-schedule/by-catchup-schedule [get]
func (h *CatchupHandler) RegistrationsBySchedule(c *gin.Context) {
	scheduleID, err := strconv.ParseUint(c.Query("catchupScheduleId"), 10, 32)
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, "catchupScheduleId is required")
		return
	}
	regs, err := h.svc.ListRegistrations(c.Request.Context(), catchup.RegistrationFilter{
		ScheduleID: uint(scheduleID),
		Slot:       c.Query("selectedTimeSlot"),
		Status:     c.Query("status"),
		Search:     c.Query("search"),
	})
	if err != nil {
		respond.DomainError(c, err)
		return
	}
	respond.OK(c, regs)
}

// QueueMonitor godoc
// @Summary      Schedule with its full registration list
// @Description  Polled by admin queue screens and public displays
// @Tags         catchup-schedule
// @Produce      json
// @Param        id  path  int  true  "Schedule ID"
// @Success      200 {array} models.CatchupSchedule
// @Router       /catchup-schedule/pending-students-admin/{id} [get]
func (h *CatchupHandler) QueueMonitor(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	sched, err := h.svc.QueueMonitor(c.Request.Context(), id)
	if err != nil {
		respond.DomainError(c, err)
		return
	}
	// The monitor client expects a one-element list.
	respond.OK(c, []interface{}{sched})
}

// ScanQRRequest carries the raw text decoded from a ticket QR image.
type ScanQRRequest struct {
	QRData string `json:"qrData" binding:"required"`
}

// ScanQR godoc
// @Summary      Resolve a scanned ticket QR
// @Tags         catchup-schedule
// @Accept       json
// @Produce      json
// @Param        body  body  ScanQRRequest  true  "Scanned payload"
// @Success      200 {object} catchup.ScanResult
// @Failure      404 {object} map[string]interface{}
// @Security     BearerAuth
// @Router       /catchup-schedule/scan-qr [post]
func (h *CatchupHandler) ScanQR(c *gin.Context) {
	var req ScanQRRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Fail(c, http.StatusBadRequest, "qrData is required")
		return
	}
	result, err := h.svc.ScanQR(c.Request.Context(), req.QRData)
	if err != nil {
		respond.DomainError(c, err)
		return
	}
	respond.OK(c, result)
}

// MarkArrivedRequest identifies a pending registration by HEMIS id and
// schedule, the same key the QR scanner recovers.
type MarkArrivedRequest struct {
	HemisID           string `json:"hemisId" binding:"required"`
	CatchupScheduleID uint   `json:"catchupScheduleId" binding:"required"`
}

// MarkArrived godoc
// @Summary      Mark a pending registration as arrived
// @Tags         catchup-schedule
// @Accept       json
// @Produce      json
// @Param        body  body  MarkArrivedRequest  true  "Registration key"
// @Success      200 {object} models.QueueRegistration
// @Failure      409 {object} map[string]interface{}
// @Security     BearerAuth
// @Router       /catchup-schedule/mark-arrived [post]
func (h *CatchupHandler) MarkArrived(c *gin.Context) {
	var req MarkArrivedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Fail(c, http.StatusBadRequest, "hemisId and catchupScheduleId are required")
		return
	}
	reg, err := h.svc.MarkArrived(c.Request.Context(), req.HemisID, req.CatchupScheduleID)
	if err != nil {
		respond.DomainError(c, err)
		return
	}
	respond.OK(c, reg)
}

// MarkAbsent godoc
// @Summary      Mark a pending registration as absent
// @Tags         catchup-schedule
// @Accept       json
// @Produce      json
// @Param        body  body  MarkArrivedRequest  true  "Registration key"
// @Success      200 {object} models.QueueRegistration
// @Failure      409 {object} map[string]interface{}
// @Security     BearerAuth
// @Router       /catchup-schedule/mark-absent [post]
func (h *CatchupHandler) MarkAbsent(c *gin.Context) {
	var req MarkArrivedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Fail(c, http.StatusBadRequest, "hemisId and catchupScheduleId are required")
		return
	}
	reg, err := h.svc.MarkAbsent(c.Request.Context(), req.HemisID, req.CatchupScheduleID)
	if err != nil {
		respond.DomainError(c, err)
		return
	}
	respond.OK(c, reg)
}

// ExportSchedule godoc
// @Summary      Download a schedule's registration list as xlsx
// @Tags         catchup-schedule
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        id  path  int  true  "Schedule ID"
// @Success      200 {file} file
// @Security     BearerAuth
// @Router       /catchup-schedule/export/{id} [get]
func (h *CatchupHandler) ExportSchedule(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	sched, err := h.svc.ScheduleDetail(c.Request.Context(), id)
	if err != nil {
		respond.DomainError(c, err)
		return
	}
	regs, err := h.svc.ListRegistrations(c.Request.Context(), catchup.RegistrationFilter{ScheduleID: id})
	if err != nil {
		respond.DomainError(c, err)
		return
	}

	f, err := excel.BuildScheduleReport(sched, regs)
	if err != nil {
		log.Println("failed to build report:", err)
		respond.Fail(c, http.StatusInternalServerError, "Failed to build report")
		return
	}
	defer f.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=schedule-%d.xlsx", id))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		log.Println("failed to write report:", err)
	}
}
