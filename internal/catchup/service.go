// Package catchup holds the queue domain: schedule management, per-slot
// capacity accounting, registration admission and the arrival state machine.
// All identity comes in as explicit parameters; nothing here reads ambient
// session state.
package catchup

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/tashmeduni/navbat-back/internal/models"
	"github.com/tashmeduni/navbat-back/internal/timeslot"
)

// Service implements the catch-up queue rules on top of a Store.
type Service struct {
	store            Store
	slotWidthMinutes int
	now              func() time.Time
}

func NewService(store Store, slotWidthMinutes int) *Service {
	if slotWidthMinutes <= 0 {
		slotWidthMinutes = timeslot.DefaultWidthMinutes
	}
	return &Service{store: store, slotWidthMinutes: slotWidthMinutes, now: time.Now}
}

// ScheduleInput is the create/update payload for a schedule.
type ScheduleInput struct {
	Name        string `json:"name"`
	Date        string `json:"date"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	Courses     []int  `json:"courses"`
	BuildingID  uint   `json:"buildingId"`
	FacultetIDs []int  `json:"facultetIds"`
	IsActive    *bool  `json:"isActive"`
}

// ScanResult is everything the scanner operator needs on screen after a
// successful QR resolution.
type ScanResult struct {
	Student           *models.Student           `json:"student"`
	CatchupScheduleID uint                      `json:"catchupScheduleId"`
	SelectedTimeSlot  string                    `json:"selectedTimeSlot"`
	QueueNumber       int                       `json:"queueNumber"`
	Status            string                    `json:"status"`
	Registration      *models.QueueRegistration `json:"registration"`
	CatchupSchedule   *models.CatchupSchedule   `json:"catchupSchedule"`
}

func (s *Service) validateScheduleInput(ctx context.Context, in ScheduleInput) error {
	if in.Name == "" {
		return Errorf(CodeValidation, "schedule name is required")
	}
	if _, err := time.Parse("2006-01-02", in.Date); err != nil {
		return Errorf(CodeValidation, "invalid date %q, expected YYYY-MM-DD", in.Date)
	}
	if err := timeslot.ValidateRange(in.StartTime, in.EndTime); err != nil {
		return Errorf(CodeValidation, "%s", err.Error())
	}
	if len(in.Courses) == 0 {
		return Errorf(CodeValidation, "at least one course is required")
	}
	if len(in.FacultetIDs) == 0 {
		return Errorf(CodeValidation, "at least one faculty is required")
	}
	b, err := s.store.GetBuilding(ctx, in.BuildingID)
	if err != nil {
		return err
	}
	if b == nil || b.IsDeleted {
		return Errorf(CodeValidation, "building not found")
	}
	return nil
}

func (s *Service) CreateSchedule(ctx context.Context, in ScheduleInput) (*models.CatchupSchedule, error) {
	if err := s.validateScheduleInput(ctx, in); err != nil {
		return nil, err
	}
	sched := &models.CatchupSchedule{
		Name:        in.Name,
		Date:        in.Date,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		Courses:     models.IntList(in.Courses),
		FacultetIDs: models.IntList(in.FacultetIDs),
		BuildingID:  in.BuildingID,
		IsActive:    true,
	}
	if in.IsActive != nil {
		sched.IsActive = *in.IsActive
	}
	if err := s.store.CreateSchedule(ctx, sched); err != nil {
		return nil, err
	}
	return s.ScheduleDetail(ctx, sched.ID)
}

func (s *Service) UpdateSchedule(ctx context.Context, id uint, in ScheduleInput) (*models.CatchupSchedule, error) {
	sched, err := s.store.GetSchedule(ctx, id)
	if err != nil {
		return nil, err
	}
	if sched == nil {
		return nil, Errorf(CodeNotFound, "schedule not found")
	}
	if err := s.validateScheduleInput(ctx, in); err != nil {
		return nil, err
	}
	sched.Name = in.Name
	sched.Date = in.Date
	sched.StartTime = in.StartTime
	sched.EndTime = in.EndTime
	sched.Courses = models.IntList(in.Courses)
	sched.FacultetIDs = models.IntList(in.FacultetIDs)
	sched.BuildingID = in.BuildingID
	if in.IsActive != nil {
		sched.IsActive = *in.IsActive
	}
	if err := s.store.UpdateSchedule(ctx, sched); err != nil {
		return nil, err
	}
	return s.ScheduleDetail(ctx, id)
}

// DeleteSchedule is the terminal event for a schedule's queue.
func (s *Service) DeleteSchedule(ctx context.Context, id uint) error {
	sched, err := s.store.GetSchedule(ctx, id)
	if err != nil {
		return err
	}
	if sched == nil {
		return Errorf(CodeNotFound, "schedule not found")
	}
	return s.store.DeleteSchedule(ctx, id)
}

// TimeSlots derives the schedule's slot labels at the configured width.
func (s *Service) TimeSlots(sched *models.CatchupSchedule) []string {
	slots, err := timeslot.Derive(sched.StartTime, sched.EndTime, s.slotWidthMinutes)
	if err != nil {
		return nil
	}
	return slots
}

func seatsFor(sched *models.CatchupSchedule) int {
	if sched.Building == nil || !sched.Building.IsActive || sched.Building.IsDeleted {
		return 0
	}
	if sched.Building.ComputerCount < 0 {
		return 0
	}
	return sched.Building.ComputerCount
}

// SlotStatistics recomputes the per-slot seat snapshot. Never cached.
func (s *Service) SlotStatistics(ctx context.Context, scheduleID uint) ([]models.TimeSlotStatistic, error) {
	sched, err := s.store.GetSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if sched == nil {
		return nil, Errorf(CodeNotFound, "schedule not found")
	}
	occupied, err := s.store.OccupiedCountBySlot(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	return s.slotStats(sched, occupied), nil
}

// slotStats builds the per-slot snapshot. A seat is held from registration
// through arrival; only cancellation or absence frees it.
func (s *Service) slotStats(sched *models.CatchupSchedule, occupiedBySlot map[string]int) []models.TimeSlotStatistic {
	total := seatsFor(sched)
	slots := s.TimeSlots(sched)
	stats := make([]models.TimeSlotStatistic, 0, len(slots))
	for _, slot := range slots {
		registered := occupiedBySlot[slot]
		available := total - registered
		if available < 0 {
			available = 0
		}
		stats = append(stats, models.TimeSlotStatistic{
			TimeSlot:        slot,
			RegisteredCount: registered,
			TotalSeats:      total,
			AvailableSeats:  available,
			IsFullyBooked:   available <= 0,
		})
	}
	return stats
}

func decorateRegistration(reg *models.QueueRegistration) {
	reg.IsActive = reg.Status != models.StatusCancelled
}

// decorate fills the derived fields of a schedule for API responses.
func (s *Service) decorate(ctx context.Context, sched *models.CatchupSchedule, includeStudents bool) error {
	occupied, err := s.store.OccupiedCountBySlot(ctx, sched.ID)
	if err != nil {
		return err
	}
	sched.TimeSlots = s.TimeSlots(sched)
	sched.TimeSlotStatistics = s.slotStats(sched, occupied)

	active, err := s.store.CountRegistrations(ctx, sched.ID, "",
		models.StatusPending, models.StatusArrived, models.StatusAbsent)
	if err != nil {
		return err
	}
	sched.RegistrationCount = active

	arrived, err := s.store.CountRegistrations(ctx, sched.ID, "", models.StatusArrived)
	if err != nil {
		return err
	}
	sched.AttendeesCount = arrived

	if includeStudents {
		regs, err := s.store.ListRegistrations(ctx, RegistrationFilter{ScheduleID: sched.ID})
		if err != nil {
			return err
		}
		for i := range regs {
			decorateRegistration(&regs[i])
		}
		sched.Students = regs
	}
	return nil
}

// ScheduleDetail returns the schedule with slots, statistics and counts.
func (s *Service) ScheduleDetail(ctx context.Context, id uint) (*models.CatchupSchedule, error) {
	sched, err := s.store.GetSchedule(ctx, id)
	if err != nil {
		return nil, err
	}
	if sched == nil {
		return nil, Errorf(CodeNotFound, "schedule not found")
	}
	if err := s.decorate(ctx, sched, false); err != nil {
		return nil, err
	}
	return sched, nil
}

// QueueMonitor is ScheduleDetail plus the full registration list, the
// payload polled by admin queue screens and public displays.
func (s *Service) QueueMonitor(ctx context.Context, id uint) (*models.CatchupSchedule, error) {
	sched, err := s.store.GetSchedule(ctx, id)
	if err != nil {
		return nil, err
	}
	if sched == nil {
		return nil, Errorf(CodeNotFound, "schedule not found")
	}
	if err := s.decorate(ctx, sched, true); err != nil {
		return nil, err
	}
	return sched, nil
}

func (s *Service) ListSchedules(ctx context.Context) ([]models.CatchupSchedule, error) {
	scheds, err := s.store.ListSchedules(ctx, false)
	if err != nil {
		return nil, err
	}
	for i := range scheds {
		if err := s.decorate(ctx, &scheds[i], false); err != nil {
			return nil, err
		}
	}
	return scheds, nil
}

// SchedulesForStudent lists active schedules the student is eligible for.
func (s *Service) SchedulesForStudent(ctx context.Context, studentID uint) ([]models.CatchupSchedule, error) {
	student, err := s.store.GetStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, Errorf(CodeNotFound, "student not found")
	}
	scheds, err := s.store.ListSchedules(ctx, true)
	if err != nil {
		return nil, err
	}
	eligible := make([]models.CatchupSchedule, 0)
	for i := range scheds {
		if !scheds[i].Courses.Contains(student.Course) {
			continue
		}
		if !scheds[i].FacultetIDs.Contains(int(student.FacultetID)) {
			continue
		}
		if err := s.decorate(ctx, &scheds[i], false); err != nil {
			return nil, err
		}
		eligible = append(eligible, scheds[i])
	}
	return eligible, nil
}

// Register admits a student into a slot. Preconditions run in a fixed
// order, first failure wins; the duplicate and capacity checks are
// re-validated inside a transaction holding the schedule row lock, so
// concurrent attempts against the same slot serialize and registeredCount
// can never exceed totalSeats.
func (s *Service) Register(ctx context.Context, studentID, scheduleID uint, slot string) (*models.QueueRegistration, error) {
	sched, err := s.store.GetSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if sched == nil || !sched.IsActive {
		return nil, Errorf(CodeNotFound, "schedule not found or no longer active")
	}
	if !timeslot.Contains(s.TimeSlots(sched), slot) {
		return nil, Errorf(CodeNotFound, "time slot %q does not exist for this schedule", slot)
	}
	student, err := s.store.GetStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, Errorf(CodeNotFound, "student not found")
	}
	if !sched.Courses.Contains(student.Course) || !sched.FacultetIDs.Contains(int(student.FacultetID)) {
		return nil, Errorf(CodeIneligible, "this schedule is not open to your course or faculty")
	}

	totalSeats := seatsFor(sched)
	var reg *models.QueueRegistration
	err = s.store.Transact(ctx, func(tx Store) error {
		if err := tx.LockSchedule(ctx, scheduleID); err != nil {
			return err
		}
		existing, err := tx.ActiveRegistration(ctx, studentID, scheduleID)
		if err != nil {
			return err
		}
		if existing != nil {
			return Errorf(CodeDuplicate, "you are already registered for this schedule")
		}
		// Arrived students still hold their seats; only cancellation or
		// absence frees one.
		occupied, err := tx.CountRegistrations(ctx, scheduleID, slot,
			models.StatusPending, models.StatusArrived)
		if err != nil {
			return err
		}
		if occupied >= totalSeats {
			return Errorf(CodeSlotFull, "time slot %s is fully booked", slot)
		}
		pending, err := tx.CountRegistrations(ctx, scheduleID, slot, models.StatusPending)
		if err != nil {
			return err
		}
		reg = &models.QueueRegistration{
			CatchupScheduleID: scheduleID,
			StudentID:         studentID,
			SelectedTimeSlot:  slot,
			QueueNumber:       pending + 1,
			Status:            models.StatusPending,
			QRToken:           uuid.NewString(),
		}
		return tx.CreateRegistration(ctx, reg)
	})
	if err != nil {
		return nil, err
	}

	reg.Student = student
	decorateRegistration(reg)
	img, err := TicketImage(QRPayload{
		HemisID:           student.HemisID,
		CatchupScheduleID: scheduleID,
		Token:             reg.QRToken,
	})
	if err != nil {
		log.Println("failed to render ticket QR:", err)
	} else {
		reg.QRCode = img
	}
	return reg, nil
}

// StudentRegistrations lists the student's registrations with ticket images
// attached to the pending ones.
func (s *Service) StudentRegistrations(ctx context.Context, studentID uint) ([]models.QueueRegistration, error) {
	student, err := s.store.GetStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, Errorf(CodeNotFound, "student not found")
	}
	regs, err := s.store.StudentRegistrations(ctx, studentID)
	if err != nil {
		return nil, err
	}
	for i := range regs {
		decorateRegistration(&regs[i])
		if regs[i].Status != models.StatusPending {
			continue
		}
		img, err := TicketImage(QRPayload{
			HemisID:           student.HemisID,
			CatchupScheduleID: regs[i].CatchupScheduleID,
			Token:             regs[i].QRToken,
		})
		if err != nil {
			log.Println("failed to render ticket QR:", err)
			continue
		}
		regs[i].QRCode = img
	}
	return regs, nil
}

// CancelRegistration withdraws the student's own pending registration,
// freeing the seat.
func (s *Service) CancelRegistration(ctx context.Context, studentID, registrationID uint) error {
	reg, err := s.store.GetRegistration(ctx, registrationID)
	if err != nil {
		return err
	}
	if reg == nil || reg.StudentID != studentID {
		return Errorf(CodeNotFound, "registration not found")
	}
	if reg.Status != models.StatusPending {
		return Errorf(CodeAlreadyProcessed, "registration has already been processed")
	}
	ok, err := s.store.TransitionRegistration(ctx, registrationID, models.StatusPending, models.StatusCancelled)
	if err != nil {
		return err
	}
	if !ok {
		return Errorf(CodeAlreadyProcessed, "registration has already been processed")
	}
	return nil
}

// ListRegistrations is the filterable admin view of a schedule's queue.
func (s *Service) ListRegistrations(ctx context.Context, f RegistrationFilter) ([]models.QueueRegistration, error) {
	sched, err := s.store.GetSchedule(ctx, f.ScheduleID)
	if err != nil {
		return nil, err
	}
	if sched == nil {
		return nil, Errorf(CodeNotFound, "schedule not found")
	}
	regs, err := s.store.ListRegistrations(ctx, f)
	if err != nil {
		return nil, err
	}
	for i := range regs {
		decorateRegistration(&regs[i])
	}
	return regs, nil
}

// ScanQR resolves a scanned ticket. It does not transition anything; the
// operator confirms arrival separately, so a failed scan never blocks the
// scanner session.
func (s *Service) ScanQR(ctx context.Context, qrData string) (*ScanResult, error) {
	p, err := DecodeQRPayload(qrData)
	if err != nil {
		return nil, err
	}
	student, err := s.store.GetStudentByHemisID(ctx, p.HemisID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, Errorf(CodeNotFound, "invalid or expired QR code")
	}
	reg, err := s.store.ActiveRegistrationByHemisID(ctx, p.HemisID, p.CatchupScheduleID)
	if err != nil {
		return nil, err
	}
	if reg == nil || reg.QRToken != p.Token {
		return nil, Errorf(CodeNotFound, "invalid or expired QR code")
	}
	decorateRegistration(reg)
	sched, err := s.store.GetSchedule(ctx, p.CatchupScheduleID)
	if err != nil {
		return nil, err
	}
	return &ScanResult{
		Student:           student,
		CatchupScheduleID: p.CatchupScheduleID,
		SelectedTimeSlot:  reg.SelectedTimeSlot,
		QueueNumber:       reg.QueueNumber,
		Status:            reg.Status,
		Registration:      reg,
		CatchupSchedule:   sched,
	}, nil
}

// MarkArrived transitions the student's pending registration to arrived.
// The QR scanner and the manual admin action both end up here. Marking an
// already-arrived registration again is rejected so the operator gets
// feedback, and attendees are never double-counted: the transition is a
// conditional update on the pending status.
func (s *Service) MarkArrived(ctx context.Context, hemisID string, scheduleID uint) (*models.QueueRegistration, error) {
	return s.closeRegistration(ctx, hemisID, scheduleID, models.StatusArrived)
}

// MarkAbsent is the administrative no-show transition.
func (s *Service) MarkAbsent(ctx context.Context, hemisID string, scheduleID uint) (*models.QueueRegistration, error) {
	return s.closeRegistration(ctx, hemisID, scheduleID, models.StatusAbsent)
}

func (s *Service) closeRegistration(ctx context.Context, hemisID string, scheduleID uint, to string) (*models.QueueRegistration, error) {
	student, err := s.store.GetStudentByHemisID(ctx, hemisID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, Errorf(CodeNotFound, "student with HEMIS id %s not found", hemisID)
	}
	reg, err := s.store.ActiveRegistrationByHemisID(ctx, hemisID, scheduleID)
	if err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, Errorf(CodeNotFound, "no registration found for this schedule")
	}
	if reg.Status != models.StatusPending {
		return nil, Errorf(CodeAlreadyProcessed, "registration has already been processed (%s)", reg.Status)
	}
	ok, err := s.store.TransitionRegistration(ctx, reg.ID, models.StatusPending, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost the race against a concurrent scan or admin action.
		return nil, Errorf(CodeAlreadyProcessed, "registration has already been processed")
	}
	reg.Status = to
	reg.Student = student
	decorateRegistration(reg)
	return reg, nil
}

// SweepAbsent marks pending registrations of past-day schedules as absent.
// Run from the daily cron job.
func (s *Service) SweepAbsent(ctx context.Context) (int64, error) {
	today := s.now().Format("2006-01-02")
	return s.store.ExpirePending(ctx, today)
}
