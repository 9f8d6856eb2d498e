package catchup_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tashmeduni/navbat-back/internal/catchup"
	"github.com/tashmeduni/navbat-back/internal/db/inmem"
	"github.com/tashmeduni/navbat-back/internal/models"
)

func newEnv(t *testing.T, seats int) (*inmem.Store, *catchup.Service, *models.Building) {
	t.Helper()
	store := inmem.New()
	b := &models.Building{Name: "Main building", ComputerCount: seats, IsActive: true}
	store.AddBuilding(b)
	return store, catchup.NewService(store, 60), b
}

func addStudent(store *inmem.Store, hemisID string, course int, facultetID uint) *models.Student {
	st := &models.Student{
		HemisID:    hemisID,
		FullName:   "Student " + hemisID,
		Course:     course,
		FacultetID: facultetID,
		IsActive:   true,
	}
	store.AddStudent(st)
	return st
}

func makeSchedule(t *testing.T, svc *catchup.Service, buildingID uint) *models.CatchupSchedule {
	t.Helper()
	sched, err := svc.CreateSchedule(context.Background(), catchup.ScheduleInput{
		Name:        "Informatics catch-up",
		Date:        "2026-09-15",
		StartTime:   "09:00",
		EndTime:     "12:00",
		Courses:     []int{2},
		FacultetIDs: []int{1},
		BuildingID:  buildingID,
	})
	require.NoError(t, err)
	return sched
}

func TestCreateScheduleDerivesSlots(t *testing.T) {
	_, svc, b := newEnv(t, 3)
	sched := makeSchedule(t, svc, b.ID)

	assert.Equal(t, []string{"09:00-10:00", "10:00-11:00", "11:00-12:00"}, sched.TimeSlots)
	require.Len(t, sched.TimeSlotStatistics, 3)
	for _, st := range sched.TimeSlotStatistics {
		assert.Equal(t, 3, st.TotalSeats)
		assert.Equal(t, 0, st.RegisteredCount)
		assert.Equal(t, 3, st.AvailableSeats)
		assert.False(t, st.IsFullyBooked)
	}
}

func TestCreateScheduleValidation(t *testing.T) {
	_, svc, b := newEnv(t, 3)
	ctx := context.Background()

	cases := []struct {
		name string
		in   catchup.ScheduleInput
	}{
		{"missing name", catchup.ScheduleInput{Date: "2026-09-15", StartTime: "09:00", EndTime: "12:00", Courses: []int{2}, FacultetIDs: []int{1}, BuildingID: b.ID}},
		{"bad date", catchup.ScheduleInput{Name: "x", Date: "15.09.2026", StartTime: "09:00", EndTime: "12:00", Courses: []int{2}, FacultetIDs: []int{1}, BuildingID: b.ID}},
		{"end before start", catchup.ScheduleInput{Name: "x", Date: "2026-09-15", StartTime: "12:00", EndTime: "09:00", Courses: []int{2}, FacultetIDs: []int{1}, BuildingID: b.ID}},
		{"no courses", catchup.ScheduleInput{Name: "x", Date: "2026-09-15", StartTime: "09:00", EndTime: "12:00", FacultetIDs: []int{1}, BuildingID: b.ID}},
		{"no faculties", catchup.ScheduleInput{Name: "x", Date: "2026-09-15", StartTime: "09:00", EndTime: "12:00", Courses: []int{2}, BuildingID: b.ID}},
		{"unknown building", catchup.ScheduleInput{Name: "x", Date: "2026-09-15", StartTime: "09:00", EndTime: "12:00", Courses: []int{2}, FacultetIDs: []int{1}, BuildingID: 999}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateSchedule(ctx, tc.in)
			require.Error(t, err)
			e, ok := catchup.AsError(err)
			require.True(t, ok)
			assert.Equal(t, catchup.CodeValidation, e.Code)
		})
	}
}

func TestRegisterAssignsSequentialQueueNumbers(t *testing.T) {
	store, svc, b := newEnv(t, 5)
	sched := makeSchedule(t, svc, b.ID)
	ctx := context.Background()

	for i, hemis := range []string{"1001", "1002", "1003"} {
		st := addStudent(store, hemis, 2, 1)
		reg, err := svc.Register(ctx, st.ID, sched.ID, "09:00-10:00")
		require.NoError(t, err)
		assert.Equal(t, i+1, reg.QueueNumber)
		assert.Equal(t, models.StatusPending, reg.Status)
		assert.True(t, reg.IsActive)
		assert.Contains(t, reg.QRCode, "data:image/png;base64,")
	}

	// Numbering is per slot, not per schedule.
	st := addStudent(store, "1004", 2, 1)
	reg, err := svc.Register(ctx, st.ID, sched.ID, "10:00-11:00")
	require.NoError(t, err)
	assert.Equal(t, 1, reg.QueueNumber)
}

func TestRegisterCapacityUnderConcurrency(t *testing.T) {
	const seats = 3
	const attempts = 10

	store, svc, b := newEnv(t, seats)
	sched := makeSchedule(t, svc, b.ID)

	students := make([]*models.Student, attempts)
	for i := range students {
		students[i] = addStudent(store, "20"+string(rune('a'+i)), 2, 1)
	}

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Register(context.Background(), students[i].ID, sched.ID, "09:00-10:00")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		e, ok := catchup.AsError(err)
		require.True(t, ok)
		assert.Equal(t, catchup.CodeSlotFull, e.Code)
	}
	assert.Equal(t, seats, succeeded)

	stats, err := svc.SlotStatistics(context.Background(), sched.ID)
	require.NoError(t, err)
	assert.Equal(t, seats, stats[0].RegisteredCount)
	assert.Equal(t, 0, stats[0].AvailableSeats)
	assert.True(t, stats[0].IsFullyBooked)
}

func TestRegisterRejectsDuplicate(t *testing.T) {
	store, svc, b := newEnv(t, 5)
	sched := makeSchedule(t, svc, b.ID)
	ctx := context.Background()
	st := addStudent(store, "1001", 2, 1)

	first, err := svc.Register(ctx, st.ID, sched.ID, "09:00-10:00")
	require.NoError(t, err)

	// A second attempt is rejected even for a different slot.
	_, err = svc.Register(ctx, st.ID, sched.ID, "10:00-11:00")
	require.Error(t, err)
	e, _ := catchup.AsError(err)
	assert.Equal(t, catchup.CodeDuplicate, e.Code)

	// Cancelling frees the student to register again.
	require.NoError(t, svc.CancelRegistration(ctx, st.ID, first.ID))
	_, err = svc.Register(ctx, st.ID, sched.ID, "10:00-11:00")
	assert.NoError(t, err)
}

func TestRegisterEligibility(t *testing.T) {
	store, svc, b := newEnv(t, 5)
	sched := makeSchedule(t, svc, b.ID)
	ctx := context.Background()

	wrongCourse := addStudent(store, "3001", 1, 1)
	_, err := svc.Register(ctx, wrongCourse.ID, sched.ID, "09:00-10:00")
	require.Error(t, err)
	e, _ := catchup.AsError(err)
	assert.Equal(t, catchup.CodeIneligible, e.Code)

	wrongFacultet := addStudent(store, "3002", 2, 7)
	_, err = svc.Register(ctx, wrongFacultet.ID, sched.ID, "09:00-10:00")
	require.Error(t, err)
	e, _ = catchup.AsError(err)
	assert.Equal(t, catchup.CodeIneligible, e.Code)
}

func TestRegisterUnknownSlotAndInactiveSchedule(t *testing.T) {
	store, svc, b := newEnv(t, 5)
	sched := makeSchedule(t, svc, b.ID)
	ctx := context.Background()
	st := addStudent(store, "1001", 2, 1)

	_, err := svc.Register(ctx, st.ID, sched.ID, "13:00-14:00")
	require.Error(t, err)
	e, _ := catchup.AsError(err)
	assert.Equal(t, catchup.CodeNotFound, e.Code)

	inactive := false
	_, err = svc.UpdateSchedule(ctx, sched.ID, catchup.ScheduleInput{
		Name: sched.Name, Date: sched.Date, StartTime: sched.StartTime, EndTime: sched.EndTime,
		Courses: []int{2}, FacultetIDs: []int{1}, BuildingID: b.ID, IsActive: &inactive,
	})
	require.NoError(t, err)

	_, err = svc.Register(ctx, st.ID, sched.ID, "09:00-10:00")
	require.Error(t, err)
	e, _ = catchup.AsError(err)
	assert.Equal(t, catchup.CodeNotFound, e.Code)
}

func TestCancelDoesNotRenumberSurvivors(t *testing.T) {
	store, svc, b := newEnv(t, 5)
	sched := makeSchedule(t, svc, b.ID)
	ctx := context.Background()

	first := addStudent(store, "1001", 2, 1)
	second := addStudent(store, "1002", 2, 1)

	reg1, err := svc.Register(ctx, first.ID, sched.ID, "09:00-10:00")
	require.NoError(t, err)
	reg2, err := svc.Register(ctx, second.ID, sched.ID, "09:00-10:00")
	require.NoError(t, err)
	assert.Equal(t, 1, reg1.QueueNumber)
	assert.Equal(t, 2, reg2.QueueNumber)

	require.NoError(t, svc.CancelRegistration(ctx, first.ID, reg1.ID))

	regs, err := svc.ListRegistrations(ctx, catchup.RegistrationFilter{ScheduleID: sched.ID, Status: models.StatusPending})
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, 2, regs[0].QueueNumber)

	// The freed seat is reusable; numbering follows the pending count.
	third := addStudent(store, "1003", 2, 1)
	reg3, err := svc.Register(ctx, third.ID, sched.ID, "09:00-10:00")
	require.NoError(t, err)
	assert.Equal(t, 2, reg3.QueueNumber)
}

func TestCancelRegistrationOwnership(t *testing.T) {
	store, svc, b := newEnv(t, 5)
	sched := makeSchedule(t, svc, b.ID)
	ctx := context.Background()

	owner := addStudent(store, "1001", 2, 1)
	other := addStudent(store, "1002", 2, 1)
	reg, err := svc.Register(ctx, owner.ID, sched.ID, "09:00-10:00")
	require.NoError(t, err)

	err = svc.CancelRegistration(ctx, other.ID, reg.ID)
	require.Error(t, err)
	e, _ := catchup.AsError(err)
	assert.Equal(t, catchup.CodeNotFound, e.Code)

	_, err = svc.MarkArrived(ctx, owner.HemisID, sched.ID)
	require.NoError(t, err)
	err = svc.CancelRegistration(ctx, owner.ID, reg.ID)
	require.Error(t, err)
	e, _ = catchup.AsError(err)
	assert.Equal(t, catchup.CodeAlreadyProcessed, e.Code)
}

func TestMarkArrivedIsNotRepeatable(t *testing.T) {
	store, svc, b := newEnv(t, 5)
	sched := makeSchedule(t, svc, b.ID)
	ctx := context.Background()
	st := addStudent(store, "1001", 2, 1)

	_, err := svc.Register(ctx, st.ID, sched.ID, "09:00-10:00")
	require.NoError(t, err)

	reg, err := svc.MarkArrived(ctx, st.HemisID, sched.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusArrived, reg.Status)

	_, err = svc.MarkArrived(ctx, st.HemisID, sched.ID)
	require.Error(t, err)
	e, _ := catchup.AsError(err)
	assert.Equal(t, catchup.CodeAlreadyProcessed, e.Code)

	detail, err := svc.ScheduleDetail(ctx, sched.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, detail.AttendeesCount)
	assert.Equal(t, 1, detail.RegistrationCount)
}

func TestArrivedStudentStillHoldsSeat(t *testing.T) {
	store, svc, b := newEnv(t, 1)
	sched := makeSchedule(t, svc, b.ID)
	ctx := context.Background()

	first := addStudent(store, "1001", 2, 1)
	_, err := svc.Register(ctx, first.ID, sched.ID, "09:00-10:00")
	require.NoError(t, err)

	// Slot is full while the registration is pending.
	second := addStudent(store, "1002", 2, 1)
	_, err = svc.Register(ctx, second.ID, sched.ID, "09:00-10:00")
	require.Error(t, err)

	// The computer is physically in use after check-in, so arrival must not
	// release the seat.
	_, err = svc.MarkArrived(ctx, first.HemisID, sched.ID)
	require.NoError(t, err)
	_, err = svc.Register(ctx, second.ID, sched.ID, "09:00-10:00")
	require.Error(t, err)
	e, _ := catchup.AsError(err)
	assert.Equal(t, catchup.CodeSlotFull, e.Code)

	stats, err := svc.SlotStatistics(ctx, sched.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats[0].RegisteredCount)
	assert.Equal(t, 0, stats[0].AvailableSeats)
	assert.True(t, stats[0].IsFullyBooked)
}

func TestCancellationFreesSeat(t *testing.T) {
	store, svc, b := newEnv(t, 1)
	sched := makeSchedule(t, svc, b.ID)
	ctx := context.Background()

	first := addStudent(store, "1001", 2, 1)
	reg, err := svc.Register(ctx, first.ID, sched.ID, "09:00-10:00")
	require.NoError(t, err)

	second := addStudent(store, "1002", 2, 1)
	_, err = svc.Register(ctx, second.ID, sched.ID, "09:00-10:00")
	require.Error(t, err)

	require.NoError(t, svc.CancelRegistration(ctx, first.ID, reg.ID))
	_, err = svc.Register(ctx, second.ID, sched.ID, "09:00-10:00")
	assert.NoError(t, err)
}

func TestAbsenceFreesSeat(t *testing.T) {
	store, svc, b := newEnv(t, 1)
	sched := makeSchedule(t, svc, b.ID)
	ctx := context.Background()

	first := addStudent(store, "1001", 2, 1)
	_, err := svc.Register(ctx, first.ID, sched.ID, "09:00-10:00")
	require.NoError(t, err)
	_, err = svc.MarkAbsent(ctx, first.HemisID, sched.ID)
	require.NoError(t, err)

	stats, err := svc.SlotStatistics(ctx, sched.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stats[0].RegisteredCount)
	assert.Equal(t, 1, stats[0].AvailableSeats)

	second := addStudent(store, "1002", 2, 1)
	_, err = svc.Register(ctx, second.ID, sched.ID, "09:00-10:00")
	assert.NoError(t, err)
}

func TestMarkAbsent(t *testing.T) {
	store, svc, b := newEnv(t, 5)
	sched := makeSchedule(t, svc, b.ID)
	ctx := context.Background()
	st := addStudent(store, "1001", 2, 1)

	_, err := svc.Register(ctx, st.ID, sched.ID, "09:00-10:00")
	require.NoError(t, err)

	reg, err := svc.MarkAbsent(ctx, st.HemisID, sched.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAbsent, reg.Status)

	detail, err := svc.ScheduleDetail(ctx, sched.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, detail.AttendeesCount)
	// Absent registrations still count toward the total.
	assert.Equal(t, 1, detail.RegistrationCount)
}

func TestScanQRFlow(t *testing.T) {
	store, svc, b := newEnv(t, 5)
	sched := makeSchedule(t, svc, b.ID)
	ctx := context.Background()
	st := addStudent(store, "1001", 2, 1)

	reg, err := svc.Register(ctx, st.ID, sched.ID, "09:00-10:00")
	require.NoError(t, err)

	payload, err := catchup.EncodeQRPayload(catchup.QRPayload{
		HemisID:           st.HemisID,
		CatchupScheduleID: sched.ID,
		Token:             reg.QRToken,
	})
	require.NoError(t, err)

	result, err := svc.ScanQR(ctx, payload)
	require.NoError(t, err)
	assert.Equal(t, st.HemisID, result.Student.HemisID)
	assert.Equal(t, sched.ID, result.CatchupScheduleID)
	assert.Equal(t, "09:00-10:00", result.SelectedTimeSlot)
	assert.Equal(t, 1, result.QueueNumber)
	assert.Equal(t, models.StatusPending, result.Status)

	// Scanning resolves only; arrival is a separate confirmation.
	again, err := svc.ScanQR(ctx, payload)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, again.Status)

	_, err = svc.MarkArrived(ctx, st.HemisID, sched.ID)
	require.NoError(t, err)
	after, err := svc.ScanQR(ctx, payload)
	require.NoError(t, err)
	assert.Equal(t, models.StatusArrived, after.Status)
}

func TestScanQRRejectsBadPayloads(t *testing.T) {
	store, svc, b := newEnv(t, 5)
	sched := makeSchedule(t, svc, b.ID)
	ctx := context.Background()
	st := addStudent(store, "1001", 2, 1)
	_, err := svc.Register(ctx, st.ID, sched.ID, "09:00-10:00")
	require.NoError(t, err)

	for name, qrData := range map[string]string{
		"garbage":     "not json at all",
		"empty":       "",
		"wrong token": `{"hemisId":"1001","catchupScheduleId":1,"token":"forged"}`,
		"no student":  `{"hemisId":"9999","catchupScheduleId":1,"token":"x"}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ScanQR(ctx, qrData)
			assert.Error(t, err)
		})
	}
}

func TestSweepAbsent(t *testing.T) {
	store, svc, b := newEnv(t, 5)
	ctx := context.Background()

	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")

	past, err := svc.CreateSchedule(ctx, catchup.ScheduleInput{
		Name: "Past", Date: yesterday, StartTime: "09:00", EndTime: "11:00",
		Courses: []int{2}, FacultetIDs: []int{1}, BuildingID: b.ID,
	})
	require.NoError(t, err)
	future, err := svc.CreateSchedule(ctx, catchup.ScheduleInput{
		Name: "Future", Date: tomorrow, StartTime: "09:00", EndTime: "11:00",
		Courses: []int{2}, FacultetIDs: []int{1}, BuildingID: b.ID,
	})
	require.NoError(t, err)

	one := addStudent(store, "1001", 2, 1)
	two := addStudent(store, "1002", 2, 1)
	_, err = svc.Register(ctx, one.ID, past.ID, "09:00-10:00")
	require.NoError(t, err)
	_, err = svc.Register(ctx, two.ID, future.ID, "09:00-10:00")
	require.NoError(t, err)

	n, err := svc.SweepAbsent(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	regs, err := svc.ListRegistrations(ctx, catchup.RegistrationFilter{ScheduleID: past.ID})
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, models.StatusAbsent, regs[0].Status)

	regs, err = svc.ListRegistrations(ctx, catchup.RegistrationFilter{ScheduleID: future.ID})
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, models.StatusPending, regs[0].Status)
}

func TestSchedulesForStudentFiltersEligibility(t *testing.T) {
	store, svc, b := newEnv(t, 5)
	ctx := context.Background()

	_ = makeSchedule(t, svc, b.ID) // course 2, facultet 1
	otherCourse, err := svc.CreateSchedule(ctx, catchup.ScheduleInput{
		Name: "Other course", Date: "2026-09-16", StartTime: "09:00", EndTime: "11:00",
		Courses: []int{3}, FacultetIDs: []int{1}, BuildingID: b.ID,
	})
	require.NoError(t, err)

	st := addStudent(store, "1001", 2, 1)
	scheds, err := svc.SchedulesForStudent(ctx, st.ID)
	require.NoError(t, err)
	require.Len(t, scheds, 1)
	assert.NotEqual(t, otherCourse.ID, scheds[0].ID)
	assert.NotEmpty(t, scheds[0].TimeSlotStatistics)
}

func TestStudentRegistrationsCarryTickets(t *testing.T) {
	store, svc, b := newEnv(t, 5)
	sched := makeSchedule(t, svc, b.ID)
	ctx := context.Background()
	st := addStudent(store, "1001", 2, 1)

	reg, err := svc.Register(ctx, st.ID, sched.ID, "09:00-10:00")
	require.NoError(t, err)

	regs, err := svc.StudentRegistrations(ctx, st.ID)
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Contains(t, regs[0].QRCode, "data:image/png;base64,")
	assert.True(t, regs[0].IsActive)

	require.NoError(t, svc.CancelRegistration(ctx, st.ID, reg.ID))
	regs, err = svc.StudentRegistrations(ctx, st.ID)
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Empty(t, regs[0].QRCode)
	assert.False(t, regs[0].IsActive)
}

func TestQueueMonitorIncludesRegistrations(t *testing.T) {
	store, svc, b := newEnv(t, 5)
	sched := makeSchedule(t, svc, b.ID)
	ctx := context.Background()

	for _, hemis := range []string{"1001", "1002"} {
		st := addStudent(store, hemis, 2, 1)
		_, err := svc.Register(ctx, st.ID, sched.ID, "09:00-10:00")
		require.NoError(t, err)
	}

	monitor, err := svc.QueueMonitor(ctx, sched.ID)
	require.NoError(t, err)
	require.Len(t, monitor.Students, 2)
	assert.Equal(t, 2, monitor.RegistrationCount)
	assert.NotNil(t, monitor.Students[0].Student)
}

func TestInactiveBuildingHasNoSeats(t *testing.T) {
	store, svc, b := newEnv(t, 5)
	sched := makeSchedule(t, svc, b.ID)
	ctx := context.Background()

	b.IsActive = false
	store.AddBuilding(b)

	st := addStudent(store, "1001", 2, 1)
	_, err := svc.Register(ctx, st.ID, sched.ID, "09:00-10:00")
	require.Error(t, err)
	e, _ := catchup.AsError(err)
	assert.Equal(t, catchup.CodeSlotFull, e.Code)

	stats, err := svc.SlotStatistics(ctx, sched.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stats[0].TotalSeats)
	assert.True(t, stats[0].IsFullyBooked)
}

func TestDeleteScheduleRemovesQueue(t *testing.T) {
	store, svc, b := newEnv(t, 5)
	sched := makeSchedule(t, svc, b.ID)
	ctx := context.Background()
	st := addStudent(store, "1001", 2, 1)
	_, err := svc.Register(ctx, st.ID, sched.ID, "09:00-10:00")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteSchedule(ctx, sched.ID))

	_, err = svc.ScheduleDetail(ctx, sched.ID)
	require.Error(t, err)
	e, _ := catchup.AsError(err)
	assert.Equal(t, catchup.CodeNotFound, e.Code)

	regs, err := svc.StudentRegistrations(ctx, st.ID)
	require.NoError(t, err)
	assert.Empty(t, regs)
}
