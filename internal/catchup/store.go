package catchup

import (
	"context"

	"github.com/tashmeduni/navbat-back/internal/models"
)

// RegistrationFilter narrows a registration listing. Empty (or "all") fields
// are ignored. Search matches student full name or HEMIS id.
type RegistrationFilter struct {
	ScheduleID uint
	Slot       string
	Status     string
	Search     string
}

// Store is the persistence boundary of the catchup service. Lookups return
// (nil, nil) when the row does not exist; the service turns that into a
// domain error.
type Store interface {
	GetBuilding(ctx context.Context, id uint) (*models.Building, error)

	CreateSchedule(ctx context.Context, s *models.CatchupSchedule) error
	UpdateSchedule(ctx context.Context, s *models.CatchupSchedule) error
	DeleteSchedule(ctx context.Context, id uint) error
	GetSchedule(ctx context.Context, id uint) (*models.CatchupSchedule, error)
	ListSchedules(ctx context.Context, activeOnly bool) ([]models.CatchupSchedule, error)

	GetStudent(ctx context.Context, id uint) (*models.Student, error)
	GetStudentByHemisID(ctx context.Context, hemisID string) (*models.Student, error)

	CreateRegistration(ctx context.Context, r *models.QueueRegistration) error
	GetRegistration(ctx context.Context, id uint) (*models.QueueRegistration, error)
	// ActiveRegistration returns the student's non-cancelled registration for
	// the schedule, if any.
	ActiveRegistration(ctx context.Context, studentID, scheduleID uint) (*models.QueueRegistration, error)
	ActiveRegistrationByHemisID(ctx context.Context, hemisID string, scheduleID uint) (*models.QueueRegistration, error)
	CountRegistrations(ctx context.Context, scheduleID uint, slot string, statuses ...string) (int, error)
	// OccupiedCountBySlot counts seat-holding registrations (pending or
	// arrived) per slot label.
	OccupiedCountBySlot(ctx context.Context, scheduleID uint) (map[string]int, error)
	ListRegistrations(ctx context.Context, f RegistrationFilter) ([]models.QueueRegistration, error)
	StudentRegistrations(ctx context.Context, studentID uint) ([]models.QueueRegistration, error)
	// TransitionRegistration flips status from -> to atomically and reports
	// whether a row actually changed.
	TransitionRegistration(ctx context.Context, id uint, from, to string) (bool, error)
	// ExpirePending marks pending registrations of schedules dated strictly
	// before the given YYYY-MM-DD day as absent.
	ExpirePending(ctx context.Context, before string) (int64, error)

	// LockSchedule takes a row lock on the schedule for the duration of the
	// surrounding transaction, serializing seat admission.
	LockSchedule(ctx context.Context, id uint) error
	Transact(ctx context.Context, fn func(Store) error) error
}
