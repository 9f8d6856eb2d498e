package db

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tashmeduni/navbat-back/internal/catchup"
	"github.com/tashmeduni/navbat-back/internal/models"
)

// Store implements catchup.Store on Postgres. Registration admission runs
// inside Transact with the schedule row held FOR UPDATE, which is what keeps
// registeredCount <= totalSeats under concurrent registrants.
type Store struct {
	db *gorm.DB
}

func NewStore(gdb *gorm.DB) *Store {
	return &Store{db: gdb}
}

func (s *Store) Transact(ctx context.Context, fn func(catchup.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) LockSchedule(ctx context.Context, id uint) error {
	var sched models.CatchupSchedule
	return s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&sched, id).Error
}

func (s *Store) GetBuilding(ctx context.Context, id uint) (*models.Building, error) {
	var b models.Building
	if err := s.db.WithContext(ctx).First(&b, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (s *Store) CreateSchedule(ctx context.Context, sched *models.CatchupSchedule) error {
	return s.db.WithContext(ctx).Create(sched).Error
}

func (s *Store) UpdateSchedule(ctx context.Context, sched *models.CatchupSchedule) error {
	return s.db.WithContext(ctx).Model(sched).Updates(map[string]interface{}{
		"name":         sched.Name,
		"date":         sched.Date,
		"start_time":   sched.StartTime,
		"end_time":     sched.EndTime,
		"courses":      sched.Courses,
		"facultet_ids": sched.FacultetIDs,
		"building_id":  sched.BuildingID,
		"is_active":    sched.IsActive,
	}).Error
}

// DeleteSchedule removes the schedule and its queue in one transaction;
// deleting a schedule is the terminal event for its registrations.
func (s *Store) DeleteSchedule(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("catchup_schedule_id = ?", id).Delete(&models.QueueRegistration{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.CatchupSchedule{}, id).Error
	})
}

func (s *Store) GetSchedule(ctx context.Context, id uint) (*models.CatchupSchedule, error) {
	var sched models.CatchupSchedule
	if err := s.db.WithContext(ctx).Preload("Building").First(&sched, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sched, nil
}

func (s *Store) ListSchedules(ctx context.Context, activeOnly bool) ([]models.CatchupSchedule, error) {
	var scheds []models.CatchupSchedule
	q := s.db.WithContext(ctx).Preload("Building").Order("date DESC, id DESC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Find(&scheds).Error
	return scheds, err
}

func (s *Store) GetStudent(ctx context.Context, id uint) (*models.Student, error) {
	var st models.Student
	if err := s.db.WithContext(ctx).Preload("Facultet").First(&st, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &st, nil
}

func (s *Store) GetStudentByHemisID(ctx context.Context, hemisID string) (*models.Student, error) {
	var st models.Student
	if err := s.db.WithContext(ctx).Preload("Facultet").Where("hemis_id = ?", hemisID).First(&st).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &st, nil
}

func (s *Store) CreateRegistration(ctx context.Context, r *models.QueueRegistration) error {
	return s.db.WithContext(ctx).Create(r).Error
}

func (s *Store) GetRegistration(ctx context.Context, id uint) (*models.QueueRegistration, error) {
	var reg models.QueueRegistration
	if err := s.db.WithContext(ctx).First(&reg, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reg, nil
}

func (s *Store) ActiveRegistration(ctx context.Context, studentID, scheduleID uint) (*models.QueueRegistration, error) {
	var reg models.QueueRegistration
	err := s.db.WithContext(ctx).
		Where("student_id = ? AND catchup_schedule_id = ? AND status <> ?",
			studentID, scheduleID, models.StatusCancelled).
		Order("id DESC").First(&reg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reg, nil
}

func (s *Store) ActiveRegistrationByHemisID(ctx context.Context, hemisID string, scheduleID uint) (*models.QueueRegistration, error) {
	var reg models.QueueRegistration
	err := s.db.WithContext(ctx).Preload("Student").
		Joins("JOIN students ON students.id = queue_registrations.student_id").
		Where("students.hemis_id = ? AND queue_registrations.catchup_schedule_id = ? AND queue_registrations.status <> ?",
			hemisID, scheduleID, models.StatusCancelled).
		Order("queue_registrations.id DESC").First(&reg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reg, nil
}

func (s *Store) CountRegistrations(ctx context.Context, scheduleID uint, slot string, statuses ...string) (int, error) {
	q := s.db.WithContext(ctx).Model(&models.QueueRegistration{}).
		Where("catchup_schedule_id = ?", scheduleID)
	if slot != "" {
		q = q.Where("selected_time_slot = ?", slot)
	}
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	var count int64
	err := q.Count(&count).Error
	return int(count), err
}

func (s *Store) OccupiedCountBySlot(ctx context.Context, scheduleID uint) (map[string]int, error) {
	type row struct {
		SelectedTimeSlot string
		N                int
	}
	var rows []row
	err := s.db.WithContext(ctx).Model(&models.QueueRegistration{}).
		Select("selected_time_slot, COUNT(*) AS n").
		Where("catchup_schedule_id = ? AND status IN ?",
			scheduleID, []string{models.StatusPending, models.StatusArrived}).
		Group("selected_time_slot").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	m := make(map[string]int, len(rows))
	for _, r := range rows {
		m[r.SelectedTimeSlot] = r.N
	}
	return m, nil
}

func (s *Store) ListRegistrations(ctx context.Context, f catchup.RegistrationFilter) ([]models.QueueRegistration, error) {
	q := s.db.WithContext(ctx).Preload("Student").Preload("Student.Facultet").
		Where("queue_registrations.catchup_schedule_id = ?", f.ScheduleID)
	if f.Slot != "" && f.Slot != "all" {
		q = q.Where("queue_registrations.selected_time_slot = ?", f.Slot)
	}
	if f.Status != "" && f.Status != "all" {
		q = q.Where("queue_registrations.status = ?", f.Status)
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		q = q.Joins("JOIN students ON students.id = queue_registrations.student_id").
			Where("students.full_name ILIKE ? OR students.hemis_id ILIKE ?", pattern, pattern)
	}
	var regs []models.QueueRegistration
	err := q.Order("queue_registrations.created_at ASC, queue_registrations.id ASC").Find(&regs).Error
	return regs, err
}

func (s *Store) StudentRegistrations(ctx context.Context, studentID uint) ([]models.QueueRegistration, error) {
	var regs []models.QueueRegistration
	err := s.db.WithContext(ctx).
		Preload("CatchupSchedule").Preload("CatchupSchedule.Building").
		Where("student_id = ?", studentID).
		Order("id DESC").Find(&regs).Error
	return regs, err
}

func (s *Store) TransitionRegistration(ctx context.Context, id uint, from, to string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.QueueRegistration{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected > 0, res.Error
}

func (s *Store) ExpirePending(ctx context.Context, before string) (int64, error) {
	sub := s.db.Model(&models.CatchupSchedule{}).Select("id").Where("date < ?", before)
	res := s.db.WithContext(ctx).Model(&models.QueueRegistration{}).
		Where("status = ? AND catchup_schedule_id IN (?)", models.StatusPending, sub).
		Update("status", models.StatusAbsent)
	return res.RowsAffected, res.Error
}
