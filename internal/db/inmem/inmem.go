// Package inmem is a map-backed implementation of catchup.Store. It backs
// the service tests and local development without Postgres. Transact holds
// the store mutex for the whole callback, which gives the same serialization
// the SQL store gets from its row locks.
package inmem

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tashmeduni/navbat-back/internal/catchup"
	"github.com/tashmeduni/navbat-back/internal/models"
)

type data struct {
	mu            sync.Mutex
	buildings     map[uint]models.Building
	students      map[uint]models.Student
	schedules     map[uint]models.CatchupSchedule
	registrations map[uint]models.QueueRegistration
	nextID        uint
}

// Store is the lock-taking entry point.
type Store struct {
	d *data
}

func New() *Store {
	return &Store{d: &data{
		buildings:     make(map[uint]models.Building),
		students:      make(map[uint]models.Student),
		schedules:     make(map[uint]models.CatchupSchedule),
		registrations: make(map[uint]models.QueueRegistration),
	}}
}

// AddBuilding seeds a building, assigning an id when missing.
func (s *Store) AddBuilding(b *models.Building) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if b.ID == 0 {
		b.ID = s.d.id()
	}
	s.d.buildings[b.ID] = *b
}

// AddStudent seeds a student, assigning an id when missing.
func (s *Store) AddStudent(st *models.Student) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if st.ID == 0 {
		st.ID = s.d.id()
	}
	s.d.students[st.ID] = *st
}

func (d *data) id() uint {
	d.nextID++
	return d.nextID
}

// tx operates on the shared data with the mutex already held.
type tx struct {
	d *data
}

func (s *Store) locked(fn func(t *tx) error) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	return fn(&tx{d: s.d})
}

func (s *Store) Transact(ctx context.Context, fn func(catchup.Store) error) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	return fn(&tx{d: s.d})
}

// The exported Store methods take the lock and delegate.

func (s *Store) GetBuilding(ctx context.Context, id uint) (b *models.Building, err error) {
	err = s.locked(func(t *tx) error { b, err = t.GetBuilding(ctx, id); return err })
	return
}

func (s *Store) CreateSchedule(ctx context.Context, sched *models.CatchupSchedule) error {
	return s.locked(func(t *tx) error { return t.CreateSchedule(ctx, sched) })
}

func (s *Store) UpdateSchedule(ctx context.Context, sched *models.CatchupSchedule) error {
	return s.locked(func(t *tx) error { return t.UpdateSchedule(ctx, sched) })
}

func (s *Store) DeleteSchedule(ctx context.Context, id uint) error {
	return s.locked(func(t *tx) error { return t.DeleteSchedule(ctx, id) })
}

func (s *Store) GetSchedule(ctx context.Context, id uint) (sched *models.CatchupSchedule, err error) {
	err = s.locked(func(t *tx) error { sched, err = t.GetSchedule(ctx, id); return err })
	return
}

func (s *Store) ListSchedules(ctx context.Context, activeOnly bool) (out []models.CatchupSchedule, err error) {
	err = s.locked(func(t *tx) error { out, err = t.ListSchedules(ctx, activeOnly); return err })
	return
}

func (s *Store) GetStudent(ctx context.Context, id uint) (st *models.Student, err error) {
	err = s.locked(func(t *tx) error { st, err = t.GetStudent(ctx, id); return err })
	return
}

func (s *Store) GetStudentByHemisID(ctx context.Context, hemisID string) (st *models.Student, err error) {
	err = s.locked(func(t *tx) error { st, err = t.GetStudentByHemisID(ctx, hemisID); return err })
	return
}

func (s *Store) CreateRegistration(ctx context.Context, r *models.QueueRegistration) error {
	return s.locked(func(t *tx) error { return t.CreateRegistration(ctx, r) })
}

func (s *Store) GetRegistration(ctx context.Context, id uint) (r *models.QueueRegistration, err error) {
	err = s.locked(func(t *tx) error { r, err = t.GetRegistration(ctx, id); return err })
	return
}

func (s *Store) ActiveRegistration(ctx context.Context, studentID, scheduleID uint) (r *models.QueueRegistration, err error) {
	err = s.locked(func(t *tx) error { r, err = t.ActiveRegistration(ctx, studentID, scheduleID); return err })
	return
}

func (s *Store) ActiveRegistrationByHemisID(ctx context.Context, hemisID string, scheduleID uint) (r *models.QueueRegistration, err error) {
	err = s.locked(func(t *tx) error { r, err = t.ActiveRegistrationByHemisID(ctx, hemisID, scheduleID); return err })
	return
}

func (s *Store) CountRegistrations(ctx context.Context, scheduleID uint, slot string, statuses ...string) (n int, err error) {
	err = s.locked(func(t *tx) error { n, err = t.CountRegistrations(ctx, scheduleID, slot, statuses...); return err })
	return
}

func (s *Store) OccupiedCountBySlot(ctx context.Context, scheduleID uint) (m map[string]int, err error) {
	err = s.locked(func(t *tx) error { m, err = t.OccupiedCountBySlot(ctx, scheduleID); return err })
	return
}

func (s *Store) ListRegistrations(ctx context.Context, f catchup.RegistrationFilter) (out []models.QueueRegistration, err error) {
	err = s.locked(func(t *tx) error { out, err = t.ListRegistrations(ctx, f); return err })
	return
}

func (s *Store) StudentRegistrations(ctx context.Context, studentID uint) (out []models.QueueRegistration, err error) {
	err = s.locked(func(t *tx) error { out, err = t.StudentRegistrations(ctx, studentID); return err })
	return
}

func (s *Store) TransitionRegistration(ctx context.Context, id uint, from, to string) (ok bool, err error) {
	err = s.locked(func(t *tx) error { ok, err = t.TransitionRegistration(ctx, id, from, to); return err })
	return
}

func (s *Store) ExpirePending(ctx context.Context, before string) (n int64, err error) {
	err = s.locked(func(t *tx) error { n, err = t.ExpirePending(ctx, before); return err })
	return
}

func (s *Store) LockSchedule(ctx context.Context, id uint) error {
	return s.locked(func(t *tx) error { return t.LockSchedule(ctx, id) })
}

// tx methods: the actual data access.

func (t *tx) GetBuilding(_ context.Context, id uint) (*models.Building, error) {
	if b, ok := t.d.buildings[id]; ok {
		cp := b
		return &cp, nil
	}
	return nil, nil
}

func (t *tx) CreateSchedule(_ context.Context, sched *models.CatchupSchedule) error {
	if sched.ID == 0 {
		sched.ID = t.d.id()
	}
	sched.CreatedAt = time.Now()
	sched.UpdatedAt = sched.CreatedAt
	cp := *sched
	cp.Building = nil
	t.d.schedules[sched.ID] = cp
	return nil
}

func (t *tx) UpdateSchedule(_ context.Context, sched *models.CatchupSchedule) error {
	sched.UpdatedAt = time.Now()
	cp := *sched
	cp.Building = nil
	t.d.schedules[sched.ID] = cp
	return nil
}

func (t *tx) DeleteSchedule(_ context.Context, id uint) error {
	delete(t.d.schedules, id)
	for rid, r := range t.d.registrations {
		if r.CatchupScheduleID == id {
			delete(t.d.registrations, rid)
		}
	}
	return nil
}

func (t *tx) GetSchedule(_ context.Context, id uint) (*models.CatchupSchedule, error) {
	sched, ok := t.d.schedules[id]
	if !ok {
		return nil, nil
	}
	cp := sched
	if b, ok := t.d.buildings[sched.BuildingID]; ok {
		bcp := b
		cp.Building = &bcp
	}
	return &cp, nil
}

func (t *tx) ListSchedules(_ context.Context, activeOnly bool) ([]models.CatchupSchedule, error) {
	out := make([]models.CatchupSchedule, 0, len(t.d.schedules))
	for _, sched := range t.d.schedules {
		if activeOnly && !sched.IsActive {
			continue
		}
		cp := sched
		if b, ok := t.d.buildings[sched.BuildingID]; ok {
			bcp := b
			cp.Building = &bcp
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *tx) GetStudent(_ context.Context, id uint) (*models.Student, error) {
	if st, ok := t.d.students[id]; ok {
		cp := st
		return &cp, nil
	}
	return nil, nil
}

func (t *tx) GetStudentByHemisID(_ context.Context, hemisID string) (*models.Student, error) {
	for _, st := range t.d.students {
		if st.HemisID == hemisID {
			cp := st
			return &cp, nil
		}
	}
	return nil, nil
}

func (t *tx) CreateRegistration(_ context.Context, r *models.QueueRegistration) error {
	if r.ID == 0 {
		r.ID = t.d.id()
	}
	r.CreatedAt = time.Now()
	cp := *r
	cp.Student = nil
	cp.CatchupSchedule = nil
	t.d.registrations[r.ID] = cp
	return nil
}

func (t *tx) GetRegistration(_ context.Context, id uint) (*models.QueueRegistration, error) {
	if r, ok := t.d.registrations[id]; ok {
		cp := r
		return &cp, nil
	}
	return nil, nil
}

func (t *tx) ActiveRegistration(_ context.Context, studentID, scheduleID uint) (*models.QueueRegistration, error) {
	for _, r := range t.d.registrations {
		if r.StudentID == studentID && r.CatchupScheduleID == scheduleID && r.Status != models.StatusCancelled {
			cp := r
			return &cp, nil
		}
	}
	return nil, nil
}

func (t *tx) ActiveRegistrationByHemisID(ctx context.Context, hemisID string, scheduleID uint) (*models.QueueRegistration, error) {
	st, err := t.GetStudentByHemisID(ctx, hemisID)
	if err != nil || st == nil {
		return nil, err
	}
	reg, err := t.ActiveRegistration(ctx, st.ID, scheduleID)
	if err != nil || reg == nil {
		return nil, err
	}
	reg.Student = st
	return reg, nil
}

func (t *tx) CountRegistrations(_ context.Context, scheduleID uint, slot string, statuses ...string) (int, error) {
	n := 0
	for _, r := range t.d.registrations {
		if r.CatchupScheduleID != scheduleID {
			continue
		}
		if slot != "" && r.SelectedTimeSlot != slot {
			continue
		}
		if len(statuses) > 0 && !containsStr(statuses, r.Status) {
			continue
		}
		n++
	}
	return n, nil
}

func (t *tx) OccupiedCountBySlot(_ context.Context, scheduleID uint) (map[string]int, error) {
	m := make(map[string]int)
	for _, r := range t.d.registrations {
		if r.CatchupScheduleID != scheduleID {
			continue
		}
		if r.Status == models.StatusPending || r.Status == models.StatusArrived {
			m[r.SelectedTimeSlot]++
		}
	}
	return m, nil
}

func (t *tx) ListRegistrations(_ context.Context, f catchup.RegistrationFilter) ([]models.QueueRegistration, error) {
	out := make([]models.QueueRegistration, 0)
	for _, r := range t.d.registrations {
		if r.CatchupScheduleID != f.ScheduleID {
			continue
		}
		if f.Slot != "" && f.Slot != "all" && r.SelectedTimeSlot != f.Slot {
			continue
		}
		if f.Status != "" && f.Status != "all" && r.Status != f.Status {
			continue
		}
		cp := r
		if st, ok := t.d.students[r.StudentID]; ok {
			stcp := st
			cp.Student = &stcp
		}
		if f.Search != "" {
			q := strings.ToLower(f.Search)
			name, hemis := "", ""
			if cp.Student != nil {
				name = strings.ToLower(cp.Student.FullName)
				hemis = strings.ToLower(cp.Student.HemisID)
			}
			if !strings.Contains(name, q) && !strings.Contains(hemis, q) {
				continue
			}
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *tx) StudentRegistrations(ctx context.Context, studentID uint) ([]models.QueueRegistration, error) {
	out := make([]models.QueueRegistration, 0)
	for _, r := range t.d.registrations {
		if r.StudentID != studentID {
			continue
		}
		cp := r
		if sched, err := t.GetSchedule(ctx, r.CatchupScheduleID); err == nil {
			cp.CatchupSchedule = sched
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (t *tx) TransitionRegistration(_ context.Context, id uint, from, to string) (bool, error) {
	r, ok := t.d.registrations[id]
	if !ok || r.Status != from {
		return false, nil
	}
	r.Status = to
	t.d.registrations[id] = r
	return true, nil
}

func (t *tx) ExpirePending(_ context.Context, before string) (int64, error) {
	var n int64
	for id, r := range t.d.registrations {
		if r.Status != models.StatusPending {
			continue
		}
		sched, ok := t.d.schedules[r.CatchupScheduleID]
		if !ok || sched.Date >= before {
			continue
		}
		r.Status = models.StatusAbsent
		t.d.registrations[id] = r
		n++
	}
	return n, nil
}

// LockSchedule is a no-op: the Transact mutex already serializes writers.
func (t *tx) LockSchedule(_ context.Context, _ uint) error { return nil }

func (t *tx) Transact(_ context.Context, fn func(catchup.Store) error) error {
	return fn(t)
}

func containsStr(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
