package models

import "time"

// Queue registration statuses. A registration starts as pending and ends in
// exactly one of the terminal states.
const (
	StatusPending   = "pending"
	StatusArrived   = "arrived"
	StatusAbsent    = "absent"
	StatusCancelled = "cancelled"
)

// IntList is stored as a JSON array column.
type IntList []int

// Contains reports whether v is in the list.
func (l IntList) Contains(v int) bool {
	for _, x := range l {
		if x == v {
			return true
		}
	}
	return false
}

type Building struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"not null" json:"name"`
	ComputerCount int       `gorm:"not null" json:"computerCount"`
	IsActive      bool      `gorm:"default:true" json:"isActive"`
	IsDeleted     bool      `gorm:"default:false" json:"isDeleted"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type Facultet struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"not null" json:"name"`
	BuildingID uint      `gorm:"index" json:"buildingId"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Admin struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"uniqueIndex;not null" json:"username"`
	FullName     string `json:"fullName"`
	Email        string `gorm:"index" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
}

// Student is a HEMIS-provisioned user. HemisID is the external identity key
// used by QR scanning and arrival marking.
type Student struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	HemisID      string    `gorm:"uniqueIndex;not null" json:"hemisId"`
	FullName     string    `gorm:"not null" json:"fullname"`
	Course       int       `json:"course"`
	FacultetID   uint      `gorm:"index" json:"facultetId"`
	Facultet     *Facultet `gorm:"foreignKey:FacultetID" json:"facultet,omitempty"`
	PhoneNumber  string    `json:"phoneNumber"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `gorm:"default:true" json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
}

// CatchupSchedule is an admin-defined catch-up event. Its time range
// [StartTime, EndTime) is partitioned into discrete slots at a configured
// width; the derived fields below are recomputed on every read and never
// stored.
type CatchupSchedule struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Date        string    `gorm:"size:10;not null" json:"date"`      // YYYY-MM-DD
	StartTime   string    `gorm:"size:5;not null" json:"startTime"`  // HH:MM
	EndTime     string    `gorm:"size:5;not null" json:"endTime"`    // HH:MM
	Courses     IntList   `gorm:"serializer:json" json:"courses"`
	FacultetIDs IntList   `gorm:"serializer:json" json:"facultetIds"`
	BuildingID  uint      `gorm:"index" json:"buildingId"`
	Building    *Building `gorm:"foreignKey:BuildingID" json:"building,omitempty"`
	IsActive    bool      `gorm:"default:true" json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// Derived, populated by the catchup service.
	TimeSlots          []string            `gorm:"-" json:"timeSlots,omitempty"`
	TimeSlotStatistics []TimeSlotStatistic `gorm:"-" json:"timeSlotStatistics,omitempty"`
	RegistrationCount  int                 `gorm:"-" json:"registrationCount"`
	AttendeesCount     int                 `gorm:"-" json:"attendeesCount"`
	Students           []QueueRegistration `gorm:"-" json:"students,omitempty"`
}

// TimeSlotStatistic is the per-slot seat snapshot. TotalSeats equals the
// building's computer count; occupancy counts pending and arrived
// registrations, so a seat stays held through arrival and is freed only by
// cancellation or absence.
type TimeSlotStatistic struct {
	TimeSlot        string `json:"timeSlot"`
	RegisteredCount int    `json:"registeredCount"`
	TotalSeats      int    `json:"totalSeats"`
	AvailableSeats  int    `json:"availableSeats"`
	IsFullyBooked   bool   `json:"isFullyBooked"`
}

// QueueRegistration is a student's claim on one time slot of a schedule.
// QueueNumber is assigned once at creation (FIFO within the slot) and never
// recomputed. QRToken is the nonce embedded in the ticket QR payload.
type QueueRegistration struct {
	ID                uint             `gorm:"primaryKey" json:"id"`
	CatchupScheduleID uint             `gorm:"index;not null" json:"catchupScheduleId"`
	CatchupSchedule   *CatchupSchedule `gorm:"foreignKey:CatchupScheduleID" json:"catchupSchedule,omitempty"`
	StudentID         uint             `gorm:"index;not null" json:"studentId"`
	Student           *Student         `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	SelectedTimeSlot  string           `gorm:"not null" json:"selectedTimeSlot"`
	QueueNumber       int              `gorm:"not null" json:"queueNumber"`
	Status            string           `gorm:"not null;default:pending;index" json:"status"`
	QRToken           string           `gorm:"uniqueIndex" json:"-"`
	CreatedAt         time.Time        `json:"createdAt"`

	// QRCode is the ticket image as a PNG data URL, rendered per request.
	QRCode   string `gorm:"-" json:"qrCode,omitempty"`
	IsActive bool   `gorm:"-" json:"isActive"`
}
