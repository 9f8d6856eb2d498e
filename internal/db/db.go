package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/tashmeduni/navbat-back/internal/models"
)

var DB *gorm.DB

func InitDB(dsn string) {
	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	// AutoMigrate will create/update tables automatically
	err = DB.AutoMigrate(
		&models.Building{},
		&models.Facultet{},
		&models.Admin{},
		&models.Student{},
		&models.CatchupSchedule{},
		&models.QueueRegistration{},
	)
	if err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	fmt.Println("✅ Database connected and migrated")
}

func PingDB() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// SeedAdmin creates the bootstrap admin account when none exists.
func SeedAdmin(username, password, email string) {
	if username == "" || password == "" {
		return
	}
	var count int64
	DB.Model(&models.Admin{}).Count(&count)
	if count > 0 {
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Println("failed to hash admin password:", err)
		return
	}
	admin := models.Admin{Username: username, FullName: "System Administrator", Email: email, PasswordHash: string(hash)}
	if err := DB.Create(&admin).Error; err != nil {
		log.Println("failed to seed admin:", err)
		return
	}
	log.Println("✅ Seeded admin account:", username)
}

// -------------------- ADMINS --------------------

func GetAdminByUsername(ctx context.Context, username string) (*models.Admin, error) {
	var admin models.Admin
	if err := DB.WithContext(ctx).Where("username = ?", username).First(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &admin, nil
}

func GetAdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	var admin models.Admin
	if err := DB.WithContext(ctx).Where("email = ?", email).First(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &admin, nil
}

// -------------------- BUILDINGS --------------------

func ListBuildings(ctx context.Context) ([]models.Building, error) {
	var buildings []models.Building
	err := DB.WithContext(ctx).Where("is_deleted = ?", false).Order("id").Find(&buildings).Error
	return buildings, err
}

func GetBuilding(ctx context.Context, id uint) (*models.Building, error) {
	var b models.Building
	if err := DB.WithContext(ctx).First(&b, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func CreateBuilding(ctx context.Context, b *models.Building) error {
	return DB.WithContext(ctx).Create(b).Error
}

func UpdateBuilding(ctx context.Context, b *models.Building) error {
	return DB.WithContext(ctx).Model(b).Updates(map[string]interface{}{
		"name":           b.Name,
		"computer_count": b.ComputerCount,
		"is_active":      b.IsActive,
	}).Error
}

// SoftDeleteBuilding marks the building deleted unless an active schedule
// still references it.
func SoftDeleteBuilding(ctx context.Context, id uint) error {
	var count int64
	err := DB.WithContext(ctx).Model(&models.CatchupSchedule{}).
		Where("building_id = ? AND is_active = ?", id, true).Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New("building is referenced by an active schedule")
	}
	return DB.WithContext(ctx).Model(&models.Building{}).Where("id = ?", id).
		Update("is_deleted", true).Error
}

// -------------------- FACULTETS --------------------

func ListFacultets(ctx context.Context) ([]models.Facultet, error) {
	var facultets []models.Facultet
	err := DB.WithContext(ctx).Order("id").Find(&facultets).Error
	return facultets, err
}

func FacultetsByBuilding(ctx context.Context, buildingID uint) ([]models.Facultet, error) {
	var facultets []models.Facultet
	err := DB.WithContext(ctx).Where("building_id = ?", buildingID).Order("id").Find(&facultets).Error
	return facultets, err
}

func CreateFacultet(ctx context.Context, f *models.Facultet) error {
	return DB.WithContext(ctx).Create(f).Error
}

func UpdateFacultet(ctx context.Context, f *models.Facultet) error {
	return DB.WithContext(ctx).Model(f).Updates(map[string]interface{}{
		"name":        f.Name,
		"building_id": f.BuildingID,
	}).Error
}

func DeleteFacultet(ctx context.Context, id uint) error {
	return DB.WithContext(ctx).Delete(&models.Facultet{}, id).Error
}

// -------------------- STUDENTS --------------------

func ListStudents(ctx context.Context, page, pageSize int) ([]models.Student, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 15
	}
	var total int64
	if err := DB.WithContext(ctx).Model(&models.Student{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var students []models.Student
	err := DB.WithContext(ctx).Preload("Facultet").
		Order("id").Limit(pageSize).Offset((page - 1) * pageSize).
		Find(&students).Error
	return students, total, err
}

func GetStudentByHemisID(ctx context.Context, hemisID string) (*models.Student, error) {
	var st models.Student
	if err := DB.WithContext(ctx).Preload("Facultet").Where("hemis_id = ?", hemisID).First(&st).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &st, nil
}

func CreateStudent(ctx context.Context, st *models.Student) error {
	return DB.WithContext(ctx).Create(st).Error
}

func UpdateStudent(ctx context.Context, st *models.Student) error {
	return DB.WithContext(ctx).Model(st).Updates(map[string]interface{}{
		"full_name":    st.FullName,
		"course":       st.Course,
		"facultet_id":  st.FacultetID,
		"phone_number": st.PhoneNumber,
		"is_active":    st.IsActive,
	}).Error
}

func DeleteStudent(ctx context.Context, id uint) error {
	return DB.WithContext(ctx).Delete(&models.Student{}, id).Error
}

// SaveStudents upserts imported students keyed by HEMIS id.
func SaveStudents(ctx context.Context, students []models.Student) (int, error) {
	saved := 0
	for i := range students {
		st := &students[i]
		var existing models.Student
		err := DB.WithContext(ctx).Where("hemis_id = ?", st.HemisID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := DB.WithContext(ctx).Create(st).Error; err != nil {
				return saved, err
			}
			saved++
			continue
		}
		if err != nil {
			return saved, err
		}
		if err := DB.WithContext(ctx).Model(&existing).Updates(map[string]interface{}{
			"full_name":    st.FullName,
			"course":       st.Course,
			"facultet_id":  st.FacultetID,
			"phone_number": st.PhoneNumber,
		}).Error; err != nil {
			return saved, err
		}
		saved++
	}
	return saved, nil
}
