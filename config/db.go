package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"hms-backend/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func envOrDefault(key, def string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	return value
}

func mysqlDSNFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	user := u.User.Username()
	pass, _ := u.User.Password()
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "3306"
	}

	dbName := strings.TrimPrefix(u.Path, "/")
	if dbName == "" {
		return "", fmt.Errorf("mysql url missing database name")
	}

	q := u.Query()
	if q.Get("charset") == "" {
		q.Set("charset", "utf8mb4")
	}
	if q.Get("parseTime") == "" {
		q.Set("parseTime", "True")
	}
	if q.Get("loc") == "" {
		q.Set("loc", "Local")
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?%s", user, pass, host, port, dbName, q.Encode()), nil
}

func resolveMySQLDSN() (string, error) {
	raw := strings.TrimSpace(os.Getenv("MYSQL_URL"))
	if raw == "" {
		raw = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}

	if raw != "" {
		if strings.HasPrefix(raw, "mysql://") {
			return mysqlDSNFromURL(raw)
		}
		return raw, nil
	}

	user := envOrDefault("DB_USER", "root")
	pass := envOrDefault("DB_PASS", "")
	host := envOrDefault("DB_HOST", "127.0.0.1")
	port := envOrDefault("DB_PORT", "3306")
	dbName := envOrDefault("DB_NAME", "hms_db")

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, pass, host, port, dbName,
	), nil
}

func ConnectDatabase() error {
	dsn, err := resolveMySQLDSN()
	if err != nil {
		return err
	}

	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Warn,
			Colorful:      true,
		},
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: newLogger})
	if err != nil {
		return err
	}

	DB = db

	// AutoMigrate in parent->child order
	if err := DB.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.RolePermission{},
		&models.RoleMember{},
		&models.Floor{},
		&models.Room{},
		&models.Client{},
		&models.Reservation{},
		&models.CheckoutSession{},
	); err != nil {
		return err
	}

	SeedDatabase()
	return nil
}

// SeedDatabase ensures the baseline roles, permissions and a default admin
// exist, plus a demo floor so room creation works out of the box.
func SeedDatabase() {
	// ---------------- Admin user ----------------
	var userCount int64
	DB.Model(&models.User{}).Count(&userCount)
	if userCount == 0 {
		hash, err := bcrypt.GenerateFromPassword([]byte(envOrDefault("ADMIN_PASSWORD", "admin123")), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("warning: failed to hash default admin password: %v", err)
		} else {
			admin := models.User{
				Name:     "Admin User",
				Email:    "admin@hotel.local",
				Password: string(hash),
			}
			if err := DB.Create(&admin).Error; err != nil {
				log.Printf("warning: failed to create default admin: %v", err)
			} else {
				log.Println("Default admin seeded")
			}
		}
	}

	// ---------------- Roles ----------------
	desiredRoles := []models.Role{
		{Name: "admin", Description: "System administrator with full access"},
		{Name: "manager", Description: "Manager with elevated access"},
		{Name: "receptionist", Description: "Front desk operations"},
	}

	allPerms := []string{
		"reservationManagement.view",
		"reservationManagement.create",
		"reservationManagement.delete",
		"roomManagement.view",
		"roomManagement.create",
		"roomManagement.edit",
		"roomManagement.delete",
		"roomManagement.editState",
		"floorManagement.view",
		"floorManagement.create",
		"floorManagement.edit",
		"floorManagement.delete",
		"clientManagement.view",
		"clientManagement.approve",
		"clientManagement.delete",
	}

	rolesByKey := map[string]models.Role{}
	for i := range desiredRoles {
		role := desiredRoles[i]
		key := strings.ToLower(role.Name)

		var existing models.Role
		err := DB.Where("LOWER(name) = ?", key).First(&existing).Error
		if err == nil && existing.ID != 0 {
			rolesByKey[key] = existing
			continue
		}

		if err := DB.Create(&role).Error; err != nil {
			log.Printf("warning: failed to create role %s: %v", role.Name, err)
			continue
		}
		rolesByKey[key] = role
	}

	adminRole, ok := rolesByKey["admin"]
	if ok && adminRole.ID != 0 {
		var permCount int64
		DB.Model(&models.RolePermission{}).Where("role_id = ?", adminRole.ID).Count(&permCount)
		if permCount == 0 {
			perms := make([]models.RolePermission, 0, len(allPerms))
			for _, p := range allPerms {
				perms = append(perms, models.RolePermission{RoleID: adminRole.ID, Permission: p})
			}
			if err := DB.Create(&perms).Error; err != nil {
				log.Printf("warning: failed to create admin permissions: %v", err)
			}
		}

		var memberCount int64
		DB.Model(&models.RoleMember{}).Where("role_id = ?", adminRole.ID).Count(&memberCount)
		if memberCount == 0 {
			var users []models.User
			DB.Find(&users)
			if len(users) > 0 {
				members := make([]models.RoleMember, 0, len(users))
				for _, user := range users {
					members = append(members, models.RoleMember{RoleID: adminRole.ID, UserID: user.ID})
				}
				if err := DB.Create(&members).Error; err != nil {
					log.Printf("warning: failed to assign users to admin role: %v", err)
				}
			}
		}
	}

	// ---------------- Floors ----------------
	var floorCount int64
	DB.Model(&models.Floor{}).Count(&floorCount)
	if floorCount == 0 {
		floors := []models.Floor{
			{Number: 1, Name: "Ground"},
			{Number: 2, Name: "First"},
		}
		if err := DB.Create(&floors).Error; err != nil {
			log.Printf("warning: failed to seed floors: %v", err)
		} else {
			log.Println("Floors seeded")
		}
	}

	log.Println("Seed data ensured")
}
