package database

import (
	"fmt"
	"log"
	"skillforge_backend/internal/config"
	"skillforge_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DefaultSkills 初始技能/分类代码
var DefaultSkills = []model.SkillCategory{
	{Code: "PY", Name: "Python"},
	{Code: "JS", Name: "JavaScript"},
	{Code: "GO", Name: "Go"},
	{Code: "JAVA", Name: "Java"},
	{Code: "BE", Name: "Backend"},
	{Code: "FE", Name: "Frontend"},
	{Code: "DB", Name: "Databases"},
	{Code: "SEC", Name: "Security"},
	{Code: "ML", Name: "Machine Learning"},
	{Code: "DEVOPS", Name: "DevOps"},
}

func dialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "sqlite":
		return sqlite.Open(cfg.Path), nil
	case "mysql", "":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
			cfg.User,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.DBName,
			cfg.Charset,
			cfg.ParseTime,
		)
		return mysql.Open(dsn), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

func InitDB(cfg *config.DatabaseConfig, debug bool) (*gorm.DB, error) {
	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	logLevel := logger.Warn
	if debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(d, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}

	if cfg.Driver == "sqlite" {
		// sqlite 只允许单写者，串行化连接避免 database is locked
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	log.Println("Database connection established")
	return db, nil
}

// Migrate 自动建表并写入默认技能代码
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(model.AllModels()...); err != nil {
		return err
	}

	var count int64
	if err := db.Model(&model.SkillCategory{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		skills := make([]model.SkillCategory, len(DefaultSkills))
		copy(skills, DefaultSkills)
		if err := db.Create(&skills).Error; err != nil {
			return err
		}
	}

	log.Println("Database migration completed")
	return nil
}
