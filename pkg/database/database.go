package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// BookRow, BorrowerRow and LoanRow mirror the CSV tables. Position keeps the
// file order so whole-table reads come back in insertion order.
type BookRow struct {
	ID       int `gorm:"primaryKey;autoIncrement:false"`
	Position int `gorm:"not null;index"`
	Name     string
	Author   string
	Category string
	Active   bool `gorm:"not null"`
}

func (BookRow) TableName() string { return "books" }

type BorrowerRow struct {
	ID       int `gorm:"primaryKey;autoIncrement:false"`
	Position int `gorm:"not null;index"`
	Name     string
	Surname  string
	Phone    string
	Active   bool `gorm:"not null"`
}

func (BorrowerRow) TableName() string { return "borrowers" }

type LoanRow struct {
	Position   int    `gorm:"primaryKey;autoIncrement:false"`
	LoanID     string `gorm:"size:36;index"`
	LoanerID   int    `gorm:"not null;index"`
	BookID     int    `gorm:"not null;index"`
	LoanDate   time.Time
	ReturnDate *time.Time
}

func (LoanRow) TableName() string { return "loans" }

// OpenSQLite opens (or creates) a sqlite database file; ":memory:" works too.
// sqlite gets a single connection: every ":memory:" connection is its own
// database, and one writer is all sqlite allows anyway.
func OpenSQLite(path string) (*gorm.DB, error) {
	return initDB(sqlite.Open(path), 1, 1)
}

// OpenPostgres connects with retries, since the database container usually
// comes up after the service does.
func OpenPostgres(dsn string, maxRetries int) (*gorm.DB, error) {
	log.Printf("Connecting to library database")
	return initDB(postgres.Open(dsn), maxRetries, 25)
}

func initDB(dialector gorm.Dialector, maxRetries, maxOpen int) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	maxRetries = max(maxRetries, 1)
	for i := 0; i < maxRetries; i++ {
		db, err = gorm.Open(dialector, &gorm.Config{})
		if err == nil {
			break
		}
		log.Printf("Database connection attempt %d/%d failed: %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			time.Sleep(5 * time.Second)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(min(maxOpen, 10))
	if maxOpen > 1 {
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.AutoMigrate(&BookRow{}, &BorrowerRow{}, &LoanRow{}); err != nil {
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	log.Println("Database connection established successfully")
	return db, nil
}

// Ping reports whether the underlying connection is alive.
func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
