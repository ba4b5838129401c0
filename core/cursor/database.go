package cursor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Record is the persisted cursor row.
type Record struct {
	Name      string `gorm:"column:name;primaryKey;size:64"`
	Cursor    string `gorm:"column:change_id;size:255;not null"`
	UpdatedAt time.Time
}

// TableName keeps the table name stable regardless of naming strategy.
func (Record) TableName() string { return "feed_cursors" }

// Database stores the cursor as a named row.
type Database struct {
	db   *gorm.DB
	name string
}

// NewDatabase returns a database backed store. Migrate must have run once.
func NewDatabase(db *gorm.DB, name string) *Database {
	return &Database{db: db, name: name}
}

// Migrate creates the cursor table.
func (d *Database) Migrate(ctx context.Context) error {
	if err := d.db.WithContext(ctx).AutoMigrate(&Record{}); err != nil {
		return fmt.Errorf("failed to migrate cursor table: %w", err)
	}
	return nil
}

func (d *Database) Load(ctx context.Context) (string, error) {
	var rec Record
	err := d.db.WithContext(ctx).Where("name = ?", d.name).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load cursor: %w", err)
	}
	return rec.Cursor, nil
}

func (d *Database) Save(ctx context.Context, cursor string) error {
	rec := Record{Name: d.name, Cursor: cursor, UpdatedAt: time.Now().UTC()}
	err := d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"change_id", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to save cursor: %w", err)
	}
	return nil
}
