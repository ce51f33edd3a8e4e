package projects

import (
	"fmt"

	"github.com/EmpoweredVote/EV-CityMap/internal/db"
	"gorm.io/gorm"
)

// Schema holds the project tables.
const Schema = "citymap"

// Init creates the schema and tables and returns a store over d.
func Init(d *gorm.DB) (*GormStore, error) {
	if err := db.EnsureSchema(d, Schema); err != nil {
		return nil, fmt.Errorf("create %s schema: %w", Schema, err)
	}

	if err := d.AutoMigrate(&User{}, &Project{}); err != nil {
		return nil, fmt.Errorf("auto-migrate project tables: %w", err)
	}
	return NewGormStore(d), nil
}
