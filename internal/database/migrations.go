package database

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/chachabrian/courier-backend/internal/models"
)

func RunMigrations(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Parcel{},
		&models.ParcelStatusEvent{},
	)
	if err != nil {
		return err
	}

	// SQLite cannot add constraints to an existing table.
	if db.Dialector.Name() != "postgres" {
		return nil
	}

	constraints := []struct {
		table, name, check string
	}{
		{"users", "users_role_check", fmt.Sprintf("role IN (%s)", quoteList(string(models.RoleUser), string(models.RoleAdmin)))},
		{"parcels", "parcels_status_check", fmt.Sprintf("status IN (%s)", quoteList(statusNames()...))},
		{"parcels", "parcels_parcel_weight_check", "parcel_weight > 0"},
	}
	for _, c := range constraints {
		if err := db.Exec(fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT IF EXISTS %s", c.table, c.name)).Error; err != nil {
			return err
		}
		if err := db.Exec(fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s)", c.table, c.name, c.check)).Error; err != nil {
			return err
		}
	}

	return nil
}

func statusNames() []string {
	var names []string
	for _, s := range models.GetAllParcelStatuses() {
		names = append(names, string(s))
	}
	return names
}

func quoteList(values ...string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + v + "'"
	}
	return strings.Join(quoted, ", ")
}
