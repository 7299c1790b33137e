package models

import (
	"log"

	"github.com/restodata/resto_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&BusinessDay{}, &PointOfSale{}, &Shift{}, &Sale{}, &ShiftClose{},
		&InventoryItem{},
		&DayCloseMessageRecord{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
