package database

import "ampcast/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.ContentPost{},
		&models.Credential{},
		&models.EngagementRecord{},
		&models.ExperimentTest{},
		&models.TimeSlotStat{},
		&models.Insight{},
	}
}
