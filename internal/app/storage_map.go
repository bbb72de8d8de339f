package app

import (
	"todobot/internal/config"
	"todobot/internal/janitor"
	"todobot/internal/storage"
)

func storageConfig(s config.Settings) storage.Config {
	return storage.Config{Driver: s.StorageDriver, Path: s.StoragePath, BusyTimeout: s.BusyTimeout}
}

func janitorConfig(s config.Settings) janitor.Config {
	return janitor.Config{Schedule: s.JanitorSchedule, BatchSize: s.JanitorBatch, Timezone: s.JanitorTimezone}
}
