package database

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/vhealth/vhealth-api/pkg/metrics"
)

const queryStartKey = "vhealth:query_start"

// InstrumentMetrics registers gorm callbacks that time every statement and
// keep the open-connection gauge current.
func InstrumentMetrics(db *gorm.DB, coll *metrics.Collector) error {
	return errors.Join(
		db.Callback().Create().Before("gorm:create").Register("vhealth:metrics_before_create", markQueryStart),
		db.Callback().Create().After("gorm:create").Register("vhealth:metrics_after_create", observeQueryDuration(coll, "create")),
		db.Callback().Query().Before("gorm:query").Register("vhealth:metrics_before_query", markQueryStart),
		db.Callback().Query().After("gorm:query").Register("vhealth:metrics_after_query", observeQueryDuration(coll, "query")),
		db.Callback().Update().Before("gorm:update").Register("vhealth:metrics_before_update", markQueryStart),
		db.Callback().Update().After("gorm:update").Register("vhealth:metrics_after_update", observeQueryDuration(coll, "update")),
		db.Callback().Delete().Before("gorm:delete").Register("vhealth:metrics_before_delete", markQueryStart),
		db.Callback().Delete().After("gorm:delete").Register("vhealth:metrics_after_delete", observeQueryDuration(coll, "delete")),
		db.Callback().Row().Before("gorm:row").Register("vhealth:metrics_before_row", markQueryStart),
		db.Callback().Row().After("gorm:row").Register("vhealth:metrics_after_row", observeQueryDuration(coll, "row")),
		db.Callback().Raw().Before("gorm:raw").Register("vhealth:metrics_before_raw", markQueryStart),
		db.Callback().Raw().After("gorm:raw").Register("vhealth:metrics_after_raw", observeQueryDuration(coll, "raw")),
	)
}

func markQueryStart(tx *gorm.DB) {
	tx.InstanceSet(queryStartKey, time.Now())
}

func observeQueryDuration(coll *metrics.Collector, operation string) func(*gorm.DB) {
	return func(tx *gorm.DB) {
		v, ok := tx.InstanceGet(queryStartKey)
		if !ok {
			return
		}
		start, ok := v.(time.Time)
		if !ok {
			return
		}
		coll.DBQueryDuration.WithLabelValues(operation, tx.Statement.Table).Observe(time.Since(start).Seconds())

		if sqlDB, err := tx.DB(); err == nil {
			coll.DBConnections.Set(float64(sqlDB.Stats().OpenConnections))
		}
	}
}
