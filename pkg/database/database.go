package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vhealth/vhealth-api/internal/config"
	"github.com/vhealth/vhealth-api/internal/domain"
	"github.com/vhealth/vhealth-api/internal/domain/doctor"
	"github.com/vhealth/vhealth-api/internal/domain/emergency"
	"github.com/vhealth/vhealth-api/internal/domain/healthrecord"
	"github.com/vhealth/vhealth-api/internal/domain/patient"
)

// gormConfig is shared between Connect and tests. TranslateError makes the
// driver surface unique violations as gorm.ErrDuplicatedKey, which the
// repositories match on to report conflicts.
func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		PrepareStmt:                              true,
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: false,
		DisableAutomaticPing:                     false,
	}
}

func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DNS(),
		PreferSimpleProtocol: false,
	}), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

func Migrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("running database migrations")
	start := time.Now()

	schemas := []string{"clinical", "auth", "audit"} // logical namespaces
	for _, schema := range schemas {
		if err := db.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)).Error; err != nil {
			return fmt.Errorf("creating schema %s: %w", schema, err)
		}
	}

	models := []any{
		&domain.User{},
		&patient.Patient{},
		&doctor.Doctor{},
		&healthrecord.HealthRecord{},
		&emergency.AccessLog{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto-migrating models: %w", err)
	}

	if err := createPriorityFunction(db); err != nil {
		return fmt.Errorf("creating priority function: %w", err)
	}

	if err := createIndexes(db, log); err != nil {
		return fmt.Errorf("creating indexes: %w", err)
	}

	log.Info("migrations completed", zap.Duration("duration", time.Since(start)))
	return nil
}

// createPriorityFunction installs the scoring policy used by the emergency
// roster query. The body must agree with emergency.ComputePriority.
func createPriorityFunction(db *gorm.DB) error {
	const fn = `
CREATE OR REPLACE FUNCTION calculate_patient_priority(
	conditions jsonb,
	allergies jsonb,
	medications text
) RETURNS integer
LANGUAGE sql IMMUTABLE AS $$
	SELECT LEAST(5,
		1
		+ CASE WHEN cond_count > 0 THEN 1 ELSE 0 END
		+ CASE WHEN cond_count >= 3 THEN 1 ELSE 0 END
		+ CASE WHEN allergy_count > 0 THEN 1 ELSE 0 END
		+ CASE WHEN btrim(COALESCE(medications, '')) <> '' THEN 1 ELSE 0 END
	)
	FROM (
		SELECT
			(SELECT count(*) FROM jsonb_array_elements_text(COALESCE(conditions, '[]'::jsonb)) c
				WHERE btrim(c) <> '') AS cond_count,
			(SELECT count(*) FROM jsonb_array_elements_text(COALESCE(allergies, '[]'::jsonb)) a
				WHERE btrim(a) <> '') AS allergy_count
	) counts
$$`

	return db.Exec(fn).Error
}

// requiredIndexes back the emergency record selector and the audit feed.
// Migration fails if any of them cannot be created.
var requiredIndexes = []struct {
	name  string
	query string
}{
	{
		name:  "idx_health_records_patient_importance",
		query: `CREATE INDEX IF NOT EXISTS idx_health_records_patient_importance ON clinical.health_records (patient_id, importance_level DESC, created_at DESC)`,
	},
	{
		name:  "idx_emergency_logs_patient_recency",
		query: `CREATE INDEX IF NOT EXISTS idx_emergency_logs_patient_recency ON audit.emergency_access_logs (patient_id, accessed_at DESC)`,
	},
}

const trgmNameIndex = `CREATE INDEX IF NOT EXISTS idx_patients_name_trgm ON clinical.patients USING gin (name gin_trgm_ops) WHERE deleted_at IS NULL`

func createIndexes(db *gorm.DB, log *zap.Logger) error {
	for _, idx := range requiredIndexes {
		if err := db.Exec(idx.query).Error; err != nil {
			return fmt.Errorf("creating index %s: %w", idx.name, err)
		}
	}

	// The trigram name index needs pg_trgm, which managed databases do not
	// always allow installing. Name lookups fall back to sequential scans
	// rather than blocking startup.
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS pg_trgm").Error; err != nil {
		log.Warn("pg_trgm extension unavailable, skipping trigram name index", zap.Error(err))
		return nil
	}
	if err := db.Exec(trgmNameIndex).Error; err != nil {
		log.Warn("creating trigram name index failed", zap.Error(err))
	}

	return nil
}
