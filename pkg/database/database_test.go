package database

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gorm.io/gorm"

	"github.com/vhealth/vhealth-api/pkg/metrics"
)

func TestGormConfigTranslatesDriverErrors(t *testing.T) {
	cfg := gormConfig()

	// The repositories detect unique violations through
	// gorm.ErrDuplicatedKey, which only surfaces when the driver's
	// error translator is enabled.
	if !cfg.TranslateError {
		t.Fatal("TranslateError is disabled; duplicate-key errors would never match gorm.ErrDuplicatedKey")
	}
	if !cfg.PrepareStmt {
		t.Fatal("PrepareStmt is disabled")
	}
}

func TestTrigramIndexIsNotRequired(t *testing.T) {
	// pg_trgm cannot be installed on every database, so the trigram name
	// index must stay out of the hard-fail index list.
	for _, idx := range requiredIndexes {
		if strings.Contains(idx.query, "gin_trgm_ops") {
			t.Fatalf("index %s depends on pg_trgm but is listed as required", idx.name)
		}
	}
	if !strings.Contains(trgmNameIndex, "gin_trgm_ops") {
		t.Fatal("trigram index statement no longer uses gin_trgm_ops")
	}
}

func newCallbackDB(table string) *gorm.DB {
	db := &gorm.DB{Config: &gorm.Config{}}
	db.Statement = &gorm.Statement{DB: db, Table: table}
	return db
}

func TestQueryMetricsCallbacksObserveDuration(t *testing.T) {
	coll := metrics.NewCollectorWith(prometheus.NewRegistry(), "test")
	db := newCallbackDB("clinical.patients")

	markQueryStart(db)
	observeQueryDuration(coll, "query")(db)

	if got := testutil.CollectAndCount(coll.DBQueryDuration); got != 1 {
		t.Fatalf("DBQueryDuration series = %d, want 1", got)
	}
}

func TestQueryMetricsCallbacksSkipUnmarkedStatements(t *testing.T) {
	coll := metrics.NewCollectorWith(prometheus.NewRegistry(), "test")
	db := newCallbackDB("clinical.patients")

	// After-callback without a matching before-callback must not record.
	observeQueryDuration(coll, "query")(db)

	if got := testutil.CollectAndCount(coll.DBQueryDuration); got != 0 {
		t.Fatalf("DBQueryDuration series = %d, want 0", got)
	}
}
