package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "open sqlite")
	return db
}

func mustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error, "exec failed: query=%s", q)
}

func createOrderTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE orders (
		id TEXT PRIMARY KEY,
		vendor_id TEXT NOT NULL,
		vendor_kind TEXT NOT NULL,
		gross_amount INTEGER NOT NULL,
		category TEXT,
		payment_confirmed_at DATETIME NOT NULL,
		settlement_id TEXT,
		commission_amount INTEGER DEFAULT 0,
		net_amount INTEGER DEFAULT 0,
		refunded_at DATETIME,
		created_at DATETIME
	);`)
}

func createVendorTables(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE vendors (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		display_name TEXT NOT NULL,
		commission_rate_bps INTEGER NOT NULL,
		min_commission_per_order INTEGER DEFAULT 0,
		min_payout_threshold INTEGER DEFAULT 0,
		payout_method TEXT NOT NULL,
		payout_destination TEXT NOT NULL,
		settlement_cycle TEXT NOT NULL,
		fraud_flag BOOLEAN DEFAULT 0,
		is_active BOOLEAN DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME
	);`)
	mustExec(t, db, `CREATE TABLE commission_overrides (
		id TEXT PRIMARY KEY,
		vendor_id TEXT NOT NULL,
		category TEXT NOT NULL,
		rate_bps INTEGER NOT NULL,
		UNIQUE (vendor_id, category)
	);`)
}

func createSettlementTables(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE settlements (
		id TEXT PRIMARY KEY,
		vendor_id TEXT NOT NULL,
		cycle_start DATETIME NOT NULL,
		cycle_end DATETIME NOT NULL,
		gross_amount INTEGER NOT NULL,
		commission_deducted INTEGER NOT NULL,
		net_amount INTEGER NOT NULL,
		adjustment_applied INTEGER DEFAULT 0,
		status TEXT NOT NULL,
		payout_attempt_count INTEGER DEFAULT 0,
		next_attempt_at DATETIME,
		due_date DATETIME,
		rail_reference TEXT,
		created_at DATETIME,
		last_transition_at DATETIME,
		UNIQUE (vendor_id, cycle_start, cycle_end)
	);`)
	mustExec(t, db, `CREATE TABLE adjustments (
		id TEXT PRIMARY KEY,
		vendor_id TEXT NOT NULL,
		dispute_id TEXT NOT NULL UNIQUE,
		order_id TEXT NOT NULL,
		source_settlement_id TEXT NOT NULL,
		amount INTEGER NOT NULL,
		applied_settlement_id TEXT,
		created_at DATETIME,
		applied_at DATETIME
	);`)
	mustExec(t, db, `CREATE TABLE audit_entries (
		id TEXT PRIMARY KEY,
		settlement_id TEXT NOT NULL,
		actor TEXT NOT NULL,
		from_status TEXT,
		to_status TEXT,
		reason TEXT,
		created_at DATETIME
	);`)
}

func createDisputeTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE disputes (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL,
		amount INTEGER NOT NULL,
		status TEXT NOT NULL,
		resolution TEXT,
		filed_at DATETIME NOT NULL,
		resolved_at DATETIME,
		processed_at DATETIME
	);`)
}
