package sqlgw

import (
	"context"

	core "ordersaga/data/db"
)

// schemaStatements is the persisted schema contract (spec §6): one table
// per §3 entity, the required child-table (order_id) indexes, the
// (order_id, recorded_at, id) order_events index, and the uniqueness
// constraints on (saga_execution_id, step_index) and (order_id,
// attempt_number).
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL,
		total_amount_in_minor_units INTEGER NOT NULL,
		status TEXT NOT NULL,
		version INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL,
		product_id TEXT NOT NULL,
		product_name TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		unit_price_in_minor_units INTEGER NOT NULL,
		version INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id)`,

	`CREATE TABLE IF NOT EXISTS saga_executions (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL,
		current_step_index INTEGER NOT NULL,
		status TEXT NOT NULL,
		failed_step_index INTEGER,
		failure_reason TEXT,
		trace_id TEXT,
		started_at TEXT NOT NULL,
		completed_at TEXT,
		compensation_started_at TEXT,
		compensation_completed_at TEXT,
		version INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_saga_executions_order_id ON saga_executions(order_id)`,

	`CREATE TABLE IF NOT EXISTS step_executions (
		id TEXT PRIMARY KEY,
		saga_execution_id TEXT NOT NULL,
		step_name TEXT NOT NULL,
		step_index INTEGER NOT NULL,
		status TEXT NOT NULL,
		started_at TEXT,
		completed_at TEXT,
		compensated_at TEXT,
		error_code TEXT,
		error_message TEXT,
		result_payload BLOB,
		version INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_step_executions_saga_execution_id ON step_executions(saga_execution_id)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_step_executions_exec_index ON step_executions(saga_execution_id, step_index)`,

	`CREATE TABLE IF NOT EXISTS order_events (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL,
		saga_execution_id TEXT,
		event_type TEXT NOT NULL,
		step_name TEXT,
		outcome TEXT NOT NULL,
		details BLOB,
		error_info BLOB,
		recorded_at TEXT NOT NULL,
		version INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_order_events_order_id ON order_events(order_id)`,
	`CREATE INDEX IF NOT EXISTS idx_order_events_order_recorded_id ON order_events(order_id, recorded_at, id)`,

	`CREATE TABLE IF NOT EXISTS retry_attempts (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL,
		original_execution_id TEXT NOT NULL,
		retry_execution_id TEXT,
		attempt_number INTEGER NOT NULL,
		resumed_from_step_name TEXT,
		skipped_step_names TEXT,
		outcome TEXT,
		failure_reason TEXT,
		initiated_at TEXT NOT NULL,
		completed_at TEXT,
		version INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_retry_attempts_order_id ON retry_attempts(order_id)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_retry_attempts_order_attempt ON retry_attempts(order_id, attempt_number)`,
}

// Migrate creates every table and index the gateway needs, idempotently.
func Migrate(ctx context.Context, database core.IDatabase) error {
	for _, stmt := range schemaStatements {
		if _, err := database.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
