// Package schema defines the database schema for development.
//
// DEVELOPMENT USE ONLY
// This file contains the current database schema and is used for development and testing.
// Before deploying to production, these table definitions should be converted to proper migrations.
package schema

// TableDefinitions contains all the SQL statements to create the database tables
// Don't put REFERENCES and don't put CHECK constraints in the CREATE TABLE statements
var TableDefinitions = []string{
	`CREATE TABLE IF NOT EXISTS domains (
		id UUID PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		tenant_id VARCHAR(64) NOT NULL,
		external_id VARCHAR(255),
		pool VARCHAR(20) NOT NULL,
		class VARCHAR(20) NOT NULL,
		status VARCHAR(20) NOT NULL,
		sending JSONB NOT NULL DEFAULT '{}',
		warmup JSONB NOT NULL DEFAULT '{}',
		health_score INTEGER NOT NULL DEFAULT 0,
		consecutive_low_scores INTEGER NOT NULL DEFAULT 0,
		pool_entered_at TIMESTAMP NOT NULL,
		schedule JSONB NOT NULL DEFAULT '{}',
		next_test_at TIMESTAMP,
		test_history JSONB NOT NULL DEFAULT '[]',
		rotation_log JSONB NOT NULL DEFAULT '[]',
		campaigns JSONB NOT NULL DEFAULT '[]',
		health_metrics JSONB NOT NULL DEFAULT '{}',
		version INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS pools (
		type VARCHAR(20) PRIMARY KEY,
		sending JSONB NOT NULL DEFAULT '{}',
		warmup JSONB NOT NULL DEFAULT '{}',
		campaign JSONB NOT NULL DEFAULT '{}',
		rules JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS placement_tests (
		id VARCHAR(64) PRIMARY KEY,
		domain_id UUID NOT NULL,
		filter_phrase VARCHAR(255),
		status VARCHAR(20) NOT NULL,
		seed_emails JSONB NOT NULL DEFAULT '[]',
		overall_score INTEGER NOT NULL DEFAULT 0,
		inbox_percent INTEGER NOT NULL DEFAULT 0,
		spam_percent INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		completed_at TIMESTAMP,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id UUID PRIMARY KEY,
		kind VARCHAR(20) NOT NULL,
		title VARCHAR(255) NOT NULL,
		message TEXT,
		domain_id VARCHAR(64),
		channels JSONB NOT NULL DEFAULT '{}',
		read BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS job_log (
		id UUID PRIMARY KEY,
		job_id VARCHAR(64) NOT NULL,
		type VARCHAR(20) NOT NULL,
		domain_id VARCHAR(64),
		status VARCHAR(20) NOT NULL,
		duration_ms BIGINT NOT NULL DEFAULT 0,
		error TEXT,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS settings (
		key VARCHAR(255) PRIMARY KEY,
		value TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_domains_pool_status ON domains(pool, status)`,
	`CREATE INDEX IF NOT EXISTS idx_domains_tenant_id ON domains(tenant_id)`,
	`CREATE INDEX IF NOT EXISTS idx_domains_next_test_at ON domains(next_test_at)`,
	`CREATE INDEX IF NOT EXISTS idx_placement_tests_domain_id ON placement_tests(domain_id)`,
	`CREATE INDEX IF NOT EXISTS idx_placement_tests_status ON placement_tests(status)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_read ON notifications(read, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_job_log_job_id ON job_log(job_id)`,
	`CREATE INDEX IF NOT EXISTS idx_job_log_created_at ON job_log(created_at)`,
}

// TableNames returns a list of all table names in creation order
var TableNames = []string{
	"domains",
	"pools",
	"placement_tests",
	"notifications",
	"job_log",
	"settings",
}
