package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrate creates the schema for driver. Statements are idempotent so the
// command can run on every deploy.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	var stmts []string
	switch driver {
	case MySQL:
		stmts = mysqlSchema
	case SQLite:
		stmts = sqliteSchema
	default:
		return fmt.Errorf("unsupported driver %q", driver)
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

// year_month is a reserved word in MySQL and is always quoted.
var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		email VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		name VARCHAR(255) NOT NULL,
		role TINYINT NOT NULL DEFAULT 0,
		hourly_rate DECIMAL(10,2) NULL,
		jti VARCHAR(64) NOT NULL,
		refresh_token_hash CHAR(64) NULL,
		refresh_token_expires_at DATETIME NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		UNIQUE KEY uq_users_email (email),
		UNIQUE KEY uq_users_jti (jti),
		KEY idx_users_refresh_token_hash (refresh_token_hash)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS clients (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		contact_person VARCHAR(255) NOT NULL DEFAULT '',
		email VARCHAR(255) NOT NULL DEFAULT '',
		phone VARCHAR(64) NOT NULL DEFAULT '',
		address TEXT NULL,
		notes TEXT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		KEY idx_clients_name (name)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS projects (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		client_id BIGINT UNSIGNED NOT NULL,
		name VARCHAR(255) NOT NULL,
		description TEXT NULL,
		start_date DATE NULL,
		end_date DATE NULL,
		status VARCHAR(32) NOT NULL DEFAULT 'planning',
		budget DECIMAL(10,2) NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		KEY idx_projects_status (status),
		CONSTRAINT fk_projects_client FOREIGN KEY (client_id) REFERENCES clients(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		project_id BIGINT UNSIGNED NOT NULL,
		title VARCHAR(255) NOT NULL,
		description TEXT NULL,
		start_date DATE NULL,
		due_date DATE NULL,
		status VARCHAR(32) NOT NULL DEFAULT 'not_started',
		priority VARCHAR(16) NOT NULL DEFAULT 'medium',
		estimated_hours DECIMAL(7,2) NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		KEY idx_tasks_status (status),
		KEY idx_tasks_due_date (due_date),
		CONSTRAINT fk_tasks_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		CONSTRAINT fk_tasks_project FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS work_hours (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		task_id BIGINT UNSIGNED NULL,
		work_date DATE NOT NULL,
		start_time TIME NOT NULL,
		end_time TIME NULL,
		hours_worked DECIMAL(5,2) NOT NULL DEFAULT 0,
		activity_description TEXT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		KEY idx_work_hours_work_date (work_date),
		CONSTRAINT fk_work_hours_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		CONSTRAINT fk_work_hours_task FOREIGN KEY (task_id) REFERENCES tasks(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	"CREATE TABLE IF NOT EXISTS monthly_payments (" + `
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		client_id BIGINT UNSIGNED NOT NULL,
		` + "`year_month`" + ` DATE NOT NULL,
		total_amount DECIMAL(12,2) NOT NULL DEFAULT 0,
		currency VARCHAR(8) NOT NULL DEFAULT 'JPY',
		payment_date DATE NULL,
		payment_status VARCHAR(32) NOT NULL DEFAULT 'pending',
		payment_method VARCHAR(64) NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		KEY idx_monthly_payments_status (payment_status),
		KEY idx_monthly_payments_year_month (` + "`year_month`" + `),
		CONSTRAINT fk_monthly_payments_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		CONSTRAINT fk_monthly_payments_client FOREIGN KEY (client_id) REFERENCES clients(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS invoice_items (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		monthly_payment_id BIGINT UNSIGNED NOT NULL,
		description TEXT NOT NULL,
		quantity DECIMAL(8,2) NOT NULL DEFAULT 1,
		unit_price DECIMAL(10,2) NOT NULL,
		amount DECIMAL(12,2) NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		CONSTRAINT fk_invoice_items_payment FOREIGN KEY (monthly_payment_id) REFERENCES monthly_payments(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		name TEXT NOT NULL,
		role INTEGER NOT NULL DEFAULT 0,
		hourly_rate DECIMAL(10,2),
		jti TEXT NOT NULL UNIQUE,
		refresh_token_hash TEXT,
		refresh_token_expires_at DATETIME,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_users_refresh_token_hash ON users (refresh_token_hash)`,
	`CREATE TABLE IF NOT EXISTS clients (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		contact_person TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		address TEXT,
		notes TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS projects (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		client_id INTEGER NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		description TEXT,
		start_date DATE,
		end_date DATE,
		status TEXT NOT NULL DEFAULT 'planning',
		budget DECIMAL(10,2),
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		description TEXT,
		start_date DATE,
		due_date DATE,
		status TEXT NOT NULL DEFAULT 'not_started',
		priority TEXT NOT NULL DEFAULT 'medium',
		estimated_hours DECIMAL(7,2),
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS work_hours (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		task_id INTEGER REFERENCES tasks(id) ON DELETE CASCADE,
		work_date DATE NOT NULL,
		start_time TIME NOT NULL,
		end_time TIME,
		hours_worked DECIMAL(5,2) NOT NULL DEFAULT 0,
		activity_description TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_work_hours_work_date ON work_hours (work_date)`,
	"CREATE TABLE IF NOT EXISTS monthly_payments (" + `
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		client_id INTEGER NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
		` + "`year_month`" + ` DATE NOT NULL,
		total_amount DECIMAL(12,2) NOT NULL DEFAULT 0,
		currency TEXT NOT NULL DEFAULT 'JPY',
		payment_date DATE,
		payment_status TEXT NOT NULL DEFAULT 'pending',
		payment_method TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS invoice_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		monthly_payment_id INTEGER NOT NULL REFERENCES monthly_payments(id) ON DELETE CASCADE,
		description TEXT NOT NULL,
		quantity DECIMAL(8,2) NOT NULL DEFAULT 1,
		unit_price DECIMAL(10,2) NOT NULL,
		amount DECIMAL(12,2) NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
}
