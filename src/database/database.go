package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/kryptogain/backend/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	logger.L.Info("Checking database migrations", "databasePath", databasePath)
	migrateTransactionsTable()

	// Amount, price and value are stored as TEXT: they are decimal
	// strings, and REAL columns would reintroduce the binary rounding
	// the whole engine exists to avoid.
	createTableStatement := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		auth_provider TEXT DEFAULT 'local',
		is_email_verified BOOLEAN DEFAULT FALSE,
		email_verification_token TEXT,
		email_verification_token_expires_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		token TEXT NOT NULL,
		refresh_token TEXT NOT NULL,
		user_agent TEXT,
		client_ip TEXT,
		is_blocked BOOLEAN DEFAULT FALSE,
		expires_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		date TEXT NOT NULL,
		tx_type TEXT NOT NULL,
		symbol TEXT,
		amount TEXT NOT NULL,
		price TEXT NOT NULL,
		value TEXT NOT NULL,
		source TEXT,
		raw_text TEXT,
		hash_id TEXT,
		FOREIGN KEY(user_id) REFERENCES users(id),
		UNIQUE(user_id, hash_id)
	);
	`

	if _, err = DB.Exec(createTableStatement); err != nil {
		logger.L.Error("failed to create tables", "error", err)
		stdlog.Fatalf("failed to create tables: %v", err)
	}
	logger.L.Info("Database tables ensured/created.")
}

// migrateTransactionsTable adds columns introduced after the first
// release to existing databases.
func migrateTransactionsTable() {
	var tableName string
	err := DB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='transactions'").Scan(&tableName)
	if err != nil {
		if err == sql.ErrNoRows {
			return // table will be created with the full schema
		}
		logger.L.Error("Error checking for transactions table", "error", err)
		return
	}

	rows, err := DB.Query("PRAGMA table_info(transactions)")
	if err != nil {
		logger.L.Error("Error querying table schema for transactions", "error", err)
		return
	}
	defer rows.Close()

	columnExists := make(map[string]bool)
	for rows.Next() {
		var cid, pk int
		var name, dataType string
		var notnullVal int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &dataType, &notnullVal, &dfltValue, &pk); err != nil {
			logger.L.Error("Error scanning column info for transactions", "error", err)
			return
		}
		columnExists[name] = true
	}
	if err = rows.Err(); err != nil {
		logger.L.Error("Error iterating over column info for transactions", "error", err)
		return
	}

	for _, col := range []struct{ name, ddl string }{
		{"source", "ALTER TABLE transactions ADD COLUMN source TEXT"},
		{"raw_text", "ALTER TABLE transactions ADD COLUMN raw_text TEXT"},
	} {
		if columnExists[col.name] {
			continue
		}
		if _, err := DB.Exec(col.ddl); err != nil {
			logger.L.Error("Error adding column to transactions table", "column", col.name, "error", err)
		} else {
			logger.L.Info("Added column to transactions table", "column", col.name)
		}
	}
}
