package db

import (
	"database/sql"
	"fmt"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS articles (
    url          TEXT PRIMARY KEY,
    title        TEXT NOT NULL,
    source       TEXT NOT NULL DEFAULT '',
    content      TEXT,
    published_at TIMESTAMPTZ,
    category     TEXT,
    image_url    TEXT,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE TABLE IF NOT EXISTS users (
    id                    BIGSERIAL PRIMARY KEY,
    username              TEXT NOT NULL UNIQUE,
    email                 TEXT NOT NULL UNIQUE,
    password_hash         TEXT NOT NULL,
    is_active             BOOLEAN NOT NULL DEFAULT TRUE,
    notifications_enabled BOOLEAN NOT NULL DEFAULT TRUE,
    notify_topics         BOOLEAN NOT NULL DEFAULT TRUE,
    notify_outlets        BOOLEAN NOT NULL DEFAULT TRUE,
    created_at            TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE TABLE IF NOT EXISTS user_saved_articles (
    user_id     BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    article_url TEXT NOT NULL REFERENCES articles(url),
    saved_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (user_id, article_url)
)`,
	`CREATE TABLE IF NOT EXISTS user_topics (
    user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    topic   TEXT NOT NULL,
    PRIMARY KEY (user_id, topic)
)`,
	`CREATE TABLE IF NOT EXISTS user_outlets (
    user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    outlet  TEXT NOT NULL,
    PRIMARY KEY (user_id, outlet)
)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_published_at ON articles(published_at DESC NULLS LAST)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_category ON articles(category)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_source ON articles(source)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS articles (
    url          TEXT PRIMARY KEY,
    title        TEXT NOT NULL,
    source       TEXT NOT NULL DEFAULT '',
    content      TEXT,
    published_at DATETIME,
    category     TEXT,
    image_url    TEXT,
    created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
	`CREATE TABLE IF NOT EXISTS users (
    id                    INTEGER PRIMARY KEY AUTOINCREMENT,
    username              TEXT NOT NULL UNIQUE,
    email                 TEXT NOT NULL UNIQUE,
    password_hash         TEXT NOT NULL,
    is_active             BOOLEAN NOT NULL DEFAULT 1,
    notifications_enabled BOOLEAN NOT NULL DEFAULT 1,
    notify_topics         BOOLEAN NOT NULL DEFAULT 1,
    notify_outlets        BOOLEAN NOT NULL DEFAULT 1,
    created_at            DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
	`CREATE TABLE IF NOT EXISTS user_saved_articles (
    user_id     INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    article_url TEXT NOT NULL REFERENCES articles(url),
    saved_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (user_id, article_url)
)`,
	`CREATE TABLE IF NOT EXISTS user_topics (
    user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    topic   TEXT NOT NULL,
    PRIMARY KEY (user_id, topic)
)`,
	`CREATE TABLE IF NOT EXISTS user_outlets (
    user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    outlet  TEXT NOT NULL,
    PRIMARY KEY (user_id, outlet)
)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_published_at ON articles(published_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_category ON articles(category)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_source ON articles(source)`,
}

// MigrateUp creates the schema for driver. Every statement is idempotent.
func MigrateUp(db *sql.DB, driver string) error {
	stmts := postgresSchema
	if driver == DriverSQLite {
		stmts = sqliteSchema
	}
	for i, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}

// MigrateDown drops every table. Data is lost.
func MigrateDown(db *sql.DB) error {
	dropStatements := []string{
		`DROP TABLE IF EXISTS user_outlets`,
		`DROP TABLE IF EXISTS user_topics`,
		`DROP TABLE IF EXISTS user_saved_articles`,
		`DROP TABLE IF EXISTS users`,
		`DROP TABLE IF EXISTS articles`,
	}
	for _, stmt := range dropStatements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
