package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrate creates every table needed by the service.  It is safe to call on
// each start because all statements use IF NOT EXISTS.
//
// Four tables back the ledgers:
//   venues      – administrative venue data, deactivated rather than deleted
//   events      – weekly schedule rows carrying verification_score
//   votes       – one row per (event_id, voter_id), enforced by a unique key
//   suggestions – moderation queue, indexed by status
func Migrate(ctx context.Context, db *sql.DB, d Dialect) error {
	var stmts []string
	switch d {
	case MySQL:
		stmts = mysqlSchema
	case SQLite:
		stmts = sqliteSchema
	default:
		return fmt.Errorf("unknown dialect %q", d)
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS venues (
    id             CHAR(36)     NOT NULL PRIMARY KEY,
    name           VARCHAR(200) NOT NULL,
    address        VARCHAR(300) NOT NULL,
    lat            DOUBLE       NOT NULL,
    lng            DOUBLE       NOT NULL,
    is_accredited  BOOLEAN      NOT NULL DEFAULT FALSE,
    phone          VARCHAR(40)  NULL,
    whatsapp       VARCHAR(40)  NULL,
    instagram_url  VARCHAR(300) NULL,
    website_url    VARCHAR(300) NULL,
    pix_key        VARCHAR(120) NULL,
    description    TEXT         NULL,
    image_url      VARCHAR(500) NULL,
    time_zone      VARCHAR(64)  NOT NULL,
    is_active      BOOLEAN      NOT NULL DEFAULT TRUE,
    created_at     DATETIME(6)  NOT NULL,
    updated_at     DATETIME(6)  NOT NULL,
    INDEX idx_venues_active (is_active)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS events (
    id                 CHAR(36)    NOT NULL PRIMARY KEY,
    venue_id           CHAR(36)    NOT NULL,
    category           VARCHAR(20) NOT NULL,
    day_of_week        TINYINT     NOT NULL,
    time_of_day        CHAR(5)     NOT NULL,
    verification_score INT         NOT NULL DEFAULT 0,
    created_at         DATETIME(6) NOT NULL,
    updated_at         DATETIME(6) NOT NULL,
    INDEX idx_events_venue (venue_id),
    INDEX idx_events_day (day_of_week),
    CONSTRAINT fk_events_venue FOREIGN KEY (venue_id) REFERENCES venues(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS votes (
    id          CHAR(36)     NOT NULL PRIMARY KEY,
    event_id    CHAR(36)     NOT NULL,
    voter_id    VARCHAR(128) NOT NULL,
    direction   VARCHAR(4)   NOT NULL,
    created_at  DATETIME(6)  NOT NULL,
    UNIQUE KEY uq_votes_event_voter (event_id, voter_id),
    CONSTRAINT fk_votes_event FOREIGN KEY (event_id) REFERENCES events(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS suggestions (
    id             CHAR(36)     NOT NULL PRIMARY KEY,
    event_id       CHAR(36)     NULL,
    venue_id       CHAR(36)     NULL,
    submitter_id   VARCHAR(128) NOT NULL,
    kind           VARCHAR(32)  NOT NULL,
    proposed_value TEXT         NOT NULL,
    status         VARCHAR(16)  NOT NULL DEFAULT 'pending',
    created_at     DATETIME(6)  NOT NULL,
    resolved_at    DATETIME(6)  NULL,
    INDEX idx_suggestions_status (status, created_at),
    CONSTRAINT fk_suggestions_event FOREIGN KEY (event_id) REFERENCES events(id),
    CONSTRAINT fk_suggestions_venue FOREIGN KEY (venue_id) REFERENCES venues(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS venues (
    id             TEXT     NOT NULL PRIMARY KEY,
    name           TEXT     NOT NULL,
    address        TEXT     NOT NULL,
    lat            REAL     NOT NULL,
    lng            REAL     NOT NULL,
    is_accredited  BOOLEAN  NOT NULL DEFAULT 0,
    phone          TEXT,
    whatsapp       TEXT,
    instagram_url  TEXT,
    website_url    TEXT,
    pix_key        TEXT,
    description    TEXT,
    image_url      TEXT,
    time_zone      TEXT     NOT NULL,
    is_active      BOOLEAN  NOT NULL DEFAULT 1,
    created_at     DATETIME NOT NULL,
    updated_at     DATETIME NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_venues_active ON venues(is_active)`,
	`CREATE TABLE IF NOT EXISTS events (
    id                 TEXT     NOT NULL PRIMARY KEY,
    venue_id           TEXT     NOT NULL REFERENCES venues(id),
    category           TEXT     NOT NULL,
    day_of_week        INTEGER  NOT NULL,
    time_of_day        TEXT     NOT NULL,
    verification_score INTEGER  NOT NULL DEFAULT 0,
    created_at         DATETIME NOT NULL,
    updated_at         DATETIME NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_events_venue ON events(venue_id)`,
	`CREATE INDEX IF NOT EXISTS idx_events_day ON events(day_of_week)`,
	`CREATE TABLE IF NOT EXISTS votes (
    id          TEXT     NOT NULL PRIMARY KEY,
    event_id    TEXT     NOT NULL REFERENCES events(id),
    voter_id    TEXT     NOT NULL,
    direction   TEXT     NOT NULL,
    created_at  DATETIME NOT NULL,
    UNIQUE (event_id, voter_id)
)`,
	`CREATE TABLE IF NOT EXISTS suggestions (
    id             TEXT     NOT NULL PRIMARY KEY,
    event_id       TEXT     REFERENCES events(id),
    venue_id       TEXT     REFERENCES venues(id),
    submitter_id   TEXT     NOT NULL,
    kind           TEXT     NOT NULL,
    proposed_value TEXT     NOT NULL,
    status         TEXT     NOT NULL DEFAULT 'pending',
    created_at     DATETIME NOT NULL,
    resolved_at    DATETIME
)`,
	`CREATE INDEX IF NOT EXISTS idx_suggestions_status ON suggestions(status, created_at)`,
}
