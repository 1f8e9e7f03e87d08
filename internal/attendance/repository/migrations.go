package repository

// Migrations is the attendance schema, applied in order by database.Migrate.
// Never edit a released entry; append a new one.
var Migrations = []string{
	// 1: directory tables, kept in sync from directory events. Rows are soft
	// deleted so attendance history keeps its agent.
	`
	CREATE TABLE IF NOT EXISTS clients (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		deleted_at TIMESTAMPTZ
	);

	CREATE TABLE IF NOT EXISTS agents (
		id              TEXT PRIMARY KEY,
		name            TEXT NOT NULL,
		position        TEXT NOT NULL DEFAULT '',
		client_id       TEXT,
		works_from_home BOOLEAN NOT NULL DEFAULT FALSE,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		deleted_at      TIMESTAMPTZ
	);

	CREATE INDEX IF NOT EXISTS idx_agents_client ON agents(client_id);
	CREATE INDEX IF NOT EXISTS idx_agents_name ON agents(name);
	`,

	// 2: attendance entries
	`
	CREATE TABLE IF NOT EXISTS attendance_entries (
		id          UUID PRIMARY KEY,
		agent_id    TEXT NOT NULL REFERENCES agents(id),
		entry_date  DATE NOT NULL,
		status      TEXT NOT NULL,
		extra_hours NUMERIC(5,2) NOT NULL DEFAULT 0,
		client_id   TEXT,
		updated_by  TEXT,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),

		CONSTRAINT attendance_entries_agent_date_key UNIQUE (agent_id, entry_date),
		CONSTRAINT attendance_entries_status_valid CHECK (status IN (
			'present-office', 'present-home', 'absent', 'sick-leave',
			'vacation', 'holiday', 'day-off', 'work-holiday', 'unset'
		)),
		CONSTRAINT attendance_entries_extra_hours_positive CHECK (extra_hours >= 0)
	);

	CREATE INDEX IF NOT EXISTS idx_attendance_entries_date ON attendance_entries(entry_date);
	`,
}
