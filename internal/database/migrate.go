package database

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
)

// migrations are applied in order and are individually idempotent.
var migrations = []struct {
	name string
	stmt string
}{
	{
		name: "create_users",
		stmt: `CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			auth_id TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			character_id TEXT,
			character_start_date DATE,
			current_streak INTEGER NOT NULL DEFAULT 0,
			longest_streak INTEGER NOT NULL DEFAULT 0,
			last_app_open_date DATE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	},
	{
		name: "create_characters",
		stmt: `CREATE TABLE IF NOT EXISTS characters (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			emoji TEXT,
			location TEXT,
			age_group TEXT,
			gender TEXT,
			chapter_count INTEGER NOT NULL DEFAULT 0
		)`,
	},
	{
		name: "create_conversations",
		stmt: `CREATE TABLE IF NOT EXISTS conversations (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			scenario TEXT NOT NULL,
			journal_context TEXT NOT NULL DEFAULT '',
			difficulty_level INTEGER NOT NULL DEFAULT 1,
			dialogue JSONB NOT NULL DEFAULT '[]'::jsonb,
			day_number INTEGER NOT NULL DEFAULT 1,
			time_of_day TEXT,
			location TEXT,
			description TEXT,
			character_id TEXT REFERENCES characters(id),
			is_library BOOLEAN NOT NULL DEFAULT false,
			imported BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	},
	{
		name: "index_conversations_library_order",
		stmt: `CREATE INDEX IF NOT EXISTS idx_conversations_library_order
			ON conversations (day_number, id) WHERE is_library`,
	},
	{
		name: "create_user_conversation_completions",
		stmt: `CREATE TABLE IF NOT EXISTS user_conversation_completions (
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			conversation_id UUID NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
			sentences_practiced INTEGER NOT NULL DEFAULT 0,
			completion_percentage DOUBLE PRECISION NOT NULL DEFAULT 100,
			completed_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (user_id, conversation_id)
		)`,
	},
	{
		name: "create_user_stats",
		stmt: `CREATE TABLE IF NOT EXISTS user_stats (
			user_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
			total_sentences INTEGER NOT NULL DEFAULT 0,
			total_expressions INTEGER NOT NULL DEFAULT 0,
			current_streak INTEGER NOT NULL DEFAULT 0,
			longest_streak INTEGER NOT NULL DEFAULT 0,
			last_practice_date DATE,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	},
	{
		name: "create_daily_practice_log",
		stmt: `CREATE TABLE IF NOT EXISTS daily_practice_log (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			practice_date DATE NOT NULL,
			sentences_count INTEGER NOT NULL DEFAULT 0,
			conversations_count INTEGER NOT NULL DEFAULT 0,
			UNIQUE (user_id, practice_date)
		)`,
	},
	{
		name: "create_saved_expressions",
		stmt: `CREATE TABLE IF NOT EXISTS saved_expressions (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			conversation_id UUID REFERENCES conversations(id) ON DELETE SET NULL,
			english_expression TEXT NOT NULL,
			korean_thought TEXT NOT NULL,
			context TEXT,
			category TEXT,
			mastery_level INTEGER NOT NULL DEFAULT 0,
			practice_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	},
	{
		name: "index_saved_expressions_user",
		stmt: `CREATE INDEX IF NOT EXISTS idx_saved_expressions_user
			ON saved_expressions (user_id, created_at DESC)`,
	},
	{
		name: "create_user_character_progress",
		stmt: `CREATE TABLE IF NOT EXISTS user_character_progress (
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			character_id TEXT NOT NULL REFERENCES characters(id),
			current_chapter INTEGER NOT NULL DEFAULT 1,
			chapters_completed INTEGER NOT NULL DEFAULT 0,
			started_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			last_played_at TIMESTAMPTZ,
			PRIMARY KEY (user_id, character_id)
		)`,
	},
}

// Migrate applies the schema. Statements are idempotent so re-running is
// safe.
func Migrate(db *sql.DB) error {
	for _, m := range migrations {
		log.Debug().Str("migration", m.name).Msg("applying migration")
		if _, err := db.Exec(m.stmt); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", m.name, err)
		}
	}
	return nil
}
