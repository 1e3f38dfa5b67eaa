package store

// Migrate creates the schema on startup. Statements are idempotent so
// restarts are safe.
func (s *Store) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			auth0_sub VARCHAR(60) NOT NULL UNIQUE,
			name VARCHAR(100) NOT NULL DEFAULT 'New User',
			email VARCHAR(100)
		)`,
		`CREATE TABLE IF NOT EXISTS categories (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(100) NOT NULL UNIQUE,
			description VARCHAR(255) NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id BIGSERIAL PRIMARY KEY,
			description TEXT NOT NULL,
			amount NUMERIC(12,2) NOT NULL CHECK (amount > 0),
			date TIMESTAMPTZ NOT NULL,
			type VARCHAR(10) NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			category_id BIGINT REFERENCES categories(id) ON DELETE RESTRICT,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions (user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_user_type ON transactions (user_id, type)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_user_date ON transactions (user_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_user_category ON transactions (user_id, category_id)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}
