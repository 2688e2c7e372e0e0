package repository

// Schema definitions for the rentals database.
// Compatible with both SQLite and PostgreSQL.

// schemaRentals mirrors the rentals_data export. position keeps the
// original row order, which the previous-delay derivation depends on.
const schemaRentals = `
CREATE TABLE IF NOT EXISTS rentals (
    position INTEGER PRIMARY KEY,
    rental_id TEXT NOT NULL DEFAULT '',
    car_id TEXT NOT NULL DEFAULT '',
    checkin_type TEXT NOT NULL DEFAULT '',
    state TEXT NOT NULL DEFAULT '',
    delay_at_checkout_in_minutes REAL,
    previous_ended_rental_id TEXT NOT NULL DEFAULT '',
    time_delta_with_previous_rental_in_minutes REAL
);

CREATE INDEX IF NOT EXISTS idx_rentals_checkin ON rentals(checkin_type);
CREATE INDEX IF NOT EXISTS idx_rentals_state ON rentals(state);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaRentals,
	}
}
