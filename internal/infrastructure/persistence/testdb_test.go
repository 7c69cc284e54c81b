package persistence

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB creates an in-memory SQLite database with the marketplace tables
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE profiles (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			full_name TEXT NOT NULL,
			phone TEXT,
			avatar_url TEXT,
			bio TEXT,
			role TEXT NOT NULL,
			is_verified INTEGER NOT NULL DEFAULT 0,
			last_login_at DATETIME,
			last_login_ip TEXT,
			last_login_device TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE properties (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT,
			property_type TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'available',
			price NUMERIC NOT NULL,
			currency TEXT NOT NULL DEFAULT 'USD',
			bedrooms INTEGER NOT NULL DEFAULT 0,
			bathrooms REAL NOT NULL DEFAULT 0,
			square_feet INTEGER NOT NULL DEFAULT 0,
			address TEXT NOT NULL,
			city TEXT NOT NULL,
			state TEXT,
			zip_code TEXT,
			latitude REAL,
			longitude REAL,
			amenities TEXT,
			images TEXT,
			pets_allowed INTEGER NOT NULL DEFAULT 0,
			furnished INTEGER NOT NULL DEFAULT 0,
			available_from DATETIME,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE saved_properties (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			property_id TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			UNIQUE(user_id, property_id)
		)`,
		`CREATE TABLE applications (
			id TEXT PRIMARY KEY,
			property_id TEXT NOT NULL,
			applicant_id TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			message TEXT,
			move_in_date DATETIME,
			monthly_income NUMERIC,
			occupants INTEGER NOT NULL DEFAULT 1,
			reviewed_by TEXT,
			reviewed_at DATETIME,
			review_note TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE conversations (
			id TEXT PRIMARY KEY,
			property_id TEXT,
			participant_one_id TEXT NOT NULL,
			participant_two_id TEXT NOT NULL,
			last_message_at DATETIME NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE UNIQUE INDEX idx_conversation_pair ON conversations
			(COALESCE(property_id, ''), participant_one_id, participant_two_id)`,
		`CREATE TABLE messages (
			id TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			sender_id TEXT NOT NULL,
			body TEXT NOT NULL,
			read_at DATETIME,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE search_alerts (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			city TEXT,
			state TEXT,
			property_type TEXT,
			min_price NUMERIC,
			max_price NUMERIC,
			min_bedrooms INTEGER,
			min_bathrooms REAL,
			pets_allowed INTEGER,
			furnished INTEGER,
			frequency TEXT NOT NULL DEFAULT 'instant',
			is_active INTEGER NOT NULL DEFAULT 1,
			last_notified_at DATETIME,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE agents (
			id TEXT PRIMARY KEY,
			profile_id TEXT NOT NULL UNIQUE,
			license_number TEXT NOT NULL,
			agency TEXT,
			bio TEXT,
			specialties TEXT,
			years_experience INTEGER NOT NULL DEFAULT 0,
			is_verified INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE agent_assignments (
			id TEXT PRIMARY KEY,
			agent_id TEXT NOT NULL,
			landlord_id TEXT NOT NULL,
			property_id TEXT,
			can_edit_listings INTEGER NOT NULL DEFAULT 0,
			can_manage_applications INTEGER NOT NULL DEFAULT 0,
			can_message_tenants INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'active',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE payments (
			id TEXT PRIMARY KEY,
			payer_id TEXT NOT NULL,
			payee_id TEXT NOT NULL,
			property_id TEXT NOT NULL,
			application_id TEXT,
			amount NUMERIC NOT NULL,
			currency TEXT NOT NULL DEFAULT 'USD',
			payment_type TEXT NOT NULL,
			provider TEXT NOT NULL,
			provider_payment_id TEXT,
			status TEXT NOT NULL DEFAULT 'pending',
			checkout_url TEXT,
			client_secret TEXT,
			description TEXT,
			idempotency_key TEXT,
			paid_at DATETIME,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			UNIQUE(payer_id, idempotency_key)
		)`,
		`CREATE TABLE escrow_transactions (
			id TEXT PRIMARY KEY,
			payment_id TEXT,
			property_id TEXT NOT NULL,
			payer_id TEXT NOT NULL,
			payee_id TEXT NOT NULL,
			amount NUMERIC NOT NULL,
			currency TEXT NOT NULL DEFAULT 'USD',
			status TEXT NOT NULL DEFAULT 'held',
			description TEXT,
			release_conditions TEXT,
			dispute_reason TEXT,
			held_at DATETIME NOT NULL,
			released_at DATETIME,
			refunded_at DATETIME,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}
