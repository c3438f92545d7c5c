package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is the full DDL for the entity graph. Id sets are text arrays;
// availability slots are jsonb. The seq columns keep insertion order for
// deterministic tie-breaking in ordered queries.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id          TEXT PRIMARY KEY,
	full_name   TEXT NOT NULL,
	email       TEXT NOT NULL,
	phone       TEXT NOT NULL,
	role        TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS addresses (
	id            TEXT PRIMARY KEY,
	seq           BIGINT GENERATED ALWAYS AS IDENTITY,
	street        TEXT NOT NULL,
	city          TEXT NOT NULL,
	state         TEXT NOT NULL,
	country       TEXT NOT NULL,
	postal_code   TEXT NOT NULL,
	lon           DOUBLE PRECISION,
	lat           DOUBLE PRECISION,
	doctor_id     TEXT NOT NULL DEFAULT '',
	patient_id    TEXT NOT NULL DEFAULT '',
	hospital_id   TEXT NOT NULL DEFAULT '',
	department_id TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_addresses_hospital ON addresses (hospital_id) WHERE hospital_id <> '';

CREATE TABLE IF NOT EXISTS hospitals (
	id             TEXT PRIMARY KEY,
	seq            BIGINT GENERATED ALWAYS AS IDENTITY,
	name           TEXT NOT NULL,
	type           TEXT NOT NULL,
	phone          TEXT NOT NULL DEFAULT '',
	email          TEXT NOT NULL DEFAULT '',
	website        TEXT NOT NULL DEFAULT '',
	address_id     TEXT NOT NULL DEFAULT '',
	doctor_ids     TEXT[] NOT NULL DEFAULT '{}',
	department_ids TEXT[] NOT NULL DEFAULT '{}',
	patient_ids    TEXT[] NOT NULL DEFAULT '{}',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_hospitals_name ON hospitals (LOWER(name));

CREATE TABLE IF NOT EXISTS departments (
	id             TEXT PRIMARY KEY,
	seq            BIGINT GENERATED ALWAYS AS IDENTITY,
	name           TEXT NOT NULL,
	head_doctor_id TEXT NOT NULL DEFAULT '',
	doctor_ids     TEXT[] NOT NULL DEFAULT '{}',
	hospital_id    TEXT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_departments_hospital ON departments (hospital_id);

CREATE TABLE IF NOT EXISTS doctors (
	id                   TEXT PRIMARY KEY,
	seq                  BIGINT GENERATED ALWAYS AS IDENTITY,
	user_id              TEXT NOT NULL,
	specialization       TEXT NOT NULL DEFAULT '',
	medical_license      TEXT NOT NULL,
	experience_years     INT NOT NULL DEFAULT 0,
	hospital_affiliation TEXT NOT NULL DEFAULT '',
	availability         JSONB NOT NULL DEFAULT '[]',
	address_id           TEXT NOT NULL DEFAULT '',
	rating               DOUBLE PRECISION NOT NULL DEFAULT 0,
	patient_ids          TEXT[] NOT NULL DEFAULT '{}',
	appointment_ids      TEXT[] NOT NULL DEFAULT '{}',
	created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_doctors_user ON doctors (user_id);

CREATE TABLE IF NOT EXISTS patients (
	id                  TEXT PRIMARY KEY,
	seq                 BIGINT GENERATED ALWAYS AS IDENTITY,
	user_id             TEXT NOT NULL,
	medical_history     TEXT NOT NULL DEFAULT '',
	allergies           TEXT NOT NULL DEFAULT '',
	prediction_ids      TEXT[] NOT NULL DEFAULT '{}',
	emergency_name      TEXT NOT NULL DEFAULT '',
	emergency_relation  TEXT NOT NULL DEFAULT '',
	emergency_phone     TEXT NOT NULL DEFAULT '',
	address_id          TEXT NOT NULL DEFAULT '',
	hospital_id         TEXT NOT NULL DEFAULT '',
	current_medications TEXT[] NOT NULL DEFAULT '{}',
	appointment_ids     TEXT[] NOT NULL DEFAULT '{}',
	created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_patients_user ON patients (user_id);

CREATE TABLE IF NOT EXISTS appointments (
	id               TEXT PRIMARY KEY,
	seq              BIGINT GENERATED ALWAYS AS IDENTITY,
	patient_id       TEXT NOT NULL,
	doctor_id        TEXT NOT NULL,
	hospital_id      TEXT NOT NULL,
	user_id          TEXT NOT NULL,
	appointment_date TIMESTAMPTZ NOT NULL,
	status           TEXT NOT NULL,
	notes            TEXT NOT NULL DEFAULT '',
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_appointments_patient ON appointments (patient_id);
CREATE INDEX IF NOT EXISTS idx_appointments_doctor ON appointments (doctor_id);
CREATE INDEX IF NOT EXISTS idx_appointments_hospital ON appointments (hospital_id);

CREATE TABLE IF NOT EXISTS predictions (
	id                TEXT PRIMARY KEY,
	seq               BIGINT GENERATED ALWAYS AS IDENTITY,
	user_id           TEXT NOT NULL,
	predicted_disease TEXT NOT NULL,
	description       TEXT NOT NULL DEFAULT '',
	precautions       TEXT[] NOT NULL DEFAULT '{}',
	medications       TEXT[] NOT NULL DEFAULT '{}',
	workout           TEXT[] NOT NULL DEFAULT '{}',
	diets             TEXT[] NOT NULL DEFAULT '{}',
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_predictions_user ON predictions (user_id);
`

// EnsureSchema creates all tables and indexes if they do not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}
