// Package sqlbundle carries the relational DDL applied by the Postgres
// persistent store on startup.
package sqlbundle

import "strings"

const postgresDDL = `
CREATE TABLE IF NOT EXISTS principals (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	surname TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS products (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	price DOUBLE PRECISION NOT NULL CHECK (price >= 0),
	stock INTEGER NOT NULL CHECK (stock >= 0),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS customers (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	surname TEXT NOT NULL DEFAULT '',
	company TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL UNIQUE,
	phone TEXT NOT NULL DEFAULT '',
	owner TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS orders (
	id TEXT PRIMARY KEY,
	owner TEXT NOT NULL,
	customer_id TEXT NOT NULL,
	status TEXT NOT NULL,
	total DOUBLE PRECISION NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS order_items (
	order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	product_id TEXT NOT NULL,
	quantity INTEGER NOT NULL CHECK (quantity > 0),
	unit_price DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (order_id, position)
);

CREATE INDEX IF NOT EXISTS idx_customers_owner ON customers(owner);

CREATE INDEX IF NOT EXISTS idx_orders_owner ON orders(owner);

CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
`

// Postgres returns the DDL bundle for the Postgres dialect.
func Postgres() string {
	return postgresDDL
}

// SplitStatements splits a DDL bundle into individual statements. Statements
// are separated by a semicolon at end of line; the DDL carries no string
// literals containing semicolons.
func SplitStatements(bundle string) []string {
	parts := strings.Split(bundle, ";")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		out = append(out, strings.TrimSpace(part)+";")
	}
	return out
}
