package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ApplySchema creates the tables if they do not exist. Idempotent; runs at
// startup.
func ApplySchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schemaDDL)
	return err
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS branches (
	id         BIGSERIAL PRIMARY KEY,
	name       TEXT NOT NULL,
	is_active  BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS delivery_slots (
	id            BIGSERIAL PRIMARY KEY,
	branch_id     BIGINT NOT NULL REFERENCES branches(id),
	day_of_week   SMALLINT NOT NULL DEFAULT 0,
	start_minute  SMALLINT NOT NULL,
	end_minute    SMALLINT NOT NULL,
	is_active     BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS products (
	id    BIGSERIAL PRIMARY KEY,
	sku   TEXT NOT NULL UNIQUE,
	name  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS carts (
	id          BIGSERIAL PRIMARY KEY,
	user_id     BIGINT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'ACTIVE',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS cart_items (
	id          BIGSERIAL PRIMARY KEY,
	cart_id     BIGINT NOT NULL REFERENCES carts(id),
	product_id  BIGINT NOT NULL REFERENCES products(id),
	quantity    INT NOT NULL CHECK (quantity > 0),
	unit_price  NUMERIC(12,2) NOT NULL
);

CREATE TABLE IF NOT EXISTS inventory (
	id                  BIGSERIAL PRIMARY KEY,
	product_id          BIGINT NOT NULL REFERENCES products(id),
	branch_id           BIGINT NOT NULL REFERENCES branches(id),
	available_quantity  INT NOT NULL DEFAULT 0 CHECK (available_quantity >= 0),
	reserved_quantity   INT NOT NULL DEFAULT 0 CHECK (reserved_quantity >= 0),
	reorder_point       INT NOT NULL DEFAULT 0,
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (product_id, branch_id)
);

CREATE TABLE IF NOT EXISTS idempotency_keys (
	id                BIGSERIAL PRIMARY KEY,
	user_id           BIGINT NOT NULL,
	key               TEXT NOT NULL,
	request_hash      TEXT NOT NULL,
	status            TEXT NOT NULL DEFAULT 'IN_PROGRESS',
	response_payload  JSONB,
	status_code       INT,
	order_id          BIGINT,
	expires_at        TIMESTAMPTZ NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (user_id, key)
);

CREATE TABLE IF NOT EXISTS orders (
	id                BIGSERIAL PRIMARY KEY,
	order_number      TEXT NOT NULL UNIQUE,
	user_id           BIGINT NOT NULL,
	branch_id         BIGINT NOT NULL REFERENCES branches(id),
	fulfillment_type  TEXT NOT NULL,
	status            TEXT NOT NULL DEFAULT 'CREATED',
	total_amount      NUMERIC(12,2) NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS order_items (
	id             BIGSERIAL PRIMARY KEY,
	order_id       BIGINT NOT NULL REFERENCES orders(id),
	product_id     BIGINT NOT NULL,
	name           TEXT NOT NULL,
	sku            TEXT NOT NULL,
	unit_price     NUMERIC(12,2) NOT NULL,
	quantity       INT NOT NULL CHECK (quantity > 0),
	picked_status  TEXT NOT NULL DEFAULT 'PENDING'
);

CREATE TABLE IF NOT EXISTS order_delivery_details (
	order_id          BIGINT PRIMARY KEY REFERENCES orders(id),
	delivery_slot_id  BIGINT REFERENCES delivery_slots(id),
	address           TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS order_pickup_details (
	order_id             BIGINT PRIMARY KEY REFERENCES orders(id),
	branch_id            BIGINT NOT NULL REFERENCES branches(id),
	pickup_window_start  TIMESTAMPTZ NOT NULL,
	pickup_window_end    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS payment_tokens (
	id          BIGSERIAL PRIMARY KEY,
	user_id     BIGINT NOT NULL,
	provider    TEXT NOT NULL,
	is_active   BOOLEAN NOT NULL DEFAULT TRUE,
	is_default  BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_cart_items_cart ON cart_items(cart_id);
CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id);
CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id);
`
