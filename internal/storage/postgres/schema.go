package postgres

import (
	"context"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS crawl_jobs (
	id          TEXT PRIMARY KEY,
	source_url  TEXT NOT NULL,
	status      TEXT NOT NULL,
	title       TEXT NOT NULL DEFAULT '',
	content     TEXT NOT NULL DEFAULT '',
	images      JSONB NOT NULL DEFAULT '[]',
	metadata    JSONB NOT NULL DEFAULT '{}',
	error_text  TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS product_categories (
	id          BIGSERIAL PRIMARY KEY,
	name        TEXT NOT NULL,
	slug        TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	image       TEXT NOT NULL DEFAULT '',
	sort_order  INT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS post_categories (
	id          BIGSERIAL PRIMARY KEY,
	name        TEXT NOT NULL,
	slug        TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	image       TEXT NOT NULL DEFAULT '',
	sort_order  INT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS products (
	id             BIGSERIAL PRIMARY KEY,
	name           TEXT NOT NULL,
	slug           TEXT NOT NULL UNIQUE,
	description    TEXT NOT NULL DEFAULT '',
	price          DOUBLE PRECISION NOT NULL DEFAULT 0,
	sale_price     DOUBLE PRECISION,
	sku            TEXT NOT NULL DEFAULT '',
	images         JSONB NOT NULL DEFAULT '[]',
	stock          INT NOT NULL DEFAULT 0,
	is_featured    BOOLEAN NOT NULL DEFAULT FALSE,
	specifications TEXT NOT NULL DEFAULT '',
	seo_title      TEXT NOT NULL DEFAULT '',
	seo_desc       TEXT NOT NULL DEFAULT '',
	category_id    BIGINT REFERENCES product_categories(id)
);

CREATE TABLE IF NOT EXISTS posts (
	id             BIGSERIAL PRIMARY KEY,
	title          TEXT NOT NULL,
	slug           TEXT NOT NULL UNIQUE,
	content        TEXT NOT NULL DEFAULT '',
	excerpt        TEXT NOT NULL DEFAULT '',
	featured_image TEXT NOT NULL DEFAULT '',
	tags           JSONB NOT NULL DEFAULT '[]',
	is_featured    BOOLEAN NOT NULL DEFAULT FALSE,
	seo_title      TEXT NOT NULL DEFAULT '',
	seo_desc       TEXT NOT NULL DEFAULT '',
	category_id    BIGINT REFERENCES post_categories(id),
	author_id      BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS pages (
	id             BIGSERIAL PRIMARY KEY,
	title          TEXT NOT NULL,
	slug           TEXT NOT NULL UNIQUE,
	template       TEXT NOT NULL DEFAULT 'page',
	blocks         JSONB NOT NULL DEFAULT '[]',
	excerpt        TEXT NOT NULL DEFAULT '',
	featured_image TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL DEFAULT 'DRAFT',
	is_homepage    BOOLEAN NOT NULL DEFAULT FALSE,
	seo_title      TEXT NOT NULL DEFAULT '',
	seo_desc       TEXT NOT NULL DEFAULT '',
	author_id      BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS menus (
	id       BIGSERIAL PRIMARY KEY,
	name     TEXT NOT NULL,
	slug     TEXT NOT NULL UNIQUE,
	location TEXT NOT NULL DEFAULT '',
	items    JSONB NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS media (
	id            BIGSERIAL PRIMARY KEY,
	filename      TEXT NOT NULL,
	original_name TEXT NOT NULL DEFAULT '',
	path          TEXT NOT NULL,
	url           TEXT NOT NULL,
	mime_type     TEXT NOT NULL DEFAULT '',
	size          BIGINT NOT NULL DEFAULT 0,
	width         INT NOT NULL DEFAULT 0,
	height        INT NOT NULL DEFAULT 0,
	alt           TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL
);
`

// EnsureSchema creates the tables if they do not exist yet.
func EnsureSchema(ctx context.Context, pool dbPool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
