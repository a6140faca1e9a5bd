// Package db provides embedded database schema and seed data.
package db

import _ "embed"

// Schema contains the DDL statements for the catalog tables.
//
//go:embed migrations/001_schema.sql
var Schema string
