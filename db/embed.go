// Package db embeds the storefront schema.
package db

import _ "embed"

// Schema holds the idempotent DDL for every storefront table plus the
// built-in roles. It is executed on every startup.
//
//go:embed migrations/001_schema.sql
var Schema string
