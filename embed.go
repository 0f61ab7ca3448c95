// Package emaildomains exposes repository-level embedded assets.
package emaildomains

import "embed"

// Migrations holds the goose migration files for the run-history database.
//
//go:embed migrations/*.sql
var Migrations embed.FS
