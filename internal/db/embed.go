package db

import "embed"

// EmbedMigrations holds the schema migrations shipped with the binary so a
// fresh database can be brought up without external files.
//
//go:embed migrations/*.sql
var EmbedMigrations embed.FS
