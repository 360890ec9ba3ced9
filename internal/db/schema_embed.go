package db

import _ "embed"

// Schema holds the bootstrap SQL for integration tests and local development.
//
//go:embed migrations/0001_init.up.sql
var Schema string
