// Package testdb provides utilities for Postgres integration tests.
//
// Tests using it should carry the `integration` build tag and are skipped
// unless LEXIS_TEST_DATABASE_URL points at a disposable database.
package testdb
