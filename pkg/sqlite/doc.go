// Package sqlite stores records in a SQLite database using the pure Go modernc.org/sqlite driver.
//
// Open applies the embedded goose migrations before returning the Store.
// Attributes are kept as a JSON object per record; UpdateFields rewrites only
// the given keys with json_set.
package sqlite
