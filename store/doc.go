// Package store is the SQLite persistence layer for quill. It implements
// blog.Store on top of database/sql and the pure-Go modernc.org/sqlite driver.
package store
