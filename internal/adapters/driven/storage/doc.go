// Package storage holds ranking helpers shared by the document store
// backends. The backends themselves live in the sqlite, postgres and
// memory subpackages.
package storage
