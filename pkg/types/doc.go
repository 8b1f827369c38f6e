// Package types defines the Handle and engine interfaces, the record and
// collection model, configuration, and the error taxonomy shared by the
// recordstore packages.
//
// A Handle owns one named database. The database holds collections; each
// collection stores Records under a unique int64 primary Key that lives
// in-line in the record at the collection's key path.
package types
