package sqlite

import "fmt"

// Catalog of provisioned collections. The stored schema version lives in
// PRAGMA user_version.
const createCatalog = `CREATE TABLE IF NOT EXISTS _collections (
    name TEXT PRIMARY KEY,
    key_path TEXT NOT NULL,
    auto_increment INTEGER NOT NULL
);`

const (
	selectCatalog   = `SELECT name, key_path, auto_increment FROM _collections ORDER BY name`
	insertCatalog   = `INSERT INTO _collections (name, key_path, auto_increment) VALUES (?, ?, ?)`
	selectUserVer   = `PRAGMA user_version`
	setUserVerFmt   = `PRAGMA user_version = %d`
	collectionTable = "c_%s"
)

// Pragmas applied to every connection.
var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 5000",
}

// tableName returns the quoted table that backs a collection. Collection
// names are validated against types.CollectionDef.Validate before use.
func tableName(collection string) string {
	return `"` + fmt.Sprintf(collectionTable, collection) + `"`
}

// createCollectionDDL returns the CREATE TABLE statement for a collection.
// AUTOINCREMENT keeps generated keys above any key ever stored, including
// explicit keys, and never reuses keys of deleted records.
func createCollectionDDL(collection string, autoIncrement bool) string {
	pk := "pk INTEGER PRIMARY KEY"
	if autoIncrement {
		pk += " AUTOINCREMENT"
	}
	return fmt.Sprintf("CREATE TABLE %s (\n    %s,\n    data TEXT NOT NULL\n);", tableName(collection), pk)
}

func selectRecordSQL(collection string) string {
	return fmt.Sprintf("SELECT data FROM %s WHERE pk = ?", tableName(collection))
}

func existsRecordSQL(collection string) string {
	return fmt.Sprintf("SELECT 1 FROM %s WHERE pk = ?", tableName(collection))
}

func insertRecordSQL(collection string) string {
	return fmt.Sprintf("INSERT INTO %s (pk, data) VALUES (?, ?)", tableName(collection))
}

func insertGeneratedSQL(collection string) string {
	return fmt.Sprintf("INSERT INTO %s (data) VALUES (?)", tableName(collection))
}

// selectSequenceSQL reads the largest key ever stored in an AUTOINCREMENT
// table. sqlite_sequence has no row for a table that never held one.
const selectSequenceSQL = `SELECT seq FROM sqlite_sequence WHERE name = ?`

func upsertRecordSQL(collection string) string {
	return fmt.Sprintf("INSERT INTO %s (pk, data) VALUES (?, ?) ON CONFLICT(pk) DO UPDATE SET data = excluded.data", tableName(collection))
}

func deleteRecordSQL(collection string) string {
	return fmt.Sprintf("DELETE FROM %s WHERE pk = ?", tableName(collection))
}

func scanRecordsSQL(collection string) string {
	return fmt.Sprintf("SELECT pk, data FROM %s ORDER BY pk ASC", tableName(collection))
}
