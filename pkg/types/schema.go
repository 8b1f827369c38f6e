package types

import (
	"fmt"
	"regexp"
)

// Standard collection names and the schema version they were introduced at.
const (
	UserCollection = "user"
	SchemaVersion  = 4
)

// CollectionDef describes a collection to provision.
type CollectionDef struct {
	Name          string `json:"name" yaml:"name"`
	KeyPath       string `json:"key_path" yaml:"key_path"`
	AutoIncrement bool   `json:"auto_increment" yaml:"auto_increment"`
}

// Schema is the versioned set of collections a Handle provisions.
type Schema struct {
	Version     uint64
	Collections []CollectionDef
}

var collectionNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Validate checks the collection name and key path.
func (d CollectionDef) Validate() error {
	if !collectionNamePattern.MatchString(d.Name) {
		return fmt.Errorf("%w: name %q must be alphanumeric or underscore and not start with a digit", ErrInvalidCollection, d.Name)
	}
	if d.KeyPath == "" {
		return fmt.Errorf("%w: %s has an empty key path", ErrInvalidCollection, d.Name)
	}
	return nil
}

// Validate checks the version and every collection definition.
func (s Schema) Validate() error {
	if s.Version == 0 {
		return ErrInvalidVersion
	}
	seen := make(map[string]bool, len(s.Collections))
	for _, def := range s.Collections {
		if err := def.Validate(); err != nil {
			return err
		}
		if seen[def.Name] {
			return fmt.Errorf("%w: %s defined twice", ErrInvalidCollection, def.Name)
		}
		seen[def.Name] = true
	}
	return nil
}

// DefaultSchema returns the schema provisioned by recordstore: one
// auto-incrementing "user" collection keyed by "id".
func DefaultSchema() Schema {
	return Schema{
		Version: SchemaVersion,
		Collections: []CollectionDef{
			{Name: UserCollection, KeyPath: "id", AutoIncrement: true},
		},
	}
}
