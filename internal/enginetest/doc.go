// Package enginetest provides a conformance suite for types.Engine
// implementations.
//
// Example usage:
//
//	func TestEngine(t *testing.T) {
//		enginetest.RunEngineTests(t, "SQLite", func(t *testing.T) types.Engine {
//			return NewEngine(t.TempDir())
//		})
//	}
package enginetest
