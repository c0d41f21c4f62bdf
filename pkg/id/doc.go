// Package id generates sortable 128-bit identifiers. The fan-out hub keys
// subscriber connections by them.
//
// Example:
//
//	g := id.NewGenerator()
//	a := g.Next()
//	b := g.Next()
//	_ = a.String() < b.String() // true: later IDs sort after earlier ones
package id
