// Package view is the query layer over the rendered topic page.
//
// Entities (posts, users, topics) are addressed by an EntityRef instead of a
// hand-built attribute selector. Resolve returns only the elements whose
// nearest ancestor carrying the entity attribute names the same entity, so a
// post quoted inside another post never receives the outer post's updates.
//
// A Document is not safe for concurrent use. All queries and mutations run
// on the reconciliation loop.
package view
