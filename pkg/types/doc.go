// Package types defines the Shelf and Table interfaces, the manga and tag
// entities, the query filter model, and the standard errors for mangashelf.
//
// See docs/ARCHITECTURE § Main Interface.
package types
