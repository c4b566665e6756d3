// Package domain holds the core model types, fixed vote-module enumerations,
// and the repository interfaces the rest of the application is written
// against. It has no dependencies on storage or transport.
package domain
