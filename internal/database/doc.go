// Package database holds the PostgreSQL adapter: pooled connections, embedded
// schema migrations, and repository implementations for the domain interfaces.
package database
