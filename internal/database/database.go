// Package database opens the repository store named by DATABASE_URI.
package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/repository"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/repository/postgres"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/repository/sqlite"
)

// Driver names a storage backend.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Parse resolves a URI into a driver and its connection string.
//
//	sqlite:///stegano.db       relative file
//	sqlite:////var/lib/s.db    absolute file
//	postgres://user@host/db    PostgreSQL
//
// A bare path is treated as a SQLite file.
func Parse(uri string) (Driver, string, error) {
	uri = strings.TrimSpace(uri)
	switch {
	case uri == "":
		return "", "", fmt.Errorf("empty database uri")
	case strings.HasPrefix(uri, "postgres://"), strings.HasPrefix(uri, "postgresql://"):
		return DriverPostgres, uri, nil
	case strings.HasPrefix(uri, "sqlite:///"):
		path := strings.TrimPrefix(uri, "sqlite:///")
		if path == "" {
			return "", "", fmt.Errorf("sqlite uri %q has no path", uri)
		}
		return DriverSQLite, path, nil
	case strings.Contains(uri, "://"):
		return "", "", fmt.Errorf("unsupported database uri %q", uri)
	default:
		return DriverSQLite, uri, nil
	}
}

// Open connects to the store and migrates its schema.
func Open(ctx context.Context, uri string) (repository.Store, error) {
	driver, dsn, err := Parse(uri)
	if err != nil {
		return nil, err
	}

	switch driver {
	case DriverPostgres:
		return postgres.New(ctx, dsn)
	default:
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		return sqlite.New(dsn)
	}
}
