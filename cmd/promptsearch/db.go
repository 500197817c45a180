package main

import (
	"context"
	"fmt"

	"promptsearch/pkg/store"
)

// openStore opens (or creates) the index database read-write, applying the
// schema. dbPath overrides the resolved default when non-empty.
func openStore(ctx context.Context, dbPath string) (*store.Store, error) {
	path, err := resolveDBPath(dbPath)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open index db: %w", err)
	}
	return st, nil
}

// openStoreReadOnly opens the index database read-only, retrying briefly if
// a refresh holds the write lock.
func openStoreReadOnly(ctx context.Context, dbPath string) (*store.Store, error) {
	path, err := resolveDBPath(dbPath)
	if err != nil {
		return nil, err
	}
	st, err := store.OpenReadOnly(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open index db (run `promptsearch refresh` first?): %w", err)
	}
	return st, nil
}

func resolveDBPath(dbPath string) (string, error) {
	if dbPath != "" {
		return dbPath, nil
	}
	paths, err := ResolvePaths()
	if err != nil {
		return "", fmt.Errorf("resolve paths: %w", err)
	}
	return paths.DBPath, nil
}
