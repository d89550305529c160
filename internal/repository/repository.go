// Package repository contains data access layer abstractions.
// Implementations live in subpackages (postgres, mongo) and decorators (cache) inside this directory.
package repository

import "errors"

// ErrNotFound is returned by implementations when no record matches the key.
var ErrNotFound = errors.New("record not found")
