// Package storage defines the object-storage capability the cleaner runs
// against. Backends live in internal/aws/s3 and internal/minio.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Object is a single listed object.
type Object struct {
	Key          string
	LastModified time.Time
	Size         int64
}

// Lister returns every object under prefix, following continuation
// tokens until the listing is exhausted.
type Lister interface {
	ListAllObjects(ctx context.Context, bucket, prefix string) ([]Object, error)
}

// Deleter removes a set of keys. One call covers one unit of work; a
// backend may split it into several requests to respect service limits.
type Deleter interface {
	DeleteObjects(ctx context.Context, bucket string, keys []string) error
}

type Storage interface {
	Lister
	Deleter
}

// KeyError describes a key the service refused to delete.
type KeyError struct {
	Key     string
	Code    string
	Message string
}

func (e KeyError) String() string {
	if e.Code == "" {
		return fmt.Sprintf("%s: %s", e.Key, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Key, e.Code, e.Message)
}

// PartialDeleteError is returned when a batch delete call succeeded but the
// service reported per-key failures.
type PartialDeleteError struct {
	Requested int
	Failed    []KeyError
}

func (e *PartialDeleteError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d of %d keys not deleted", len(e.Failed), e.Requested)
	for i, f := range e.Failed {
		if i == 3 {
			fmt.Fprintf(&b, " (and %d more)", len(e.Failed)-i)
			break
		}
		b.WriteString("; ")
		b.WriteString(f.String())
	}
	return b.String()
}
