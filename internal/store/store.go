// Package store holds the result sinks a batch run writes its outcomes to.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/baxromumarov/job-extractor/internal/model"
)

type Sink interface {
	Write(ctx context.Context, o model.Outcome) error
	Close() error
}

const (
	KindJSONL    = "jsonl"
	KindPostgres = "postgres"
	KindSQLite   = "sqlite"
)

// Open builds the sink of the given kind. target is a file path for jsonl
// and sqlite and a connection string for postgres. The postgres table is
// created when missing.
func Open(ctx context.Context, kind, target string) (Sink, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", KindJSONL:
		return CreateJSONL(target)
	case KindSQLite:
		return NewSQLite(ctx, target)
	case KindPostgres:
		if target == "" {
			return nil, errors.New("postgres sink needs a connection string")
		}
		pg, err := NewPostgres(ctx, target)
		if err != nil {
			return nil, err
		}
		if err := pg.RunMigrations(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		return pg, nil
	default:
		return nil, fmt.Errorf("unknown sink %q", kind)
	}
}

// ParseSpec splits a sink spec of the form "kind" or "kind=target". A bare
// kind writes to defaultTarget.
func ParseSpec(spec, defaultTarget string) (kind, target string) {
	kind, target, ok := strings.Cut(strings.TrimSpace(spec), "=")
	if !ok {
		target = defaultTarget
	}
	return strings.ToLower(strings.TrimSpace(kind)), target
}

// ValidKind reports whether kind names a sink Open can build.
func ValidKind(kind string) bool {
	switch kind {
	case "", KindJSONL, KindSQLite, KindPostgres:
		return true
	}
	return false
}

// OpenAll opens one sink per spec and combines several into a Tee. When one
// fails to open, the ones already opened are closed again.
func OpenAll(ctx context.Context, specs []string, defaultTarget string) (Sink, error) {
	if len(specs) == 0 {
		specs = []string{KindJSONL}
	}
	var opened Tee
	for _, spec := range specs {
		kind, target := ParseSpec(spec, defaultTarget)
		s, err := Open(ctx, kind, target)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("open %s sink: %w", kind, err), opened.Close())
		}
		opened = append(opened, s)
	}
	if len(opened) == 1 {
		return opened[0], nil
	}
	return opened, nil
}

// Tee writes every outcome to each sink in order and stops at the first
// failure.
type Tee []Sink

func (t Tee) Write(ctx context.Context, o model.Outcome) error {
	for _, s := range t {
		if err := s.Write(ctx, o); err != nil {
			return err
		}
	}
	return nil
}

func (t Tee) Close() error {
	var errs []error
	for _, s := range t {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
