package store

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/baxromumarov/job-extractor/internal/model"
)

// JSONL writes one JSON object per outcome, one per line. Each line is
// flushed as it is written so an interrupted batch keeps what it finished.
type JSONL struct {
	mu     sync.Mutex
	w      *bufio.Writer
	enc    *json.Encoder
	closer io.Closer
}

func NewJSONL(w io.Writer) *JSONL {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	return &JSONL{w: bw, enc: enc}
}

// CreateJSONL opens path for writing, truncating it. An empty path or "-"
// means stdout, which is never closed.
func CreateJSONL(path string) (*JSONL, error) {
	if path == "" || path == "-" {
		return NewJSONL(os.Stdout), nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output %s: %w", path, err)
	}
	s := NewJSONL(f)
	s.closer = f
	return s, nil
}

func (s *JSONL) Write(_ context.Context, o model.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enc.Encode(o); err != nil {
		return fmt.Errorf("encode outcome: %w", err)
	}
	return s.w.Flush()
}

func (s *JSONL) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.w.Flush()
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
		s.closer = nil
	}
	return err
}
