package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"pairScope/internal/model"
)

// JsonlStorage writes calculation records as JSON lines, either appending
// to a file or to a writer.
type JsonlStorage struct {
	path string
	w    io.Writer
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

// NewJsonlWriter writes records to w, for example os.Stdout.
func NewJsonlWriter(w io.Writer) *JsonlStorage {
	return &JsonlStorage{w: w}
}

// PutCalculations appends a batch of records as JSON lines.
func (s *JsonlStorage) PutCalculations(records []model.CalculationRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.w != nil {
		return writeRecords(s.w, records)
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	return writeRecords(file, records)
}

func writeRecords(w io.Writer, records []model.CalculationRecord) error {
	writer := bufio.NewWriter(w)
	for _, record := range records {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal calculation record: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write calculation record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}
