package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"ammPool/internal/model"
)

func TestJsonlStorageAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "logs.jsonl")
	sink := NewJsonlStorage(path)

	if err := sink.PutLogBatch(nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("empty batch should not create the file")
	}

	if err := sink.PutLogBatch([]model.LogRecord{{BlockNumber: 1}, {BlockNumber: 2}}); err != nil {
		t.Fatalf("first batch: %v", err)
	}
	if err := sink.PutLogBatch([]model.LogRecord{{BlockNumber: 3}}); err != nil {
		t.Fatalf("second batch: %v", err)
	}

	var blocks []uint64
	err := ScanJSONL(path, func(_ int, line []byte) error {
		var record model.LogRecord
		if err := json.Unmarshal(line, &record); err != nil {
			return err
		}
		blocks = append(blocks, record.BlockNumber)
		return nil
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(blocks) != 3 || blocks[0] != 1 || blocks[2] != 3 {
		t.Fatalf("unexpected blocks: %v", blocks)
	}
}

func TestScanJSONLSkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ops.jsonl")
	if err := os.WriteFile(path, []byte("{\"a\":1}\n\n  \n{\"a\":2}\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	var lines []int
	err := ScanJSONL(path, func(lineNo int, _ []byte) error {
		lines = append(lines, lineNo)
		return nil
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(lines) != 2 || lines[0] != 1 || lines[1] != 4 {
		t.Fatalf("unexpected line numbers: %v", lines)
	}

	stop := errors.New("stop")
	if err := ScanJSONL(path, func(int, []byte) error { return stop }); !errors.Is(err, stop) {
		t.Fatalf("expected callback error, got %v", err)
	}
}

type failingSink struct{ err error }

func (f failingSink) PutLogBatch([]model.LogRecord) error { return f.err }

func TestMultiJoinsErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.jsonl")
	boom := errors.New("boom")
	multi := Multi{failingSink{err: boom}, NewJsonlStorage(path), nil}

	err := multi.PutLogBatch([]model.LogRecord{{BlockNumber: 9}})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("second sink should still be written: %v", err)
	}
}
