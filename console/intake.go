package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DefaultMaxFileBytes bounds the file held in memory during ingest.
const DefaultMaxFileBytes int64 = 64 << 20

// FileBuffer is a whole file held in memory.
type FileBuffer struct {
	Name string
	Data []byte
}

// Size in bytes.
func (f FileBuffer) Size() int {
	return len(f.Data)
}

// SuggestedTable derives a table name from the file name: base name without
// extension, spaces and hyphens replaced by underscores.
func (f FileBuffer) SuggestedTable() string {
	base := strings.TrimSuffix(filepath.Base(f.Name), filepath.Ext(f.Name))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(base)
}

// Inferred is what the boundary reports about a file without committing it.
type Inferred struct {
	Columns  []string
	RowCount int
	Preview  [][]string
}

// Intake buffers files and asks the boundary to infer their columns.
type Intake struct {
	remote       Remote
	maxFileBytes int64
}

// NewIntake returns an Intake. maxFileBytes <= 0 means DefaultMaxFileBytes.
func NewIntake(r Remote, maxFileBytes int64) *Intake {
	if maxFileBytes <= 0 {
		maxFileBytes = DefaultMaxFileBytes
	}
	return &Intake{remote: r, maxFileBytes: maxFileBytes}
}

// ReadFile loads path fully into memory.
func (in *Intake) ReadFile(path string) (FileBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return FileBuffer{}, local("read file", err)
	}
	defer f.Close()
	return in.Read(filepath.Base(path), f)
}

// Read loads r fully into memory, failing once it passes the limit.
func (in *Intake) Read(name string, r io.Reader) (FileBuffer, error) {
	data, err := io.ReadAll(io.LimitReader(r, in.maxFileBytes+1))
	if err != nil {
		return FileBuffer{}, local("read file", err)
	}
	if int64(len(data)) > in.maxFileBytes {
		return FileBuffer{}, fail("read file", fmt.Errorf("%w: %s is over %d bytes", ErrFileTooLarge, name, in.maxFileBytes))
	}
	return FileBuffer{Name: name, Data: data}, nil
}

// Infer uploads the buffered file for column and row count inference,
// splitting fields on delimiter. The row count is an estimate; ingest
// reports the authoritative number.
func (in *Intake) Infer(ctx context.Context, file FileBuffer, delimiter string) (Inferred, error) {
	resp, err := in.remote.Upload(ctx, file.Name, file.Data, "", delimiter)
	if err != nil {
		return Inferred{}, fail("upload", err)
	}
	return Inferred{Columns: resp.Columns, RowCount: resp.RowCount, Preview: resp.Preview}, nil
}
