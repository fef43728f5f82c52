package ports

import (
	"context"

	"assesstime/domain/actionlog"
	"assesstime/domain/core"
)

// TableReaderPort loads one tabular source (CSV or spreadsheet) into memory
type TableReaderPort interface {
	ReadTable(ctx context.Context, source string) (*actionlog.Table, error)
}

// TableReaderFunc adapts a function to TableReaderPort
type TableReaderFunc func(ctx context.Context, source string) (*actionlog.Table, error)

func (f TableReaderFunc) ReadTable(ctx context.Context, source string) (*actionlog.Table, error) {
	return f(ctx, source)
}

// InputFingerprintPort hashes a source's content for the run manifest
type InputFingerprintPort interface {
	Fingerprint(ctx context.Context, source string) (core.InputHash, error)
}
