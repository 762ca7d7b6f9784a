package converter

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/danthegoodman1/csv2parquet/csv_loader"
	"github.com/danthegoodman1/csv2parquet/gologger"
	"github.com/danthegoodman1/csv2parquet/parquet_file"
	"github.com/rs/zerolog"
)

const (
	// RequiredColumn must exist or nothing is written
	RequiredColumn = "text"
	// RangeColumn is only used for the time span line of the report
	RangeColumn = "year"
)

var (
	logger = gologger.NewLogger()
)

// Convert loads paths.Source, validates it, writes paths.Dest as parquet and returns paths.Dest.
// The human readable report goes to out.
func Convert(ctx context.Context, paths Paths, out io.Writer) (string, error) {
	ctx = logger.WithContext(ctx)
	logger := zerolog.Ctx(ctx)

	if err := paths.Validate(); err != nil {
		return "", err
	}

	start := time.Now()
	fmt.Fprintf(out, "Reading CSV from: %s\n", paths.Source)

	tbl, err := csv_loader.Load(paths.Source)
	if err != nil {
		return "", fmt.Errorf("error in csv_loader.Load: %w", err)
	}
	logger.Debug().Int("rows", tbl.RowCount).Int("columns", len(tbl.Columns)).Msg("loaded csv")

	Describe(tbl).Write(out)

	if !tbl.HasColumn(RequiredColumn) {
		return "", &SchemaError{Column: RequiredColumn}
	}

	if nulls := tbl.Column(RequiredColumn).NullCount(); nulls > 0 {
		fmt.Fprintf(out, "\n⚠️  Warning: %d records have null text values\n", nulls)
		logger.Warn().Int("nulls", nulls).Str("column", RequiredColumn).Msg("null values in required column")
	}

	fmt.Fprintf(out, "\nSaving Parquet to: %s\n", paths.Dest)
	if err := parquet_file.WriteTable(ctx, paths.Dest, tbl); err != nil {
		return "", fmt.Errorf("error in parquet_file.WriteTable: %w", err)
	}

	info, err := parquet_file.Inspect(paths.Dest)
	if err != nil {
		return "", fmt.Errorf("error in parquet_file.Inspect: %w", err)
	}
	if info.NumRows != int64(tbl.RowCount) {
		return "", fmt.Errorf("wrote %d rows, read back %d: %w", tbl.RowCount, info.NumRows, ErrRowCountDrift)
	}

	fmt.Fprintf(out, "✅ Conversion complete! File size: %.2f MB\n", info.SizeMB())
	logger.Debug().Str("path", info.Path).Int64("bytes", info.SizeBytes).Str("duration", time.Since(start).String()).Msg("conversion complete")

	return paths.Dest, nil
}
