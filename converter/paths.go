package converter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

const (
	DataDir    = "data"
	SourceFile = "f1_gp_winners_processed.csv"
	DestFile   = "f1_gp_winners.parquet"
)

type Paths struct {
	Source string `validate:"required,endswith=.csv"`
	Dest   string `validate:"required,endswith=.parquet"`
}

var validate = validator.New()

// ExecutableRoot is the parent of the directory holding the running binary, so a binary at
// <root>/bin/csv2parquet resolves to <root>.
func ExecutableRoot() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("error in os.Executable: %w", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("error in filepath.EvalSymlinks: %w", err)
	}
	return filepath.Dir(filepath.Dir(exe)), nil
}

// ResolvePaths returns the fixed source and destination under <root>/data
func ResolvePaths(root string) (Paths, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return Paths{}, fmt.Errorf("error in filepath.Abs: %w", err)
	}
	paths := Paths{
		Source: filepath.Join(root, DataDir, SourceFile),
		Dest:   filepath.Join(root, DataDir, DestFile),
	}
	if err := paths.Validate(); err != nil {
		return Paths{}, err
	}
	return paths, nil
}

func (p Paths) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid paths: %w", err)
	}
	if p.Source == p.Dest {
		return fmt.Errorf("invalid paths: source and destination are both %s", p.Source)
	}
	return nil
}
