package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wonny/betascope/internal/contracts"
	"github.com/wonny/betascope/pkg/config"
	"github.com/wonny/betascope/pkg/database"
)

// ErrNoSavedPortfolio is returned by Load when nothing has been saved yet
var ErrNoSavedPortfolio = errors.New("no saved portfolio found")

// Open picks the holdings backend named by STORE_BACKEND
// ⭐ SSOT: 저장소 선택은 여기서만
func Open(ctx context.Context, cfg *config.Config, db *database.DB) (contracts.HoldingStore, error) {
	switch cfg.Store.Backend {
	case config.BackendJSON, "":
		return NewJSONStore(cfg.Store.PortfolioFile), nil
	case config.BackendYAML:
		return NewYAMLStore(yamlPath(cfg.Store.PortfolioFile)), nil
	case config.BackendPostgres:
		if db == nil {
			return nil, fmt.Errorf("postgres store requires a database connection")
		}
		s := NewPostgresStore(db, "default")
		if err := s.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: store backend %q", contracts.ErrUnsupportedSetting, cfg.Store.Backend)
	}
}

// yamlPath swaps a .json extension for .yaml so both files can coexist
func yamlPath(path string) string {
	if ext := filepath.Ext(path); ext == ".json" {
		return path[:len(path)-len(ext)] + ".yaml"
	}
	return path
}

// WriteFileAtomic writes data to a temp file in the same directory, then renames it over path
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
