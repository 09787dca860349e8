package config

import (
	"fmt"
	"path/filepath"

	"github.com/Veraticus/flowqa/internal/catalog"
	"github.com/Veraticus/flowqa/internal/common"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Settings are the resolved application settings.
type Settings struct {
	DatabasePath    string
	ReportOutputDir string
	LogLevel        string
	LogFormat       string
	HistoryEnabled  bool
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper, home string) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("database.path", filepath.Join(home, ".local", "share", "flowqa", "history.db"))
	v.SetDefault("history.enabled", true)
	v.SetDefault("report.output_dir", ".")
}

// Load reads Settings from v.
func Load(v *viper.Viper) (Settings, error) {
	s := Settings{
		DatabasePath:    ExpandPath(v.GetString("database.path")),
		ReportOutputDir: ExpandPath(v.GetString("report.output_dir")),
		LogLevel:        v.GetString("logging.level"),
		LogFormat:       v.GetString("logging.format"),
		HistoryEnabled:  v.GetBool("history.enabled"),
	}

	if s.HistoryEnabled && s.DatabasePath == "" {
		return s, fmt.Errorf("%w: database.path is required when history is enabled", common.ErrMissingConfig)
	}
	if s.ReportOutputDir == "" {
		s.ReportOutputDir = "."
	}

	return s, nil
}

// LoadCatalog resolves the meter catalog: a catalog.file takes precedence over
// an inline meters list, and the built-in catalog is used when neither is set.
func LoadCatalog(v *viper.Viper) (*catalog.Catalog, error) {
	if path := v.GetString("catalog.file"); path != "" {
		cat, err := catalog.LoadFile(ExpandPath(path))
		if err != nil {
			return nil, fmt.Errorf("%w: catalog.file: %w", common.ErrInvalidConfig, err)
		}
		return cat, nil
	}

	if v.IsSet("meters") {
		entries, err := cast.ToSliceE(v.Get("meters"))
		if err != nil {
			return nil, fmt.Errorf("%w: meters must be a list: %w", common.ErrInvalidConfig, err)
		}
		cat, err := catalog.FromEntries(entries)
		if err != nil {
			return nil, fmt.Errorf("%w: meters: %w", common.ErrInvalidConfig, err)
		}
		return cat, nil
	}

	return catalog.Default(), nil
}
