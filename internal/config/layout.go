package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"homeport-qualifier/internal/models"
)

// LoadLayout reads a template layout from a YAML or JSON file. Keys absent
// from the file fall back to the default layout, and LAYOUT_* environment
// variables (LAYOUT_ASSET_TABLE, LAYOUT_SHEET_NAME, ...) override the file.
// An empty path returns the default layout.
func LoadLayout(path string) (*models.Layout, error) {
	if path == "" {
		return models.DefaultLayout(), nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("LAYOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := models.DefaultLayout()
	v.SetDefault("sheet_name", def.SheetName)
	v.SetDefault("asset_table", def.AssetTable)
	v.SetDefault("gift_table", def.GiftTable)
	v.SetDefault("reo_table", def.REOTable)
	v.SetDefault("debt_table", def.DebtTable)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading layout file %s: %w", path, err)
	}

	var layout models.Layout
	if err := v.Unmarshal(&layout); err != nil {
		return nil, fmt.Errorf("failed to unmarshal layout: %w", err)
	}

	out := layout.WithDefaults()
	if err := models.ValidateLayout(out); err != nil {
		return nil, fmt.Errorf("invalid layout %s: %w", path, err)
	}

	return out, nil
}

// ResolveLayout loads the configured layout file and applies the configured
// sheet name when it differs from the default.
func (c *Config) ResolveLayout() (*models.Layout, error) {
	layout, err := LoadLayout(c.LayoutFile)
	if err != nil {
		return nil, err
	}
	if c.SheetName != "" && c.SheetName != models.DefaultSheetName {
		layout.SheetName = c.SheetName
	}
	return layout, nil
}
