package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	domaincfg "canvas-engine/domain/config"
)

// Tunables holds the interaction rules that can be overridden from a YAML
// file. Every field is optional; absent fields keep the built-in default.
type Tunables struct {
	Viewport struct {
		MinZoom      *float64 `yaml:"min_zoom"`
		MaxZoom      *float64 `yaml:"max_zoom"`
		ZoomStep     *float64 `yaml:"zoom_step"`
		PinchDamping *float64 `yaml:"pinch_damping"`
	} `yaml:"viewport"`

	Grid struct {
		BaseSpacing *float64 `yaml:"base_spacing"`
	} `yaml:"grid"`

	Nodes struct {
		MinWidth        *float64 `yaml:"min_width"`
		MinHeight       *float64 `yaml:"min_height"`
		MaxWidth        *float64 `yaml:"max_width"`
		MaxHeight       *float64 `yaml:"max_height"`
		DefaultWidth    *float64 `yaml:"default_width"`
		DefaultHeight   *float64 `yaml:"default_height"`
		CollapsedHeight *float64 `yaml:"collapsed_height"`
		MaxPerDocument  *int     `yaml:"max_per_document"`
	} `yaml:"nodes"`

	HitTesting struct {
		ConnectionRadius *float64 `yaml:"connection_radius"`
		ResizeHandleSize *float64 `yaml:"resize_handle_size"`
	} `yaml:"hit_testing"`

	Persistence struct {
		DebounceDelayMS *int `yaml:"debounce_delay_ms"`
		WriteTimeoutMS  *int `yaml:"write_timeout_ms"`
	} `yaml:"persistence"`
}

// LoadDomainConfig returns the interaction configuration, applying any
// overrides from the tunables file at path. An empty path returns the
// defaults unchanged.
func LoadDomainConfig(path string) (*domaincfg.DomainConfig, error) {
	cfg := domaincfg.DefaultDomainConfig()
	if path == "" {
		return cfg, nil
	}

	tunables, err := loadTunablesFromFile(path)
	if err != nil {
		return nil, err
	}
	tunables.applyTo(cfg)

	if err := validateDomainConfig(cfg); err != nil {
		return nil, fmt.Errorf("tunables file %s: %w", path, err)
	}
	return cfg, nil
}

func loadTunablesFromFile(path string) (*Tunables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tunables file: %w", err)
	}

	var t Tunables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse tunables YAML: %w", err)
	}
	return &t, nil
}

func (t *Tunables) applyTo(cfg *domaincfg.DomainConfig) {
	setF := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}

	setF(&cfg.MinZoom, t.Viewport.MinZoom)
	setF(&cfg.MaxZoom, t.Viewport.MaxZoom)
	setF(&cfg.ZoomStep, t.Viewport.ZoomStep)
	setF(&cfg.PinchDamping, t.Viewport.PinchDamping)

	setF(&cfg.GridBaseSpacing, t.Grid.BaseSpacing)

	setF(&cfg.MinNodeWidth, t.Nodes.MinWidth)
	setF(&cfg.MinNodeHeight, t.Nodes.MinHeight)
	setF(&cfg.MaxNodeWidth, t.Nodes.MaxWidth)
	setF(&cfg.MaxNodeHeight, t.Nodes.MaxHeight)
	setF(&cfg.DefaultNodeWidth, t.Nodes.DefaultWidth)
	setF(&cfg.DefaultNodeHeight, t.Nodes.DefaultHeight)
	setF(&cfg.CollapsedNodeHeight, t.Nodes.CollapsedHeight)
	if t.Nodes.MaxPerDocument != nil {
		cfg.MaxNodesPerDocument = *t.Nodes.MaxPerDocument
	}

	setF(&cfg.ConnectionHitRadius, t.HitTesting.ConnectionRadius)
	setF(&cfg.ResizeHandleSize, t.HitTesting.ResizeHandleSize)

	if t.Persistence.DebounceDelayMS != nil {
		cfg.DebounceDelay = time.Duration(*t.Persistence.DebounceDelayMS) * time.Millisecond
	}
	if t.Persistence.WriteTimeoutMS != nil {
		cfg.WriteTimeout = time.Duration(*t.Persistence.WriteTimeoutMS) * time.Millisecond
	}
}

func validateDomainConfig(cfg *domaincfg.DomainConfig) error {
	if cfg.MinZoom <= 0 || cfg.MaxZoom < cfg.MinZoom {
		return fmt.Errorf("zoom range [%v, %v] is invalid", cfg.MinZoom, cfg.MaxZoom)
	}
	if cfg.MinNodeWidth <= 0 || cfg.MaxNodeWidth < cfg.MinNodeWidth {
		return fmt.Errorf("node width range [%v, %v] is invalid", cfg.MinNodeWidth, cfg.MaxNodeWidth)
	}
	if cfg.MinNodeHeight <= 0 || cfg.MaxNodeHeight < cfg.MinNodeHeight {
		return fmt.Errorf("node height range [%v, %v] is invalid", cfg.MinNodeHeight, cfg.MaxNodeHeight)
	}
	if cfg.GridBaseSpacing <= 0 {
		return fmt.Errorf("grid base spacing must be positive")
	}
	if cfg.MaxNodesPerDocument <= 0 {
		return fmt.Errorf("max nodes per document must be positive")
	}
	if cfg.DebounceDelay < 0 {
		return fmt.Errorf("debounce delay cannot be negative")
	}
	return nil
}
