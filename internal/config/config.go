package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/quarkfield/lightcone/internal/engine"
)

// Config holds all lightcone configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Core     CoreConfig     `yaml:"core"`
	Graph    GraphConfig    `yaml:"graph"`
}

type ServerConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// CoreConfig tunes the query engine. Zeros fall back to engine defaults.
type CoreConfig struct {
	FloorKey        float64 `yaml:"floor_key"`
	CMax            float64 `yaml:"c_max"`
	DecayRate       float64 `yaml:"decay_rate"`
	BaseResolution  float64 `yaml:"base_resolution"`
	ReferenceScale  float64 `yaml:"reference_scale"`
	MaxResolution   float64 `yaml:"max_resolution"`
	GrowthReference uint64  `yaml:"growth_reference"`
	CapacityCeiling uint64  `yaml:"capacity_ceiling"`
}

type GraphConfig struct {
	// Path names a YAML node-table file; empty disables routing.
	Path string `yaml:"path"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37779,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		Core: CoreConfig{
			FloorKey:       0,
			CMax:           1,
			DecayRate:      0.01,
			BaseResolution: 64,
			ReferenceScale: 10,
		},
	}
}

// Load reads a YAML config file over the defaults. A missing file is not an
// error; the defaults stand.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}

// Options converts the core section into engine options.
func (c *Config) Options() engine.Options {
	return engine.Options{
		FloorKey:        engine.KeyFromFloat(c.Core.FloorKey),
		CMax:            c.Core.CMax,
		DecayRate:       c.Core.DecayRate,
		BaseResolution:  c.Core.BaseResolution,
		ReferenceScale:  c.Core.ReferenceScale,
		MaxResolution:   c.Core.MaxResolution,
		GrowthReference: c.Core.GrowthReference,
		CapacityCeiling: c.Core.CapacityCeiling,
	}
}

// graphNode is one node row of a graph file.
type graphNode struct {
	Position  [3]float64 `yaml:"position"`
	Weight    float64    `yaml:"weight"`
	Absorbing bool       `yaml:"absorbing"`
	Neighbors []int      `yaml:"neighbors"`
}

type graphFile struct {
	Nodes []graphNode `yaml:"nodes"`
}

// LoadGraph reads a YAML node-table file into a routing graph. Absorbing
// nodes are declared with a flag; the file never writes the sentinel value
// directly.
func LoadGraph(path string) (*engine.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read graph: %w", err)
	}

	var gf graphFile
	if err := yaml.Unmarshal(data, &gf); err != nil {
		return nil, fmt.Errorf("parse graph %s: %w", path, err)
	}

	nodes := make([]engine.SpatialNode, len(gf.Nodes))
	for i, n := range gf.Nodes {
		weight := n.Weight
		if n.Absorbing {
			weight = engine.AbsorbingWeight
		}
		nodes[i] = engine.SpatialNode{
			Position:  engine.Position(n.Position),
			Weight:    weight,
			Neighbors: n.Neighbors,
		}
	}

	g, err := engine.NewGraph(nodes)
	if err != nil {
		return nil, fmt.Errorf("graph %s: %w", path, err)
	}
	return g, nil
}
