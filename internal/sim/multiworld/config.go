package multiworld

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"tileworld.ai/internal/protocol"
	"tileworld.ai/internal/sim/tuning"
	"tileworld.ai/internal/sim/world"
	"tileworld.ai/internal/sim/world/terrain/biome"
	"tileworld.ai/internal/sim/world/terrain/noise"
)

type Config struct {
	DefaultWorldID string      `yaml:"default_world_id"`
	Worlds         []WorldSpec `yaml:"worlds"`
}

// WorldSpec overrides the tuning defaults for one world. Empty fields inherit.
type WorldSpec struct {
	ID         string `yaml:"id"`
	Seed       string `yaml:"seed"`
	SeedOffset int64  `yaml:"seed_offset"`

	NoiseBackend string `yaml:"noise_backend,omitempty"`
	AlienMode    string `yaml:"alien_mode,omitempty"`
}

func Load(path string) (Config, error) {
	cfg := defaults()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	cfg = Config{}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("worlds.yaml: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("worlds.yaml: %w", err)
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		DefaultWorldID: "OVERWORLD",
		Worlds: []WorldSpec{
			{ID: "OVERWORLD"},
		},
	}
}

func (c *Config) Normalize() {
	if c == nil {
		return
	}
	for i := range c.Worlds {
		c.Worlds[i].ID = strings.TrimSpace(c.Worlds[i].ID)
		c.Worlds[i].NoiseBackend = strings.ToLower(strings.TrimSpace(c.Worlds[i].NoiseBackend))
		c.Worlds[i].AlienMode = strings.ToLower(strings.TrimSpace(c.Worlds[i].AlienMode))
	}
	if strings.TrimSpace(c.DefaultWorldID) == "" && len(c.Worlds) > 0 {
		c.DefaultWorldID = c.Worlds[0].ID
	}
}

func (c Config) Validate() error {
	c.Normalize()
	if len(c.Worlds) == 0 {
		return fmt.Errorf("worlds must not be empty")
	}
	seen := map[string]bool{}
	for _, w := range c.Worlds {
		if w.ID == "" {
			return fmt.Errorf("world id must not be empty")
		}
		if seen[w.ID] {
			return fmt.Errorf("duplicate world id: %s", w.ID)
		}
		seen[w.ID] = true
		if w.NoiseBackend != "" {
			if _, err := noise.ParseBackend(w.NoiseBackend); err != nil {
				return fmt.Errorf("world %s: %w", w.ID, err)
			}
		}
		if w.AlienMode != "" {
			if _, err := biome.ParseAlienMode(w.AlienMode); err != nil {
				return fmt.Errorf("world %s: %w", w.ID, err)
			}
		}
	}
	if !seen[c.DefaultWorldID] {
		return fmt.Errorf("default_world_id %q not found in worlds", c.DefaultWorldID)
	}
	return nil
}

// WorldConfig resolves w against the tuning defaults. Without an explicit
// seed the world uses the tuning seed, suffixed by seed_offset when set.
func (w WorldSpec) WorldConfig(t tuning.Tuning) (world.WorldConfig, error) {
	seed := w.Seed
	if seed == "" {
		seed = t.Seed
		if w.SeedOffset != 0 {
			seed = fmt.Sprintf("%s#%d", seed, w.SeedOffset)
		}
	}
	if w.NoiseBackend != "" {
		t.NoiseBackend = w.NoiseBackend
	}
	if w.AlienMode != "" {
		t.AlienMode = w.AlienMode
	}
	return t.WorldConfig(w.ID, seed)
}

func (c Config) WorldSpecByID(id string) (WorldSpec, bool) {
	for _, w := range c.Worlds {
		if w.ID == id {
			return w, true
		}
	}
	return WorldSpec{}, false
}

// Manifest lists the configured worlds as sent to clients, sorted by id.
func (c Config) Manifest(t tuning.Tuning) ([]protocol.WorldRef, error) {
	out := make([]protocol.WorldRef, 0, len(c.Worlds))
	for _, w := range c.Worlds {
		wc, err := w.WorldConfig(t)
		if err != nil {
			return nil, err
		}
		out = append(out, protocol.WorldRef{
			WorldID: wc.ID,
			Seed:    wc.Seed,
			Noise:   string(wc.Noise),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WorldID < out[j].WorldID })
	return out, nil
}

// OpenWorld builds the single world id of c (the default world when id is
// empty) without starting a Manager.
func (c Config) OpenWorld(t tuning.Tuning, id string) (*world.World, error) {
	if id == "" {
		id = c.DefaultWorldID
	}
	spec, ok := c.WorldSpecByID(id)
	if !ok {
		return nil, fmt.Errorf("unknown world %q", id)
	}
	wc, err := spec.WorldConfig(t)
	if err != nil {
		return nil, err
	}
	return world.New(wc)
}

// LoadDir loads tuning and worlds config for a command-line tool. Empty paths
// default to tuning.yaml and worlds.yaml under configDir; missing default
// files fall back to built-in defaults.
func LoadDir(configDir, tuningPath, worldsPath string) (tuning.Tuning, Config, error) {
	explicit := strings.TrimSpace(tuningPath) != ""
	if !explicit {
		tuningPath = filepath.Join(configDir, "tuning.yaml")
	}
	t, err := tuning.Load(tuningPath)
	if err != nil && (explicit || !os.IsNotExist(err)) {
		return t, Config{}, err
	}
	if err != nil {
		t = tuning.Defaults()
	}

	if strings.TrimSpace(worldsPath) == "" {
		worldsPath = filepath.Join(configDir, "worlds.yaml")
		if _, err := os.Stat(worldsPath); err != nil {
			worldsPath = ""
		}
	}
	cfg, err := Load(worldsPath)
	return t, cfg, err
}
