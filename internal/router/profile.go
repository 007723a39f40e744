package router

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nerrad567/languard-core/internal/infrastructure/config"
)

// Profile identifies and authenticates one router.
type Profile struct {
	Brand    string `yaml:"brand"`
	Address  string `yaml:"ip"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// LoadProfile reads a router profile file. Both the legacy JSON layout
// ({"brand", "ip", "username", "password"}) and the same keys in YAML are
// accepted, since YAML is a superset of JSON.
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("reading router profile: %w", err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("parsing router profile %s: %w", path, err)
	}
	if p.Brand == "" {
		return Profile{}, fmt.Errorf("router profile %s: brand not specified", path)
	}
	return p, nil
}

// ProfileFromConfig builds the profile from the router section. A
// profile_path takes precedence over the inline fields.
func ProfileFromConfig(cfg config.RouterConfig) (Profile, error) {
	if cfg.ProfilePath != "" {
		return LoadProfile(cfg.ProfilePath)
	}
	return Profile{
		Brand:    cfg.Brand,
		Address:  cfg.Address,
		Username: cfg.Username,
		Password: cfg.Password,
	}, nil
}
