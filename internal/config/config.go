// Package config loads service configuration from environment variables,
// with an optional YAML competition-roster file for per-user starting
// capital. Loaded once at startup and held immutable thereafter.
package config

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Network selects which Hyperliquid deployment to talk to.
type Network int

const (
	Mainnet Network = iota
	Testnet
)

func (n Network) String() string {
	if n == Testnet {
		return "testnet"
	}
	return "mainnet"
}

// NetworkFromEnv reads HL_NETWORK, defaulting to Mainnet unless the value
// is exactly "testnet" (fail-safe: an unrecognized value stays on mainnet
// rather than silently switching networks).
func NetworkFromEnv() Network {
	if strings.ToLower(strings.TrimSpace(os.Getenv("HL_NETWORK"))) == "testnet" {
		return Testnet
	}
	return Mainnet
}

// FillSource selects whether the indexer serves user fills from the
// paginated API (C3) or the real-time streaming collector (C4).
type FillSource int

const (
	FillSourceAPI FillSource = iota
	FillSourceWebSocket
)

// FillSourceFromEnv reads FILL_SOURCE ("websocket" or "ws" select
// streaming; anything else, including unset, selects the API).
func FillSourceFromEnv() FillSource {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("FILL_SOURCE"))) {
	case "websocket", "ws":
		return FillSourceWebSocket
	default:
		return FillSourceAPI
	}
}

// Competition holds the target-builder/competition-roster configuration
// (spec.md §3 "CompetitionConfig"), constructed once at startup.
type Competition struct {
	TargetBuilder    string // lowercased address, "" if unconfigured
	BuilderOnly      bool
	CompetitionUsers []string // lowercased addresses

	// MaxStartCapital is an optional supplement to spec.md's CompetitionConfig:
	// a per-user starting-capital table loaded from COMPETITION_CONFIG_FILE.
	// indexer.CalculateLeaderboard consults it as a per-user fallback in
	// leaderboard.Config.PerUserMaxStartCapital when a request omits the
	// maxStartCapital query parameter for a given user.
	MaxStartCapital map[string]float64
}

// Config is the full set of environment-derived server configuration.
type Config struct {
	Network     Network
	Host        string
	Port        string
	FillSource  FillSource
	Competition Competition
}

var (
	loaded     *Config
	loadedOnce sync.Once
)

// Load reads environment variables into a Config, memoizing the result
// with sync.Once the way the teacher's addresses.go memoizes its
// network-address table.
func Load() *Config {
	loadedOnce.Do(func() {
		loaded = &Config{
			Network:    NetworkFromEnv(),
			Host:       envOrDefault("HOST", "0.0.0.0"),
			Port:       envOrDefault("PORT", "3000"),
			FillSource: FillSourceFromEnv(),
			Competition: Competition{
				TargetBuilder:    strings.ToLower(strings.TrimSpace(os.Getenv("TARGET_BUILDER"))),
				BuilderOnly:      envBool("BUILDER_ONLY", false),
				CompetitionUsers: parseUserList(os.Getenv("COMPETITION_USERS")),
				MaxStartCapital:  map[string]float64{},
			},
		}

		if path := strings.TrimSpace(os.Getenv("COMPETITION_CONFIG_FILE")); path != "" {
			if roster, err := loadCompetitionRoster(path); err == nil {
				if len(roster.Users) > 0 {
					loaded.Competition.CompetitionUsers = roster.lowercasedUsers()
				}
				loaded.Competition.MaxStartCapital = roster.capitalByUser()
			}
		}
	})
	return loaded
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return fallback
	}
	return v == "true"
}

func parseUserList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	users := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			users = append(users, p)
		}
	}
	return users
}

// competitionRoster is the shape of an optional COMPETITION_CONFIG_FILE.
type competitionRoster struct {
	Users []rosterUser `yaml:"users"`
}

type rosterUser struct {
	Address         string  `yaml:"address"`
	MaxStartCapital float64 `yaml:"max_start_capital"`
}

func (r competitionRoster) lowercasedUsers() []string {
	users := make([]string, 0, len(r.Users))
	for _, u := range r.Users {
		users = append(users, strings.ToLower(strings.TrimSpace(u.Address)))
	}
	return users
}

func (r competitionRoster) capitalByUser() map[string]float64 {
	m := make(map[string]float64, len(r.Users))
	for _, u := range r.Users {
		m[strings.ToLower(strings.TrimSpace(u.Address))] = u.MaxStartCapital
	}
	return m
}

func loadCompetitionRoster(path string) (competitionRoster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return competitionRoster{}, err
	}
	var roster competitionRoster
	if err := yaml.Unmarshal(data, &roster); err != nil {
		return competitionRoster{}, err
	}
	return roster, nil
}

// ParsePort converts the configured port string to an int, falling back
// to 3000 if it doesn't parse (mirrors the teacher's getEnvInt closures in
// main.go).
func (c *Config) ParsePort() int {
	if n, err := strconv.Atoi(c.Port); err == nil {
		return n
	}
	return 3000
}
