package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/plan-player-analytics/Plan-sub022/internal/queryir"
)

// DateLayout is the format of registration dates in scenarios.
const DateLayout = "2006-01-02"

// Scenario is a filter scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	Servers []ServerRow `yaml:"servers"`
	Players []PlayerRow `yaml:"players"`

	// Query is the filter document, in the same shape as the JSON form.
	Query []FilterStep `yaml:"query"`

	Expect Expectation `yaml:"expect"`
}

// ServerRow is a server of the scenario network.
type ServerRow struct {
	Name string `yaml:"name"`
	UUID string `yaml:"uuid"`
}

// PlayerRow is a player with its memberships and sessions.
type PlayerRow struct {
	Name       string       `yaml:"name"`
	UUID       string       `yaml:"uuid"`
	Registered string       `yaml:"registered"`
	Servers    []Membership `yaml:"servers,omitempty"`
	Sessions   []SessionRow `yaml:"sessions,omitempty"`
}

// Membership is a player's per-server record. Server refers to a
// ServerRow by name; Registered defaults to the player's registration.
type Membership struct {
	Server     string `yaml:"server"`
	Registered string `yaml:"registered,omitempty"`
	Banned     bool   `yaml:"banned,omitempty"`
	Operator   bool   `yaml:"operator,omitempty"`
}

// SessionRow is a play session. Start is RFC 3339.
type SessionRow struct {
	Server     string `yaml:"server"`
	Start      string `yaml:"start"`
	Minutes    int    `yaml:"minutes"`
	AFKMinutes int    `yaml:"afk_minutes,omitempty"`
}

// FilterStep is one filter of the scenario query.
type FilterStep struct {
	Kind       string            `yaml:"kind"`
	Parameters map[string]string `yaml:"parameters,omitempty"`
}

// Expectation is what running the query must produce.
type Expectation struct {
	// Error, when set, is the expected failure: "unknown_kind" or
	// "invalid_parameters". Steps and Players are ignored then.
	Error string `yaml:"error,omitempty"`

	Steps []StepExpectation `yaml:"steps,omitempty"`

	// Players are the names of the players left at the end, in
	// registration order.
	Players []string `yaml:"players"`
}

// StepExpectation describes one step of the chain.
type StepExpectation struct {
	Kind     string `yaml:"kind"`
	Size     int    `yaml:"size"`
	Skipped  bool   `yaml:"skipped,omitempty"`
	Complete bool   `yaml:"complete,omitempty"`
}

// Expected error names.
const (
	ExpectUnknownKind       = "unknown_kind"
	ExpectInvalidParameters = "invalid_parameters"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or references undeclared servers.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // catches "player:" for "players:"
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// FilterQuery converts the scenario query to a filter document.
func (s *Scenario) FilterQuery() queryir.Query {
	q := make(queryir.Query, len(s.Query))
	for i, step := range s.Query {
		q[i] = queryir.FilterSpec{Kind: step.Kind, Parameters: step.Parameters}
	}
	return q
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	servers := make(map[string]bool, len(s.Servers))
	for i, sv := range s.Servers {
		if sv.Name == "" {
			return fmt.Errorf("servers[%d]: name is required", i)
		}
		if servers[sv.Name] {
			return fmt.Errorf("servers[%d]: duplicate server %q", i, sv.Name)
		}
		if _, err := uuid.Parse(sv.UUID); err != nil {
			return fmt.Errorf("servers[%d]: uuid: %w", i, err)
		}
		servers[sv.Name] = true
	}

	players := make(map[string]bool, len(s.Players))
	for i, p := range s.Players {
		if p.Name == "" {
			return fmt.Errorf("players[%d]: name is required", i)
		}
		if players[p.Name] {
			return fmt.Errorf("players[%d]: duplicate player %q", i, p.Name)
		}
		players[p.Name] = true
		if _, err := uuid.Parse(p.UUID); err != nil {
			return fmt.Errorf("players[%d]: uuid: %w", i, err)
		}
		if _, err := time.Parse(DateLayout, p.Registered); err != nil {
			return fmt.Errorf("players[%d]: registered: %w", i, err)
		}
		for j, m := range p.Servers {
			if !servers[m.Server] {
				return fmt.Errorf("players[%d].servers[%d]: unknown server %q", i, j, m.Server)
			}
			if m.Registered != "" {
				if _, err := time.Parse(DateLayout, m.Registered); err != nil {
					return fmt.Errorf("players[%d].servers[%d]: registered: %w", i, j, err)
				}
			}
		}
		for j, sess := range p.Sessions {
			if !servers[sess.Server] {
				return fmt.Errorf("players[%d].sessions[%d]: unknown server %q", i, j, sess.Server)
			}
			if _, err := time.Parse(time.RFC3339, sess.Start); err != nil {
				return fmt.Errorf("players[%d].sessions[%d]: start: %w", i, j, err)
			}
			if sess.Minutes < 0 || sess.AFKMinutes < 0 || sess.AFKMinutes > sess.Minutes {
				return fmt.Errorf("players[%d].sessions[%d]: invalid duration", i, j)
			}
		}
	}

	for i, step := range s.Query {
		if step.Kind == "" {
			return fmt.Errorf("query[%d]: kind is required", i)
		}
	}

	switch s.Expect.Error {
	case "", ExpectUnknownKind, ExpectInvalidParameters:
	default:
		return fmt.Errorf("expect.error: unknown error %q", s.Expect.Error)
	}
	for _, name := range s.Expect.Players {
		if !players[name] {
			return fmt.Errorf("expect.players: unknown player %q", name)
		}
	}
	return nil
}
