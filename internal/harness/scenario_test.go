package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalScenario = `
name: minimal
description: "One server, one player"
servers:
  - name: Lobby
    uuid: 00000000-0000-7000-8000-00000000a001
players:
  - name: Alice
    uuid: 00000000-0000-7000-8000-00000000b001
    registered: 2024-01-10
    servers:
      - server: Lobby
    sessions:
      - server: Lobby
        start: 2024-01-10T12:00:00Z
        minutes: 30
query:
  - kind: banned
    parameters: {value: "false"}
expect:
  players: [Alice]
`

func TestLoadScenario_ValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minimal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalScenario), 0o644))

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "minimal", scenario.Name)
	require.Len(t, scenario.Players, 1)
	assert.Equal(t, "2024-01-10", scenario.Players[0].Registered)
	assert.Equal(t, "2024-01-10T12:00:00Z", scenario.Players[0].Sessions[0].Start)

	q := scenario.FilterQuery()
	require.Len(t, q, 1)
	assert.Equal(t, "banned", q[0].Kind)
	assert.Equal(t, "false", q[0].Parameters["value"])
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_UnknownField(t *testing.T) {
	_, err := ParseScenario([]byte("name: x\ndescription: y\nplayer: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"missing name", `description: x`, "name is required"},
		{"missing description", `name: x`, "description is required"},
		{
			"bad server uuid",
			"name: x\ndescription: y\nservers: [{name: Lobby, uuid: nope}]",
			"servers[0]: uuid",
		},
		{
			"unknown membership server",
			"name: x\ndescription: y\nplayers: [{name: A, uuid: 00000000-0000-7000-8000-00000000b001, registered: 2024-01-01, servers: [{server: Lobby}]}]",
			`unknown server "Lobby"`,
		},
		{
			"bad registration date",
			"name: x\ndescription: y\nplayers: [{name: A, uuid: 00000000-0000-7000-8000-00000000b001, registered: yesterday}]",
			"players[0]: registered",
		},
		{
			"afk longer than session",
			`name: x
description: y
servers: [{name: Lobby, uuid: 00000000-0000-7000-8000-00000000a001}]
players:
  - name: A
    uuid: 00000000-0000-7000-8000-00000000b001
    registered: 2024-01-01
    sessions: [{server: Lobby, start: "2024-01-01T00:00:00Z", minutes: 5, afk_minutes: 10}]`,
			"invalid duration",
		},
		{"empty kind", "name: x\ndescription: y\nquery: [{parameters: {a: b}}]", "query[0]: kind is required"},
		{"unknown expected error", "name: x\ndescription: y\nexpect: {error: boom}", `unknown error "boom"`},
		{"unknown expected player", "name: x\ndescription: y\nexpect: {players: [Zed]}", `unknown player "Zed"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
