package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plan-player-analytics/Plan-sub022/internal/ir"
	"github.com/plan-player-analytics/Plan-sub022/internal/testutil"
)

func TestScenarios(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		scenario, err := LoadScenario(path)
		require.NoError(t, err, path)

		t.Run(scenario.Name, func(t *testing.T) {
			res := RunWithGolden(t, scenario)
			assert.True(t, res.Pass, "mismatches: %v", res.Errors)
		})
	}
}

func TestRun_SeedsDataset(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)
	db := testutil.OpenDB(t)

	res, err := Run(context.Background(), db, s)
	require.NoError(t, err)
	assert.True(t, res.Pass, "mismatches: %v", res.Errors)
	assert.Equal(t, []string{"Alice"}, res.Players)

	assert.Equal(t, 1, testutil.Count(t, db, ir.TableServers))
	assert.Equal(t, 1, testutil.Count(t, db, ir.TableUsers))
	assert.Equal(t, 1, testutil.Count(t, db, ir.TableUserInfo))
	assert.Equal(t, 1, testutil.Count(t, db, ir.TableSessions))
}

func TestRun_ReportsMismatches(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)
	s.Expect.Players = nil
	s.Expect.Steps = []StepExpectation{{Kind: "operators", Size: 2}}

	res, err := Run(context.Background(), testutil.OpenDB(t), s)
	require.NoError(t, err)
	assert.False(t, res.Pass)
	assert.Equal(t, []string{
		"step 1: expected kind operators, got banned",
		"step 1 (banned): expected size 2, got 1",
		"players: expected [], got [Alice]",
	}, res.Errors)
}

func TestRun_ExpectedParameterError(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)
	s.Query[0].Parameters = map[string]string{"value": "sometimes"}
	s.Expect = Expectation{Error: ExpectInvalidParameters}

	res, err := Run(context.Background(), testutil.OpenDB(t), s)
	require.NoError(t, err)
	assert.True(t, res.Pass, "mismatches: %v", res.Errors)
	assert.Nil(t, res.Chain)
	assert.Contains(t, string(Snapshot(res)), `parameter "value"`)
}

func TestRun_UnexpectedSuccess(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)
	s.Expect = Expectation{Error: ExpectUnknownKind}

	res, err := Run(context.Background(), testutil.OpenDB(t), s)
	require.NoError(t, err)
	assert.False(t, res.Pass)
	assert.Equal(t, []string{"expected unknown_kind error, query succeeded"}, res.Errors)
}

func TestRun_SeedFailureIsReported(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)
	db := testutil.OpenDB(t)
	testutil.Seed(t, db) // Alice's uuid is already taken

	_, err = Run(context.Background(), db, s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed scenario minimal")
	assert.Equal(t, 5, testutil.Count(t, db, ir.TableServers)+testutil.Count(t, db, ir.TableUsers))
}
