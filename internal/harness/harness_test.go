package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/clickcounter/internal/clicks"
	"github.com/roach88/clickcounter/internal/store"
)

func mustParse(t *testing.T, doc string) *Scenario {
	t.Helper()
	s, err := ParseScenario([]byte(doc))
	require.NoError(t, err)
	return s
}

func TestRun_TapTapReset(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/tap_tap_reset.yaml")
	require.NoError(t, err)

	result, err := Run(context.Background(), s)
	require.NoError(t, err)

	assert.True(t, result.Pass, "failures: %v", result.Failures)
	require.Len(t, result.Trace, 6)
	assert.Equal(t, int64(2), result.Trace[2].Count)
	assert.Equal(t, int64(0), result.Trace[4].Count)
}

func TestRun_ExpectMismatch(t *testing.T) {
	s := mustParse(t, `
name: mismatch
steps:
  - tap: {x: 1, y: 1}
  - expect:
      count: 2
      history: [{x: 2, y: 2}]
`)

	result, err := Run(context.Background(), s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Equal(t, []string{
		"step 2: count = 1, want 2",
		"step 2: persisted rows = 1, want 2",
		"step 2: history = [{1 1}], want [{2 2}]",
		"step 2: persisted history = [{1 1}], want [{2 2}]",
	}, result.Failures)
}

func TestRun_WithRootKeepsData(t *testing.T) {
	root := t.TempDir()
	s := mustParse(t, "name: keep\nsteps:\n  - tap: {x: 4, y: 2}\n")

	result, err := Run(context.Background(), s, WithRoot(root))
	require.NoError(t, err)
	require.True(t, result.Pass)

	home, err := store.StartInstance(root)
	require.NoError(t, err)
	conn, err := home.Connect(instanceName)
	require.NoError(t, err)
	defer conn.Close()

	n, err := clicks.NewRepository(conn).Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRun_CanceledContext(t *testing.T) {
	s := mustParse(t, "name: canceled\nsteps:\n  - tap: {x: 1, y: 1}\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, s, WithRoot(filepath.Join(t.TempDir(), "root")))
	assert.Error(t, err)
}

func TestRunWithGolden_Scenarios(t *testing.T) {
	for _, name := range []string{"tap_tap_reset", "restart_hydrates", "truncation"} {
		t.Run(name, func(t *testing.T) {
			s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
			require.NoError(t, err)

			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "failures: %v", result.Failures)
		})
	}
}

func TestMarshalTrace_EmptyHistory(t *testing.T) {
	result := NewResult()
	result.Trace = append(result.Trace, TraceEntry{Step: 1, Kind: KindExpect, History: []clicks.Click{}})

	data, err := MarshalTrace("empty", result)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"history": []`)
	assert.Equal(t, byte('\n'), data[len(data)-1])
}
