package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/gwos/tstamp/config"
	"github.com/gwos/tstamp/errors"
	"github.com/gwos/tstamp/timestamp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCommand(cfg config.Calc, stdin string) (*command, *bytes.Buffer) {
	out := new(bytes.Buffer)
	if cfg.MetricsNamespace == "" {
		cfg.MetricsNamespace = "tscalc"
	}
	return &command{cfg: cfg, stdin: strings.NewReader(stdin), stdout: out}, out
}

func TestCommands(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Calc
		args    []string
		want    string
		wantErr func(error) bool
	}{
		{"fmt", config.Calc{}, []string{"fmt", "0", "1", "1000000"},
			"000000.000000\n000000.000001\n000001.000000\n", nil},
		{"fmt negative", config.Calc{}, []string{"fmt", "-1"}, "", errors.IsErrorNegativeTime},
		{"fmt garbage", config.Calc{}, []string{"fmt", "1.5"}, "", errors.IsErrorParse},
		{"parse", config.Calc{}, []string{"parse", "1.5"},
			"1500000 1.5 000001.500000\n", nil},
		{"parse strict", config.Calc{Strict: true}, []string{"parse", "123456.789012"},
			"123456789012 123456.789012 123456.789012\n", nil},
		{"parse strict rejects", config.Calc{Strict: true}, []string{"parse", "12345.678901"},
			"", errors.IsErrorFormat},
		{"parse offset", config.Calc{Offset: timestamp.New(1)}, []string{"parse", "1"},
			"1000001 1.000001 000001.000001\n", nil},
		{"add", config.Calc{}, []string{"add", "1.5", "000002.000001"}, "000003.500001\n", nil},
		{"add overflow", config.Calc{}, []string{"add", "9223372036854", "1"}, "", errors.IsErrorOverflow},
		{"sub", config.Calc{}, []string{"sub", "5", "1.5"}, "000003.500000\n", nil},
		{"sub clamp", config.Calc{}, []string{"sub", "5", "10"}, "000000.000000\n", nil},
		{"unknown", config.Calc{}, []string{"mul"}, "", func(err error) bool { return err != nil }},
		{"missing", config.Calc{}, nil, "", func(err error) bool { return err != nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, out := newCommand(tt.cfg, "")
			err := cmd.run(tt.args)
			if tt.wantErr != nil {
				assert.True(t, tt.wantErr(err), "unexpected error: %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestSum(t *testing.T) {
	input := `# durations
000001.000000
2.5

bad
-1
000000.500000
`
	cmd, out := newCommand(config.Calc{ExportProm: true, MetricsNamespace: "test"}, input)
	require.NoError(t, cmd.run([]string{"sum"}))

	assert.Contains(t, out.String(), "count 3\ntotal 000004.000000\nmin 000000.500000\nmax 000002.500000\nmean 000001.333333\n")
	assert.Contains(t, out.String(), "errors{negative} 1\n")
	assert.Contains(t, out.String(), "errors{parse} 1\n")
	assert.Contains(t, out.String(), `test_timestamps_errors_total{kind="parse"} 1`)
	assert.Contains(t, out.String(), "test_timestamps_sum_seconds 4\n")
}

func TestSumJSON(t *testing.T) {
	cmd, out := newCommand(config.Calc{Strict: true}, "000001.000000\n1\n")
	cmd.json = true
	require.NoError(t, cmd.run([]string{"sum"}))
	assert.JSONEq(t, `{
		"count": 1,
		"total": "000001.000000",
		"min": "000001.000000",
		"max": "000001.000000",
		"mean": "000001.000000",
		"errors": {"format": 1}
	}`, out.String())
}
