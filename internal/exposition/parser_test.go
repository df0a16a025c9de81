package exposition

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alisaviation/metricboard/internal/models"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []models.Metric
	}{
		{
			name:  "plain sample",
			input: "http_requests_total 1027\n",
			expected: []models.Metric{
				{Name: "http_requests_total", Value: 1027},
			},
		},
		{
			name:  "labels and timestamp",
			input: `http_requests_total{method="post",code="200"} 1027 1395066363000`,
			expected: []models.Metric{
				{Name: "http_requests_total", Value: 1027, Labels: map[string]string{"method": "post", "code": "200"}},
			},
		},
		{
			name:  "scientific notation and sign",
			input: "temp_celsius -4.2e1\nratio +0.5\n",
			expected: []models.Metric{
				{Name: "temp_celsius", Value: -42},
				{Name: "ratio", Value: 0.5},
			},
		},
		{
			name:  "comments and blank lines skipped",
			input: "# HELP http_requests_total Total requests.\n\n  # TYPE http_requests_total counter\nhttp_requests_total 3\n",
			expected: []models.Metric{
				{Name: "http_requests_total", Value: 3},
			},
		},
		{
			name:  "malformed lines skipped silently",
			input: "bogus line\nok_metric 42\n",
			expected: []models.Metric{
				{Name: "ok_metric", Value: 42},
			},
		},
		{
			name:     "missing value skipped",
			input:    "lonely_name\n",
			expected: nil,
		},
		{
			name:     "bad name start skipped",
			input:    "9metric 1\n",
			expected: nil,
		},
		{
			name:     "trailing garbage after timestamp skipped",
			input:    "m 1 123 extra\n",
			expected: nil,
		},
		{
			name:     "non-integer timestamp skipped",
			input:    "m 1 12.5\n",
			expected: nil,
		},
		{
			name:  "colon names accepted",
			input: ":job:rate5m 0.1\n",
			expected: []models.Metric{
				{Name: ":job:rate5m", Value: 0.1},
			},
		},
		{
			name:  "duplicate label keys last write wins",
			input: `m{a="1",a="2"} 7`,
			expected: []models.Metric{
				{Name: "m", Value: 7, Labels: map[string]string{"a": "2"}},
			},
		},
		{
			name:  "keyless pair skipped, rest kept",
			input: `m{="x",b="y"} 1`,
			expected: []models.Metric{
				{Name: "m", Value: 1, Labels: map[string]string{"b": "y"}},
			},
		},
		{
			name:     "unterminated label set skipped",
			input:    `m{a="1" 5`,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Parse(tt.input))
		})
	}
}

func TestParseLabelQuoting(t *testing.T) {
	metrics := Parse(`m{a="x\"y,z"} 1`)
	require.Len(t, metrics, 1)
	require.Equal(t, map[string]string{"a": `x"y,z`}, metrics[0].Labels)
}

func TestParseIsIdempotent(t *testing.T) {
	input := "a 1\nbroken\nb{k=\"v\"} 2 1700000000\n# comment\nc 3e2\n"
	first := Parse(input)
	second := Parse(input)
	require.Equal(t, first, second)
	require.Len(t, first, 3)
}

func TestParseNonFiniteValues(t *testing.T) {
	metrics := Parse("m NaN\nn +Inf\n")
	require.Len(t, metrics, 2)
	assert.True(t, math.IsNaN(metrics[0].Value))
	assert.True(t, math.IsInf(metrics[1].Value, 1))
}

func TestParsePreservesLineOrder(t *testing.T) {
	metrics := Parse("b 2\na 1\nb 3\n")
	require.Len(t, metrics, 3)
	assert.Equal(t, "b", metrics[0].Name)
	assert.Equal(t, "a", metrics[1].Name)
	assert.Equal(t, float64(3), metrics[2].Value)
}
