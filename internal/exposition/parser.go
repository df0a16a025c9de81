package exposition

import (
	"strconv"
	"strings"

	"github.com/alisaviation/metricboard/internal/models"
)

// Parse turns exposition-format text into metric records, one per well-formed
// sample line:
//
//	name{key="value",...} 12.5 1700000000
//
// Blank lines and # comments are ignored. Lines that do not match the grammar
// are skipped without error; the parse is lossy by design. The optional
// trailing timestamp is recognized and discarded. Provenance is not attached
// here, the caller sets Metric.Source.
func Parse(text string) []models.Metric {
	var metrics []models.Metric
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line[0] == '#' {
			continue
		}
		if m, ok := parseLine(line); ok {
			metrics = append(metrics, m)
		}
	}
	return metrics
}

func parseLine(line string) (models.Metric, bool) {
	i := 0
	if !isNameStart(line[i]) {
		return models.Metric{}, false
	}
	for i < len(line) && isNameChar(line[i]) {
		i++
	}
	name := line[:i]

	var labels map[string]string
	if i < len(line) && line[i] == '{' {
		end := closingBrace(line, i+1)
		if end < 0 {
			return models.Metric{}, false
		}
		labels = parseLabels(line[i+1 : end])
		i = end + 1
	}

	if i >= len(line) || !isSpace(line[i]) {
		return models.Metric{}, false
	}
	for i < len(line) && isSpace(line[i]) {
		i++
	}

	j := i
	for j < len(line) && !isSpace(line[j]) {
		j++
	}
	if j == i {
		return models.Metric{}, false
	}
	value, err := strconv.ParseFloat(line[i:j], 64)
	if err != nil {
		return models.Metric{}, false
	}

	rest := strings.TrimSpace(line[j:])
	if rest != "" {
		if _, err := strconv.ParseInt(rest, 10, 64); err != nil {
			return models.Metric{}, false
		}
	}

	return models.Metric{Name: name, Value: value, Labels: labels}, true
}

// closingBrace returns the index of the first '}' at or after i that is not
// inside a quoted label value, or -1 if the label set is unterminated.
func closingBrace(line string, i int) int {
	inQuote := false
	for ; i < len(line); i++ {
		switch line[i] {
		case '\\':
			if inQuote {
				i++
			}
		case '"':
			inQuote = !inQuote
		case '}':
			if !inQuote {
				return i
			}
		}
	}
	return -1
}

// parseLabels splits a label set body on commas outside quotes. Duplicate keys
// resolve last-write-wins; pairs without a key are dropped.
func parseLabels(body string) map[string]string {
	labels := make(map[string]string)
	for _, pair := range splitPairs(body) {
		eq := strings.IndexByte(pair, '=')
		if eq < 0 {
			continue
		}
		key := strings.TrimSpace(pair[:eq])
		if key == "" {
			continue
		}
		labels[key] = unquote(strings.TrimSpace(pair[eq+1:]))
	}
	if len(labels) == 0 {
		return nil
	}
	return labels
}

func splitPairs(body string) []string {
	var pairs []string
	inQuote := false
	start := 0
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '\\':
			if inQuote {
				i++
			}
		case '"':
			inQuote = !inQuote
		case ',':
			if !inQuote {
				pairs = append(pairs, body[start:i])
				start = i + 1
			}
		}
	}
	if start < len(body) {
		pairs = append(pairs, body[start:])
	}
	return pairs
}

func unquote(v string) string {
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		v = v[1 : len(v)-1]
	}
	v = strings.ReplaceAll(v, `\"`, `"`)
	return strings.ReplaceAll(v, `\\`, `\`)
}

func isNameStart(c byte) bool {
	return c == '_' || c == ':' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameChar(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9')
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t'
}
