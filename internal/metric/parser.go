// Package metric extracts labeled numeric values from the diagnostic
// output of external workloads. Two grammars are supported: KEY=value
// lines on a process stream, and flat "key: value" metrics files.
package metric

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrMetricNotFound is returned when the requested key never appears in
// the scanned stream. A missing metric means the external program did
// not report what was expected, so this must propagate as a hard error
// rather than degrade to a default value.
var ErrMetricNotFound = errors.New("metric not found")

// ParseValue scans lines in order and returns the value following the
// first line whose trimmed form starts with "<key>=". Decimal commas
// are normalized to decimal points before parsing; some locales make
// the external executables print "1,234567".
func ParseValue(r io.Reader, key string) (float64, error) {
	prefix := key + "="
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, prefix) {
			continue
		}
		raw := strings.TrimSpace(strings.TrimPrefix(line, prefix))
		raw = strings.ReplaceAll(raw, ",", ".")
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, fmt.Errorf("parsing %s value %q: %w", key, raw, err)
		}
		return value, nil
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("scanning for %s: %w", key, err)
	}
	return 0, fmt.Errorf("%w: %s", ErrMetricNotFound, key)
}

// ParseKeyValueFile reads a metrics file of "key: value" lines into a
// map. The first colon is the separator; both sides are trimmed. Blank
// lines and lines without a colon are skipped.
func ParseKeyValueFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	result := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		result[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return result, nil
}
