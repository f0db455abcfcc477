package pipeline

import (
	"bufio"
	"os"
	"strings"
)

// ReadWorkUnits reads the newline-delimited genome ID list: one ID per
// non-blank line, '#' lines ignored, duplicates dropped, input order
// kept. A missing file or an empty list is a ConfigError.
func ReadWorkUnits(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, configErrorf("failed to open genome list %s: %v", path, err)
	}
	defer file.Close()

	var units []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		unit := strings.TrimSpace(scanner.Text())
		if unit == "" || strings.HasPrefix(unit, "#") {
			continue
		}
		if seen[unit] {
			continue
		}
		seen[unit] = true
		units = append(units, unit)
	}
	if err := scanner.Err(); err != nil {
		return nil, configErrorf("failed to read genome list %s: %v", path, err)
	}

	if len(units) == 0 {
		return nil, configErrorf("genome list %s is empty", path)
	}
	return units, nil
}
