package launcher

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ParseOptionsFile reads the ordered option list from the file at path.
// A missing file fails the launch.
func ParseOptionsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open options file: %w", err)
	}
	defer f.Close()

	options, err := ParseOptions(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read options file %s: %w", path, err)
	}
	return options, nil
}

// ParseOptions filters r into the ordered option list. Lines that are
// blank after trimming, or whose first non-space character is '#', are
// dropped; every other line is kept verbatim, in file order. Order is
// significant downstream (later options override earlier ones), and a
// final line without a trailing newline still counts.
func ParseOptions(r io.Reader) ([]string, error) {
	var options []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		options = append(options, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return options, nil
}
