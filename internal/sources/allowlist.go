package sources

import (
	"bufio"
	"errors"
	"os"
	"strings"
)

// Allowlist is a set of country keys. A nil Allowlist allows everything.
type Allowlist map[string]struct{}

func (a Allowlist) Allows(country string) bool {
	if len(a) == 0 {
		return true
	}
	_, ok := a[strings.ToLower(country)]
	return ok
}

// LoadAllowlist reads country keys separated by commas, semicolons, tabs or
// newlines. Lines starting with # and trailing comments are ignored.
func LoadAllowlist(path string) (Allowlist, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	allowed := make(Allowlist)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}
		if line == "" {
			continue
		}
		for _, token := range splitTokens(line) {
			key := strings.ToLower(token)
			if key == "country" {
				continue
			}
			allowed[key] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(allowed) == 0 {
		return nil, errors.New("allowlist is empty")
	}
	return allowed, nil
}

func splitTokens(line string) []string {
	replacer := strings.NewReplacer(";", ",", "\t", ",")
	parts := strings.Split(replacer.Replace(line), ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
