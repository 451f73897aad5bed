package prompt

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const frontmatterDelimiter = "---"

// LoadFile reads a prompt template from disk.
func LoadFile(path string) (*Template, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- Prompt path is user-provided
	if err != nil {
		return nil, fmt.Errorf("read prompt %s: %w", path, err)
	}
	return Load(path, data)
}

// Load parses a prompt template. A leading "---" line opens a YAML frontmatter
// block which is removed from the body. Without frontmatter the body is kept
// byte for byte.
func Load(source string, data []byte) (*Template, error) {
	cfg, body, err := parseFrontmatter(data)
	if err != nil {
		return nil, fmt.Errorf("parse prompt %s: %w", source, err)
	}
	return &Template{Config: cfg, Body: body, Source: source}, nil
}

func parseFrontmatter(data []byte) (Config, string, error) {
	first, _, _ := bytes.Cut(data, []byte("\n"))
	if strings.TrimSpace(string(first)) != frontmatterDelimiter {
		return Config{}, string(data), nil
	}

	lines := bufio.NewScanner(bytes.NewReader(data))
	lines.Split(bufio.ScanLines)

	var (
		frontmatter []string
		body        []string
		inFront     bool
		closed      bool
		headerSeen  bool
	)

	for lines.Scan() {
		line := lines.Text()
		switch {
		case !headerSeen:
			headerSeen = true
			inFront = true
		case inFront && strings.TrimSpace(line) == frontmatterDelimiter:
			inFront = false
			closed = true
		case inFront:
			frontmatter = append(frontmatter, line)
		default:
			body = append(body, line)
		}
	}
	if err := lines.Err(); err != nil {
		return Config{}, "", err
	}
	if !closed {
		return Config{}, "", fmt.Errorf("unterminated frontmatter")
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(strings.Join(frontmatter, "\n")), &cfg); err != nil {
		return Config{}, "", fmt.Errorf("invalid frontmatter: %w", err)
	}

	return cfg, strings.Join(body, "\n"), nil
}
