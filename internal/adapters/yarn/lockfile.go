// Package yarn adapts the yarn package manager: its lock file formats and imported package layout.
package yarn

import (
	"bufio"
	"bytes"
	"maps"
	"slices"
	"strconv"
	"strings"

	"go.trai.ch/lockstep/internal/core/domain"
	"go.trai.ch/lockstep/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.LockfileParser = (*LockfileParser)(nil)

const (
	classicVersion = 1
	metadataKey    = "__metadata"
	npmProtocol    = "npm:"
)

// LockfileParser decodes yarn v1 and yarn berry lock files.
type LockfileParser struct{}

// NewLockfileParser creates a new LockfileParser.
func NewLockfileParser() *LockfileParser {
	return &LockfileParser{}
}

// Parse detects the lock format and decodes it.
func (p *LockfileParser) Parse(data []byte) (*domain.Lockfile, error) {
	if isBerry(data) {
		return parseBerry(data)
	}
	return parseClassic(data)
}

func isBerry(data []byte) bool {
	return bytes.HasPrefix(data, []byte(metadataKey+":")) ||
		bytes.Contains(data, []byte("\n"+metadataKey+":"))
}

// parseClassic decodes the yarn v1 format: unindented selector lines followed by indented fields.
func parseClassic(data []byte) (*domain.Lockfile, error) {
	lock := domain.NewLockfile(classicVersion)

	var (
		selectors []string
		entry     *domain.LockEntry
		section   *[]domain.Dependency
	)
	flush := func() error {
		if entry == nil {
			return nil
		}
		if entry.Version.String() == "" {
			return zerr.With(zerr.With(domain.ErrLockFormat, "reason", "entry without version"),
				"selector", selectors[0])
		}
		lock.Add(selectors, entry)
		entry, selectors, section = nil, nil, nil
		return nil
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := strings.TrimRight(scanner.Text(), " \t\r")
		trimmed := strings.TrimLeft(raw, " ")
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		switch indent := len(raw) - len(trimmed); indent {
		case 0:
			if err := flush(); err != nil {
				return nil, err
			}
			if !strings.HasSuffix(trimmed, ":") {
				return nil, malformed(lineNo, "expected selector list")
			}
			parsed, err := parseSelectors(strings.TrimSuffix(trimmed, ":"))
			if err != nil {
				return nil, zerr.With(err, "line", lineNo)
			}
			selectors = parsed
			name, _, _ := domain.SplitSelector(selectors[0])
			entry = &domain.LockEntry{Name: domain.NewInternedString(name)}
		case 2:
			if entry == nil {
				return nil, malformed(lineNo, "field outside of an entry")
			}
			section = nil
			if key, ok := strings.CutSuffix(trimmed, ":"); ok {
				switch key {
				case "dependencies":
					section = &entry.Dependencies
				case "optionalDependencies":
					section = &entry.OptionalDependencies
				}
				continue
			}
			key, value, err := splitField(trimmed)
			if err != nil {
				return nil, zerr.With(err, "line", lineNo)
			}
			switch key {
			case "version":
				entry.Version = domain.NewInternedString(value)
			case "resolved":
				entry.Resolved = value
			case "integrity":
				entry.Integrity = value
			}
		case 4:
			if section == nil {
				// Nested blocks we do not model, e.g. bin:
				continue
			}
			name, rng, err := splitField(trimmed)
			if err != nil {
				return nil, zerr.With(err, "line", lineNo)
			}
			*section = append(*section, domain.Dependency{Name: name, Range: rng})
		default:
			return nil, malformed(lineNo, "unexpected indentation")
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, zerr.Wrap(err, domain.ErrLockFormat.Error())
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return lock, nil
}

func parseSelectors(s string) ([]string, error) {
	parts := strings.Split(s, ", ")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		sel := unquote(strings.TrimSpace(part))
		if _, _, ok := domain.SplitSelector(sel); !ok {
			return nil, zerr.With(zerr.With(domain.ErrLockFormat, "reason", "invalid selector"), "selector", sel)
		}
		out = append(out, sel)
	}
	return out, nil
}

// splitField splits `key value` where either part may be quoted.
func splitField(s string) (key, value string, err error) {
	if strings.HasPrefix(s, `"`) {
		end := strings.Index(s[1:], `"`)
		if end < 0 {
			return "", "", zerr.With(domain.ErrLockFormat, "reason", "unterminated quote")
		}
		key = s[1 : end+1]
		value = strings.TrimSpace(s[end+2:])
	} else {
		var ok bool
		key, value, ok = strings.Cut(s, " ")
		if !ok {
			return "", "", zerr.With(zerr.With(domain.ErrLockFormat, "reason", "field without value"), "field", s)
		}
	}
	return key, unquote(strings.TrimSpace(value)), nil
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		if u, err := strconv.Unquote(s); err == nil {
			return u
		}
		return s[1 : len(s)-1]
	}
	return s
}

func malformed(line int, reason string) error {
	return zerr.With(zerr.With(domain.ErrLockFormat, "reason", reason), "line", line)
}

type berryMetadata struct {
	Version int `yaml:"version"`
}

type berryDependencyMeta struct {
	Optional bool `yaml:"optional"`
}

type berryEntry struct {
	Version              string                         `yaml:"version"`
	Resolution           string                         `yaml:"resolution"`
	Checksum             string                         `yaml:"checksum"`
	Dependencies         map[string]string              `yaml:"dependencies"`
	OptionalDependencies map[string]string              `yaml:"optionalDependencies"`
	DependenciesMeta     map[string]berryDependencyMeta `yaml:"dependenciesMeta"`
}

// parseBerry decodes the yarn 2+ YAML format.
func parseBerry(data []byte) (*domain.Lockfile, error) {
	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, zerr.Wrap(err, domain.ErrLockFormat.Error())
	}

	var meta berryMetadata
	if node, ok := doc[metadataKey]; ok {
		if err := node.Decode(&meta); err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrLockFormat.Error()), "key", metadataKey)
		}
	}

	lock := domain.NewLockfile(meta.Version)
	for key, node := range doc {
		if key == metadataKey {
			continue
		}

		var raw berryEntry
		if err := node.Decode(&raw); err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrLockFormat.Error()), "selector", key)
		}

		selectors, err := parseSelectors(key)
		if err != nil {
			return nil, err
		}
		for i, sel := range selectors {
			selectors[i] = normalizeBerrySelector(sel)
		}
		if raw.Version == "" {
			return nil, zerr.With(zerr.With(domain.ErrLockFormat, "reason", "entry without version"),
				"selector", key)
		}

		name, _, _ := domain.SplitSelector(selectors[0])
		entry := &domain.LockEntry{
			Name:      domain.NewInternedString(name),
			Version:   domain.NewInternedString(raw.Version),
			Resolved:  raw.Resolution,
			Integrity: raw.Checksum,
		}
		for _, depName := range sortedKeys(raw.Dependencies) {
			dep := domain.Dependency{Name: depName, Range: strings.TrimPrefix(raw.Dependencies[depName], npmProtocol)}
			if raw.DependenciesMeta[depName].Optional {
				entry.OptionalDependencies = append(entry.OptionalDependencies, dep)
				continue
			}
			entry.Dependencies = append(entry.Dependencies, dep)
		}
		for _, depName := range sortedKeys(raw.OptionalDependencies) {
			entry.OptionalDependencies = append(entry.OptionalDependencies, domain.Dependency{
				Name:  depName,
				Range: strings.TrimPrefix(raw.OptionalDependencies[depName], npmProtocol),
			})
		}
		lock.Add(selectors, entry)
	}
	return lock, nil
}

// normalizeBerrySelector rewrites "lib-x@npm:^1.0" to "lib-x@^1.0" so it matches declared ranges.
func normalizeBerrySelector(sel string) string {
	name, rng, ok := domain.SplitSelector(sel)
	if !ok {
		return sel
	}
	return name + "@" + strings.TrimPrefix(rng, npmProtocol)
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
