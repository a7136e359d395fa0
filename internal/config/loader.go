package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type SourceKind string

const (
	SourceDefault SourceKind = "default"
	SourceFile    SourceKind = "file"
	SourceEnv     SourceKind = "env"
)

type Source struct {
	Kind   SourceKind
	Name   string // env variable for env sources
	File   string
	Line   int
	Column int
}

func (s Source) String() string {
	switch s.Kind {
	case SourceFile:
		return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
	case SourceEnv:
		return "$" + s.Name
	default:
		return "default"
	}
}

type LoadResult struct {
	Config  *Config
	Sources map[string]Source // YAML-path -> source
	File    string            // empty when no file was read
	EnvFile string            // empty when no .env was read
}

// Environment overrides applied after the file.
const (
	EnvDisplay  = "RRTILE_DISPLAY"
	EnvLogLevel = "RRTILE_LOG_LEVEL"
	EnvDebug    = "RRTILE_DEBUG"
)

// Load reads the configuration from the standard location.
func Load() (*LoadResult, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads path (a missing file means defaults), loads a .env
// next to it and applies environment overrides.
func LoadFromPath(path string) (*LoadResult, error) {
	raw := RawConfig{}
	sources := map[string]Source{}
	res := &LoadResult{Sources: sources}

	if exists, err := pathExists(path); err != nil {
		return nil, err
	} else if exists {
		canon, err := canonicalPath(path)
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(canon)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to read: %w", canon, err)
		}

		var doc yaml.Node
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%s: failed to parse yaml: %w", canon, err)
		}
		if err := decodeStrictYAML(data, &raw); err != nil {
			return nil, fmt.Errorf("%s: %w", canon, err)
		}
		for p, src := range collectSources(&doc, canon) {
			sources[p] = src
		}
		res.File = canon
	}

	envFile := filepath.Join(filepath.Dir(path), ".env")
	if exists, err := pathExists(envFile); err != nil {
		return nil, err
	} else if exists {
		// Variables already in the environment win over the file.
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("%s: %w", envFile, err)
		}
		res.EnvFile = envFile
	}

	cfg := BuildEffectiveConfig(raw)
	if err := applyEnv(cfg, sources); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, attachSourceContext(err, sources)
	}

	res.Config = cfg
	return res, nil
}

func applyEnv(cfg *Config, sources map[string]Source) error {
	if v, ok := os.LookupEnv(EnvDisplay); ok && strings.TrimSpace(v) != "" {
		cfg.Display = strings.TrimSpace(v)
		sources["display"] = Source{Kind: SourceEnv, Name: EnvDisplay}
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok && strings.TrimSpace(v) != "" {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(v))
		sources["log_level"] = Source{Kind: SourceEnv, Name: EnvLogLevel}
	}
	if v, ok := os.LookupEnv(EnvDebug); ok && strings.TrimSpace(v) != "" {
		debug, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return &ValidationError{Path: "log_level", Source: Source{Kind: SourceEnv, Name: EnvDebug}, Err: fmt.Errorf("%s must be a boolean: %w", EnvDebug, err)}
		}
		if debug {
			cfg.LogLevel = "debug"
			sources["log_level"] = Source{Kind: SourceEnv, Name: EnvDebug}
		}
	}
	return nil
}

func decodeStrictYAML(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	return nil
}

func canonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %q: %w", path, err)
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		// Best-effort; still use abs.
		return abs, nil
	}
	return real, nil
}

func pathExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func collectSources(doc *yaml.Node, file string) map[string]Source {
	out := make(map[string]Source)
	if doc == nil {
		return out
	}
	node := doc
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	collectSourcesRec(node, file, "", out)
	return out
}

func collectSourcesRec(node *yaml.Node, file string, prefix string, out map[string]Source) {
	if node == nil {
		return
	}
	switch node.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode := node.Content[i]
			valNode := node.Content[i+1]
			path := keyNode.Value
			if prefix != "" {
				path = prefix + "." + path
			}
			out[path] = Source{
				Kind:   SourceFile,
				File:   file,
				Line:   valNode.Line,
				Column: valNode.Column,
			}
			collectSourcesRec(valNode, file, path, out)
		}
	case yaml.SequenceNode:
		// Items of mappings (outputs) get an index path; scalar lists stay
		// attributed to the list itself.
		for i, item := range node.Content {
			if item.Kind != yaml.MappingNode {
				continue
			}
			path := prefix + "." + strconv.Itoa(i)
			out[path] = Source{Kind: SourceFile, File: file, Line: item.Line, Column: item.Column}
			collectSourcesRec(item, file, path, out)
		}
	}
}

func attachSourceContext(err error, sources map[string]Source) error {
	verr, ok := err.(*ValidationError)
	if !ok || verr == nil {
		return err
	}
	if verr.Path == "" {
		return err
	}
	if src, ok := sources[verr.Path]; ok {
		verr.Source = src
	}
	return verr
}
