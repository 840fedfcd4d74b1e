package msgcat

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"text/template"

	yaml "gopkg.in/yaml.v3"
)

//go:embed messages.en.yaml
var embedded []byte

const embeddedName = "messages.en.yaml"

var ErrUnknownKey = errors.New("unknown message key")

// Catalog holds the chat and notice templates of the league bot keyed by
// dotted path, e.g. "league.notice.champion" or "bot.error.no_session".
// Templates are compiled at load time and rendered with missingkey=error.
type Catalog struct {
	mu        sync.RWMutex
	templates map[string]*template.Template
}

// New loads the embedded English texts, then every *.yaml / *.yml file in
// overrideDir (if set) in name order. Override files may replace embedded
// keys but not each other's.
func New(overrideDir string) (*Catalog, error) {
	c := &Catalog{templates: make(map[string]*template.Template)}
	flat, err := flattenYAML(embedded)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", embeddedName, err)
	}
	if err := c.compile(embeddedName, flat); err != nil {
		return nil, err
	}
	if dir := strings.TrimSpace(overrideDir); dir != "" {
		if err := c.applyDir(dir); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) applyDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read messages dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
			if !e.IsDir() {
				files = append(files, e.Name())
			}
		}
	}
	sort.Strings(files)

	owner := make(map[string]string)
	for _, name := range files {
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		flat, err := flattenYAML(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		for k := range flat {
			if prev, ok := owner[k]; ok {
				return fmt.Errorf("duplicate override key %q in %s and %s", k, prev, name)
			}
			owner[k] = name
		}
		if err := c.compile(name, flat); err != nil {
			return err
		}
	}
	return nil
}

// compile parses every template of one source before publishing any of them.
func (c *Catalog) compile(source string, flat map[string]string) error {
	parsed := make(map[string]*template.Template, len(flat))
	for key, text := range flat {
		if strings.TrimSpace(text) == "" {
			continue
		}
		tpl, err := template.New(key).Option("missingkey=error").Parse(text)
		if err != nil {
			return fmt.Errorf("%s: key %s: %w", source, key, err)
		}
		parsed[key] = tpl
	}
	c.mu.Lock()
	for key, tpl := range parsed {
		c.templates[key] = tpl
	}
	c.mu.Unlock()
	return nil
}

func flattenYAML(raw []byte) (map[string]string, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	out := make(map[string]string)
	if len(doc.Content) == 0 {
		return out, nil
	}
	return out, flattenNode(doc.Content[0], "", out)
}

func flattenNode(n *yaml.Node, prefix string, out map[string]string) error {
	switch n.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			if prefix != "" {
				key = prefix + "." + key
			}
			if err := flattenNode(n.Content[i+1], key, out); err != nil {
				return err
			}
		}
		return nil
	case yaml.AliasNode:
		return flattenNode(n.Alias, prefix, out)
	case yaml.ScalarNode:
		if prefix == "" {
			return fmt.Errorf("line %d: value without a key", n.Line)
		}
		switch n.Tag {
		case "!!null":
			return nil
		case "!!str":
			out[prefix] = n.Value
			return nil
		}
		return fmt.Errorf("line %d: %s must be a string, got %s", n.Line, prefix, n.Tag)
	default:
		return fmt.Errorf("line %d: %s must be a string or a mapping", n.Line, prefix)
	}
}

// Render executes the template stored under key.
func (c *Catalog) Render(key string, data any) (string, error) {
	key = strings.TrimSpace(key)
	c.mu.RLock()
	tpl, ok := c.templates[key]
	c.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	var b strings.Builder
	if err := tpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render %s: %w", key, err)
	}
	return b.String(), nil
}

// RenderOr renders key, or returns fallback when the key is missing, the data
// does not fit or the result is blank. A nil catalog always falls back.
func (c *Catalog) RenderOr(key string, data any, fallback string) string {
	if c == nil {
		return fallback
	}
	text, err := c.Render(key, data)
	if err != nil || strings.TrimSpace(text) == "" {
		return fallback
	}
	return text
}

// Require fails when any of keys has no template.
func (c *Catalog) Require(keys ...string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var missing []string
	for _, k := range keys {
		if _, ok := c.templates[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrUnknownKey, strings.Join(missing, ", "))
	}
	return nil
}

// Keys lists every loaded key in sorted order.
func (c *Catalog) Keys() []string {
	c.mu.RLock()
	keys := make([]string, 0, len(c.templates))
	for k := range c.templates {
		keys = append(keys, k)
	}
	c.mu.RUnlock()
	sort.Strings(keys)
	return keys
}
