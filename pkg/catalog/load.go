package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// Load reads the given files in order into a new catalog and validates it.
// Files ending in .yaml or .yml are parsed as YAML, everything else as INI.
func Load(paths ...string) (*Catalog, error) {
	return LoadFS(os.DirFS("."), paths...)
}

// LoadFS is Load reading from fsys. Absolute paths bypass fsys.
func LoadFS(fsys fs.FS, paths ...string) (*Catalog, error) {
	c := New()
	for _, p := range paths {
		var (
			data []byte
			err  error
		)
		if filepath.IsAbs(p) {
			data, err = os.ReadFile(p)
		} else {
			data, err = fs.ReadFile(fsys, filepath.ToSlash(filepath.Clean(p)))
		}
		if err != nil {
			return nil, errors.Join(ErrLoad, err)
		}

		switch strings.ToLower(filepath.Ext(p)) {
		case ".yaml", ".yml":
			err = c.LoadYAML(data)
		default:
			err = c.LoadINI(data)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// document is one parsed source, applied to a catalog as a unit.
type document struct {
	modules []Module
	entries []Route
}

func (c *Catalog) apply(doc document) error {
	for _, m := range doc.modules {
		if err := c.AddModule(m); err != nil {
			return err
		}
	}
	for _, r := range doc.entries {
		if err := c.Add(r); err != nil {
			return err
		}
	}
	return nil
}

var sectionKeys = map[string][]string{
	"route":  {"method", "path", "module", "controller", "actions"},
	"event":  {"controller", "actions", "async", "schedule"},
	"module": {"prefix", "autoroute"},
}

// LoadINI merges INI source into c. Sections are named
// "route.<name>", "event.<name>" or "module.<name>".
func (c *Catalog) LoadINI(src []byte) error {
	// Dotted entry names are not parent/child sections: a NUL delimiter
	// keeps [route.user] keys from leaking into [route.user.show].
	f, err := ini.LoadSources(ini.LoadOptions{
		SpaceBeforeInlineComment: true,
		ChildSectionDelimiter:    "\x00",
	}, src)
	if err != nil {
		return errors.Join(ErrLoad, err)
	}

	var doc document
	for _, sec := range f.Sections() {
		if sec.Name() == ini.DefaultSection {
			if len(sec.Keys()) > 0 {
				return fmt.Errorf("%w: keys outside of a section", ErrUnknownSection)
			}
			continue
		}

		kind, name, ok := strings.Cut(sec.Name(), ".")
		allowed, known := sectionKeys[kind]
		if !ok || !known || strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: [%s]", ErrUnknownSection, sec.Name())
		}
		for _, k := range sec.Keys() {
			if !slices.Contains(allowed, k.Name()) {
				return fmt.Errorf("%w: [%s] %s", ErrUnknownKey, sec.Name(), k.Name())
			}
		}

		switch kind {
		case "module":
			m := Module{Name: name, Prefix: sec.Key("prefix").String()}
			if m.AutoRoute, err = boolKey(sec, "autoroute"); err != nil {
				return err
			}
			doc.modules = append(doc.modules, m)
		case "route":
			doc.entries = append(doc.entries, Route{
				Name:       name,
				Kind:       KindHTTP,
				Method:     sec.Key("method").String(),
				Path:       sec.Key("path").String(),
				Module:     sec.Key("module").String(),
				Controller: sec.Key("controller").String(),
				Actions:    sec.Key("actions").Strings(","),
			})
		case "event":
			r := Route{
				Name:       name,
				Kind:       KindEvent,
				Controller: sec.Key("controller").String(),
				Actions:    sec.Key("actions").Strings(","),
				Schedule:   sec.Key("schedule").String(),
			}
			if r.Async, err = boolKey(sec, "async"); err != nil {
				return err
			}
			doc.entries = append(doc.entries, r)
		}
	}
	return c.apply(doc)
}

func boolKey(sec *ini.Section, name string) (bool, error) {
	if !sec.HasKey(name) {
		return false, nil
	}
	v, err := sec.Key(name).Bool()
	if err != nil {
		return false, fmt.Errorf("%w: [%s] %s: %v", ErrLoad, sec.Name(), name, err)
	}
	return v, nil
}

// yamlSections maps the top-level YAML keys to entry kinds.
var yamlSections = map[string]string{
	"modules": "module",
	"routes":  "route",
	"events":  "event",
}

// LoadYAML merges YAML source into c. The document has top-level
// "modules", "routes" and "events" maps keyed by entry name, with the same
// keys per kind as the INI sections.
func (c *Catalog) LoadYAML(src []byte) error {
	var top map[string]yaml.Node
	if err := yaml.Unmarshal(src, &top); err != nil {
		return errors.Join(ErrLoad, err)
	}

	var doc document
	for _, section := range slices.Sorted(maps.Keys(top)) {
		kind, ok := yamlSections[section]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownSection, section)
		}
		var entries map[string]yaml.Node
		node := top[section]
		if err := node.Decode(&entries); err != nil {
			return errors.Join(ErrLoad, fmt.Errorf("%s: %w", section, err))
		}

		for _, name := range slices.Sorted(maps.Keys(entries)) {
			n := entries[name]
			if err := checkYAMLKeys(kind, name, &n); err != nil {
				return err
			}
			if kind == "module" {
				var m Module
				if err := n.Decode(&m); err != nil {
					return errors.Join(ErrLoad, fmt.Errorf("module.%s: %w", name, err))
				}
				m.Name = name
				doc.modules = append(doc.modules, m)
				continue
			}

			var r Route
			if err := n.Decode(&r); err != nil {
				return errors.Join(ErrLoad, fmt.Errorf("%s.%s: %w", kind, name, err))
			}
			r.Name, r.Kind = name, KindHTTP
			if kind == "event" {
				r.Kind = KindEvent
			}
			doc.entries = append(doc.entries, r)
		}
	}
	return c.apply(doc)
}

// checkYAMLKeys rejects keys the entry kind does not accept, like LoadINI.
func checkYAMLKeys(kind, name string, n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: %s.%s is not a mapping", ErrLoad, kind, name)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if k := n.Content[i].Value; !slices.Contains(sectionKeys[kind], k) {
			return fmt.Errorf("%w: %s.%s %s", ErrUnknownKey, kind, name, k)
		}
	}
	return nil
}
