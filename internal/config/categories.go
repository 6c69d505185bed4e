package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrCategoriesNotFound is returned when the category file does not exist.
var ErrCategoriesNotFound = errors.New("category file not found")

// Categories is an ordered mapping from category name to the origin domains
// that belong to it. Each list becomes one subset scoring query.
//
// Design decision: We keep the categories in file order rather than using a
// plain map so that the report rows come out in the order the analyst wrote
// them. yaml.v3 map decoding would lose that order, so we decode the
// mapping node ourselves.
type Categories struct {
	// names holds the category names in file order.
	names []string

	// sites maps category name to its origin domains, preserving list order.
	sites map[string][]string
}

// UnmarshalYAML decodes a YAML mapping of category name -> list of origin
// domains, preserving the order the categories appear in the document.
func (c *Categories) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("category file must be a mapping of category name to site list, got %s", nodeKind(node))
	}

	c.names = nil
	c.sites = make(map[string][]string, len(node.Content)/2)

	// A mapping node stores keys and values as alternating children.
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := node.Content[i]
		valueNode := node.Content[i+1]

		var name string
		if err := keyNode.Decode(&name); err != nil {
			return fmt.Errorf("invalid category name at line %d: %w", keyNode.Line, err)
		}
		if _, dup := c.sites[name]; dup {
			return fmt.Errorf("duplicate category %q at line %d", name, keyNode.Line)
		}

		var sites []string
		if err := valueNode.Decode(&sites); err != nil {
			return fmt.Errorf("category %q must be a list of origin domains: %w", name, err)
		}

		c.names = append(c.names, name)
		c.sites[name] = sites
	}

	return nil
}

// nodeKind returns a human-readable name for a YAML node kind.
func nodeKind(node *yaml.Node) string {
	switch node.Kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}

// Names returns the category names in file order.
func (c *Categories) Names() []string {
	return c.names
}

// Sites returns the origin domains of a category in file order.
// The second return value reports whether the category exists.
func (c *Categories) Sites(name string) ([]string, bool) {
	sites, ok := c.sites[name]
	return sites, ok
}

// Len returns the number of categories.
func (c *Categories) Len() int {
	return len(c.names)
}

// LoadCategories loads the category subset file from a YAML file.
// If the file does not exist, it returns ErrCategoriesNotFound.
func LoadCategories(path string) (*Categories, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided category path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrCategoriesNotFound, path)
		}
		return nil, err
	}

	var cats Categories
	if err := yaml.Unmarshal(data, &cats); err != nil {
		return nil, fmt.Errorf("failed to parse category file %s: %w", path, err)
	}
	if cats.sites == nil {
		cats.sites = make(map[string][]string)
	}

	return &cats, nil
}
