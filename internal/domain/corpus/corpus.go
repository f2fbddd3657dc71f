package corpus

import (
	"fmt"
	"sort"

	"github.com/docuvec/searchd/internal/domain"
	"github.com/docuvec/searchd/internal/domain/search/filter"
	"github.com/docuvec/searchd/internal/domain/search/mode"
)

// Corpus describes one searchable document set: its index, embedding space,
// and filter vocabulary. Built once from configuration and never mutated.
type Corpus struct {
	name         string
	dimensions   int
	vectorAttrs  map[mode.Field]string
	filterFields map[string]bool
	statusField  string
	excludeToken string
	excludeValue string
}

// Config holds the raw corpus settings used by New.
type Config struct {
	Name         string
	Dimensions   int
	VectorFields map[mode.Field]string // target field -> index attribute
	FilterFields []string
	StatusField  string // field the status_filter applies to
	ExcludeToken string // wire value that selects exclusion, e.g. "exclude_overruled"
	ExcludeValue string // status value excluded by the token, e.g. "overruled"
}

// New validates and creates a corpus descriptor.
func New(cfg Config) (*Corpus, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("corpus name is required")
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("corpus %s: dimensions must be positive", cfg.Name)
	}
	if _, ok := cfg.VectorFields[mode.Content]; !ok {
		return nil, fmt.Errorf("corpus %s: a content vector field is required", cfg.Name)
	}
	for f := range cfg.VectorFields {
		if !f.IsValid() {
			return nil, fmt.Errorf("corpus %s: unknown vector field %q", cfg.Name, f)
		}
	}

	fields := make(map[string]bool, len(cfg.FilterFields))
	for _, f := range cfg.FilterFields {
		if f == "" {
			return nil, fmt.Errorf("corpus %s: blank filter field", cfg.Name)
		}
		fields[f] = true
	}
	if cfg.StatusField != "" && !fields[cfg.StatusField] {
		return nil, fmt.Errorf("corpus %s: status field %q is not a filter field", cfg.Name, cfg.StatusField)
	}

	attrs := make(map[mode.Field]string, len(cfg.VectorFields))
	for f, attr := range cfg.VectorFields {
		if attr == "" {
			return nil, fmt.Errorf("corpus %s: blank vector attribute for field %q", cfg.Name, f)
		}
		attrs[f] = attr
	}

	return &Corpus{
		name:         cfg.Name,
		dimensions:   cfg.Dimensions,
		vectorAttrs:  attrs,
		filterFields: fields,
		statusField:  cfg.StatusField,
		excludeToken: cfg.ExcludeToken,
		excludeValue: cfg.ExcludeValue,
	}, nil
}

// Name returns the corpus name.
func (c *Corpus) Name() string { return c.name }

// Dimensions returns the embedding dimensionality of the corpus model.
func (c *Corpus) Dimensions() int { return c.dimensions }

// IndexName returns the FT index name for the corpus.
func (c *Corpus) IndexName() string {
	return domain.KeyPrefix + c.name + ":idx"
}

// DocKeyPrefix returns the key prefix of the corpus documents.
func (c *Corpus) DocKeyPrefix() string {
	return domain.KeyPrefix + c.name + ":"
}

// VectorAttr resolves a target field to its index attribute name.
func (c *Corpus) VectorAttr(f mode.Field) (string, bool) {
	attr, ok := c.vectorAttrs[f]
	return attr, ok
}

// HasFilterField reports whether the corpus declares the given filter field.
func (c *Corpus) HasFilterField(name string) bool {
	return c.filterFields[name]
}

// FilterFields returns the declared filter fields sorted by name.
func (c *Corpus) FilterFields() []string {
	out := make([]string, 0, len(c.filterFields))
	for f := range c.filterFields {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// StatusPredicate translates the wire-level status_filter value into a typed
// predicate. The corpus exclusion token becomes a NotEquals on the excluded
// value; any other non-blank value passes through as a plain equality filter
// on the status field. A blank value means no filter.
func (c *Corpus) StatusPredicate(value string) (filter.Predicate, bool, error) {
	if value == "" || c.statusField == "" {
		return filter.Predicate{}, false, nil
	}
	if value == c.excludeToken {
		p, err := filter.NewNotEquals(c.statusField, c.excludeValue)
		return p, err == nil, err
	}
	p, err := filter.NewEquals(c.statusField, value)
	return p, err == nil, err
}

// Registry is the read-only set of configured corpora.
type Registry struct {
	corpora map[string]*Corpus
}

// NewRegistry creates a registry from corpus descriptors.
func NewRegistry(corpora ...*Corpus) (*Registry, error) {
	m := make(map[string]*Corpus, len(corpora))
	for _, c := range corpora {
		if _, dup := m[c.Name()]; dup {
			return nil, fmt.Errorf("duplicate corpus %q", c.Name())
		}
		m[c.Name()] = c
	}
	return &Registry{corpora: m}, nil
}

// Get resolves a corpus by name.
func (r *Registry) Get(name string) (*Corpus, error) {
	c, ok := r.corpora[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownCorpus, name)
	}
	return c, nil
}

// Names returns all corpus names sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.corpora))
	for name := range r.corpora {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
