package identity

import (
	"os"
	"strings"

	"gopkg.in/yaml.v2"

	apperrors "libledger/internal/errors"
)

// RewriteRule maps one transcription variant of a borrower name onto its
// canonical form. Matching is exact after whitespace normalization; there is
// no fuzzy matching.
type RewriteRule struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

type rewriteFile struct {
	Rules []RewriteRule `yaml:"rules"`
}

// LoadRewriteRules reads a borrower rewrite-rule table from a YAML file.
// An empty path means no rules.
func LoadRewriteRules(path string) ([]RewriteRule, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read rewrite rules", err).
			WithContext("path", path)
	}
	var f rewriteFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, apperrors.NewParsingError("failed to parse rewrite rules", err).
			WithContext("path", path)
	}
	return f.Rules, nil
}

// BorrowerCanonicalizer collapses transcription variants of borrower names.
type BorrowerCanonicalizer struct {
	rewrites map[string]string
}

// NewBorrowerCanonicalizer builds a canonicalizer from rewrite rules. Rule
// keys are themselves whitespace-normalized so the table matches regardless
// of how the rule file was typed.
func NewBorrowerCanonicalizer(rules []RewriteRule) *BorrowerCanonicalizer {
	rewrites := make(map[string]string, len(rules))
	for _, r := range rules {
		from := collapseWhitespace(r.From)
		if from == "" {
			continue
		}
		rewrites[from] = collapseWhitespace(r.To)
	}
	return &BorrowerCanonicalizer{rewrites: rewrites}
}

// Canonicalize returns the canonical form of a raw borrower name, or ""
// when the cell is blank.
func (b *BorrowerCanonicalizer) Canonicalize(raw string) string {
	name := collapseWhitespace(raw)
	if name == "" {
		return ""
	}
	if canonical, ok := b.rewrites[name]; ok {
		return canonical
	}
	return name
}

// collapseWhitespace trims a name and squeezes internal whitespace runs to a
// single space.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
