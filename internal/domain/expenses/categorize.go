package expenses

import (
	_ "embed"
	"fmt"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

//go:embed rules/categories.yaml
var defaultCategoryRules []byte

type categoryRule struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

type categoryRulesFile struct {
	Categories []categoryRule `yaml:"categories"`
}

// Categorizer assigns a category to a description by keyword match.
type Categorizer struct {
	rules []categoryRule
}

func DefaultCategorizer() *Categorizer {
	c, err := ParseCategoryRules(defaultCategoryRules)
	if err != nil {
		panic(fmt.Sprintf("expenses: embedded category rules: %v", err))
	}
	return c
}

func ParseCategoryRules(data []byte) (*Categorizer, error) {
	var file categoryRulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCategoryRules, err)
	}

	rules := make([]categoryRule, 0, len(file.Categories))
	for _, rule := range file.Categories {
		name := strings.TrimSpace(rule.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: category name is required", ErrInvalidCategoryRules)
		}
		keywords := make([]string, 0, len(rule.Keywords))
		for _, keyword := range rule.Keywords {
			if keyword = strings.ToLower(strings.TrimSpace(keyword)); keyword != "" {
				keywords = append(keywords, keyword)
			}
		}
		rules = append(rules, categoryRule{Name: name, Keywords: keywords})
	}

	return &Categorizer{rules: rules}, nil
}

// Categorize returns DefaultCategory when nothing matches.
func (c *Categorizer) Categorize(description string) string {
	words := strings.FieldsFunc(strings.ToLower(description), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return DefaultCategory
	}

	seen := make(map[string]struct{}, len(words))
	for _, word := range words {
		seen[word] = struct{}{}
	}

	for _, rule := range c.rules {
		for _, keyword := range rule.Keywords {
			if _, ok := seen[keyword]; ok {
				return rule.Name
			}
		}
	}
	return DefaultCategory
}
