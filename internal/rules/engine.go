package rules

import (
	"sort"
	"strings"
	"sync"
)

// DefaultCategory is assigned when no rule matches a description.
const DefaultCategory = "Uncategorized"

// Rule maps a set of case-insensitive keywords to a category. Rules with a
// higher priority are evaluated first; ties keep configuration order.
type Rule struct {
	Category    string
	Keywords    []string
	Priority    int
	Description string
}

// Engine categorizes transaction descriptions against an ordered rule set.
// It is safe for concurrent use; AddRule is the only mutating operation.
type Engine struct {
	mu    sync.RWMutex
	rules []Rule
}

// NewEngine creates an engine from the given rules, sorted once by descending
// priority. The input slice is copied so later mutation of the caller's slice
// cannot affect matching order.
func NewEngine(ruleSet []Rule) *Engine {
	e := &Engine{rules: make([]Rule, len(ruleSet))}
	copy(e.rules, ruleSet)
	sortRules(e.rules)
	return e
}

// Categorize returns the category of the first rule with any keyword present
// in the description, or DefaultCategory when nothing matches. It never fails.
func (e *Engine) Categorize(description string) string {
	upper := strings.ToUpper(description)

	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, rule := range e.rules {
		if matchesRule(upper, rule) {
			return rule.Category
		}
	}

	return DefaultCategory
}

// AddRule registers an additional rule at runtime and re-sorts the set.
func (e *Engine) AddRule(rule Rule) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.rules = append(e.rules, rule)
	sortRules(e.rules)
}

// Rules returns a copy of the effective rule set in evaluation order.
func (e *Engine) Rules() []Rule {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Categories returns the effective category vocabulary: each rule category
// once, in evaluation order, with DefaultCategory always included. The API
// layer uses this to populate category filters.
func (e *Engine) Categories() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	seen := make(map[string]bool, len(e.rules)+1)
	categories := make([]string, 0, len(e.rules)+1)
	for _, rule := range e.rules {
		if !seen[rule.Category] {
			seen[rule.Category] = true
			categories = append(categories, rule.Category)
		}
	}
	if !seen[DefaultCategory] {
		categories = append(categories, DefaultCategory)
	}

	return categories
}

func matchesRule(upperDescription string, rule Rule) bool {
	for _, keyword := range rule.Keywords {
		if strings.Contains(upperDescription, strings.ToUpper(keyword)) {
			return true
		}
	}
	return false
}

func sortRules(ruleSet []Rule) {
	sort.SliceStable(ruleSet, func(i, j int) bool {
		return ruleSet[i].Priority > ruleSet[j].Priority
	})
}
