package rules

import (
	"testing"
)

func TestCategorize(t *testing.T) {
	engine := NewEngine(DefaultRules())

	tests := []struct {
		name        string
		description string
		want        string
	}{
		{"amazon marketplace", "AMZN Mktp US", "eCommerce"},
		{"case insensitive input", "amzn mktp us", "eCommerce"},
		{"coffee", "STARBUCKS STORE 2291", "Transport & Food"},
		{"streaming", "NETFLIX.COM", "Entertainment"},
		{"utility bill", "CITY WATER AUTHORITY", "Utilities"},
		{"no match", "UNKNOWN VENDOR LLC", DefaultCategory},
		{"empty description", "", DefaultCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := engine.Categorize(tt.description); got != tt.want {
				t.Errorf("Categorize(%q) = %q, want %q", tt.description, got, tt.want)
			}
		})
	}
}

func TestCategorize_PriorityOrder(t *testing.T) {
	engine := NewEngine(DefaultRules())

	// Contains both an eCommerce keyword (priority 10) and a Utilities
	// keyword (priority 3); the higher priority rule must win.
	got := engine.Categorize("PAYPAL PAYMENT FOR ELECTRIC BILL")
	if got != "eCommerce" {
		t.Errorf("Categorize = %q, want eCommerce (higher priority rule)", got)
	}
}

func TestCategorize_StableTieOrder(t *testing.T) {
	engine := NewEngine([]Rule{
		{Category: "First", Keywords: []string{"SHARED"}, Priority: 7},
		{Category: "Second", Keywords: []string{"SHARED"}, Priority: 7},
	})

	// Equal priority keeps configuration order.
	if got := engine.Categorize("SHARED KEYWORD"); got != "First" {
		t.Errorf("Categorize = %q, want First (configuration order preserved)", got)
	}
}

func TestAddRule(t *testing.T) {
	engine := NewEngine(DefaultRules())

	if got := engine.Categorize("GITHUB SUBSCRIPTION"); got != DefaultCategory {
		t.Fatalf("Categorize = %q before rule added, want %q", got, DefaultCategory)
	}

	engine.AddRule(Rule{Category: "Software", Keywords: []string{"GITHUB"}, Priority: 20})

	if got := engine.Categorize("GITHUB SUBSCRIPTION"); got != "Software" {
		t.Errorf("Categorize = %q after rule added, want Software", got)
	}

	// The new high-priority rule must be evaluated first.
	rules := engine.Rules()
	if rules[0].Category != "Software" {
		t.Errorf("first rule after re-sort = %q, want Software", rules[0].Category)
	}
}

func TestCategories(t *testing.T) {
	engine := NewEngine(DefaultRules())
	categories := engine.Categories()

	want := map[string]bool{
		"eCommerce":        false,
		"Transport & Food": false,
		"Entertainment":    false,
		"Travel":           false,
		"Utilities":        false,
		DefaultCategory:    false,
	}

	for _, c := range categories {
		if _, ok := want[c]; !ok {
			t.Errorf("unexpected category %q", c)
		}
		if want[c] {
			t.Errorf("category %q listed twice", c)
		}
		want[c] = true
	}

	for c, seen := range want {
		if !seen {
			t.Errorf("category %q missing from vocabulary", c)
		}
	}
}

func TestNewEngine_DoesNotAliasInput(t *testing.T) {
	input := []Rule{
		{Category: "A", Keywords: []string{"AAA"}, Priority: 1},
		{Category: "B", Keywords: []string{"BBB"}, Priority: 2},
	}
	engine := NewEngine(input)

	// Mutating the caller's slice must not affect the engine.
	input[0] = Rule{Category: "Z", Keywords: []string{"AAA"}, Priority: 99}

	if got := engine.Categorize("AAA"); got != "A" {
		t.Errorf("Categorize = %q, want A", got)
	}
}
