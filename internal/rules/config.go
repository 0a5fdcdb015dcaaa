package rules

// DefaultRules is the hand-curated rule set for the legacy feed. New rules can
// be appended here or registered at runtime via Engine.AddRule.
func DefaultRules() []Rule {
	return []Rule{
		{
			Category:    "eCommerce",
			Keywords:    []string{"AMZN", "AMAZON", "EBAY", "PAYPAL", "ETSY", "SHOPIFY", "ALIBABA"},
			Priority:    10,
			Description: "Online shopping and marketplaces",
		},
		{
			Category:    "Transport & Food",
			Keywords:    []string{"STARBUCKS", "UBER", "LYFT", "DOORDASH", "GRUBHUB", "MCDONALD", "SUBWAY"},
			Priority:    10,
			Description: "Transportation and food services",
		},
		{
			Category:    "Entertainment",
			Keywords:    []string{"NETFLIX", "SPOTIFY", "HULU", "DISNEY", "HBO", "APPLE MUSIC", "YOUTUBE"},
			Priority:    5,
			Description: "Streaming and entertainment services",
		},
		{
			Category:    "Travel",
			Keywords:    []string{"AIRLINE", "HOTEL", "AIRBNB", "BOOKING", "EXPEDIA", "MARRIOTT", "HILTON"},
			Priority:    5,
			Description: "Travel and accommodation",
		},
		{
			Category:    "Utilities",
			Keywords:    []string{"ELECTRIC", "GAS", "WATER", "INTERNET", "PHONE", "MOBILE", "COMCAST", "ATT"},
			Priority:    3,
			Description: "Utility bills and services",
		},
	}
}
