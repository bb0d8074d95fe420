// Package team implements the Helium research team: Zane the team
// leader, who routes work by keyword, and three specialists: Mira
// (data science), Chloe (financial analysis), and Axel (business
// strategy). Specialist analyses are synthesized deterministically
// from the task text; no language model is consulted.
package team

import "strings"

// Member IDs. These are the product's public agent identity and appear
// in the service API and agent cards.
const (
	LeaderID     = "zane"
	AnalystID    = "mira"
	AdvisorID    = "chloe"
	StrategistID = "axel"
)

// Rule maps a keyword to the member that handles it.
type Rule struct {
	Keyword  string
	MemberID string
}

// DefaultRules is the leader's routing table. Order matters: the first
// keyword found in the task wins.
func DefaultRules() []Rule {
	return []Rule{
		{Keyword: "data", MemberID: AnalystID},
		{Keyword: "analyze", MemberID: AnalystID},
		{Keyword: "collect", MemberID: AnalystID},
		{Keyword: "financial", MemberID: AdvisorID},
		{Keyword: "market size", MemberID: AdvisorID},
		{Keyword: "valuation", MemberID: AdvisorID},
		{Keyword: "strategy", MemberID: StrategistID},
		{Keyword: "competitive", MemberID: StrategistID},
		{Keyword: "business model", MemberID: StrategistID},
	}
}

// Router routes task text to a member by keyword substring match.
type Router struct {
	rules []Rule
}

// NewRouter creates a router with the given rules.
func NewRouter(rules []Rule) *Router {
	return &Router{rules: rules}
}

// Route returns the member for the first matching keyword. Matching is
// case-insensitive substring containment; the rule order is fixed, so
// routing is stable for a given input.
func (r *Router) Route(content string) (memberID, keyword string, ok bool) {
	lowered := strings.ToLower(content)
	for _, rule := range r.rules {
		if strings.Contains(lowered, rule.Keyword) {
			return rule.MemberID, rule.Keyword, true
		}
	}
	return "", "", false
}
