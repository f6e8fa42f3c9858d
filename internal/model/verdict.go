package model

// Verdict is the structured classification of one message.
type Verdict struct {
	Category        string `json:"category"`
	Urgency         string `json:"urgency"`
	AssignedTeam    string `json:"assigned_team"`
	Summary         string `json:"summary"`
	SuggestedReply  string `json:"suggested_reply"`
	NeedsEscalation bool   `json:"needs_escalation"`
}

const (
	CategoryBilling    = "billing"
	CategoryTechnical  = "technical"
	CategoryScheduling = "scheduling"
	CategoryIssue      = "issue"
	CategoryGeneral    = "general"
)

const (
	TeamSales          = "sales"
	TeamProjectManager = "project_manager"
	TeamBilling        = "billing"
	TeamTechnical      = "technical"
	TeamSupport        = "support"
)

const (
	UrgencyLow    = "low"
	UrgencyMedium = "medium"
	UrgencyHigh   = "high"
	UrgencyUrgent = "urgent"
)

var (
	Categories = []string{CategoryBilling, CategoryTechnical, CategoryScheduling, CategoryIssue, CategoryGeneral}
	Teams      = []string{TeamSales, TeamProjectManager, TeamBilling, TeamTechnical, TeamSupport}
	Urgencies  = []string{UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyUrgent}
)

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func IsCategory(v string) bool { return contains(Categories, v) }
func IsTeam(v string) bool     { return contains(Teams, v) }
func IsUrgency(v string) bool  { return contains(Urgencies, v) }
