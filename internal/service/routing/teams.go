package routing

import (
	"fmt"

	"routedesk/internal/model"
)

var defaultTeamAddresses = map[string]string{
	model.TeamSales:          "sales@agency.example",
	model.TeamProjectManager: "pm@agency.example",
	model.TeamBilling:        "billing@agency.example",
	model.TeamTechnical:      "tech@agency.example",
	model.TeamSupport:        "support@agency.example",
}

// TeamDirectory maps each team to its notification address. Immutable after construction.
type TeamDirectory struct {
	addresses map[string]string
}

// NewTeamDirectory starts from the built-in addresses and applies overrides.
// Overrides for teams outside the closed set are rejected.
func NewTeamDirectory(overrides map[string]string) (TeamDirectory, error) {
	addresses := make(map[string]string, len(defaultTeamAddresses))
	for team, addr := range defaultTeamAddresses {
		addresses[team] = addr
	}
	for team, addr := range overrides {
		if !model.IsTeam(team) {
			return TeamDirectory{}, fmt.Errorf("unknown team in routing.teams: %q", team)
		}
		if addr == "" {
			return TeamDirectory{}, fmt.Errorf("empty address for team %q", team)
		}
		addresses[team] = addr
	}
	return TeamDirectory{addresses: addresses}, nil
}

// Address returns the team's address.
func (d TeamDirectory) Address(team string) (string, bool) {
	addr, ok := d.addresses[team]
	return addr, ok
}

// All returns a copy of the table.
func (d TeamDirectory) All() map[string]string {
	out := make(map[string]string, len(d.addresses))
	for k, v := range d.addresses {
		out[k] = v
	}
	return out
}
