package onboarding

import (
	"fmt"
	"sort"
	"strings"
)

var defaultTierValues = map[string]int{
	"starter":    1500,
	"growth":     3500,
	"enterprise": 8000,
}

// TierTable maps a plan tier to its monthly value. Immutable after construction.
type TierTable struct {
	values map[string]int
}

func NewTierTable(overrides map[string]int) (TierTable, error) {
	values := make(map[string]int, len(defaultTierValues))
	for k, v := range defaultTierValues {
		values[k] = v
	}
	// 与 Start 一致，tier 名不区分大小写
	seen := make(map[string]string, len(overrides))
	for k, v := range overrides {
		name := strings.ToLower(strings.TrimSpace(k))
		if name == "" || v < 0 {
			return TierTable{}, fmt.Errorf("invalid tier %q with value %d", k, v)
		}
		if prev, ok := seen[name]; ok {
			return TierTable{}, fmt.Errorf("tier %q conflicts with %q", k, prev)
		}
		seen[name] = k
		values[name] = v
	}
	return TierTable{values: values}, nil
}

func (t TierTable) MonthlyValue(tier string) (int, bool) {
	v, ok := t.values[tier]
	return v, ok
}

// Names returns the tiers in alphabetical order.
func (t TierTable) Names() []string {
	names := make([]string, 0, len(t.values))
	for k := range t.values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
