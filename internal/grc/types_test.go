package grc

import "testing"

func TestRiskIsHigh(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		risk Risk
		want bool
	}{
		{name: "high likely", risk: Risk{Impact: LevelHigh, Likelihood: LevelLikely}, want: true},
		{name: "critical high", risk: Risk{Impact: LevelCritical, Likelihood: LevelHigh}, want: true},
		{name: "medium likely", risk: Risk{Impact: LevelMedium, Likelihood: LevelLikely}, want: false},
		{name: "high low", risk: Risk{Impact: LevelHigh, Likelihood: LevelLow}, want: false},
		{name: "empty", risk: Risk{}, want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.risk.IsHigh(); got != tc.want {
				t.Fatalf("IsHigh() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestGovernanceItemDepartment(t *testing.T) {
	t.Parallel()

	id := "dep-1"
	name := "Finance"
	if got := (GovernanceItem{}).Department(); got != "" {
		t.Fatalf("Department() = %q, want empty", got)
	}
	if got := (GovernanceItem{DepartmentID: &id}).Department(); got != id {
		t.Fatalf("Department() = %q, want %q", got, id)
	}
	if got := (GovernanceItem{DepartmentID: &id, DepartmentName: &name}).Department(); got != name {
		t.Fatalf("Department() = %q, want %q", got, name)
	}
}

func TestGovernanceFilterMatch(t *testing.T) {
	t.Parallel()

	dep := "dep-1"
	item := GovernanceItem{Status: GovernanceInProgress, Type: "POLICY", DepartmentID: &dep}

	tests := []struct {
		name   string
		filter GovernanceFilter
		want   bool
	}{
		{name: "zero", filter: GovernanceFilter{}, want: true},
		{name: "status case insensitive", filter: GovernanceFilter{Status: "in_progress"}, want: true},
		{name: "status mismatch", filter: GovernanceFilter{Status: GovernanceCompleted}, want: false},
		{name: "type", filter: GovernanceFilter{Type: "policy"}, want: true},
		{name: "department", filter: GovernanceFilter{DepartmentID: dep}, want: true},
		{name: "department mismatch", filter: GovernanceFilter{DepartmentID: "dep-2"}, want: false},
	}
	for _, tc := range tests {
		if got := tc.filter.Match(item); got != tc.want {
			t.Fatalf("%s: Match() = %v, want %v", tc.name, got, tc.want)
		}
	}
	if !(GovernanceFilter{}).Match(GovernanceItem{}) {
		t.Fatal("zero filter should match item without department")
	}
	if (GovernanceFilter{DepartmentID: dep}).Match(GovernanceItem{}) {
		t.Fatal("department filter matched item without department")
	}
}
