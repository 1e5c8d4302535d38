package analysis

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RuleKind selects how a rule matches column names.
type RuleKind string

const (
	// RuleExact matches one column by exact name. SumColumn, when present in
	// the header, is summed per group.
	RuleExact RuleKind = "exact"
	// RuleContains matches every column whose name contains Pattern; one
	// count-only dimension per matching column.
	RuleContains RuleKind = "contains"
	// RuleAmount matches an amount column by exact name. The column is
	// normalized and totalled, and every column containing PairPattern gets a
	// count+sum dimension keyed by that column.
	RuleAmount RuleKind = "amount"
	// RuleMatch compares Column with OtherColumn row by row and groups rows
	// into MatchLabel or MismatchLabel.
	RuleMatch RuleKind = "match"
	// RulePeriod keys rows by "year-month" built from Column (year) and
	// OtherColumn (month). Rows missing either part form the missing group.
	RulePeriod RuleKind = "period"
)

// Rule is one entry of the declarative detection table.
type Rule struct {
	Name           string   `yaml:"name" json:"name"`
	Kind           RuleKind `yaml:"kind" json:"kind"`
	Column         string   `yaml:"column,omitempty" json:"column,omitempty"`
	Pattern        string   `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	PairPattern    string   `yaml:"pair_pattern,omitempty" json:"pair_pattern,omitempty"`
	DistinctColumn string   `yaml:"distinct_column,omitempty" json:"distinct_column,omitempty"`
	SumColumn      string   `yaml:"sum_column,omitempty" json:"sum_column,omitempty"`
	OtherColumn    string   `yaml:"other_column,omitempty" json:"other_column,omitempty"`
	MatchLabel     string   `yaml:"match_label,omitempty" json:"match_label,omitempty"`
	MismatchLabel  string   `yaml:"mismatch_label,omitempty" json:"mismatch_label,omitempty"`
}

// RuleSet is the ordered list of rules applied to a table's header.
type RuleSet struct {
	Rules []Rule `yaml:"rules" json:"rules"`
}

// Column names used by the wealth-management exports this tool was built for.
const (
	ColCustomerTier   = "客户等级名称"
	ColMembershipTier = "未来会员等级"
	ColGroupID        = "集团号"
	ColBusinessUnit   = "客户当前所属BU"
	ColProduct        = "支线产品名称"
	ColProject        = "项目名称"
	ColHoldings       = "客户正行产品存量(人民币,不含雪球)"
	ColSubscriptions  = "认申购金额人民币"
	ColCoAdvisor      = "正行协作理财师"
	ColHomeAdvisor    = "国内理财师"
	ColSignYear       = "签约年份"
	ColSignMonth      = "签约月份"
	AdvisorPattern    = "理财师"
	AdvisorIDPattern  = "理财师工号"

	SelfDevelopedLabel = "自拓客户"
	CollaborativeLabel = "协同客户"
)

// DefaultRules returns the built-in detection table.
func DefaultRules() RuleSet {
	return RuleSet{Rules: []Rule{
		{Name: "customer_tier", Kind: RuleExact, Column: ColCustomerTier, SumColumn: ColSubscriptions},
		{Name: "membership_tier", Kind: RuleExact, Column: ColMembershipTier, SumColumn: ColHoldings},
		{Name: "group_id", Kind: RuleExact, Column: ColGroupID},
		{Name: "business_unit", Kind: RuleExact, Column: ColBusinessUnit, SumColumn: ColSubscriptions, DistinctColumn: ColGroupID},
		{Name: "product", Kind: RuleExact, Column: ColProduct, SumColumn: ColSubscriptions, DistinctColumn: ColGroupID},
		{Name: "project", Kind: RuleExact, Column: ColProject, SumColumn: ColSubscriptions, DistinctColumn: ColGroupID},
		{Name: "advisor", Kind: RuleContains, Pattern: AdvisorPattern},
		{Name: "advisor_holdings", Kind: RuleAmount, Column: ColHoldings, PairPattern: AdvisorIDPattern, DistinctColumn: ColGroupID},
		{Name: "advisor_subscriptions", Kind: RuleAmount, Column: ColSubscriptions, PairPattern: AdvisorIDPattern, DistinctColumn: ColGroupID},
		{Name: "collaboration", Kind: RuleMatch, Column: ColCoAdvisor, OtherColumn: ColHomeAdvisor,
			MatchLabel: SelfDevelopedLabel, MismatchLabel: CollaborativeLabel, SumColumn: ColHoldings, DistinctColumn: ColGroupID},
		{Name: "sign_year", Kind: RuleExact, Column: ColSignYear, SumColumn: ColSubscriptions},
		{Name: "sign_month", Kind: RulePeriod, Column: ColSignYear, OtherColumn: ColSignMonth, SumColumn: ColSubscriptions},
	}}
}

// Validate rejects rule sets the detector cannot apply.
func (rs RuleSet) Validate() error {
	seen := make(map[string]struct{}, len(rs.Rules))
	var errs []error
	for i, r := range rs.Rules {
		if r.Name == "" {
			errs = append(errs, fmt.Errorf("rule %d: name is required", i+1))
		} else if _, dup := seen[r.Name]; dup {
			errs = append(errs, fmt.Errorf("rule %d: duplicate name %q", i+1, r.Name))
		}
		seen[r.Name] = struct{}{}
		switch r.Kind {
		case RuleExact:
			if r.Column == "" {
				errs = append(errs, fmt.Errorf("rule %q: exact rule needs column", r.Name))
			}
		case RuleContains:
			if r.Pattern == "" {
				errs = append(errs, fmt.Errorf("rule %q: contains rule needs pattern", r.Name))
			}
		case RuleAmount:
			if r.Column == "" || r.PairPattern == "" {
				errs = append(errs, fmt.Errorf("rule %q: amount rule needs column and pair_pattern", r.Name))
			}
		case RuleMatch:
			if r.Column == "" || r.OtherColumn == "" || r.MatchLabel == "" || r.MismatchLabel == "" {
				errs = append(errs, fmt.Errorf("rule %q: match rule needs column, other_column and both labels", r.Name))
			} else if r.MatchLabel == r.MismatchLabel {
				errs = append(errs, fmt.Errorf("rule %q: match labels must differ", r.Name))
			}
		case RulePeriod:
			if r.Column == "" || r.OtherColumn == "" {
				errs = append(errs, fmt.Errorf("rule %q: period rule needs column and other_column", r.Name))
			}
		default:
			errs = append(errs, fmt.Errorf("rule %q: unknown kind %q", r.Name, r.Kind))
		}
	}
	return errors.Join(errs...)
}

// LoadRules reads a YAML rule file and validates it.
func LoadRules(path string) (RuleSet, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, fmt.Errorf("read rules: %w", err)
	}
	var rs RuleSet
	if err := yaml.Unmarshal(b, &rs); err != nil {
		return RuleSet{}, fmt.Errorf("parse rules: %w", err)
	}
	if err := rs.Validate(); err != nil {
		return RuleSet{}, fmt.Errorf("invalid rules %s: %w", path, err)
	}
	return rs, nil
}

// YAML renders the rule set in the format LoadRules reads.
func (rs RuleSet) YAML() ([]byte, error) {
	b, err := yaml.Marshal(rs)
	if err != nil {
		return nil, fmt.Errorf("marshal rules: %w", err)
	}
	return b, nil
}
