package analysis

import (
	"errors"
	"testing"

	"github.com/KaramelBytes/tierlens-cli/internal/table"
)

func mustTable(t *testing.T, header []string, rows ...[]string) *table.Table {
	t.Helper()
	tbl, err := table.New("test.csv", header, rows)
	if err != nil {
		t.Fatalf("table.New: %v", err)
	}
	return tbl
}

func TestAggregate_CountsAndMissingGroup(t *testing.T) {
	tbl := mustTable(t, []string{"客户等级名称"},
		[]string{"B"}, []string{""}, []string{"A"}, []string{"B"}, []string{" "},
	)
	groups, err := Aggregate(tbl, Dimension{Name: "customer_tier", Column: "客户等级名称"}, NewNormalizer(DefaultPolicy()), "未知")
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(groups) != 3 {
		t.Fatalf("groups = %#v", groups)
	}
	want := []struct {
		label string
		count int
	}{{"A", 1}, {"B", 2}, {"未知", 2}}
	total := 0
	for i, w := range want {
		if groups[i].Label != w.label || groups[i].Count != w.count {
			t.Fatalf("group %d = %#v, want %+v", i, groups[i], w)
		}
		total += groups[i].Count
	}
	if total != len(tbl.Rows) {
		t.Fatalf("counts sum to %d, want %d", total, len(tbl.Rows))
	}
	if !groups[2].Missing || groups[2].Key != nil {
		t.Fatalf("missing group = %#v", groups[2])
	}
	if groups[0].Sum != nil || groups[0].Distinct != nil {
		t.Fatalf("plain dimension should not carry sum or distinct: %#v", groups[0])
	}
}

func TestAggregate_NumbersSortBeforeText(t *testing.T) {
	tbl := mustTable(t, []string{"集团号"},
		[]string{"x"}, []string{"10"}, []string{"2"}, []string{"2.0"}, []string{""},
	)
	groups, err := Aggregate(tbl, Dimension{Name: "group_id", Column: "集团号"}, NewNormalizer(DefaultPolicy()), "未知")
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	want := []struct {
		key   any
		count int
	}{{float64(2), 2}, {float64(10), 1}, {"x", 1}, {nil, 1}}
	if len(groups) != len(want) {
		t.Fatalf("groups = %#v", groups)
	}
	for i, w := range want {
		if groups[i].Key != w.key || groups[i].Count != w.count {
			t.Fatalf("group %d = %#v, want %+v", i, groups[i], w)
		}
	}
}

func TestAggregate_EqualNumbersShareGroup(t *testing.T) {
	tbl := mustTable(t, []string{"集团号", "客户等级名称"},
		[]string{"2", "A"}, []string{"2.0", "A"}, []string{"2.00", "B"},
	)
	groups, err := Aggregate(tbl, Dimension{Name: "group_id", Column: "集团号"}, NewNormalizer(DefaultPolicy()), "未知")
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(groups) != 1 || groups[0].Count != 3 || groups[0].Label != "2" {
		t.Fatalf("groups = %#v", groups)
	}

	d := Dimension{Name: "customer_tier", Column: "客户等级名称", DistinctColumn: "集团号"}
	groups, err = Aggregate(tbl, d, NewNormalizer(DefaultPolicy()), "未知")
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if *groups[0].Distinct != 1 {
		t.Fatalf("2 and 2.0 counted as %d distinct ids", *groups[0].Distinct)
	}
}

func TestAggregate_IntegerColumnKeepsIntKeys(t *testing.T) {
	tbl := mustTable(t, []string{"签约年份"}, []string{"2024"}, []string{"2023"}, []string{""})
	groups, err := Aggregate(tbl, Dimension{Name: "sign_year", Column: "签约年份"}, NewNormalizer(DefaultPolicy()), "未知")
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(groups) != 3 || groups[0].Key != int64(2023) || groups[1].Key != int64(2024) || !groups[2].Missing {
		t.Fatalf("groups = %#v", groups)
	}
}

func TestAggregate_SumAndDistinct(t *testing.T) {
	tbl := mustTable(t, []string{"集团号", "理财师工号", ColHoldings},
		[]string{"G1", "E2", "1,000"},
		[]string{"G1", "E1", "200"},
		[]string{"G2", "E1", "abc"},
		[]string{"G3", "E1", "1，500.5"},
		[]string{"", "E2", ""},
	)
	d := Dimension{Name: "advisor_holdings:理财师工号", Column: "理财师工号", SumColumn: ColHoldings, DistinctColumn: ColGroupID}
	groups, err := Aggregate(tbl, d, NewNormalizer(DefaultPolicy()), "未知")
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("groups = %#v", groups)
	}
	e1, e2 := groups[0], groups[1]
	if e1.Label != "E1" || e1.Count != 3 || *e1.Sum != 1700.5 || *e1.Distinct != 3 {
		t.Fatalf("E1 = %+v sum=%v distinct=%v", e1, *e1.Sum, *e1.Distinct)
	}
	if e2.Label != "E2" || e2.Count != 2 || *e2.Sum != 1000 || *e2.Distinct != 1 {
		t.Fatalf("E2 = %+v sum=%v distinct=%v", e2, *e2.Sum, *e2.Distinct)
	}
}

func TestAggregate_StrictFails(t *testing.T) {
	tbl := mustTable(t, []string{"理财师", ColHoldings}, []string{"a", "x"})
	d := Dimension{Name: "h", Column: "理财师", SumColumn: ColHoldings}
	if _, err := Aggregate(tbl, d, NewNormalizer(Policy{Strict: true}), "未知"); err == nil {
		t.Fatalf("expected strict normalization error")
	}
}

func TestAggregate_UnknownColumn(t *testing.T) {
	tbl := mustTable(t, []string{"a"}, []string{"1"})
	if _, err := Aggregate(tbl, Dimension{Name: "x", Column: "nope"}, NewNormalizer(DefaultPolicy()), "未知"); err == nil {
		t.Fatalf("expected error for unknown column")
	}
}

func TestAggregate_MatchSplitsSelfDevelopedAndCollaborative(t *testing.T) {
	tbl := mustTable(t, []string{ColCoAdvisor, ColHomeAdvisor, ColHoldings, ColGroupID},
		[]string{"张", "张", "100", "G1"},
		[]string{"张", "李", "200", "G2"},
		[]string{"王", "王", "50", "G3"},
		[]string{"李", "", "10", "G2"},
	)
	d := Dimension{
		Name: "collaboration", Kind: RuleMatch, Column: ColCoAdvisor, OtherColumn: ColHomeAdvisor,
		MatchLabel: SelfDevelopedLabel, MismatchLabel: CollaborativeLabel,
		SumColumn: ColHoldings, DistinctColumn: ColGroupID,
	}
	groups, err := Aggregate(tbl, d, NewNormalizer(DefaultPolicy()), "未知")
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("groups = %#v", groups)
	}
	collab, self := groups[0], groups[1]
	if collab.Label != CollaborativeLabel || collab.Count != 2 || *collab.Sum != 210 || *collab.Distinct != 1 {
		t.Fatalf("collaborative = %+v sum=%v distinct=%v", collab, *collab.Sum, *collab.Distinct)
	}
	if self.Label != SelfDevelopedLabel || self.Count != 2 || *self.Sum != 150 || *self.Distinct != 2 {
		t.Fatalf("self-developed = %+v sum=%v distinct=%v", self, *self.Sum, *self.Distinct)
	}
}

func TestAggregate_PeriodKeys(t *testing.T) {
	tbl := mustTable(t, []string{ColSignYear, ColSignMonth, ColSubscriptions},
		[]string{"2024", "3", "100"},
		[]string{"2024", "12", "50"},
		[]string{"2023", "11", "1,000"},
		[]string{"", "5", "7"},
		[]string{"2024", "03", "1"},
	)
	d := Dimension{Name: "sign_month", Kind: RulePeriod, Column: ColSignYear, OtherColumn: ColSignMonth, SumColumn: ColSubscriptions}
	groups, err := Aggregate(tbl, d, NewNormalizer(DefaultPolicy()), "未知")
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	want := []struct {
		label string
		count int
		sum   float64
	}{{"2023-11", 1, 1000}, {"2024-03", 2, 101}, {"2024-12", 1, 50}, {"未知", 1, 7}}
	if len(groups) != len(want) {
		t.Fatalf("groups = %#v", groups)
	}
	for i, w := range want {
		if groups[i].Label != w.label || groups[i].Count != w.count || *groups[i].Sum != w.sum {
			t.Fatalf("group %d = %+v sum=%v, want %+v", i, groups[i], *groups[i].Sum, w)
		}
	}
}

func TestAggregate_SumOverflowIsAnError(t *testing.T) {
	tbl := mustTable(t, []string{"理财师工号", ColSubscriptions},
		[]string{"E1", "1e308"}, []string{"E1", "1e308"},
	)
	d := Dimension{Name: "advisor_subscriptions:理财师工号", Column: "理财师工号", SumColumn: ColSubscriptions}
	if _, err := Aggregate(tbl, d, NewNormalizer(DefaultPolicy()), "未知"); !errors.Is(err, ErrOverflow) {
		t.Fatalf("want ErrOverflow, got %v", err)
	}
}
