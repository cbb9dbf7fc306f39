package models

import "testing"

func u64(v uint64) *uint64 { return &v }

func intPtr(v int) *int { return &v }

func TestRuleMatchesSetFields(t *testing.T) {
	t.Parallel()

	full := Criteria{BrandID: u64(1), ModelID: u64(2), SeriesID: u64(3), PackageID: u64(4), Year: intPtr(2024)}
	rule := Rule{BrandID: u64(1), ModelID: u64(2), SeriesID: u64(3), PackageID: u64(4)}
	if !rule.Matches(full) {
		t.Fatalf("expected full rule to match")
	}

	mutations := map[string]func(r *Rule){
		"brand":   func(r *Rule) { r.BrandID = u64(9) },
		"model":   func(r *Rule) { r.ModelID = u64(9) },
		"series":  func(r *Rule) { r.SeriesID = u64(9) },
		"package": func(r *Rule) { r.PackageID = u64(9) },
	}
	for name, mutate := range mutations {
		changed := rule
		mutate(&changed)
		if changed.Matches(full) {
			t.Fatalf("rule with different %s should not match", name)
		}
	}
}

func TestRuleMatchesUnsetFieldsAreWildcards(t *testing.T) {
	t.Parallel()

	var universal Rule
	if !universal.Matches(Criteria{}) {
		t.Fatalf("empty rule should match empty criteria")
	}
	if !universal.Matches(Criteria{BrandID: u64(1), PackageID: u64(7), Year: intPtr(1999)}) {
		t.Fatalf("empty rule should match any criteria")
	}

	brandOnly := Rule{BrandID: u64(1)}
	if !brandOnly.Matches(Criteria{BrandID: u64(1), ModelID: u64(5)}) {
		t.Fatalf("brand rule should ignore model")
	}
}

func TestRuleMatchesMissingCriteriaDoesNotSatisfySetFilter(t *testing.T) {
	t.Parallel()

	rule := Rule{PackageID: u64(4)}
	if rule.Matches(Criteria{BrandID: u64(1)}) {
		t.Fatalf("package rule must not match a selection without a package")
	}
}

func TestRuleMatchesYearRange(t *testing.T) {
	t.Parallel()

	rule := Rule{YearStart: intPtr(2020), YearEnd: intPtr(2023)}
	for year := 2015; year <= 2028; year++ {
		want := year >= 2020 && year <= 2023
		if got := rule.Matches(Criteria{Year: intPtr(year)}); got != want {
			t.Fatalf("year %d: Matches = %v, want %v", year, got, want)
		}
	}

	if !rule.Matches(Criteria{}) {
		t.Fatalf("year bounds should be skipped when no year is supplied")
	}

	openEnded := Rule{YearStart: intPtr(2024)}
	if !openEnded.Matches(Criteria{Year: intPtr(2040)}) {
		t.Fatalf("open-ended rule should match later years")
	}
	if openEnded.Matches(Criteria{Year: intPtr(2023)}) {
		t.Fatalf("open-ended rule should not match earlier years")
	}
}

func TestRuleFilterKeyDistinguishesTuples(t *testing.T) {
	t.Parallel()

	a := RuleFilterKey(u64(1), u64(2), nil, nil, nil, nil)
	b := RuleFilterKey(u64(1), u64(2), nil, u64(3), nil, nil)
	c := RuleFilterKey(u64(1), u64(2), nil, nil, intPtr(2020), nil)
	if a == b || a == c || b == c {
		t.Fatalf("filter keys collide: %q %q %q", a, b, c)
	}
	if got := RuleFilterKey(nil, nil, nil, nil, nil, nil); got != "b-|m-|s-|p-|ys-|ye-" {
		t.Fatalf("universal key = %q", got)
	}
}

func TestRuleDescribe(t *testing.T) {
	t.Parallel()

	rule := Rule{Brand: &Brand{Name: "BMW"}, YearStart: intPtr(2020)}
	if got := rule.Describe(); got != "Match (Brand: BMW, Years: 2020+)" {
		t.Fatalf("Describe = %q", got)
	}
	var universal Rule
	if got := universal.Describe(); got != "Match (All vehicles)" {
		t.Fatalf("Describe = %q", got)
	}
}

func TestNormalizeLegacyPlacement(t *testing.T) {
	t.Parallel()

	item := RuleItem{Placement: "highlights"}
	if !NormalizeLegacyPlacement(&item) {
		t.Fatalf("expected highlights placement to be rewritten")
	}
	if item.Placement != PlacementExterior || !item.IsHighlight || item.IsOption {
		t.Fatalf("unexpected item after rewrite: %+v", item)
	}

	item = RuleItem{Placement: "options"}
	if !NormalizeLegacyPlacement(&item) || item.Placement != PlacementExterior || !item.IsOption {
		t.Fatalf("unexpected item after options rewrite: %+v", item)
	}

	item = RuleItem{Placement: PlacementInterior}
	if NormalizeLegacyPlacement(&item) {
		t.Fatalf("interior placement should be left alone")
	}
}
