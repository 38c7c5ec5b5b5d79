package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/sqlmorph/core"
	"github.com/oxhq/sqlmorph/parser"
)

const procSecureDML = `CREATE OR REPLACE PROCEDURE secure_dml
IS
BEGIN
  IF TO_CHAR (SYSDATE, 'HH24:MI') NOT BETWEEN '08:00' AND '18:00'
        OR TO_CHAR (SYSDATE, 'DY') IN ('SAT', 'SUN') THEN
    RAISE_APPLICATION_ERROR (-20205,
        'You may only make changes during normal office hours');
  END IF;
END secure_dml;
`

func matchOn(t *testing.T, entry parser.Entry, src, name string) []core.TextRange {
	t.Helper()
	rule, ok := Default.Get(name)
	require.True(t, ok, "rule %s registered", name)
	tree := parser.Parse(entry, src)
	return rule.Match(tree, core.NewLineIndex(src))
}

func TestRegistryOrder(t *testing.T) {
	want := []string{"CYAR-0001", "CYAR-0002", "CYAR-0003", "CYAR-0005", "CYAR-0006"}
	assert.Equal(t, want, Default.Names())
}

func TestRegistryLookup(t *testing.T) {
	_, ok := Default.Get("CYAR-0004")
	assert.False(t, ok, "the rule space is sparse; 0004 must stay unassigned")

	rule, ok := Default.Get("CYAR-0002")
	require.True(t, ok)
	assert.Equal(t, "CYAR-0002", rule.Name())
	assert.NotEmpty(t, rule.Describe())
	assert.True(t, rule.AppliesTo(core.KindProcedure))
	assert.True(t, rule.AppliesTo(core.KindFunction))
	assert.False(t, rule.AppliesTo(core.KindQuery))
}

func TestMissingParamListMatch(t *testing.T) {
	locs := matchOn(t, parser.EntryProcedure, procSecureDML, "CYAR-0001")
	require.Len(t, locs, 1)
	loc := locs[0]
	assert.Equal(t, loc.Offset.Start, loc.Offset.End, "insertion point is zero-width")
	// The insertion point sits right after the procedure name.
	end := loc.Offset.Start
	assert.Equal(t, "secure_dml", procSecureDML[end-len("secure_dml"):end])
}

func TestMissingParamListNoMatchWithParams(t *testing.T) {
	src := "CREATE PROCEDURE p(a NUMBER) IS BEGIN NULL; END p;"
	locs := matchOn(t, parser.EntryProcedure, src, "CYAR-0001")
	assert.Empty(t, locs)
}

func TestIsIntroducerMatch(t *testing.T) {
	locs := matchOn(t, parser.EntryProcedure, procSecureDML, "CYAR-0002")
	require.Len(t, locs, 1)
	loc := locs[0]
	assert.Equal(t, "IS", procSecureDML[loc.Offset.Start:loc.Offset.End])
	assert.Equal(t, 2, loc.Start.Line)
	assert.Equal(t, 1, loc.Start.Col)
}

func TestIsIntroducerNoMatchOnAs(t *testing.T) {
	src := "CREATE PROCEDURE p AS BEGIN NULL; END p;"
	locs := matchOn(t, parser.EntryProcedure, src, "CYAR-0002")
	assert.Empty(t, locs)
}

func TestEndNameMatch(t *testing.T) {
	locs := matchOn(t, parser.EntryProcedure, procSecureDML, "CYAR-0003")
	require.Len(t, locs, 1)
	loc := locs[0]
	assert.Equal(t, "END secure_dml", procSecureDML[loc.Offset.Start:loc.Offset.End])
}

func TestEndNameNoMatchWithoutLabel(t *testing.T) {
	src := "CREATE PROCEDURE p IS BEGIN NULL; END;"
	locs := matchOn(t, parser.EntryProcedure, src, "CYAR-0003")
	assert.Empty(t, locs)
}

func TestSysdateMatches(t *testing.T) {
	locs := matchOn(t, parser.EntryProcedure, procSecureDML, "CYAR-0005")
	require.Len(t, locs, 2)
	for _, loc := range locs {
		assert.Equal(t, "SYSDATE", procSecureDML[loc.Offset.Start:loc.Offset.End])
	}
	assert.Less(t, locs[0].Offset.Start, locs[1].Offset.Start, "matches in source order")
}

func TestSysdateIgnoresQualifiedAndCalls(t *testing.T) {
	src := "CREATE PROCEDURE p IS BEGIN x := pkg.sysdate; y := sysdate(1); END p;"
	locs := matchOn(t, parser.EntryProcedure, src, "CYAR-0005")
	assert.Empty(t, locs, "qualified references and invocations are not the bareword")
}

func TestNvlMatchesNested(t *testing.T) {
	src := "SELECT NVL(NVL(x, y), z) FROM t;"
	locs := matchOn(t, parser.EntryQuery, src, "CYAR-0006")
	require.Len(t, locs, 2)
	assert.Equal(t, "NVL(NVL(x, y), z)", src[locs[0].Offset.Start:locs[0].Offset.End])
	assert.Equal(t, "NVL(x, y)", src[locs[1].Offset.Start:locs[1].Offset.End])
}

func TestNvlApplyRewritesInnermostFirst(t *testing.T) {
	src := "SELECT NVL(NVL(x, y), z) FROM t;"
	rule, _ := Default.Get("CYAR-0006")
	tree := parser.Parse(parser.EntryQuery, src)
	ix := core.NewLineIndex(src)
	locs := rule.Match(tree, ix)
	require.Len(t, locs, 2)

	edit, err := rule.Apply(tree, ix, locs[0])
	require.NoError(t, err)
	got := core.ApplyEdit(src, edit)
	assert.Equal(t, "SELECT NVL(COALESCE(x, y), z) FROM t;", got)
}

func TestHitsOrderAndKinds(t *testing.T) {
	tree := parser.Parse(parser.EntryProcedure, procSecureDML)
	ix := core.NewLineIndex(procSecureDML)

	hits := Default.Hits(core.KindProcedure, tree, ix)
	var names []string
	for _, h := range hits {
		names = append(names, h.Name)
		assert.NotEmpty(t, h.ShortDesc)
		assert.NotEmpty(t, h.Locations)
	}
	assert.Equal(t, []string{"CYAR-0001", "CYAR-0002", "CYAR-0003", "CYAR-0005"}, names)

	// The same tree analyzed as a query kind yields no hits at all.
	assert.Empty(t, Default.Hits(core.KindQuery, tree, ix))
}

func TestRangeConsistency(t *testing.T) {
	tree := parser.Parse(parser.EntryProcedure, procSecureDML)
	ix := core.NewLineIndex(procSecureDML)
	for _, hit := range Default.Hits(core.KindProcedure, tree, ix) {
		for _, loc := range hit.Locations {
			assert.Equal(t, ix.PosFor(loc.Offset.Start), loc.Start,
				"start position must agree with offsets for %s", hit.Name)
			assert.Equal(t, ix.PosFor(loc.Offset.End), loc.End,
				"end position must agree with offsets for %s", hit.Name)
		}
	}
}

func TestRuleNames(t *testing.T) {
	for _, r := range Default.All() {
		assert.Regexp(t, `^CYAR-\d{4}$`, r.Name())
	}
}
