package sqlmorph

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/sqlmorph/core"
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

const procSecureDMLTranspiled = `CREATE OR REPLACE PROCEDURE secure_dml()
AS $$
BEGIN
  IF TO_CHAR (clock_timestamp(), 'HH24:MI') NOT BETWEEN '08:00' AND '18:00'
        OR TO_CHAR (clock_timestamp(), 'DY') IN ('SAT', 'SUN') THEN
    RAISE_APPLICATION_ERROR (-20205,
        'You may only make changes during normal office hours');
  END IF;
END;
$$ LANGUAGE plpgsql;
`

func TestAnalyzeSecureDML(t *testing.T) {
	md, err := Analyze("procedure", procSecureDML, core.Context{})
	require.NoError(t, err)
	require.NotNil(t, md.Procedure)
	assert.Equal(t, "secure_dml", md.Procedure.Name)

	var names []string
	for _, hit := range md.Rules {
		names = append(names, hit.Name)
	}
	assert.Equal(t, []string{"CYAR-0001", "CYAR-0002", "CYAR-0003", "CYAR-0005"}, names)
}

// TestTranspileSecureDML drives the full rule fixed point: apply the
// first reported rule, re-analyze, repeat until no rules remain.
func TestTranspileSecureDML(t *testing.T) {
	text := procSecureDML
	var applied []string
	for i := 0; i < 32; i++ {
		md, err := Analyze("procedure", text, core.Context{})
		require.NoError(t, err)
		if len(md.Rules) == 0 {
			break
		}
		hit := md.Rules[0]
		res, err := ApplyRule("procedure", text, hit.Name, nil, core.Context{})
		require.NoError(t, err, "applying %s", hit.Name)
		text = res.Original
		applied = append(applied, hit.Name)
	}

	assert.Equal(t, []string{"CYAR-0001", "CYAR-0002", "CYAR-0003", "CYAR-0005", "CYAR-0005"}, applied)
	assert.Equal(t, procSecureDMLTranspiled, text)

	md, err := Analyze("procedure", text, core.Context{})
	require.NoError(t, err)
	assert.Empty(t, md.Rules, "transpiled text must be rule-clean")
}

func TestTranspileHelperMatchesManualLoop(t *testing.T) {
	res, err := Transpile("procedure", procSecureDML, core.Context{})
	require.NoError(t, err)
	assert.Equal(t, procSecureDMLTranspiled, res.Modified)
	assert.Len(t, res.Applied, 5)
	assert.NotEmpty(t, res.Diff)
}

func TestNvlSaturation(t *testing.T) {
	text := "SELECT NVL(NVL(x, y), z) FROM t;"

	md, err := Analyze("query", text, core.Context{})
	require.NoError(t, err)
	require.Len(t, md.Rules, 1)
	require.Len(t, md.Rules[0].Locations, 2)

	res, err := ApplyRule("query", text, "CYAR-0006", nil, core.Context{})
	require.NoError(t, err)
	assert.Equal(t, "SELECT NVL(COALESCE(x, y), z) FROM t;", res.Original)

	md, err = Analyze("query", res.Original, core.Context{})
	require.NoError(t, err)
	require.Len(t, md.Rules, 1)
	assert.Len(t, md.Rules[0].Locations, 1)

	res, err = ApplyRule("query", res.Original, "CYAR-0006", nil, core.Context{})
	require.NoError(t, err)
	assert.Equal(t, "SELECT COALESCE(COALESCE(x, y), z) FROM t;", res.Original)

	md, err = Analyze("query", res.Original, core.Context{})
	require.NoError(t, err)
	assert.Empty(t, md.Rules)
}

func TestApplyRuleAtExplicitLocation(t *testing.T) {
	md, err := Analyze("procedure", procSecureDML, core.Context{})
	require.NoError(t, err)

	var sysdate core.RuleHit
	for _, hit := range md.Rules {
		if hit.Name == "CYAR-0005" {
			sysdate = hit
		}
	}
	require.Len(t, sysdate.Locations, 2)

	// Apply at the second occurrence; the first must survive.
	res, err := ApplyRule("procedure", procSecureDML, "CYAR-0005", &sysdate.Locations[1], core.Context{})
	require.NoError(t, err)
	assert.Contains(t, res.Original, "TO_CHAR (SYSDATE, 'HH24:MI')")
	assert.Contains(t, res.Original, "TO_CHAR (clock_timestamp(), 'DY')")
	assert.Equal(t, sysdate.Locations[1], res.Location)
}

func TestBoundaryErrors(t *testing.T) {
	ctx := core.Context{}

	_, err := Analyze("table", "SELECT 1;", ctx)
	assert.ErrorIs(t, err, core.ErrInvalidKind)

	_, err = ApplyRule("procedure", procSecureDML, "CYAR-9999", nil, ctx)
	assert.ErrorIs(t, err, core.ErrUnknownRule)

	// CYAR-0006 never applies to procedures.
	_, err = ApplyRule("procedure", procSecureDML, "CYAR-0006", nil, ctx)
	assert.ErrorIs(t, err, core.ErrNoSuchMatch)

	// A rule that applies but has no occurrence in this input.
	_, err = ApplyRule("procedure", "CREATE PROCEDURE p(a NUMBER) IS BEGIN NULL; END p;", "CYAR-0001", nil, ctx)
	assert.ErrorIs(t, err, core.ErrNoSuchMatch)

	bogus := core.TextRange{Offset: core.Span{Start: 1, End: 2}}
	_, err = ApplyRule("procedure", procSecureDML, "CYAR-0005", &bogus, ctx)
	assert.ErrorIs(t, err, core.ErrLocationNotFound)

	badCtx := core.Context{Tables: map[string]core.Table{
		"persons": {Columns: map[string]core.Column{"id": {}}},
	}}
	_, err = Analyze("procedure", procSecureDML, badCtx)
	assert.ErrorIs(t, err, core.ErrInvalidContext)
}

func TestKindExclusivity(t *testing.T) {
	md, err := Analyze("query", "SELECT 1 FROM dual;", core.Context{})
	require.NoError(t, err)
	assert.NotNil(t, md.Query)
	assert.Nil(t, md.Function)
	assert.Nil(t, md.Procedure)
	assert.Nil(t, md.Trigger)

	raw, err := json.Marshal(md)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Contains(t, decoded, "query")
	assert.Contains(t, decoded, "rules")
	assert.NotContains(t, decoded, "function")
	assert.NotContains(t, decoded, "procedure")
	assert.NotContains(t, decoded, "trigger")
}

func TestAnalyzeDeterministic(t *testing.T) {
	a, err := Analyze("procedure", procSecureDML, core.Context{})
	require.NoError(t, err)
	b, err := Analyze("procedure", procSecureDML, core.Context{})
	require.NoError(t, err)

	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	assert.Equal(t, string(ja), string(jb), "identical inputs must produce byte-identical output")
}

func TestRulesListing(t *testing.T) {
	infos := Rules()
	require.Len(t, infos, 5)
	assert.Equal(t, "CYAR-0001", infos[0].Name)
	assert.Equal(t, "CYAR-0006", infos[len(infos)-1].Name)
}
