package analyze

import (
	"testing"

	"github.com/oxhq/sqlmorph/core"
	"github.com/oxhq/sqlmorph/parser"
	"github.com/oxhq/sqlmorph/rules"
)

const procAddJobHistory = `CREATE OR REPLACE PROCEDURE add_job_history
  (  p_emp_id          job_history.employee_id%type
   , p_start_date      job_history.start_date%type
   , p_end_date        job_history.end_date%type
   , p_job_id          job_history.job_id%type
   , p_department_id   job_history.department_id%type
   )
IS
BEGIN
  INSERT INTO job_history (employee_id, start_date,
                           end_date, job_id,
                           department_id)
    VALUES(p_emp_id, p_start_date, p_end_date,
           p_job_id, p_department_id);
END add_job_history;
`

const procLogLastLoginFuzzy = `CREATE OR REPLACE PROCEDURE log_last_login_fuzzy(
    ip_id IN persons.id%TYPE,
    ip_last_login IN persons.last_login%TYPE )
IS
    v_count persons.number_of_logins%TYPE;
BEGIN
    SELECT number_of_logins INTO v_count
      FROM persons
     WHERE id = ip_id;
    v_count := v_count + 1;
    UPDATE persons SET last_login = ip_last_login WHERE id = ip_id;
END log_last_login_fuzzy;
`

const funcHeadingExample = `CREATE FUNCTION function_heading_example (
    p1 VARCHAR2,
    p2 NUMBER,
    p3 BOOLEAN,
    p4 DATE,
    p5 INTEGER )
  RETURN NUMBER
IS
BEGIN
  IF p3 THEN
    RETURN p2;
  END IF;
END function_heading_example;
`

func personsContext() core.Context {
	return core.Context{
		Tables: map[string]core.Table{
			"persons": {
				Columns: map[string]core.Column{
					"id":               {Typ: core.ColumnInteger},
					"name":             {Typ: core.ColumnText},
					"number_of_logins": {Typ: core.ColumnInteger},
					"last_login":       {Typ: core.ColumnDate},
				},
			},
		},
	}
}

func runAnalyze(t *testing.T, kind core.Kind, src string, ctx core.Context) core.Metadata {
	t.Helper()
	entry, ok := parser.EntryFor(kind)
	if !ok {
		t.Fatalf("bad kind %q", kind)
	}
	return Run(kind, parser.Parse(entry, src), ctx, rules.Default)
}

func TestProcedureNameAndLOC(t *testing.T) {
	md := runAnalyze(t, core.KindProcedure, procAddJobHistory, core.Context{})
	if md.Procedure == nil {
		t.Fatal("procedure metadata missing")
	}
	if md.Procedure.Name != "add_job_history" {
		t.Errorf("name = %q", md.Procedure.Name)
	}
	if md.Procedure.LinesOfCode != 5 {
		t.Errorf("linesOfCode = %d, want 5", md.Procedure.LinesOfCode)
	}
	if md.Function != nil || md.Trigger != nil || md.Query != nil {
		t.Error("only the procedure field may be populated")
	}
}

func TestQueryOuterJoins(t *testing.T) {
	src := `SELECT * FROM persons, places WHERE places.person_id(+) = persons.id;`
	md := runAnalyze(t, core.KindQuery, src, core.Context{})
	if md.Query == nil {
		t.Fatal("query metadata missing")
	}
	if md.Query.OuterJoins != 1 {
		t.Errorf("outerJoins = %d, want 1", md.Query.OuterJoins)
	}
}

func TestFunctionHeader(t *testing.T) {
	md := runAnalyze(t, core.KindFunction, funcHeadingExample, core.Context{})
	if md.Function == nil {
		t.Fatal("function metadata missing")
	}
	if md.Function.Name != "function_heading_example" {
		t.Errorf("name = %q", md.Function.Name)
	}
	if md.Function.LinesOfCode != 3 {
		t.Errorf("linesOfCode = %d, want 3", md.Function.LinesOfCode)
	}
	if len(md.Function.Parameters) != 5 {
		t.Errorf("parameter count = %d, want 5", len(md.Function.Parameters))
	}

	var names []string
	for _, hit := range md.Rules {
		names = append(names, hit.Name)
	}
	wantHit := map[string]bool{"CYAR-0002": false, "CYAR-0003": false}
	for _, n := range names {
		if _, ok := wantHit[n]; ok {
			wantHit[n] = true
		}
	}
	for name, seen := range wantHit {
		if !seen {
			t.Errorf("rule %s missing from %v", name, names)
		}
	}
}

func TestTypeResolutionWithContext(t *testing.T) {
	md := runAnalyze(t, core.KindProcedure, procLogLastLoginFuzzy, personsContext())
	if md.Procedure == nil {
		t.Fatal("procedure metadata missing")
	}
	if md.Procedure.Name != "log_last_login_fuzzy" {
		t.Errorf("name = %q", md.Procedure.Name)
	}
	if md.Procedure.LinesOfCode != 5 {
		t.Errorf("linesOfCode = %d, want 5", md.Procedure.LinesOfCode)
	}

	params := md.Procedure.Parameters
	if len(params) != 2 {
		t.Fatalf("parameter count = %d", len(params))
	}
	if params[0].Resolved != "integer" {
		t.Errorf("ip_id resolved = %q, want integer", params[0].Resolved)
	}
	if params[1].Resolved != "date" {
		t.Errorf("ip_last_login resolved = %q, want date", params[1].Resolved)
	}

	if len(md.Rules) != 2 {
		t.Fatalf("rules = %v, want exactly CYAR-0002 and CYAR-0003", md.Rules)
	}
	src := procLogLastLoginFuzzy

	is := md.Rules[0]
	if is.Name != "CYAR-0002" || len(is.Locations) != 1 {
		t.Fatalf("first hit = %+v", is)
	}
	loc := is.Locations[0]
	if got := src[loc.Offset.Start:loc.Offset.End]; got != "IS" {
		t.Errorf("CYAR-0002 slice = %q, want \"IS\"", got)
	}

	end := md.Rules[1]
	if end.Name != "CYAR-0003" || len(end.Locations) != 1 {
		t.Fatalf("second hit = %+v", end)
	}
	loc = end.Locations[0]
	if got := src[loc.Offset.Start:loc.Offset.End]; got != "END log_last_login_fuzzy" {
		t.Errorf("CYAR-0003 slice = %q", got)
	}
}

func TestUnresolvedTypeReference(t *testing.T) {
	md := runAnalyze(t, core.KindProcedure, procLogLastLoginFuzzy, core.Context{})
	params := md.Procedure.Parameters
	if len(params) != 2 {
		t.Fatalf("parameter count = %d", len(params))
	}
	for _, p := range params {
		if p.Resolved != "" {
			t.Errorf("param %s resolved = %q, want empty without context", p.Name, p.Resolved)
		}
	}
}

func TestAnalyzeGarbageStillFills(t *testing.T) {
	md := runAnalyze(t, core.KindProcedure, "??? not a procedure at all", core.Context{})
	if md.Procedure == nil {
		t.Fatal("procedure metadata must be present even for garbage")
	}
	if md.Procedure.Name != "" || md.Procedure.LinesOfCode != 0 {
		t.Errorf("garbage metadata = %+v, want zero values", md.Procedure)
	}
	if md.Rules == nil {
		t.Error("rules must always be present")
	}
}

func TestDeterminism(t *testing.T) {
	a := runAnalyze(t, core.KindProcedure, procLogLastLoginFuzzy, personsContext())
	b := runAnalyze(t, core.KindProcedure, procLogLastLoginFuzzy, personsContext())
	if a.Procedure.Name != b.Procedure.Name || a.Procedure.LinesOfCode != b.Procedure.LinesOfCode {
		t.Error("repeated analyses differ")
	}
	if len(a.Rules) != len(b.Rules) {
		t.Error("repeated analyses differ in rules")
	}
}
