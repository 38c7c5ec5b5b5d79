package ast

import (
	"testing"

	"github.com/oxhq/sqlmorph/parser"
	"github.com/oxhq/sqlmorph/syntax"
)

const procFixture = `CREATE OR REPLACE PROCEDURE hr.log_last_login_fuzzy(
    ip_id IN persons.id%TYPE,
    ip_last_login IN OUT NOCOPY persons.last_login%TYPE )
IS
BEGIN
    UPDATE persons SET last_login = ip_last_login WHERE id = ip_id;
END log_last_login_fuzzy;
`

func parseProc(t *testing.T) Procedure {
	t.Helper()
	tree := parser.Parse(parser.EntryProcedure, procFixture)
	node, ok := tree.Root().FirstNodeOfKind(syntax.Procedure)
	if !ok {
		t.Fatal("no Procedure node")
	}
	proc, ok := AsProcedure(node)
	if !ok {
		t.Fatal("AsProcedure failed")
	}
	return proc
}

func TestProcedureName(t *testing.T) {
	proc := parseProc(t)
	name, ok := proc.Name()
	if !ok {
		t.Fatal("no name")
	}
	if got := name.Text(); got != "hr.log_last_login_fuzzy" {
		t.Errorf("name = %q", got)
	}
	if name.IsBare() {
		t.Error("qualified name reported as bare")
	}
}

func TestProcedureParams(t *testing.T) {
	proc := parseProc(t)
	header, ok := proc.Header()
	if !ok {
		t.Fatal("no header")
	}
	list, ok := header.Params()
	if !ok {
		t.Fatal("no param list")
	}
	params := list.Params()
	if len(params) != 2 {
		t.Fatalf("param count = %d", len(params))
	}

	first := params[0]
	if name, _ := first.Name(); name.Text() != "ip_id" {
		t.Errorf("first param name = %q", name.Text())
	}
	if first.Mode() != "IN" {
		t.Errorf("first param mode = %q", first.Mode())
	}
	dt, ok := first.Datatype()
	if !ok {
		t.Fatal("first param has no datatype")
	}
	if !dt.IsTypeAttr() {
		t.Error("first param datatype should be a TYPE-attribute reference")
	}
	if got := dt.Text(); got != "persons.id%TYPE" {
		t.Errorf("datatype text = %q", got)
	}
	parts := dt.QualifiedParts()
	if len(parts) != 2 || parts[0] != "persons" || parts[1] != "id" {
		t.Errorf("qualified parts = %v", parts)
	}

	second := params[1]
	if second.Mode() != "IN OUT" {
		t.Errorf("second param mode = %q", second.Mode())
	}
}

func TestProcedureBody(t *testing.T) {
	proc := parseProc(t)
	intro, ok := proc.BodyIntroducer()
	if !ok || intro.Kind != syntax.KwIs {
		t.Error("body introducer should be IS")
	}
	body, ok := proc.Body()
	if !ok {
		t.Fatal("no body")
	}
	if _, ok := body.BeginToken(); !ok {
		t.Error("no BEGIN token")
	}
	if _, ok := body.EndToken(); !ok {
		t.Error("no END token")
	}
	endName, ok := body.EndName()
	if !ok {
		t.Fatal("no END label")
	}
	if endName.Text() != "log_last_login_fuzzy" {
		t.Errorf("END label = %q", endName.Text())
	}
}

func TestFunctionView(t *testing.T) {
	src := "CREATE FUNCTION f RETURN NUMBER IS BEGIN RETURN 1; END f;"
	tree := parser.Parse(parser.EntryFunction, src)
	node, _ := tree.Root().FirstNodeOfKind(syntax.Function)
	fn, ok := AsFunction(node)
	if !ok {
		t.Fatal("AsFunction failed")
	}
	if name, _ := fn.Name(); name.Text() != "f" {
		t.Errorf("name = %q", name.Text())
	}
	rc, ok := fn.ReturnClause()
	if !ok {
		t.Fatal("no return clause")
	}
	dt, ok := rc.Datatype()
	if !ok || dt.Text() != "NUMBER" {
		t.Errorf("return type = %q", dt.Text())
	}
}

func TestDowncastMismatch(t *testing.T) {
	src := "CREATE FUNCTION f RETURN NUMBER IS BEGIN RETURN 1; END f;"
	tree := parser.Parse(parser.EntryFunction, src)
	node, _ := tree.Root().FirstNodeOfKind(syntax.Function)
	if _, ok := AsProcedure(node); ok {
		t.Error("AsProcedure should reject a Function node")
	}
	if _, ok := AsTrigger(node); ok {
		t.Error("AsTrigger should reject a Function node")
	}
}

func TestInvocationView(t *testing.T) {
	src := "SELECT NVL(a, b) FROM t;"
	tree := parser.Parse(parser.EntryQuery, src)
	var inv FunctionInvocation
	found := false
	tree.Root().Walk(func(n syntax.Node) bool {
		if v, ok := AsFunctionInvocation(n); ok {
			inv = v
			found = true
		}
		return true
	})
	if !found {
		t.Fatal("no invocation found")
	}
	if inv.NameText() != "NVL" {
		t.Errorf("invocation name = %q", inv.NameText())
	}
	args, ok := inv.Args()
	if !ok {
		t.Fatal("no arg list")
	}
	if got := len(args.Args()); got != 2 {
		t.Errorf("arg count = %d", got)
	}
}

func TestWhereClauseMarkers(t *testing.T) {
	src := "SELECT * FROM a, b WHERE a.x(+) = b.y AND b.z(+) = a.w;"
	tree := parser.Parse(parser.EntryQuery, src)
	var where WhereClause
	found := false
	tree.Root().Walk(func(n syntax.Node) bool {
		if w, ok := AsWhereClause(n); ok {
			where = w
			found = true
			return false
		}
		return true
	})
	if !found {
		t.Fatal("no where clause")
	}
	if got := len(where.OuterJoinMarkers()); got != 2 {
		t.Errorf("marker count = %d, want 2", got)
	}
}
