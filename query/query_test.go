package query

import (
	"testing"

	"go.mongodb.org/mongo-driver/v2/bson"
)

func parseAndEval(t *testing.T, raw map[string]any, doc Doc) bool {
	t.Helper()
	e, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse(%v) error: %v", raw, err)
	}
	return Eval(e, doc)
}

func TestEqShorthand(t *testing.T) {
	doc := Doc{"context": Doc{"price": 50.0}}
	if !parseAndEval(t, map[string]any{"context.price": 50.0}, doc) {
		t.Fatal("expected match")
	}
	if parseAndEval(t, map[string]any{"context.price": 51.0}, doc) {
		t.Fatal("expected no match")
	}
}

func TestRangeAnd(t *testing.T) {
	doc := Doc{"context": Doc{"price": 100.0}}
	raw := map[string]any{"context.price": map[string]any{"$gte": 50.0, "$lte": 500.0}}
	if !parseAndEval(t, raw, doc) {
		t.Fatal("expected 100 in [50,500]")
	}
	raw2 := map[string]any{"context.price": map[string]any{"$gte": 500.0}}
	if parseAndEval(t, raw2, doc) {
		t.Fatal("expected 100 not >= 500")
	}
}

func TestMissingFieldExists(t *testing.T) {
	doc := Doc{"context": Doc{}}
	raw := map[string]any{"context.price": map[string]any{"$exists": false}}
	if !parseAndEval(t, raw, doc) {
		t.Fatal("missing intermediate should satisfy $exists:false")
	}
}

func TestIncomparableTypeIsFalseNotError(t *testing.T) {
	doc := Doc{"context": Doc{"price": "not-a-number"}}
	raw := map[string]any{"context.price": map[string]any{"$gt": 10.0}}
	e, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if Eval(e, doc) {
		t.Fatal("expected false for incomparable comparison")
	}
}

func TestUnknownOperator(t *testing.T) {
	_, err := Parse(map[string]any{"field": map[string]any{"$bogus": 1}})
	if err == nil {
		t.Fatal("expected error for unknown operator")
	}
	var qerr *Error
	if !asQueryError(err, &qerr) {
		t.Fatalf("expected *query.Error, got %T", err)
	}
	if qerr.Reason != "unknown_operator" {
		t.Fatalf("expected unknown_operator reason, got %s", qerr.Reason)
	}
}

func asQueryError(err error, target **Error) bool {
	e, ok := err.(*Error)
	if ok {
		*target = e
	}
	return ok
}

func TestElemMatch(t *testing.T) {
	doc := Doc{"tags": []any{
		Doc{"name": "a", "active": true},
		Doc{"name": "b", "active": false},
	}}
	raw := map[string]any{
		"tags": map[string]any{
			"$elemMatch": map[string]any{"name": "b", "active": false},
		},
	}
	if !parseAndEval(t, raw, doc) {
		t.Fatal("expected elemMatch to find element b")
	}
}

func TestModAndRegex(t *testing.T) {
	doc := Doc{"n": 10.0, "s": "Hello World"}
	if !parseAndEval(t, map[string]any{"n": map[string]any{"$mod": []any{5, 0}}}, doc) {
		t.Fatal("10 mod 5 == 0")
	}
	if !parseAndEval(t, map[string]any{"s": map[string]any{"$regex": "^hello", "$options": "i"}}, doc) {
		t.Fatal("expected case-insensitive regex match")
	}
}

func TestAndOrNorTopLevel(t *testing.T) {
	doc := Doc{"a": 1.0, "b": 2.0}
	raw := map[string]any{
		"$or": []any{
			map[string]any{"a": 5.0},
			map[string]any{"b": 2.0},
		},
	}
	if !parseAndEval(t, raw, doc) {
		t.Fatal("expected $or match on b")
	}
	raw2 := map[string]any{
		"$nor": []any{
			map[string]any{"a": 5.0},
			map[string]any{"b": 5.0},
		},
	}
	if !parseAndEval(t, raw2, doc) {
		t.Fatal("expected $nor to pass since neither matches")
	}
}

func TestToSQLPushableAndFallback(t *testing.T) {
	e, err := Parse(map[string]any{"context.price": map[string]any{"$gte": 50.0}})
	if err != nil {
		t.Fatal(err)
	}
	clause, args, ok := ToSQL(e, DialectSQLite)
	if !ok {
		t.Fatal("expected pushable simple comparison")
	}
	if clause == "" || len(args) != 1 {
		t.Fatalf("unexpected sql output: %q %v", clause, args)
	}

	e2, err := Parse(map[string]any{"tags": map[string]any{"$size": 2}})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, ok := ToSQL(e2, DialectSQLite); ok {
		t.Fatal("expected $size to be non-pushable")
	}
}

func TestToBSONRoundTrip(t *testing.T) {
	e, err := Parse(map[string]any{"context.price": map[string]any{"$gte": 50.0}})
	if err != nil {
		t.Fatal(err)
	}
	b := ToBSON(e)
	if b == nil {
		t.Fatal("expected non-nil bson.M")
	}
	inner, ok := b["context.price"].(bson.M)
	if !ok {
		t.Fatalf("expected nested map, got %T", b["context.price"])
	}
	if _, ok := inner["$gte"]; !ok {
		t.Fatal("expected $gte to survive conversion")
	}
}
