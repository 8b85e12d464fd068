package expr

import (
	"testing"

	"schemata/internal/data"
)

func TestOpInverseIsInvolution(t *testing.T) {
	for op := Equals; op <= GreaterOrEquals; op++ {
		if got := op.Inverse().Inverse(); got != op {
			t.Fatalf("%v.Inverse().Inverse()=%v", op, got)
		}
		if op.Inverse() == op {
			t.Fatalf("%v.Inverse() is itself", op)
		}
	}
}

func TestEqual(t *testing.T) {
	a := AndExpr{Subs: []Expr{
		Compare(Col("price"), Greater, Const(data.Int(0))),
		InExpr{LHS: Col("kind"), List: []Expr{Const(data.Str("a")), Const(data.Str("b"))}},
	}}
	b := AndExpr{Subs: []Expr{
		Compare(Col("PRICE"), Greater, Const(data.Int(0))),
		InExpr{LHS: Col("kind"), List: []Expr{Const(data.Str("a")), Const(data.Str("b"))}},
	}}
	if !Equal(a, b) {
		t.Fatalf("Equal(a, b)=false")
	}
	c := AndExpr{Subs: []Expr{
		Compare(Col("price"), GreaterOrEquals, Const(data.Int(0))),
		InExpr{LHS: Col("kind"), List: []Expr{Const(data.Str("a")), Const(data.Str("b"))}},
	}}
	if Equal(a, c) {
		t.Fatalf("Equal(a, c)=true")
	}
	if Equal(NullExpr{Sub: Col("x")}, NullExpr{Sub: Col("x"), Not: true}) {
		t.Fatalf("IS NULL equal to IS NOT NULL")
	}
}

func TestColumnsAndConstants(t *testing.T) {
	e := OrExpr{Subs: []Expr{
		BetweenExpr{Subject: Col("a"), Low: Const(data.Int(1)), High: Col("b")},
		Compare(Col("A"), Equals, Const(data.Int(7))),
	}}
	cols := Columns(e)
	if len(cols) != 2 || cols[0] != "a" || cols[1] != "b" {
		t.Fatalf("Columns()=%v", cols)
	}
	if got := len(Constants(e)); got != 2 {
		t.Fatalf("len(Constants())=%d, want 2", got)
	}
}
