// Package expr implements the expression tree and evaluator shared by
// insert (constant folding, no binding) and select/update (evaluated
// against a row binding).
package expr

import (
	"github.com/csbase/csbase/dberrors"
	"github.com/csbase/csbase/value"
)

// Kind tags the shape of an Expr node.
type Kind int

const (
	KindLiteral Kind = iota
	KindIdent
	KindArith
	KindCompare
	KindLogic
)

// ArithOp mirrors value.Add/Sub/Mul/Div's operator identity.
type ArithOp int

const (
	Add ArithOp = iota
	Sub
	Mul
	Div
)

// Expr is a single node in the expression tree. Exactly the fields
// relevant to Kind are populated; this mirrors the original's single
// recursive enum (§9 design note: "keep one node type and let the
// evaluator dispatch on the operator tag").
type Expr struct {
	Kind Kind

	Literal value.Value
	Ident   string

	ArithOp   ArithOp
	CompareOp value.Comparator
	LogicOp   value.LogicOp

	Left  *Expr
	Right *Expr
}

func Lit(v value.Value) *Expr { return &Expr{Kind: KindLiteral, Literal: v} }
func Ident(name string) *Expr { return &Expr{Kind: KindIdent, Ident: name} }

func Arithmetic(left *Expr, op ArithOp, right *Expr) *Expr {
	return &Expr{Kind: KindArith, ArithOp: op, Left: left, Right: right}
}

func Compare(left *Expr, op value.Comparator, right *Expr) *Expr {
	return &Expr{Kind: KindCompare, CompareOp: op, Left: left, Right: right}
}

func Logical(left *Expr, op value.LogicOp, right *Expr) *Expr {
	return &Expr{Kind: KindLogic, LogicOp: op, Left: left, Right: right}
}

// Binding maps identifier names to values; it is the "row binding" the
// evaluator resolves column references against during a scan.
type Binding map[string]value.Value

// Eval evaluates e. binding may be nil, in which case e must be a purely
// literal/arithmetic tree (the contract insert expressions rely on).
// Operators propagate the first error encountered; the left operand is
// always evaluated before the right.
func Eval(e *Expr, binding Binding) (value.Value, error) {
	switch e.Kind {
	case KindLiteral:
		return e.Literal, nil
	case KindIdent:
		if binding == nil {
			return value.Value{}, dberrors.Validation("identifier used without values")
		}
		v, ok := binding[e.Ident]
		if !ok {
			return value.Value{}, dberrors.Validation("unresolved identifier %q", e.Ident)
		}
		return v, nil
	case KindArith:
		left, err := Eval(e.Left, binding)
		if err != nil {
			return value.Value{}, err
		}
		right, err := Eval(e.Right, binding)
		if err != nil {
			return value.Value{}, err
		}
		return evalArith(left, e.ArithOp, right)
	case KindCompare:
		left, err := Eval(e.Left, binding)
		if err != nil {
			return value.Value{}, err
		}
		right, err := Eval(e.Right, binding)
		if err != nil {
			return value.Value{}, err
		}
		ok, err := value.Compare(left, e.CompareOp, right)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewBool(ok), nil
	case KindLogic:
		left, err := Eval(e.Left, binding)
		if err != nil {
			return value.Value{}, err
		}
		right, err := Eval(e.Right, binding)
		if err != nil {
			return value.Value{}, err
		}
		return value.Logic(left, e.LogicOp, right)
	default:
		return value.Value{}, dberrors.Validation("unknown expression kind")
	}
}

func evalArith(left value.Value, op ArithOp, right value.Value) (value.Value, error) {
	switch op {
	case Add:
		return value.Add(left, right)
	case Sub:
		return value.Sub(left, right)
	case Mul:
		return value.Mul(left, right)
	case Div:
		return value.Div(left, right)
	default:
		return value.Value{}, dberrors.Validation("unknown arithmetic operator")
	}
}

// EvalConst evaluates e with no binding, as insert expressions require:
// the tree must be purely literal/arithmetic.
func EvalConst(e *Expr) (value.Value, error) {
	return Eval(e, nil)
}
