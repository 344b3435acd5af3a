package grading

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/dnvaishnavi/automated-multimodal-grader/internal/rubric"
)

// Equation kinds, decided by syntactic inspection of the expected equation.
const (
	eqReaction    = "reaction"
	eqComputation = "computation"
	eqLaw         = "law"
)

var arrowGlyphs = []string{"⟶", "→", "⇌", "=>"}

var subscriptDigits = strings.NewReplacer(
	"₀", "0", "₁", "1", "₂", "2", "₃", "3", "₄", "4",
	"₅", "5", "₆", "6", "₇", "7", "₈", "8", "₉", "9",
)

var stateSymbols = strings.NewReplacer(
	"(s)", "", "(l)", "", "(g)", "", "(aq)", "",
	"(S)", "", "(L)", "", "(G)", "", "(AQ)", "", "(Aq)", "",
)

// NormalizeReaction canonicalizes a chemical equation: arrow glyphs unify to
// "->", state symbols and whitespace are stripped, unicode subscripts become
// ASCII digits. The function is idempotent.
func NormalizeReaction(eq string) string {
	for _, g := range arrowGlyphs {
		eq = strings.ReplaceAll(eq, g, "->")
	}
	eq = subscriptDigits.Replace(eq)
	eq = stateSymbols.Replace(eq)
	return strings.Join(strings.Fields(eq), "")
}

// parseReaction splits a normalized reaction into sorted reactant and product
// term multisets. Coefficients stay attached to their terms, so "2NaCl" and
// "NaCl" are distinct.
func parseReaction(eq string) (reactants, products []string, ok bool) {
	norm := NormalizeReaction(eq)
	lhs, rhs, found := strings.Cut(norm, "->")
	if !found || lhs == "" || rhs == "" {
		return nil, nil, false
	}
	reactants = splitTerms(lhs)
	products = splitTerms(rhs)
	return reactants, products, len(reactants) > 0 && len(products) > 0
}

func splitTerms(side string) []string {
	parts := strings.Split(side, "+")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

func sameTerms(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func detectEquationKind(eq string) string {
	for _, g := range append([]string{"->"}, arrowGlyphs...) {
		if strings.Contains(eq, g) {
			return eqReaction
		}
	}
	rhs := eq
	if _, after, found := strings.Cut(eq, "="); found {
		rhs = after
	}
	if _, err := strconv.ParseFloat(strings.TrimSpace(rhs), 64); err == nil {
		return eqComputation
	}
	return eqLaw
}

func (e *Engine) evaluateEquation(ctx context.Context, equations []string, kp rubric.KeyPoint) evidence {
	check, ok := kp.Check.(rubric.EquationCheck)
	if !ok || check.ExpectedEquation == "" {
		return evidence{source: "equation", reason: "no expected equation"}
	}

	switch detectEquationKind(check.ExpectedEquation) {
	case eqReaction:
		expR, expP, ok := parseReaction(check.ExpectedEquation)
		if !ok {
			return evidence{source: "equation", reason: "expected reaction unparseable"}
		}
		for _, eq := range equations {
			stuR, stuP, ok := parseReaction(eq)
			if ok && sameTerms(stuR, expR) && sameTerms(stuP, expP) {
				return evidence{matched: true, awarded: kp.Marks, source: "equation", reason: "correct chemical reaction"}
			}
		}
		return evidence{source: "equation", reason: "reaction mismatch"}

	case eqComputation:
		if e.matchSymbolic(ctx, equations, check.ExpectedEquation) {
			return evidence{matched: true, awarded: kp.Marks, source: "equation", reason: "correct numerical computation"}
		}
		return evidence{source: "equation", reason: "incorrect computation"}

	default: // law
		if e.matchSymbolic(ctx, equations, check.ExpectedEquation) {
			return evidence{matched: true, awarded: kp.Marks, source: "equation", reason: "correct symbolic equation"}
		}
		return evidence{source: "equation", reason: "equation mismatch"}
	}
}

// matchSymbolic accepts a candidate when simplify(candidate - expected) is
// zero. Parse failures on a candidate skip it rather than failing the check.
func (e *Engine) matchSymbolic(ctx context.Context, candidates []string, expected string) bool {
	if e.symbolic == nil {
		return false
	}
	exp := exprSide(expected)
	for _, c := range candidates {
		stu := exprSide(c)
		if stu == "" || exp == "" {
			continue
		}
		cctx, cancel := e.callCtx(ctx)
		simplified, err := e.symbolic.Simplify(cctx, "("+stu+")-("+exp+")")
		cancel()
		if err != nil {
			continue
		}
		if strings.TrimSpace(simplified) == "0" {
			return true
		}
	}
	return false
}

// exprSide strips whitespace and, for "lhs = rhs" forms, keeps the right-hand
// side so assignments compare by their value expression.
func exprSide(expr string) string {
	expr = strings.Join(strings.Fields(expr), "")
	if _, after, found := strings.Cut(expr, "="); found {
		return after
	}
	return expr
}
