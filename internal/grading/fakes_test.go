package grading

import (
	"context"
	"errors"
)

type fakeNLI struct {
	scores NLIScores
	err    error
}

func (f fakeNLI) Classify(context.Context, string, string) (NLIScores, error) {
	return f.scores, f.err
}

type fakeEmbedder struct {
	vec []float64
	err error
}

func (f fakeEmbedder) Embed(context.Context, string) ([]float64, error) {
	return f.vec, f.err
}

// fakeSymbolic answers Simplify from a canned expr->result table; anything
// else is an error, like a real solver rejecting an unparseable expression.
type fakeSymbolic struct {
	results map[string]string
}

func (f fakeSymbolic) Simplify(_ context.Context, expr string) (string, error) {
	if r, ok := f.results[expr]; ok {
		return r, nil
	}
	return "", errors.New("cannot parse")
}

type fakeArbiter struct {
	reply string
	err   error
	calls int
}

func (f *fakeArbiter) Review(context.Context, string) (string, error) {
	f.calls++
	return f.reply, f.err
}
