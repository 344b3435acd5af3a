package flowchart

import (
	"regexp"
	"strings"
)

// Intent is the coarse semantic category of a flowchart node's text.
type Intent int

const (
	IntentUnknown Intent = iota
	IntentStart
	IntentEnd
	IntentInput
	IntentOutput
	IntentAssignment
	IntentCondition
	IntentIncrement
	IntentDecrement
)

func (i Intent) String() string {
	switch i {
	case IntentStart:
		return "START"
	case IntentEnd:
		return "END"
	case IntentInput:
		return "INPUT"
	case IntentOutput:
		return "OUTPUT"
	case IntentAssignment:
		return "ASSIGNMENT"
	case IntentCondition:
		return "CONDITION"
	case IntentIncrement:
		return "INCREMENT"
	case IntentDecrement:
		return "DECREMENT"
	default:
		return "UNKNOWN"
	}
}

var (
	startWords  = []string{"start", "begin", "init"}
	endWords    = []string{"end", "stop", "exit", "finish"}
	outputWords = []string{"print", "output", "display", "show", "write"}
	inputWords  = []string{"input", "read", "get", "scan", "enter"}

	incrementRe = regexp.MustCompile(`\w+\s*=\s*\w+\s*\+\s*1`)
	decrementRe = regexp.MustCompile(`\w+\s*=\s*\w+\s*-\s*1`)
	relationRe  = regexp.MustCompile(`[<>]=?|==|!=`)
	wsRe        = regexp.MustCompile(`\s+`)
)

// ClassifyIntent maps free node text to an Intent. Rules are ordered and the
// first match wins: keyword checks run before operator checks so that a node
// like "read x = input()" is INPUT, not ASSIGNMENT.
func ClassifyIntent(text string) Intent {
	t := strings.TrimSpace(wsRe.ReplaceAllString(strings.ToLower(text), " "))

	if containsAny(t, startWords) {
		return IntentStart
	}
	if containsAny(t, endWords) {
		return IntentEnd
	}
	if containsAny(t, outputWords) {
		return IntentOutput
	}
	if containsAny(t, inputWords) {
		return IntentInput
	}

	if strings.Contains(t, "++") || incrementRe.MatchString(t) {
		return IntentIncrement
	}
	if strings.Contains(t, "--") || decrementRe.MatchString(t) {
		return IntentDecrement
	}

	if relationRe.MatchString(t) {
		return IntentCondition
	}
	if strings.Contains(t, "=") {
		return IntentAssignment
	}
	return IntentUnknown
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
