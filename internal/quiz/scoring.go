package quiz

import "strings"

// ScoreQuestion computes the points awarded for a single question given the
// raw response from the answers map (string for multichoice/truefalse,
// []string for multiselect, comma-separated string for enumeration).
// Deterministic and side-effect free; re-running it yields the same result.
func ScoreQuestion(q Question, resp interface{}) int {
	switch q.Type {
	case Multichoice:
		text, ok := resp.(string)
		if !ok {
			return 0
		}
		for _, c := range q.Choices {
			if c.Text == text && c.Points > 0 {
				return c.Points
			}
		}
		return 0

	case TrueFalse:
		text, ok := resp.(string)
		if !ok || len(q.Answer) == 0 {
			return 0
		}
		if boolEqual(text, q.Answer[0]) {
			return q.Points
		}
		return 0

	case Multiselect:
		selected, ok := toStringSlice(resp)
		if !ok {
			return 0
		}
		// Sum over every selected choice. Zero- or negative-point
		// distractors contribute their value; no clamping.
		total := 0
		for _, c := range q.Choices {
			for _, s := range selected {
				if c.Text == s {
					total += c.Points
					break
				}
			}
		}
		return total

	case Enumeration:
		text, ok := resp.(string)
		if !ok {
			return 0
		}
		accepted := make(map[string]bool, len(q.Answer))
		for _, a := range q.Answer {
			accepted[strings.ToLower(strings.TrimSpace(a))] = true
		}
		// Each matching token counts one point; tokens are not deduplicated,
		// mirroring the authoring convention where len(answer) is the max.
		count := 0
		for _, tok := range strings.Split(text, ",") {
			tok = strings.ToLower(strings.TrimSpace(tok))
			if tok == "" {
				continue
			}
			if accepted[tok] {
				count++
			}
		}
		return count
	}
	return 0
}

// Score totals per-question points across the definition, in question order.
func Score(d *Definition, answers map[string]interface{}) int {
	total := 0
	for _, q := range d.Questions {
		resp, ok := answers[q.ID]
		if !ok {
			continue
		}
		total += ScoreQuestion(q, resp)
	}
	return total
}

// Correct reports whether a response lands in the "correct" feedback bucket.
// For multiselect and enumeration any positive award counts.
func Correct(q Question, resp interface{}) bool {
	return ScoreQuestion(q, resp) > 0
}

// boolEqual compares two values as booleans when both parse as one, falling
// back to a case-insensitive text comparison.
func boolEqual(a, b string) bool {
	ab, aok := parseBool(a)
	bb, bok := parseBool(b)
	if aok && bok {
		return ab == bb
	}
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "1", "yes":
		return true, true
	case "false", "f", "0", "no":
		return false, true
	}
	return false, false
}

func toStringSlice(v interface{}) ([]string, bool) {
	switch t := v.(type) {
	case []string:
		return t, true
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out, true
	default:
		return nil, false
	}
}
