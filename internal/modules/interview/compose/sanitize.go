package compose

import (
	"regexp"
	"strings"
)

var (
	// Whole sentences or parentheticals that narrate pacing instead of speaking.
	leakedPacing = []*regexp.Regexp{
		regexp.MustCompile(`(?i)[\(\[][^\)\]]*(?:phase|pacing|time remaining|minutes? remaining|minutes? left)[^\)\]]*[\)\]]`),
		regexp.MustCompile(`(?i)(?:^|\s)(?:current )?phase:\s*[a-z_-]+[.!]?`),
		regexp.MustCompile(`(?i)(?:^|\s)time remaining:\s*[^.!?]*[.!?]?`),
		regexp.MustCompile(`(?i)(?:^|\s)(?:we have|there (?:is|are)|with) (?:about |roughly |only )?\d+ minutes? (?:remaining|left)(?: in (?:the|this|our) interview)?[.!,]?`),
		regexp.MustCompile(`(?i)(?:^|\s)(?:we(?:'re| are) (?:now )?(?:in|entering) the (?:wrap[- ]up|candidate[- ]questions|main) phase)[.!,]?`),
	}
	whitespace = regexp.MustCompile(`\s+`)
)

// Sanitize strips text the reply model should not have produced: leading
// speaker labels such as "Sarah:" and leaked pacing instructions.
// names are matched case-insensitively in addition to "interviewer" and
// "assistant".
func Sanitize(text string, names ...string) string {
	out := strings.TrimSpace(text)
	out = strings.Trim(out, "\"")
	out = stripLabels(out, names)
	for _, re := range leakedPacing {
		out = re.ReplaceAllString(out, " ")
	}
	out = whitespace.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

func stripLabels(text string, names []string) string {
	labels := []string{"interviewer", "assistant"}
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		labels = append(labels, n)
		if first := strings.Fields(n)[0]; first != n {
			labels = append(labels, first)
		}
	}
	for {
		colon := strings.IndexByte(text, ':')
		if colon <= 0 {
			return text
		}
		head := strings.ToLower(strings.Trim(strings.TrimSpace(text[:colon]), "*"))
		if !containsLabel(labels, head) {
			return text
		}
		text = strings.TrimSpace(strings.TrimLeft(text[colon+1:], "*"))
	}
}

func containsLabel(labels []string, head string) bool {
	for _, l := range labels {
		if head == l {
			return true
		}
	}
	return false
}
