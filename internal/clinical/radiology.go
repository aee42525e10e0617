package clinical

import (
	"fmt"
	"regexp"
)

// Tristate is the result of classifying a radiology impression. Unknown
// is a legitimate outcome, distinct from NotAbnormal at every call site.
type Tristate string

const (
	Abnormal    Tristate = "Abnormal"
	NotAbnormal Tristate = "Not Abnormal"
	Unknown     Tristate = "Unknown"
)

// PatternSpec is one classification rule: a regular expression plus an
// optional guard rejecting matches immediately preceded by the given
// text. The guard covers the negative-lookbehind cases the original
// rule corpus relies on, which RE2 cannot express directly.
type PatternSpec struct {
	Pattern     string
	NotPreceded string
}

// Default rule corpora over free-text chest X-ray impressions. Order is
// significant within each list: the first matching rule wins.
var (
	defaultNormalPatterns = []PatternSpec{
		{Pattern: `No.+(acute|significant|definite|suspicious).+(abnormality|disease|opacities)`},
		{Pattern: `Normal`},
		{Pattern: `No pulmonary opacities visualized`},
		{Pattern: `No evidence of acute cardiopulmonary disease`},
		{Pattern: `No lobar consolidation`},
	}

	defaultAbnormalPatterns = []PatternSpec{
		{Pattern: `.+(lobe|RML|peribronchial|basilar) infiltrate`},
		{Pattern: `lobe scarring or atelectasis`},
		{Pattern: `(perihilar|Trace).+opacity`},
		{Pattern: `Peribronchial thickeneing`},
		{Pattern: `Left lower lobe consolidation`},
		{Pattern: `Consolidation in the.+lung`},
		{Pattern: `(Multifocal|lung|pulmonary).+opacities`, NotPreceded: `No `},
		{Pattern: `left pulmonary nodules`},
		{Pattern: ` opacity`, NotPreceded: `no `},
		{Pattern: `.?(left|Left) lung base`},
		{Pattern: `(Subtle left basilar|mass-like spiculated) density`},
		{Pattern: `basilar atelectasis or scarring`},
		{Pattern: `Elevated right hemidiaphragm`},
		{Pattern: `(right hilar|septal) prominence`},
	}
)

type rule struct {
	re          *regexp.Regexp
	notPreceded string
}

func (r rule) match(s string) bool {
	if r.notPreceded == "" {
		return r.re.MatchString(s)
	}
	// A guarded position only rejects that start; the search resumes
	// one character later, the way a lookbehind engine scans.
	offset := 0
	for {
		loc := r.re.FindStringIndex(s[offset:])
		if loc == nil {
			return false
		}
		start := offset + loc[0]
		guard := r.notPreceded
		if start >= len(guard) && s[start-len(guard):start] == guard {
			offset = start + 1
			continue
		}
		return true
	}
}

// Classifier classifies radiology impression text against two ordered
// rule lists. The normal list is evaluated first, so a normal-pattern
// match always takes precedence over an abnormal one.
type Classifier struct {
	normal   []rule
	abnormal []rule
}

// NewClassifier compiles a classifier from rule specs. The lists are
// configuration data; extending the corpus never touches control logic.
func NewClassifier(normal, abnormal []PatternSpec) (*Classifier, error) {
	compile := func(specs []PatternSpec) ([]rule, error) {
		rules := make([]rule, 0, len(specs))
		for _, spec := range specs {
			re, err := regexp.Compile(spec.Pattern)
			if err != nil {
				return nil, fmt.Errorf("compile pattern %q: %w", spec.Pattern, err)
			}
			rules = append(rules, rule{re: re, notPreceded: spec.NotPreceded})
		}
		return rules, nil
	}

	normalRules, err := compile(normal)
	if err != nil {
		return nil, err
	}
	abnormalRules, err := compile(abnormal)
	if err != nil {
		return nil, err
	}

	return &Classifier{normal: normalRules, abnormal: abnormalRules}, nil
}

// DefaultClassifier returns a classifier over the default rule corpora.
func DefaultClassifier() *Classifier {
	c, err := NewClassifier(defaultNormalPatterns, defaultAbnormalPatterns)
	if err != nil {
		// The default corpora are compile-time constants.
		panic(err)
	}
	return c
}

// Classify evaluates the impression text. Normal rules first, in order;
// then abnormal rules; Unknown when neither list matches.
func (c *Classifier) Classify(impression string) Tristate {
	for _, r := range c.normal {
		if r.match(impression) {
			return NotAbnormal
		}
	}
	for _, r := range c.abnormal {
		if r.match(impression) {
			return Abnormal
		}
	}
	return Unknown
}
