// Package feedback holds the message pools shown after an answer is graded.
// Pools are keyed by question type and correctness bucket; content authors can
// override the defaults with a YAML file.
package feedback

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ToneCorrect   = "green"
	ToneIncorrect = "red"
)

type bucket struct {
	Correct   []string `yaml:"correct"`
	Incorrect []string `yaml:"incorrect"`
}

type Pool struct {
	buckets map[string]bucket
	rnd     *rand.Rand
}

type Option func(*Pool)

// WithRand injects a deterministic source for tests.
func WithRand(rnd *rand.Rand) Option {
	return func(p *Pool) { p.rnd = rnd }
}

// NewPool returns a pool preloaded with the built-in messages.
func NewPool(opts ...Option) *Pool {
	p := &Pool{
		buckets: defaultBuckets(),
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// LoadFile replaces the pools for any question type present in the YAML file.
// Types absent from the file keep their defaults.
func (p *Pool) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("feedback pool %s: %w", path, err)
	}
	var override map[string]bucket
	if err := yaml.Unmarshal(data, &override); err != nil {
		return fmt.Errorf("feedback pool %s: %w", path, err)
	}
	for qt, b := range override {
		cur := p.buckets[qt]
		if len(b.Correct) > 0 {
			cur.Correct = b.Correct
		}
		if len(b.Incorrect) > 0 {
			cur.Incorrect = b.Incorrect
		}
		p.buckets[qt] = cur
	}
	return nil
}

// Pick returns a uniformly random message for the (type, correctness) bucket
// and the tone tag the UI colors it with.
func (p *Pool) Pick(questionType string, correct bool) (msg, tone string) {
	b, ok := p.buckets[questionType]
	if !ok {
		b = p.buckets["default"]
	}
	pool := b.Incorrect
	tone = ToneIncorrect
	if correct {
		pool = b.Correct
		tone = ToneCorrect
	}
	if len(pool) == 0 {
		if correct {
			return "Correct!", tone
		}
		return "Not quite.", tone
	}
	return pool[p.rnd.Intn(len(pool))], tone
}

func defaultBuckets() map[string]bucket {
	shared := bucket{
		Correct: []string{
			"Correct! Great job!",
			"That's right, well done!",
			"Nice one, you got it!",
		},
		Incorrect: []string{
			"Not quite, keep trying!",
			"That's not it, you'll get the next one!",
			"Oops, wrong answer.",
		},
	}
	return map[string]bucket{
		"default":     shared,
		"multichoice": shared,
		"truefalse": {
			Correct:   []string{"Correct! Great job!", "Spot on!"},
			Incorrect: []string{"Not this time.", "That's not it, keep going!"},
		},
		"multiselect": {
			Correct:   []string{"Good picks!", "You found the right ones!"},
			Incorrect: []string{"Some of those weren't right.", "Check your picks next time."},
		},
		"enumeration": {
			Correct:   []string{"You listed the right answers!", "Great list!"},
			Incorrect: []string{"Those weren't on the list.", "Try listing different answers."},
		},
	}
}
