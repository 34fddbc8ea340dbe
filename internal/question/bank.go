// Package question loads the static question bank and serves filtered,
// randomly sampled reads from it.
package question

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
)

var ErrNotFound = errors.New("category or difficulty not found")

// Question is one multiple-choice item: the correct answer plus three
// distractors. Field names mirror the bank file format.
type Question struct {
	Text       string `json:"question"`
	TrueAnswer string `json:"true_answer"`
	Answer1    string `json:"answer_1"`
	Answer2    string `json:"answer_2"`
	Answer3    string `json:"answer_3"`
}

// difficultyOrder fixes the presentation order of the three levels.
var difficultyOrder = []string{"easy", "medium", "hard"}

type bankFile struct {
	Categories []bankCategory `json:"categories"`
}

type bankCategory struct {
	Category         string                `json:"category"`
	DifficultyLevels map[string][]Question `json:"difficulty_levels"`
}

// CategoryInfo is the metadata exposed to clients: which difficulty levels
// a category has and how many questions each holds. The questions
// themselves are served separately.
type CategoryInfo struct {
	Category     string         `json:"category"`
	Difficulties []string       `json:"difficulty_levels"`
	Counts       map[string]int `json:"question_counts"`
}

// Bank holds the immutable categorized question set.
type Bank struct {
	order      []string
	categories map[string]map[string][]Question
}

// NewBank loads the bank from a JSON file. A missing or malformed file is
// an error; the server refuses to start without its questions.
func NewBank(path string) (*Bank, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading question bank: %w", err)
	}
	var f bankFile
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parsing question bank: %w", err)
	}

	bank := &Bank{categories: map[string]map[string][]Question{}}
	for _, c := range f.Categories {
		if _, ok := bank.categories[c.Category]; ok {
			return nil, fmt.Errorf("duplicate category %q in question bank", c.Category)
		}
		bank.order = append(bank.order, c.Category)
		levels := map[string][]Question{}
		for lvl, qs := range c.DifficultyLevels {
			levels[lvl] = qs
		}
		bank.categories[c.Category] = levels
	}
	return bank, nil
}

// Categories returns per-category metadata in bank file order.
func (b *Bank) Categories() []CategoryInfo {
	out := make([]CategoryInfo, 0, len(b.order))
	for _, name := range b.order {
		levels := b.categories[name]
		info := CategoryInfo{Category: name, Counts: map[string]int{}}
		for _, lvl := range difficultyOrder {
			if qs, ok := levels[lvl]; ok {
				info.Difficulties = append(info.Difficulties, lvl)
				info.Counts[lvl] = len(qs)
			}
		}
		// Levels outside the canonical three still get listed.
		for lvl, qs := range levels {
			if _, ok := info.Counts[lvl]; !ok {
				info.Difficulties = append(info.Difficulties, lvl)
				info.Counts[lvl] = len(qs)
			}
		}
		out = append(out, info)
	}
	return out
}

// Count returns the number of questions for a category/difficulty pair.
func (b *Bank) Count(category, difficulty string) (int, error) {
	qs, err := b.lookup(category, difficulty)
	if err != nil {
		return 0, err
	}
	return len(qs), nil
}

// Questions returns a uniform random sample without replacement of size
// min(count, available). count <= 0 means all questions, in random order.
func (b *Bank) Questions(category, difficulty string, count int) ([]Question, error) {
	qs, err := b.lookup(category, difficulty)
	if err != nil {
		return nil, err
	}

	shuffled := make([]Question, len(qs))
	copy(shuffled, qs)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	if count <= 0 || count > len(shuffled) {
		return shuffled, nil
	}
	return shuffled[:count], nil
}

func (b *Bank) lookup(category, difficulty string) ([]Question, error) {
	levels, ok := b.categories[category]
	if !ok {
		return nil, ErrNotFound
	}
	qs, ok := levels[difficulty]
	if !ok {
		return nil, ErrNotFound
	}
	return qs, nil
}

// ShuffledAnswers returns the four answer options in a fresh random order.
// Each call permutes anew so no position correlates with correctness.
func ShuffledAnswers(q Question) []string {
	answers := []string{q.TrueAnswer, q.Answer1, q.Answer2, q.Answer3}
	rand.Shuffle(len(answers), func(i, j int) {
		answers[i], answers[j] = answers[j], answers[i]
	})
	return answers
}
