package exam

import (
	"fmt"
)

// Difficulty labels a module's question set.
type Difficulty string

const (
	DifficultyBaseline Difficulty = "baseline"
	DifficultyEasier   Difficulty = "easier"
	DifficultyHarder   Difficulty = "harder"
)

// SectionKind is one of the two Digital SAT section types.
type SectionKind string

const (
	SectionReadingWriting SectionKind = "reading_writing"
	SectionMath           SectionKind = "math"
)

// Digital SAT default module timings, in seconds.
const (
	DefaultRWModuleSec   = 32 * 60
	DefaultMathModuleSec = 35 * 60
)

// Blueprint is the static shape of an exam: an ordered list of sections, each
// owning exactly two modules. Blueprints are loaded once and never mutated;
// per-student state lives on Attempt and references blueprint nodes by id.
type Blueprint struct {
	ID       string    `json:"id"`
	Title    string    `json:"title" validate:"required"`
	Sections []Section `json:"sections" validate:"required,len=2,dive"`
}

type Section struct {
	ID      string      `json:"id"`
	Kind    SectionKind `json:"kind" validate:"required,oneof=reading_writing math"`
	Order   int         `json:"order" validate:"required,min=1,max=2"`
	Modules []Module    `json:"modules" validate:"required,len=2,dive"`
}

// Module order 1 is the baseline module every student takes. Order 2 is the
// adaptive slot: it carries an easier and a harder question-set variant and is
// resolved to one of them by routing, never delivered as baseline.
type Module struct {
	ID           string     `json:"id"`
	Order        int        `json:"order" validate:"required,min=1,max=2"`
	TimeLimitSec int        `json:"time_limit_sec" validate:"required,gt=0"`
	Difficulty   Difficulty `json:"difficulty"`

	// Order 1 binding.
	QuestionSetID string `json:"question_set_id,omitempty"`
	// Order 2 variant bindings.
	EasierSetID string `json:"easier_set_id,omitempty"`
	HarderSetID string `json:"harder_set_id,omitempty"`
}

// Validate checks the structural invariants of a Digital SAT blueprint.
func (b *Blueprint) Validate() error {
	if len(b.Sections) != 2 {
		return fmt.Errorf("blueprint %q: want 2 sections, have %d", b.ID, len(b.Sections))
	}
	kinds := map[SectionKind]bool{}
	for i := range b.Sections {
		s := &b.Sections[i]
		if s.Order != i+1 {
			return fmt.Errorf("section %q: order %d out of sequence", s.ID, s.Order)
		}
		if s.Kind != SectionReadingWriting && s.Kind != SectionMath {
			return fmt.Errorf("section %q: unknown kind %q", s.ID, s.Kind)
		}
		if kinds[s.Kind] {
			return fmt.Errorf("section kind %q appears twice", s.Kind)
		}
		kinds[s.Kind] = true
		if len(s.Modules) != 2 {
			return fmt.Errorf("section %q: want 2 modules, have %d", s.ID, len(s.Modules))
		}
		for j := range s.Modules {
			m := &s.Modules[j]
			if m.Order != j+1 {
				return fmt.Errorf("module %q: order %d out of sequence", m.ID, m.Order)
			}
			if m.TimeLimitSec <= 0 {
				return fmt.Errorf("module %q: non-positive time limit", m.ID)
			}
			switch m.Order {
			case 1:
				if m.Difficulty != DifficultyBaseline {
					return fmt.Errorf("module %q: first module must be baseline", m.ID)
				}
				if m.QuestionSetID == "" {
					return fmt.Errorf("module %q: missing question set", m.ID)
				}
			case 2:
				// The adaptive slot's difficulty is resolved per attempt by
				// routing; the blueprint leaves it unset.
				if m.Difficulty == DifficultyBaseline {
					return fmt.Errorf("module %q: adaptive module cannot be baseline", m.ID)
				}
				if m.EasierSetID == "" || m.HarderSetID == "" {
					return fmt.Errorf("module %q: adaptive module needs easier and harder sets", m.ID)
				}
			}
		}
	}
	return nil
}

// FirstModule returns the first section's first module.
func (b *Blueprint) FirstModule() (*Section, *Module) {
	s := &b.Sections[0]
	return s, &s.Modules[0]
}

// ModuleByID looks up a module and its owning section.
func (b *Blueprint) ModuleByID(id string) (*Section, *Module, bool) {
	for i := range b.Sections {
		for j := range b.Sections[i].Modules {
			if b.Sections[i].Modules[j].ID == id {
				return &b.Sections[i], &b.Sections[i].Modules[j], true
			}
		}
	}
	return nil, nil, false
}

// SectionByOrder returns the section with the given 1-based order.
func (b *Blueprint) SectionByOrder(order int) (*Section, bool) {
	for i := range b.Sections {
		if b.Sections[i].Order == order {
			return &b.Sections[i], true
		}
	}
	return nil, false
}

// TotalDurationSec sums every module time limit (134 min for the default shape).
func (b *Blueprint) TotalDurationSec() int {
	total := 0
	for i := range b.Sections {
		for j := range b.Sections[i].Modules {
			total += b.Sections[i].Modules[j].TimeLimitSec
		}
	}
	return total
}

// DigitalSATSets names the question sets a standard blueprint binds.
type DigitalSATSets struct {
	RWBaseline   string
	RWEasier     string
	RWHarder     string
	MathBaseline string
	MathEasier   string
	MathHarder   string
}

// NewDigitalSAT builds the standard two-section blueprint: Reading & Writing
// (32+32 min) followed by Math (35+35 min).
func NewDigitalSAT(id, title string, sets DigitalSATSets) *Blueprint {
	return &Blueprint{
		ID:    id,
		Title: title,
		Sections: []Section{
			{
				ID:    id + "-rw",
				Kind:  SectionReadingWriting,
				Order: 1,
				Modules: []Module{
					{ID: id + "-rw-m1", Order: 1, TimeLimitSec: DefaultRWModuleSec, Difficulty: DifficultyBaseline, QuestionSetID: sets.RWBaseline},
					{ID: id + "-rw-m2", Order: 2, TimeLimitSec: DefaultRWModuleSec, EasierSetID: sets.RWEasier, HarderSetID: sets.RWHarder},
				},
			},
			{
				ID:    id + "-math",
				Kind:  SectionMath,
				Order: 2,
				Modules: []Module{
					{ID: id + "-math-m1", Order: 1, TimeLimitSec: DefaultMathModuleSec, Difficulty: DifficultyBaseline, QuestionSetID: sets.MathBaseline},
					{ID: id + "-math-m2", Order: 2, TimeLimitSec: DefaultMathModuleSec, EasierSetID: sets.MathEasier, HarderSetID: sets.MathHarder},
				},
			},
		},
	}
}
