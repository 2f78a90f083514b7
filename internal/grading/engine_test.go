package grading_test

import (
	"context"
	"testing"

	"github.com/peakprep/peakprep-lms/internal/bank"
	"github.com/peakprep/peakprep-lms/internal/grading"
)

func TestExactMatch(t *testing.T) {
	g := grading.NewDefaultGrader()
	q := bank.Question{Type: bank.TypeMCQSingle, AnswerKey: []string{"B"}, Points: 2}

	res, err := g.Grade(context.Background(), q, "B")
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if res.AutoPoints != 2 || res.NeedsManual {
		t.Fatalf("correct answer: %+v", res)
	}
	res, _ = g.Grade(context.Background(), q, "A")
	if res.AutoPoints != 0 {
		t.Fatalf("wrong answer scored %f", res.AutoPoints)
	}
}

func TestNumericTolerance(t *testing.T) {
	g := grading.NewDefaultGrader()
	cases := []struct {
		key      []string
		response string
		want     float64
	}{
		{[]string{"3.14159", "tol=0.01"}, "3.14", 1},
		{[]string{"3.14159", "tol=0.01"}, "3.2", 0},
		{[]string{"100", "reltol=0.05"}, "104", 1},
		{[]string{"100", "reltol=0.05"}, "110", 0},
		{[]string{"0.5"}, "0.50", 1}, // numerically equal, no tolerance needed
		{[]string{"42"}, "forty-two", 0},
	}
	for _, tc := range cases {
		q := bank.Question{Type: bank.TypeNumeric, AnswerKey: tc.key, Points: 1}
		res, err := g.Grade(context.Background(), q, tc.response)
		if err != nil {
			t.Fatalf("grade %v %q: %v", tc.key, tc.response, err)
		}
		if res.AutoPoints != tc.want {
			t.Errorf("key=%v response=%q: points = %f, want %f", tc.key, tc.response, res.AutoPoints, tc.want)
		}
	}
}

func TestShortWordFuzzy(t *testing.T) {
	g := grading.NewDefaultGrader()
	q := bank.Question{Type: bank.TypeShortWord, AnswerKey: []string{"photosynthesis"}, Points: 4}

	res, _ := g.Grade(context.Background(), q, "Photosynthesis")
	if res.AutoPoints != 4 {
		t.Fatalf("case-insensitive exact: %f, want 4", res.AutoPoints)
	}
	// One typo: half credit.
	res, _ = g.Grade(context.Background(), q, "photosinthesis")
	if res.AutoPoints != 2 {
		t.Fatalf("fuzzy: %f, want 2", res.AutoPoints)
	}
	res, _ = g.Grade(context.Background(), q, "mitochondria")
	if res.AutoPoints != 0 {
		t.Fatalf("unrelated: %f, want 0", res.AutoPoints)
	}
	if _, err := g.Grade(context.Background(), q, "   "); err == nil {
		t.Fatal("blank response accepted")
	}
}

func TestEssayNeedsManual(t *testing.T) {
	g := grading.NewDefaultGrader()
	q := bank.Question{Type: bank.TypeEssay, Points: 10}
	res, err := g.Grade(context.Background(), q, "My essay.")
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if !res.NeedsManual || res.AutoPoints != 0 || res.MaxPoints != 10 {
		t.Fatalf("essay result: %+v", res)
	}
}

func TestUnknownTypeFallsBackToManual(t *testing.T) {
	g := grading.NewDefaultGrader()
	res, err := g.Grade(context.Background(), bank.Question{Type: "drag_drop", Points: 3}, "x")
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if !res.NeedsManual {
		t.Fatal("unknown type should route to manual review")
	}
}
