package exam_test

import (
	"strings"
	"testing"

	"github.com/peakprep/peakprep-lms/internal/exam"
)

func TestDigitalSATBlueprintIsValid(t *testing.T) {
	bp := testBlueprint()
	if err := bp.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got := bp.TotalDurationSec(); got != 2*exam.DefaultRWModuleSec+2*exam.DefaultMathModuleSec {
		t.Fatalf("total duration = %d", got)
	}
	s, m := bp.FirstModule()
	if s.Kind != exam.SectionReadingWriting || m.Order != 1 {
		t.Fatalf("first module = %s/%d", s.Kind, m.Order)
	}
}

func TestValidateRejectsBadShapes(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(bp *exam.Blueprint)
		errPart string
	}{
		{
			"one section",
			func(bp *exam.Blueprint) { bp.Sections = bp.Sections[:1] },
			"want 2 sections",
		},
		{
			"duplicate section kind",
			func(bp *exam.Blueprint) { bp.Sections[1].Kind = exam.SectionReadingWriting },
			"appears twice",
		},
		{
			"one module",
			func(bp *exam.Blueprint) { bp.Sections[0].Modules = bp.Sections[0].Modules[:1] },
			"want 2 modules",
		},
		{
			"baseline adaptive slot",
			func(bp *exam.Blueprint) { bp.Sections[0].Modules[1].Difficulty = exam.DifficultyBaseline },
			"cannot be baseline",
		},
		{
			"missing variant set",
			func(bp *exam.Blueprint) { bp.Sections[0].Modules[1].HarderSetID = "" },
			"easier and harder sets",
		},
		{
			"module 1 without set",
			func(bp *exam.Blueprint) { bp.Sections[0].Modules[0].QuestionSetID = "" },
			"missing question set",
		},
		{
			"module 1 not baseline",
			func(bp *exam.Blueprint) { bp.Sections[0].Modules[0].Difficulty = exam.DifficultyHarder },
			"must be baseline",
		},
		{
			"zero time limit",
			func(bp *exam.Blueprint) { bp.Sections[0].Modules[0].TimeLimitSec = 0 },
			"time limit",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bp := testBlueprint()
			tc.mutate(bp)
			err := bp.Validate()
			if err == nil {
				t.Fatal("validate passed")
			}
			if !strings.Contains(err.Error(), tc.errPart) {
				t.Fatalf("error %q does not mention %q", err, tc.errPart)
			}
		})
	}
}

func TestModuleLookups(t *testing.T) {
	bp := testBlueprint()
	s, m, ok := bp.ModuleByID("sat1-math-m2")
	if !ok || s.Kind != exam.SectionMath || m.Order != 2 {
		t.Fatalf("lookup: ok=%v section=%v module=%v", ok, s, m)
	}
	if _, _, ok := bp.ModuleByID("nope"); ok {
		t.Fatal("found nonexistent module")
	}
	if _, ok := bp.SectionByOrder(3); ok {
		t.Fatal("found nonexistent section")
	}
}
