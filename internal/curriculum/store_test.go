package curriculum

import (
	"context"
	"errors"
	"testing"
)

func samplePath() LearningPath {
	return LearningPath{
		ID: "p1", Name: "Backend internship",
		Stages: []Stage{
			{ID: "st2", PathID: "p1", OrderNumber: 2, Name: "Advanced"},
			{ID: "st1", PathID: "p1", OrderNumber: 1, Name: "Basics", Sessions: []Session{
				{ID: "se2", StageID: "st1", OrderNumber: 2, Name: "Practice"},
				{ID: "se1", StageID: "st1", OrderNumber: 1, Name: "Intro", Tests: []Test{
					{ID: "t1", Name: "Intro quiz", ThresholdScore: 1, Questions: []Question{
						{ID: "q1", Type: TypeText, Prompt: "word?", CorrectAnswer: "go", Points: 1},
					}},
				}},
			}},
		},
	}
}

func TestPutPathOrdersStagesAndSessions(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	if err := s.PutPath(ctx, samplePath()); err != nil {
		t.Fatalf("PutPath: %v", err)
	}
	p, err := s.GetPath(ctx, "p1")
	if err != nil {
		t.Fatalf("GetPath: %v", err)
	}
	if p.Stages[0].ID != "st1" || p.Stages[1].ID != "st2" {
		t.Fatalf("stages out of order: %s, %s", p.Stages[0].ID, p.Stages[1].ID)
	}
	if p.Stages[0].Sessions[0].ID != "se1" {
		t.Fatalf("sessions out of order: %s first", p.Stages[0].Sessions[0].ID)
	}
}

func TestPutPathRejectsBrokenStageOrder(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	gap := samplePath()
	gap.Stages[0].OrderNumber = 3 // {3,1}: gap at 2
	if err := s.PutPath(ctx, gap); !errors.Is(err, ErrBadStageOrder) {
		t.Fatalf("gapped order: got %v, want ErrBadStageOrder", err)
	}

	dup := samplePath()
	dup.Stages[0].OrderNumber = 1 // {1,1}
	if err := s.PutPath(ctx, dup); !errors.Is(err, ErrBadStageOrder) {
		t.Fatalf("duplicate order: got %v, want ErrBadStageOrder", err)
	}

	zero := samplePath()
	zero.Stages[1].OrderNumber = 0 // {2,0}: below 1
	if err := s.PutPath(ctx, zero); !errors.Is(err, ErrBadStageOrder) {
		t.Fatalf("zero order: got %v, want ErrBadStageOrder", err)
	}

	// samplePath itself is {2,1}: out of input order but gapless, accepted.
	if err := s.PutPath(ctx, samplePath()); err != nil {
		t.Fatalf("gapless unordered input rejected: %v", err)
	}
}

func TestStageOfTest(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	if err := s.PutPath(ctx, samplePath()); err != nil {
		t.Fatalf("PutPath: %v", err)
	}

	stageID, pathID, err := s.StageOfTest(ctx, "t1")
	if err != nil || stageID != "st1" || pathID != "p1" {
		t.Fatalf("StageOfTest(t1) = %s,%s,%v", stageID, pathID, err)
	}

	// A test stored on its own has no containing stage.
	if err := s.PutTest(ctx, Test{ID: "loose"}); err != nil {
		t.Fatalf("PutTest: %v", err)
	}
	if _, _, err := s.StageOfTest(ctx, "loose"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("ad-hoc test: got %v, want ErrNotFound", err)
	}
}

func TestSanitizeStripsAnswerKeys(t *testing.T) {
	full := Test{ID: "t1", Questions: []Question{
		{ID: "q1", Type: TypeText, Prompt: "word?", CorrectAnswer: "go", Points: 1},
		{ID: "q2", Type: TypeSingleChoice, Prompt: "pick", Options: []string{"a", "b"}, CorrectAnswer: "b", Points: 1},
	}}
	clean := Sanitize(full)
	for i, q := range clean.Questions {
		if q.CorrectAnswer != "" {
			t.Fatalf("question %d still carries its key", i)
		}
	}
	// Original untouched.
	if full.Questions[0].CorrectAnswer != "go" {
		t.Fatalf("Sanitize must copy, not mutate")
	}
	if clean.Questions[1].Options[1] != "b" {
		t.Fatalf("options must survive sanitizing")
	}
}
