package results

import "sort"

// TestAggregate is the rolled-up view of one test across attempts.
type TestAggregate struct {
	TestID        string  `json:"test_id"`
	Attempts      int     `json:"attempts"`
	Passed        bool    `json:"passed"`
	BestScore     float64 `json:"best_score"`
	Percentage    float64 `json:"percentage"`
	HasPercentage bool    `json:"has_percentage"` // false when max_possible_score == 0
}

type Summary struct {
	AttemptCount int             `json:"attempt_count"`
	PassedCount  int             `json:"passed_count"` // distinct tests with a passing attempt
	AverageScore float64         `json:"average_score"`
	PerTest      []TestAggregate `json:"per_test"`
}

// Aggregate folds attempt rows into a dashboard summary. Pure function, no
// side effects; callers render HasPercentage=false as an em dash.
func Aggregate(rows []TestResult) Summary {
	sum := Summary{AttemptCount: len(rows)}
	if len(rows) == 0 {
		sum.PerTest = []TestAggregate{}
		return sum
	}

	byTest := map[string]*TestAggregate{}
	total := 0.0
	for _, r := range rows {
		total += r.Score
		agg, ok := byTest[r.TestID]
		if !ok {
			agg = &TestAggregate{TestID: r.TestID}
			byTest[r.TestID] = agg
		}
		agg.Attempts++
		if r.IsPassed {
			agg.Passed = true
		}
		pct, valid := Percentage(r.Score, r.MaxPossibleScore)
		if r.Score >= agg.BestScore {
			agg.BestScore = r.Score
			agg.Percentage = pct
			agg.HasPercentage = valid
		}
	}
	sum.AverageScore = total / float64(len(rows))

	sum.PerTest = make([]TestAggregate, 0, len(byTest))
	for _, agg := range byTest {
		if agg.Passed {
			sum.PassedCount++
		}
		sum.PerTest = append(sum.PerTest, *agg)
	}
	sort.Slice(sum.PerTest, func(i, j int) bool { return sum.PerTest[i].TestID < sum.PerTest[j].TestID })
	return sum
}

// Percentage is score/max*100; undefined when max is zero.
func Percentage(score, max float64) (float64, bool) {
	if max == 0 {
		return 0, false
	}
	return score / max * 100, true
}
