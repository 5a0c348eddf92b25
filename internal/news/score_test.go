package news

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/deusflow/industry-news/internal/profile"
)

func testScorer() *Scorer {
	return &Scorer{
		Base:              5,
		HighPriorityBonus: 3,
		EntityBonus:       2,
		QuantityBonus:     1,
		UnitBonus:         1,
		ActionBonus:       1,
		ActionCap:         2,
		Entities:          []string{"삼성전자", "현대중공업"},
		Actions:           []string{"수주", "인수", "투자"},
		HighPriority:      []string{"수주"},
	}
}

func TestScore(t *testing.T) {
	s := testScorer()
	shipbuilding := profile.Category{Name: "조선", HighPriority: []string{"LNG선"}}

	tests := []struct {
		name string
		item Item
		want int
	}{
		{"base only", Item{Title: "날씨 맑음"}, 5},
		// 5 + 2x3 high priority + 2 entity + 1 digit + 1 unit + 1 action
		{"all bonuses", Item{Title: "현대중공업, LNG선 3척 수주"}, 16},
		{"digit without unit", Item{Title: "2분기 실적"}, 6},
		// 5 + 3 high priority + actions capped at 2
		{"action cap", Item{Title: "수주 인수 투자"}, 10},
		{"description counts", Item{Title: "업계 소식", Description: "삼성전자 발표"}, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Score(tt.item, shipbuilding))
		})
	}
}

func TestScoreDeterministic(t *testing.T) {
	s := testScorer()
	it := Item{Title: "삼성전자 10% 투자 확대", Description: "LNG선 수주"}
	c := profile.Category{HighPriority: []string{"LNG선"}}
	first := s.Score(it, c)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, s.Score(it, c))
	}
}

func TestScoreShortASCIIKeyword(t *testing.T) {
	s := &Scorer{Base: 5, HighPriorityBonus: 3}
	c := profile.Category{HighPriority: []string{"AI"}}
	assert.Equal(t, 8, s.Score(Item{Title: "AI 반도체 수요"}, c))
	assert.Equal(t, 5, s.Score(Item{Title: "he said so"}, c))
}

func TestClassify(t *testing.T) {
	p := &profile.Profile{
		Categories: []profile.Category{
			{Name: "조선", MatchKeywords: []string{"조선", "선박"}},
			{Name: "IT", MatchKeywords: []string{"개발자", "소프트웨어"}},
			{Name: profile.Other},
		},
	}
	assert.Equal(t, "조선", Classify(Item{Title: "선박 설계 채용"}, p))
	assert.Equal(t, "IT", Classify(Item{Description: "백엔드 개발자 모집"}, p))
	assert.Equal(t, profile.Other, Classify(Item{Title: "편의점 아르바이트"}, p))
}
