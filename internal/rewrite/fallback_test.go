package rewrite

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestFallback(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
		want string
	}{
		{"first sentence", "삼성전자가 신공장을 착공했다. 투자 규모는 30조원이다.", 50, "삼성전자가 신공장을 착공했다."},
		{"english sentence", "Orders rose. Prices fell.", 50, "Orders rose."},
		{"short text kept", "짧은 설명", 50, "짧은 설명"},
		{"hard cut", strings.Repeat("가", 80), 10, strings.Repeat("가", 9) + "…"},
		{"long first sentence", strings.Repeat("나", 60) + "다. 끝.", 20, strings.Repeat("나", 19) + "…"},
		{"empty", "   ", 50, ""},
		{"zero limit", "내용", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fallback(tt.text, tt.max)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, utf8.RuneCountInString(got), max(tt.max, 0))
		})
	}
}

func TestCap(t *testing.T) {
	assert.Equal(t, "가나", Cap("가나다", 2))
	assert.Equal(t, "가나다", Cap("가나다", 5))
	assert.Equal(t, "", Cap("가나다", 0))
}
