package postgres

import (
	"testing"

	"go-placement-portal/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestResultFilterWhere(t *testing.T) {
	passed := true
	minScore := 6.5

	tests := []struct {
		name      string
		filter    domain.ResultFilter
		wantWhere string
		wantArgs  []any
	}{
		{"no filter", domain.ResultFilter{}, "test_id = $1", []any{int64(11)}},
		{"passed only", domain.ResultFilter{Passed: &passed}, "test_id = $1 AND passed = $2", []any{int64(11), true}},
		{"min score only", domain.ResultFilter{MinScore: &minScore}, "test_id = $1 AND score >= $2", []any{int64(11), 6.5}},
		{
			"both",
			domain.ResultFilter{Passed: &passed, MinScore: &minScore},
			"test_id = $1 AND passed = $2 AND score >= $3",
			[]any{int64(11), true, 6.5},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := resultFilterWhere(11, tt.filter)
			assert.Equal(t, tt.wantWhere, where)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}
