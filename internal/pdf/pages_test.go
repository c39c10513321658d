package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectPages(t *testing.T) {
	tests := []struct {
		name      string
		selector  string
		pageCount int
		want      []int
	}{
		{"all", "all", 3, []int{0, 1, 2}},
		{"all uppercase", "ALL", 2, []int{0, 1}},
		{"empty means all", "", 2, []int{0, 1}},
		{"single", "2", 5, []int{1}},
		{"list and range", "1,3-5", 10, []int{0, 2, 3, 4}},
		{"spaces", " 1 , 3 - 4 ", 10, []int{0, 2, 3}},
		{"duplicates collapse", "2,1-3,2", 5, []int{0, 1, 2}},
		{"unsorted input", "4,1", 5, []int{0, 3}},
		{"out of range dropped", "0,2,9", 3, []int{1}},
		{"range clipped", "2-10", 3, []int{1, 2}},
		{"invalid tokens ignored", "a,2,x-3,-", 3, []int{1}},
		{"nothing valid", "abc", 3, nil},
		{"reversed range is empty", "5-2", 6, nil},
		{"empty document", "all", 0, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectPages(tt.selector, tt.pageCount)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
