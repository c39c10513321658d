package pdf

import (
	"slices"
	"strconv"
	"strings"
)

// SelectPages resolves a page selector against a document of pageCount pages.
// It returns ascending, distinct, 0-based indices.
//
// Accepted forms are "all" (or an empty selector), single 1-based page
// numbers and inclusive ranges, comma separated: "1,3-5". Tokens that do not
// parse are ignored, as are pages outside the document.
func SelectPages(selector string, pageCount int) []int {
	selector = strings.TrimSpace(selector)
	if selector == "" || strings.EqualFold(selector, "all") {
		pages := make([]int, pageCount)
		for i := range pages {
			pages[i] = i
		}
		return pages
	}

	var pages []int
	add := func(page int) {
		idx := page - 1
		if idx >= 0 && idx < pageCount {
			pages = append(pages, idx)
		}
	}

	for _, part := range strings.Split(selector, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if lo, hi, isRange := strings.Cut(part, "-"); isRange {
			start, err1 := strconv.Atoi(strings.TrimSpace(lo))
			end, err2 := strconv.Atoi(strings.TrimSpace(hi))
			if err1 != nil || err2 != nil {
				continue
			}
			for p := max(start, 1); p <= min(end, pageCount); p++ {
				add(p)
			}
			continue
		}

		if n, err := strconv.Atoi(part); err == nil {
			add(n)
		}
	}

	slices.Sort(pages)
	return slices.Compact(pages)
}
