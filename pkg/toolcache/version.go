package toolcache

import (
	"sort"
	"strconv"
	"strings"
)

// SortByVersion 按数字片段升序排列，数字相同时退化为字符串比较，保证结果稳定。
func SortByVersion(tools []Tool) {
	sort.SliceStable(tools, func(i, j int) bool {
		cmp := compareVersions(tools[i].Version(), tools[j].Version())
		if cmp != 0 {
			return cmp < 0
		}
		if tools[i].Version() != tools[j].Version() {
			return tools[i].Version() < tools[j].Version()
		}
		return tools[i].Arch() < tools[j].Arch()
	})
}

func compareVersions(a, b string) int {
	aParts := numericParts(a)
	bParts := numericParts(b)
	for len(aParts) < len(bParts) {
		aParts = append(aParts, 0)
	}
	for len(bParts) < len(aParts) {
		bParts = append(bParts, 0)
	}
	for i := range aParts {
		if aParts[i] > bParts[i] {
			return 1
		}
		if aParts[i] < bParts[i] {
			return -1
		}
	}
	return 0
}

func numericParts(version string) []int {
	var parts []int
	current := strings.Builder{}
	for _, r := range version {
		if r >= '0' && r <= '9' {
			current.WriteRune(r)
			continue
		}
		if current.Len() > 0 {
			val, _ := strconv.Atoi(current.String())
			parts = append(parts, val)
			current.Reset()
		}
	}
	if current.Len() > 0 {
		val, _ := strconv.Atoi(current.String())
		parts = append(parts, val)
	}
	return parts
}
