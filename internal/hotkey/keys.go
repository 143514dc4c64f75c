package hotkey

import (
	"fmt"
	"slices"
	"strings"
)

// Candidates 设置面板中可选的按键
var Candidates = func() []string {
	keys := make([]string, 0, 12)
	for i := 1; i <= 12; i++ {
		keys = append(keys, fmt.Sprintf("f%d", i))
	}
	return keys
}()

// Options 返回 all 中未被 exclude 占用的按键，保持原有顺序
func Options(all []string, exclude ...string) []string {
	out := make([]string, 0, len(all))
	for _, k := range all {
		if slices.ContainsFunc(exclude, func(e string) bool { return strings.EqualFold(e, k) }) {
			continue
		}
		out = append(out, k)
	}
	return out
}
