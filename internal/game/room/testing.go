//go:build !production

package room

// FixedWords 固定候选词，测试用
type FixedWords []string

func (w FixedWords) Random(n int) []string {
	if n > len(w) {
		n = len(w)
	}
	return append([]string(nil), w[:n]...)
}

