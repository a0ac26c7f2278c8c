package helpers

// Truncate shortens the given string to at most n runes, appending "..." if truncation occurs.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:max(n-3, 0)]) + "..."
}
