package accesstoken

// Scopes converts string-like scope values to plain strings for scope checks.
func Scopes[T ~string](values ...T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
