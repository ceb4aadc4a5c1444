package models

// DirectKey derives the conversation key binding two usernames to one shared
// direct-message thread. The pair is sorted lexicographically before joining,
// so the key is identical regardless of argument order.
func DirectKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "_" + b
}
