package recorder

// Scrub returns a copy of doc without nil values, recursing into nested maps.
// Nil marks a value that was never computed; empty strings, zero counts and
// empty maps are intentional and kept. Scrub(Scrub(d)) equals Scrub(d).
func Scrub(doc map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(doc))
	for key, value := range doc {
		switch v := value.(type) {
		case nil:
			continue
		case map[string]interface{}:
			out[key] = Scrub(v)
		default:
			out[key] = v
		}
	}
	return out
}
