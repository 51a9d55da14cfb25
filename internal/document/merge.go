package document

// Merge layers source onto target and returns target. Nested objects are merged
// recursively, creating them in target when absent. Arrays and scalars from source
// replace target's value, except nil which leaves target's value in place.
// Arrays are copied, so the result never shares backing storage with source.
func Merge(target, source map[string]any) map[string]any {
	if target == nil {
		target = make(map[string]any, len(source))
	}
	for key, value := range source {
		switch v := value.(type) {
		case nil:
			continue
		case map[string]any:
			nested, ok := target[key].(map[string]any)
			if !ok {
				nested = make(map[string]any, len(v))
			}
			target[key] = Merge(nested, v)
		case []any:
			target[key] = cloneSlice(v)
		default:
			target[key] = v
		}
	}
	return target
}

func cloneSlice(src []any) []any {
	out := make([]any, len(src))
	for i, item := range src {
		out[i] = cloneValue(item)
	}
	return out
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = cloneValue(item)
		}
		return out
	case []any:
		return cloneSlice(v)
	default:
		return v
	}
}
