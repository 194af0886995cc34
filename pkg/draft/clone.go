package draft

// Clone returns a deep copy of a JSON-like document made of maps, slices and
// scalars. Values of other types are returned as-is.
func Clone(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = Clone(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = Clone(item)
		}
		return out
	default:
		return v
	}
}

// CloneDraft copies d including its document.
func CloneDraft(d Draft) Draft {
	d.Data = Clone(d.Data)
	return d
}
