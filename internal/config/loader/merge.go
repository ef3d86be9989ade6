package loader

// AppendKeys are top-level keys whose lists are concatenated, not replaced,
// when an include is merged.
var AppendKeys = map[string]bool{
	"keymaps": true,
}

// MergeInclude merges an included file into the including one. The
// including file's values win, nested maps merge recursively, and lists
// under AppendKeys are concatenated with the including file's entries
// first.
func MergeInclude(main, inc map[string]any) map[string]any {
	out := Clone(inc)
	if out == nil {
		out = make(map[string]any)
	}
	for key, val := range main {
		if AppendKeys[key] {
			mainList, ok1 := val.([]any)
			incList, ok2 := out[key].([]any)
			if ok1 && ok2 {
				joined := make([]any, 0, len(mainList)+len(incList))
				joined = append(joined, mainList...)
				out[key] = append(joined, incList...)
				continue
			}
		}
		if srcMap, ok := val.(map[string]any); ok {
			if dstMap, ok := out[key].(map[string]any); ok {
				out[key] = DeepMerge(dstMap, srcMap)
				continue
			}
		}
		out[key] = val
	}
	return out
}

// DeepMerge recursively merges src into dst.
// Values in src override values in dst.
// Maps are merged recursively; other types are replaced.
func DeepMerge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any)
	}
	for key, srcVal := range src {
		srcMap, srcIsMap := srcVal.(map[string]any)
		dstMap, dstIsMap := dst[key].(map[string]any)
		if srcIsMap && dstIsMap {
			dst[key] = DeepMerge(dstMap, srcMap)
		} else {
			dst[key] = srcVal
		}
	}
	return dst
}

// Clone creates a deep copy of a configuration map.
func Clone(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, val := range src {
		dst[key] = cloneValue(val)
	}
	return dst
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return Clone(v)
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = cloneValue(val)
		}
		return out
	default:
		return v
	}
}
