package sofetch

import "net/http"

// MergeHeaders combines header sources into a single canonical header set.
// Sources are applied in order; when two sources carry the same key
// (case-insensitive), the later source replaces every value of the earlier
// one. There is no value concatenation, not even for multi-value headers.
// Nil sources are skipped. The inputs are never mutated.
func MergeHeaders(sources ...http.Header) http.Header {
	merged := make(http.Header)
	for _, src := range sources {
		if src == nil {
			continue
		}
		for k, vv := range src {
			ck := http.CanonicalHeaderKey(k)
			merged.Del(ck)
			for _, v := range vv {
				merged.Add(ck, v)
			}
		}
	}
	return merged
}

// HeaderFromMap converts a plain key→value map into an http.Header with
// canonical keys. Convenient for inline default headers.
func HeaderFromMap(m map[string]string) http.Header {
	if m == nil {
		return nil
	}
	h := make(http.Header, len(m))
	for k, v := range m {
		h.Set(k, v)
	}
	return h
}
