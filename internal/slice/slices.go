package slice

func Map[In, Out any](s []In, fn func(In) Out) []Out {
	out := make([]Out, len(s))
	for i, v := range s {
		out[i] = fn(v)
	}
	return out
}

// NoZero returns the elements of s that are not the zero value of E.
func NoZero[E comparable](s []E) []E {
	var zero E
	out := make([]E, 0, len(s))
	for _, v := range s {
		if v != zero {
			out = append(out, v)
		}
	}
	return out
}

// Unique returns s without duplicates, keeping the first occurrence of each
// element.
func Unique[E comparable](s []E) []E {
	seen := make(map[E]struct{}, len(s))
	out := make([]E, 0, len(s))
	for _, v := range s {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Set returns a lookup set of the elements of s.
func Set[E comparable](s []E) map[E]struct{} {
	out := make(map[E]struct{}, len(s))
	for _, v := range s {
		out[v] = struct{}{}
	}
	return out
}
