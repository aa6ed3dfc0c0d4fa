// Package dedupe removes duplicates from slices while preserving order.
package dedupe

// ByKey keeps the first element for every distinct key, in input order.
//
// Example:
//
//	ByKey([]GeoScope{a, b, a}, GeoScope.Key)
//	// Returns: []GeoScope{a, b}
func ByKey[T any, K comparable](values []T, key func(T) K) []T {
	if len(values) == 0 {
		return values
	}

	seen := make(map[K]struct{}, len(values))
	result := make([]T, 0, len(values))
	for _, v := range values {
		k := key(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		result = append(result, v)
	}
	return result
}
