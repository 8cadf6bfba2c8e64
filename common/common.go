// Package common holds functionality that is common to multiple other packages.
package common

import "sort"

// SortedKeys enumerate keys from a string map and sort them.
// TODO: make it for any key type.
func SortedKeys[T any](m map[string]T) (keys []string) {
	keys = make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return
}
