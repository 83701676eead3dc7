package utils

// UniqueStrings removes duplicates and empty values, keeping first-seen order.
func UniqueStrings(slice []string) []string {
	keys := make(map[string]bool, len(slice))
	list := []string{}
	for _, entry := range slice {
		if entry == "" || keys[entry] {
			continue
		}
		keys[entry] = true
		list = append(list, entry)
	}
	return list
}

// ContainsString reports whether s is in slice.
func ContainsString(slice []string, s string) bool {
	for _, entry := range slice {
		if entry == s {
			return true
		}
	}
	return false
}
