package digest

// FindAcceptableSubstring searches input for a contiguous substring whose
// digest set intersects accepted. Some fill-in-the-blank puzzles accept any
// substring of what the user typed, optionally anchored to the start and/or
// end of the input.
//
// Enumeration order is a contract, not an implementation detail: the outer
// loop walks end ascending, the inner loop walks beg ascending, and the
// first match wins. The winning substring is silently substituted for the
// user's input before submission, so which match is found matters when
// several substrings collide with an accepted digest.
//
// This is O(n²) digest computations; answer strings are short.
func FindAcceptableSubstring(input string, accepted []string, anchorBeg, anchorEnd bool) (string, bool) {
	for end := 0; end <= len(input); end++ {
		if anchorEnd && end != len(input) {
			continue
		}
		for beg := 0; beg < len(input); beg++ {
			if anchorBeg && beg != 0 {
				continue
			}
			if beg > end {
				continue
			}
			sub := input[beg:end]
			if Matches(sub, accepted) {
				return sub, true
			}
		}
	}
	return "", false
}
