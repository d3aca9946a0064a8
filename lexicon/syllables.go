package lexicon

import (
	"fmt"
	"regexp"
	"strings"
)

// English syllable counting is ambiguous: "caramel" is spoken with two or
// three syllables depending on the speaker. Rather than pick one reading,
// every lookup returns an inclusive [min, max] range and callers treat any
// count inside the range as plausible. The permissive stance avoids flagging
// lines that a human would read as correct.

var wordSplitter = regexp.MustCompile(`[ -]+`)

// CleanWord lowercases a token and strips surrounding punctuation the way
// line tokenization expects.
func CleanWord(word string) string {
	return strings.Trim(strings.ToLower(word), ",.!?;: \"'[]()/")
}

// WordSyllables returns the plausible syllable-count range for one cleaned
// word.
func WordSyllables(word string) (min, max int) {
	if word == "" {
		return 0, 0
	}

	letters := keepLetters(word)
	if letters == "" {
		return 0, 0
	}

	groups, ambiguous := vowelGroups(letters)
	if groups == 0 {
		// No vowels at all ("hmm", initialisms); spoken as one beat.
		return 1, 1
	}

	min, max = groups, groups

	// Each multi-vowel run may be a diphthong or a hiatus ("real" is one or
	// two syllables), so it widens the upper bound.
	max += ambiguous

	// Trailing silent e: "love" has two vowel groups but one syllable. The
	// "-le" ending keeps its beat ("table").
	if strings.HasSuffix(letters, "e") && !strings.HasSuffix(letters, "le") && min > 1 {
		min--
	}

	// "-ed" is usually silent after most consonants ("loved", "kissed").
	if strings.HasSuffix(letters, "ed") && !strings.HasSuffix(letters, "ted") && !strings.HasSuffix(letters, "ded") && min > 1 {
		min--
	}

	if min < 1 {
		min = 1
	}
	if max < min {
		max = min
	}
	return min, max
}

// LineSyllables returns the plausible syllable-count range of a line: the
// per-word ranges summed.
func LineSyllables(line string) (min, max int) {
	for _, token := range wordSplitter.Split(line, -1) {
		word := CleanWord(token)
		if word == "" {
			continue
		}
		lo, hi := WordSyllables(word)
		min += lo
		max += hi
	}
	return min, max
}

// keepLetters drops everything but ascii letters (apostrophes, digits).
func keepLetters(word string) string {
	var sb strings.Builder
	for _, r := range word {
		if r >= 'a' && r <= 'z' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// vowelGroups counts maximal vowel runs and how many of them are long enough
// to be ambiguous.
func vowelGroups(letters string) (groups, ambiguous int) {
	inGroup := false
	groupLen := 0
	for _, r := range letters {
		if isVowel(r) {
			if !inGroup {
				groups++
				inGroup = true
				groupLen = 1
			} else {
				groupLen++
			}
			continue
		}
		if inGroup && groupLen >= 2 {
			ambiguous++
		}
		inGroup = false
		groupLen = 0
	}
	if inGroup && groupLen >= 2 {
		ambiguous++
	}
	return groups, ambiguous
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u', 'y':
		return true
	}
	return false
}

// Counter memoizes word lookups in a Store so repeated scoring runs skip the
// heuristic and, more importantly, stay consistent with whatever earlier runs
// recorded.
type Counter struct {
	store *Store
}

// NewCounter wraps store. A nil store disables memoization.
func NewCounter(store *Store) *Counter {
	return &Counter{store: store}
}

// WordSyllables is the memoized variant of the package-level function.
func (c *Counter) WordSyllables(word string) (min, max int, err error) {
	word = CleanWord(word)
	if c.store == nil {
		min, max = WordSyllables(word)
		return min, max, nil
	}

	key := "syllables:" + word
	if cached, ok, err := c.store.Get(key); err != nil {
		return 0, 0, err
	} else if ok {
		if _, err := fmt.Sscanf(cached, "%d-%d", &min, &max); err == nil {
			return min, max, nil
		}
		// Unreadable entry: fall through and recompute.
	}

	min, max = WordSyllables(word)
	if err := c.store.Put(key, fmt.Sprintf("%d-%d", min, max)); err != nil {
		return 0, 0, err
	}
	return min, max, nil
}

// LineSyllables sums the memoized per-word ranges for a line.
func (c *Counter) LineSyllables(line string) (min, max int, err error) {
	for _, token := range wordSplitter.Split(line, -1) {
		word := CleanWord(token)
		if word == "" {
			continue
		}
		lo, hi, err := c.WordSyllables(word)
		if err != nil {
			return 0, 0, err
		}
		min += lo
		max += hi
	}
	return min, max, nil
}
