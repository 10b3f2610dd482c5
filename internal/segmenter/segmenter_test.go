package segmenter_test

import (
	"strings"
	"testing"

	"github.com/notescrub/notescrub/internal/segmenter"
)

func newSegmenter(t *testing.T) *segmenter.Segmenter {
	t.Helper()
	seg, err := segmenter.New()
	if err != nil {
		t.Fatalf("failed to create segmenter: %v", err)
	}
	return seg
}

// --- Sentences tests ---

func TestSentences_Basic(t *testing.T) {
	seg := newSegmenter(t)

	text := "Patient was admitted on Monday. Vitals were stable. Discharged home."
	sents := seg.Sentences(text)
	if len(sents) != 3 {
		t.Fatalf("expected 3 sentences, got %d: %v", len(sents), sents)
	}
	if sents[0] != "Patient was admitted on Monday." {
		t.Errorf("unexpected first sentence: %q", sents[0])
	}
	if sents[2] != "Discharged home." {
		t.Errorf("unexpected last sentence: %q", sents[2])
	}
}

func TestSentences_Trimmed(t *testing.T) {
	seg := newSegmenter(t)

	text := "  First sentence here.   Second sentence here.  "
	for i, s := range seg.Sentences(text) {
		if s != strings.TrimSpace(s) {
			t.Errorf("sentence %d has surrounding whitespace: %q", i, s)
		}
		if s == "" {
			t.Errorf("sentence %d is empty", i)
		}
	}
}

func TestSentences_Empty(t *testing.T) {
	seg := newSegmenter(t)

	if got := seg.Sentences(""); len(got) != 0 {
		t.Errorf("expected no sentences for empty text, got %v", got)
	}
	if got := seg.Sentences("   \n\t  "); len(got) != 0 {
		t.Errorf("expected no sentences for blank text, got %v", got)
	}
}

// --- Groups tests ---

func TestGroups_Remainder(t *testing.T) {
	seg := newSegmenter(t)

	// Five sentences grouped in twos: 2 + 2 + 1.
	text := "One is here. Two is here. Three is here. Four is here. Five is here."
	groups := seg.Groups(text, 2)
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d: %v", len(groups), groups)
	}
	if groups[0] != "One is here. Two is here." {
		t.Errorf("unexpected first group: %q", groups[0])
	}
	if groups[2] != "Five is here." {
		t.Errorf("unexpected last group: %q", groups[2])
	}
}

func TestGroups_SizeOne(t *testing.T) {
	seg := newSegmenter(t)

	text := "First sentence. Second sentence. Third sentence."
	groups := seg.Groups(text, 1)
	sents := seg.Sentences(text)
	if len(groups) != len(sents) {
		t.Errorf("n=1 should yield one group per sentence: got %d groups for %d sentences", len(groups), len(sents))
	}
}

func TestGroups_SizeLargerThanText(t *testing.T) {
	seg := newSegmenter(t)

	text := "Only one sentence here. And a second one."
	groups := seg.Groups(text, 50)
	if len(groups) != 1 {
		t.Fatalf("expected a single group, got %d: %v", len(groups), groups)
	}
	if groups[0] != "Only one sentence here. And a second one." {
		t.Errorf("unexpected group: %q", groups[0])
	}
}

func TestGroups_InvalidSizeTreatedAsOne(t *testing.T) {
	seg := newSegmenter(t)

	text := "First sentence. Second sentence."
	for _, n := range []int{0, -3} {
		groups := seg.Groups(text, n)
		if len(groups) != 2 {
			t.Errorf("n=%d: expected 2 groups, got %d", n, len(groups))
		}
	}
}

func TestGroups_Empty(t *testing.T) {
	seg := newSegmenter(t)

	if got := seg.Groups("", 5); len(got) != 0 {
		t.Errorf("expected no groups for empty text, got %v", got)
	}
}

func TestGroups_RejoinMatchesSentences(t *testing.T) {
	seg := newSegmenter(t)

	// Joining the groups with a single space must reconstruct the same text
	// as joining the individual sentences, for any group size.
	text := "The patient is a 64-year-old male. He presented with chest pain. " +
		"An ECG was performed on arrival. Troponin levels were elevated. " +
		"He was taken to the cath lab. Two stents were placed. " +
		"Recovery was uneventful."
	want := strings.Join(seg.Sentences(text), " ")

	for _, n := range []int{1, 2, 3, 5, 10} {
		got := strings.Join(seg.Groups(text, n), " ")
		if got != want {
			t.Errorf("n=%d: group join mismatch\n got: %q\nwant: %q", n, got, want)
		}
	}
}

func TestGroups_ClinicalAbbreviations(t *testing.T) {
	seg := newSegmenter(t)

	// "Dr." must not terminate a sentence.
	text := "Dr. Smith reviewed the chart. The plan was unchanged."
	sents := seg.Sentences(text)
	if len(sents) != 2 {
		t.Fatalf("expected 2 sentences, got %d: %v", len(sents), sents)
	}
	if !strings.HasPrefix(sents[0], "Dr. Smith") {
		t.Errorf("abbreviation split incorrectly: %q", sents[0])
	}
}
