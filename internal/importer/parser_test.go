package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const sampleBlock = `[Day: 3]
[Time: Tuesday 8:15am]
[Location: Coffee shop]
[Journal Context: Ordering my usual before work]
Sarah: Morning! The usual?
Tom: [Practice] [Korean: 네, 아이스 아메리카노 주세요] [English: Yes, an iced americano please]
Sarah: Coming right up.
That'll be ready in a minute.`

func TestParseSingleBlock(t *testing.T) {
	parsed := Parse(sampleBlock)
	if len(parsed) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(parsed))
	}

	conv := parsed[0]
	assert.Equal(t, 3, conv.DayNumber)
	assert.Equal(t, "Tuesday 8:15am", conv.TimeOfDay)
	assert.Equal(t, "Coffee shop", conv.Location)
	assert.Equal(t, "Ordering my usual before work", conv.JournalContext)
	assert.Equal(t, "Day 3: Coffee shop", conv.Title)
	assert.Equal(t, "Ordering my usual before work", conv.Scenario)

	if len(conv.Dialogue) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(conv.Dialogue))
	}

	first := conv.Dialogue[0]
	assert.Equal(t, 1, first.ID)
	assert.Equal(t, "sarah", first.Speaker)
	assert.False(t, first.IsPractice)
	assert.Equal(t, "Morning! The usual?", *first.Text)

	second := conv.Dialogue[1]
	assert.Equal(t, 2, second.ID)
	assert.Equal(t, "tom", second.Speaker)
	assert.True(t, second.IsPractice)
	assert.Equal(t, "네, 아이스 아메리카노 주세요", *second.KoreanThought)
	assert.Equal(t, "Yes, an iced americano please", *second.EnglishHint)
	assert.Nil(t, second.Text)

	// Continuation line appended with a separating space.
	third := conv.Dialogue[2]
	assert.Equal(t, "Coming right up. That'll be ready in a minute.", *third.Text)
}

func TestParseSplitsOnDashDelimiter(t *testing.T) {
	text := "A: hello\nB: hi\n---\nA: bye\nB: see you"
	parsed := Parse(text)
	if len(parsed) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(parsed))
	}
	assert.Equal(t, "Day 1: Conversation 1", parsed[0].Title)
	assert.Equal(t, "Day 1: Conversation 2", parsed[1].Title)
}

func TestParseMultiLinePracticeMarkers(t *testing.T) {
	text := `Mina: How was the interview?
Jun: [Practice]
[Korean: 생각보다 잘 봤어요]
[English: It went better than I expected]`

	parsed := Parse(text)
	if len(parsed) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(parsed))
	}

	turns := parsed[0].Dialogue
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	assert.True(t, turns[1].IsPractice)
	assert.Equal(t, "생각보다 잘 봤어요", *turns[1].KoreanThought)
	assert.Equal(t, "It went better than I expected", *turns[1].EnglishHint)
}

func TestParsePracticeNeedsBothBrackets(t *testing.T) {
	// A [Practice] marker without both bracket values stays a scripted
	// line; the marker is stripped but not load-bearing.
	text := `Jun: [Practice] [Korean: 혼잣말이에요]
Mina: Got it.`

	parsed := Parse(text)
	turns := parsed[0].Dialogue
	assert.False(t, turns[0].IsPractice)
	assert.Nil(t, turns[0].KoreanThought)
}

func TestParseFirstMetadataOccurrenceWins(t *testing.T) {
	text := `[Day: 2]
[Day: 9]
[Location: Gym]
[Location: Park]
A: quick chat`

	parsed := Parse(text)
	assert.Equal(t, 2, parsed[0].DayNumber)
	assert.Equal(t, "Gym", parsed[0].Location)
}

func TestParseDefaults(t *testing.T) {
	parsed := Parse("A: this line is definitely long enough to be cut down for a scenario preview")
	conv := parsed[0]
	assert.Equal(t, 1, conv.DayNumber)
	assert.Equal(t, "Monday 2:30pm", conv.TimeOfDay)
	assert.Equal(t, "Casual encounter", conv.Location)
	assert.Equal(t, conv.Scenario, conv.JournalContext)
	assert.Len(t, conv.Scenario, 53) // 50 chars plus trailing dots
}

func TestParseSkipsEmptyBlocks(t *testing.T) {
	parsed := Parse("\n---\n\n---\nA: only real block")
	if len(parsed) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(parsed))
	}
	assert.Equal(t, "only real block", *parsed[0].Dialogue[0].Text)
}

func TestParseEmptyInput(t *testing.T) {
	assert.Empty(t, Parse(""))
	assert.Empty(t, Parse("just prose without any speaker lines"))
}

func TestParseTurnIDsAreSequential(t *testing.T) {
	text := "A: one\nB: two\nA: three"
	parsed := Parse(text)
	turns := parsed[0].Dialogue
	for i, turn := range turns {
		assert.Equal(t, i+1, turn.ID)
	}
}
