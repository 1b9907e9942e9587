package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimeOfDayBuckets(t *testing.T) {
	assert.Equal(t, "morning", timeOfDay(0))
	assert.Equal(t, "morning", timeOfDay(11))
	assert.Equal(t, "afternoon", timeOfDay(12))
	assert.Equal(t, "afternoon", timeOfDay(17))
	assert.Equal(t, "evening", timeOfDay(18))
	assert.Equal(t, "evening", timeOfDay(23))
}

func TestJournalEntryTextTracksStoryArc(t *testing.T) {
	early := journalEntryText(3, "new-york", "morning", "Minji", "18-24", "female")
	assert.Contains(t, early, "Day 3 in New York")
	assert.Contains(t, early, "internship")

	settling := journalEntryText(15, "la", "evening", "Minji", "25-34", "female")
	assert.Contains(t, settling, "Day 15 in LA")
	assert.Contains(t, settling, "takeout")

	confident := journalEntryText(45, "new-york", "morning", "Minji", "25-34", "female")
	assert.Contains(t, confident, "Minji's story")

	home := journalEntryText(90, "new-york", "morning", "Minji", "25-34", "female")
	assert.Contains(t, home, "home now")
	assert.Contains(t, home, "girl")

	homeMale := journalEntryText(90, "new-york", "morning", "Jun", "25-34", "male")
	assert.Contains(t, homeMale, "guy")
}

func TestConversationStageContext(t *testing.T) {
	assert.Equal(t, "beginner", conversationStageContext(1)["difficulty"])
	assert.Equal(t, "beginner", conversationStageContext(7)["difficulty"])
	assert.Equal(t, "intermediate", conversationStageContext(8)["difficulty"])
	assert.Equal(t, "advanced", conversationStageContext(31)["difficulty"])
	assert.Equal(t, "fluent", conversationStageContext(61)["difficulty"])
}
