// Package importer turns pasted free-text dialogue scripts into library
// conversations.
//
// The input format is speaker-labeled lines with bracketed metadata and
// Korean/English markers, blocks separated by a line of three dashes:
//
//	[Day: 3]
//	[Location: Coffee shop]
//	Sarah: Morning! The usual?
//	Tom: [Practice] [Korean: 네, 아이스 아메리카노 주세요] [English: Yes, an iced americano please]
//	---
package importer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/expresslang/express/pkg/models"
)

var (
	dayRe      = regexp.MustCompile(`\[Day:\s*(\d+)\]`)
	timeRe     = regexp.MustCompile(`\[Time:\s*(.+?)\]`)
	locationRe = regexp.MustCompile(`\[Location:\s*(.+?)\]`)
	journalRe  = regexp.MustCompile(`\[Journal Context:\s*(.+?)\]`)
	koreanRe   = regexp.MustCompile(`\[Korean:\s*(.+?)\]`)
	englishRe  = regexp.MustCompile(`\[English:\s*(.+?)\]`)
	speakerRe  = regexp.MustCompile(`^([A-Za-z]+):\s*(.+)`)
)

// Parsed is one conversation extracted from an import block, ready to be
// saved once a character is attached.
type Parsed struct {
	Title          string                `json:"title"`
	Scenario       string                `json:"scenario"`
	DayNumber      int                   `json:"day_number"`
	TimeOfDay      string                `json:"time_of_day"`
	Location       string                `json:"location"`
	JournalContext string                `json:"journal_context"`
	Dialogue       []models.DialogueTurn `json:"dialogue"`
}

// Parse splits text into blocks and parses each one. Blocks that yield no
// dialogue turns are dropped.
func Parse(text string) []Parsed {
	blocks := strings.Split(text, "\n---")
	parsed := []Parsed{}

	index := 0
	for _, block := range blocks {
		if strings.TrimSpace(block) == "" {
			continue
		}
		if conv, ok := parseBlock(block, index); ok {
			parsed = append(parsed, conv)
		}
		index++
	}
	return parsed
}

// blockState carries the forward scan's in-flight turn.
type blockState struct {
	turns   []models.DialogueTurn
	nextID  int
	speaker string
	text    string
	korean  string
	english string
}

func (b *blockState) flush() {
	if b.speaker == "" {
		return
	}
	var turn models.DialogueTurn
	// Practice classification is purely "both bracket values present at
	// flush", whether or not a [Practice] marker appeared.
	if b.korean != "" && b.english != "" {
		turn = models.PracticeTurn(b.nextID, strings.ToLower(b.speaker), b.korean, b.english)
	} else {
		turn = models.ScriptedTurn(b.nextID, strings.ToLower(b.speaker), b.text)
	}
	b.turns = append(b.turns, turn)
	b.nextID++
	b.korean = ""
	b.english = ""
}

func parseBlock(block string, index int) (Parsed, bool) {
	var (
		dayNumber *int
		timeOfDay string
		location  string
		journal   string
	)

	st := blockState{nextID: 1}

	for _, line := range strings.Split(strings.TrimSpace(block), "\n") {
		line = strings.TrimSpace(line)

		// Metadata lines are hoisted out of the dialogue. First
		// occurrence wins within a block.
		if m := dayRe.FindStringSubmatch(line); m != nil {
			if dayNumber == nil {
				n, _ := strconv.Atoi(m[1])
				dayNumber = &n
			}
			continue
		}
		if m := timeRe.FindStringSubmatch(line); m != nil && !speakerRe.MatchString(line) {
			if timeOfDay == "" {
				timeOfDay = strings.TrimSpace(m[1])
			}
			continue
		}
		if m := locationRe.FindStringSubmatch(line); m != nil && !speakerRe.MatchString(line) {
			if location == "" {
				location = strings.TrimSpace(m[1])
			}
			continue
		}
		if m := journalRe.FindStringSubmatch(line); m != nil && !speakerRe.MatchString(line) {
			if journal == "" {
				journal = strings.TrimSpace(m[1])
			}
			continue
		}

		// Standalone Korean/English lines attach to the current turn.
		if m := koreanRe.FindStringSubmatch(line); m != nil && !speakerRe.MatchString(line) {
			st.korean = strings.TrimSpace(m[1])
			continue
		}
		if m := englishRe.FindStringSubmatch(line); m != nil && !speakerRe.MatchString(line) {
			st.english = strings.TrimSpace(m[1])
			continue
		}

		if m := speakerRe.FindStringSubmatch(line); m != nil {
			st.flush()
			st.speaker = m[1]
			st.text = m[2]

			if strings.Contains(st.text, "[Practice]") {
				// The marker itself is cosmetic; the bracket values
				// decide classification. Strip it and pull any inline
				// Korean/English pair.
				st.text = strings.TrimSpace(strings.Replace(st.text, "[Practice]", "", 1))
				km := koreanRe.FindStringSubmatch(st.text)
				em := englishRe.FindStringSubmatch(st.text)
				if km != nil {
					st.korean = strings.TrimSpace(km[1])
					st.text = ""
				}
				if em != nil {
					st.english = strings.TrimSpace(em[1])
					st.text = ""
				}
			}
			continue
		}

		// Continuation of the current speaker's line.
		if line != "" && st.speaker != "" {
			st.text += " " + line
		}
	}
	st.flush()

	if len(st.turns) == 0 {
		return Parsed{}, false
	}

	day := 1
	if dayNumber != nil {
		day = *dayNumber
	}

	title := "Day " + strconv.Itoa(day) + ": Conversation " + strconv.Itoa(index+1)
	if location != "" {
		title = "Day " + strconv.Itoa(day) + ": " + location
	}

	scenario := journal
	if scenario == "" {
		scenario = "Conversation"
		if first := st.turns[0]; first.Text != nil && *first.Text != "" {
			scenario = truncate(*first.Text, 50) + "..."
		}
	}

	if timeOfDay == "" {
		timeOfDay = "Monday 2:30pm"
	}
	if location == "" {
		location = "Casual encounter"
	}
	if journal == "" {
		journal = scenario
	}

	return Parsed{
		Title:          title,
		Scenario:       scenario,
		DayNumber:      day,
		TimeOfDay:      timeOfDay,
		Location:       location,
		JournalContext: journal,
		Dialogue:       st.turns,
	}, true
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
