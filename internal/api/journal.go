package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/expresslang/express/internal/api/auth"
)

// journalEntry is the personalized diary page shown before a practice
// session starts.
type journalEntry struct {
	DayNumber         int    `json:"day_number"`
	CharacterName     string `json:"character_name"`
	CharacterEmoji    string `json:"character_emoji"`
	CharacterLocation string `json:"character_location"`
	EntryText         string `json:"entry_text"`
	TimeOfDay         string `json:"time_of_day"`
}

func cityName(location string) string {
	if location == "new-york" {
		return "New York"
	}
	return "LA"
}

// timeOfDay buckets the local hour into morning, afternoon or evening.
func timeOfDay(hour int) string {
	switch {
	case hour < 12:
		return "morning"
	case hour < 18:
		return "afternoon"
	default:
		return "evening"
	}
}

// journalEntryText renders the diary page for a story day. The tone tracks
// the character's arc: overwhelmed in week one, settling in through the
// first month, confident by day sixty, at home after that.
func journalEntryText(dayNumber int, location, tod, characterName, ageGroup, gender string) string {
	city := cityName(location)

	switch {
	case dayNumber <= 7:
		switch tod {
		case "morning":
			if ageGroup == "18-24" {
				return fmt.Sprintf("Day %d in %s\n\nWoke up in my tiny apartment. Still can't believe I'm actually here. The city sounds are overwhelming - sirens, cars, people. Everyone seems to know exactly where they're going except me.\n\nNeed to grab coffee before my first day at the internship. Hope I can find that place the HR person mentioned...", dayNumber, city)
			}
			return fmt.Sprintf("Day %d in %s\n\nAnother restless night. This city never sleeps and apparently neither do I now. The pressure of this new job is real. They expect so much and my English feels so... inadequate.\n\nTeam meeting at 9am. Time to pretend I understand everything they're saying...", dayNumber, city)
		case "afternoon":
			if gender == "female" {
				return fmt.Sprintf("Day %d in %s\n\nLunch alone again. Watching groups of coworkers laughing together. They invited me but I'm scared I won't understand their jokes or know what to say.\n\nWait, someone's approaching my table. It's Sarah from the design team...", dayNumber, city)
			}
			return fmt.Sprintf("Day %d in %s\n\nThe morning meeting was brutal. So many technical terms, so much crosstalk. I nodded and took notes but honestly caught maybe 60%% of it.\n\nNow at lunch and someone from accounting is walking over. Deep breath...", dayNumber, city)
		default:
			return fmt.Sprintf("Day %d in %s\n\nExhausted doesn't even begin to describe it. Every conversation feels like running a mental marathon. But I made it through another day.\n\nMy roommate just knocked. Probably wants to chat about apartment stuff...", dayNumber, city)
		}

	case dayNumber <= 30:
		switch tod {
		case "morning":
			return fmt.Sprintf("Day %d in %s\n\nStarting to find my rhythm. The barista at the corner cafe knows my order now - small victory! The morning commute doesn't feel as intimidating.\n\nBig presentation today. I actually have ideas to contribute. Here goes nothing...", dayNumber, city)
		case "afternoon":
			return fmt.Sprintf("Day %d in %s\n\nToday's team lunch wasn't scary. Actually made a joke that landed! Sure, I practiced it in my head first, but progress is progress.\n\nThe new project manager wants to discuss something. Walking over now...", dayNumber, city)
		default:
			return fmt.Sprintf("Day %d in %s\n\nThree weeks in %s. The words come easier now. Not easy, but easier. Even called to order takeout without rehearsing first.\n\nNeighbors are having a small gathering. They invited me. Maybe I should go...", dayNumber, city, city)
		}

	case dayNumber <= 60:
		switch tod {
		case "morning":
			return fmt.Sprintf("Day %d in %s, %s's story\n\n%s mornings hit different now. I have my spots, my people, my routine. The anxiety is still there but quieter.\n\nLeading today's standup meeting. Six weeks ago this would've terrified me. Now? Just another Tuesday...", dayNumber, city, characterName, city)
		case "afternoon":
			return fmt.Sprintf("Day %d, %s in %s\n\nClient lunch went great! Explained our proposal without freezing up. They chose us! My accent is still there but who cares? They understood.\n\nTeam's celebrating. David's coming over with coffee...", dayNumber, characterName, city)
		default:
			return fmt.Sprintf("Day %d in %s\n\nTwo months here. Got invited to trivia night with the crew. Last month I would've made excuses. Tonight I said yes immediately.\n\nThey're here to pick me up. Time to see if all this practice pays off...", dayNumber, city)
		}

	default:
		local := "guy"
		if gender == "female" {
			local = "girl"
		}
		return fmt.Sprintf("Day %d - %s in %s\n\n%s is home now. That's wild to write but it's true. The intimidating skyline is just my morning view. The fast talkers are my friends.\n\nToday someone asked ME for directions. Gave them the full local treatment - 'turn left at the bodega, can't miss it.' Felt like a real %s %s.\n\nMeeting starting soon. Time to live, not just practice living...", dayNumber, characterName, city, city, city, local)
	}
}

func storyDayNumber(startDate *time.Time) int {
	if startDate == nil {
		return 1
	}
	return int(time.Since(*startDate).Hours()/24) + 1
}

// getJournalEntry renders today's diary page for the caller's character.
func (s *Server) getJournalEntry(c echo.Context) error {
	ctx := c.Request().Context()

	u, err := s.users.ByAuthID(ctx, auth.GetIdentity(c).AuthID)
	if err != nil {
		return err
	}
	if u == nil {
		return fail(c, http.StatusNotFound, "User not found")
	}
	if u.CharacterID == nil {
		return successWithMessage(c, nil, "No character selected")
	}

	ch, err := s.characters.ByID(ctx, *u.CharacterID)
	if err != nil {
		return successWithMessage(c, nil, "Character not found")
	}

	dayNumber := storyDayNumber(u.CharacterStartDate)
	tod := timeOfDay(time.Now().Hour())

	location := strOr(ch.Location, "new-york")
	entry := journalEntry{
		DayNumber:         dayNumber,
		CharacterName:     ch.Name,
		CharacterEmoji:    strOr(ch.Emoji, "👤"),
		CharacterLocation: location,
		EntryText:         journalEntryText(dayNumber, location, tod, ch.Name, strOr(ch.AgeGroup, "25-34"), strOr(ch.Gender, "neutral")),
		TimeOfDay:         tod,
	}
	return success(c, entry)
}

// conversationStageContext maps a story day to the difficulty and mood the
// next conversation should carry.
func conversationStageContext(dayNumber int) map[string]interface{} {
	switch {
	case dayNumber <= 7:
		return map[string]interface{}{
			"difficulty":     "beginner",
			"scenario":       "casual_introduction",
			"emotion":        "nervous",
			"topics":         []string{"introductions", "basic_questions", "directions"},
			"character_mood": "overwhelmed but trying",
		}
	case dayNumber <= 30:
		return map[string]interface{}{
			"difficulty":     "intermediate",
			"scenario":       "workplace_interaction",
			"emotion":        "cautiously_confident",
			"topics":         []string{"work_projects", "weekend_plans", "recommendations"},
			"character_mood": "finding their footing",
		}
	case dayNumber <= 60:
		return map[string]interface{}{
			"difficulty":     "advanced",
			"scenario":       "social_engagement",
			"emotion":        "confident",
			"topics":         []string{"opinions", "storytelling", "humor"},
			"character_mood": "comfortable and engaged",
		}
	default:
		return map[string]interface{}{
			"difficulty":     "fluent",
			"scenario":       "leadership",
			"emotion":        "natural",
			"topics":         []string{"complex_discussions", "mentoring", "cultural_exchange"},
			"character_mood": "at home and thriving",
		}
	}
}

// journalConversationContext returns stage hints for the next conversation
// based on how far into the story the caller is.
func (s *Server) journalConversationContext(c echo.Context) error {
	ctx := c.Request().Context()

	u, err := s.users.ByAuthID(ctx, auth.GetIdentity(c).AuthID)
	if err != nil {
		return err
	}
	if u == nil {
		return fail(c, http.StatusNotFound, "User not found")
	}
	if u.CharacterID == nil {
		return successWithMessage(c, nil, "No character selected")
	}

	ch, err := s.characters.ByID(ctx, *u.CharacterID)
	if err != nil {
		return successWithMessage(c, nil, "Character not found")
	}

	dayNumber := storyDayNumber(u.CharacterStartDate)
	payload := conversationStageContext(dayNumber)
	payload["character"] = map[string]interface{}{
		"name":       ch.Name,
		"location":   strOr(ch.Location, "new-york"),
		"age_group":  strOr(ch.AgeGroup, "25-34"),
		"gender":     strOr(ch.Gender, "neutral"),
		"day_number": dayNumber,
	}
	return success(c, payload)
}
