package services

import (
	"time"

	"wellness-backend-go/internal/models"
)

const (
	MinMoodLevel = 1
	MaxMoodLevel = 5
)

var moodSuggestions = map[int][]string{
	1: {
		"Take a 10-minute break",
		"Listen to some relaxing music",
		"Call a close friend",
		"Do a breathing exercise",
		"Take a warm shower",
	},
	2: {
		"Go for a 15-minute walk",
		"Listen to a motivating podcast",
		"Make yourself a herbal tea",
		"Write in your journal",
		"Watch an inspiring video",
	},
	3: {
		"Read a few pages of a book",
		"Do something creative",
		"Practice some yoga",
		"Tidy up your workspace",
		"Listen to music",
	},
	4: {
		"Get some exercise",
		"Learn something new",
		"Plan a project",
		"Call a friend",
		"Go outside for some fresh air",
	},
	5: {
		"Do an intense workout",
		"Start a new project",
		"Share your good mood",
		"Write down your goals",
		"Celebrate your wins",
	},
}

var quotes = []string{
	"Every day is a new chance to make progress.",
	"Take care of yourself, you deserve it.",
	"Small steps lead to big changes.",
	"Your mental health is a priority.",
	"Be proud of every step forward, even the smallest one.",
}

// Suggestions returns the fixed suggestion list for a mood level, or an empty
// list for an out-of-range level. The returned slice is a copy.
func Suggestions(level int) []string {
	items, ok := moodSuggestions[level]
	if !ok {
		return []string{}
	}
	return append([]string(nil), items...)
}

// QuoteOfTheDay picks a quote by day of year so it is stable for a whole day.
func QuoteOfTheDay(today models.Date) string {
	return quotes[(today.In(time.UTC).YearDay()-1)%len(quotes)]
}
