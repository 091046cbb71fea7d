package services

import (
	"context"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"wellness-backend-go/internal/models"
)

type Dashboard struct {
	Date        models.Date  `json:"date"`
	Habits      []HabitToday `json:"habits"`
	TodayMood   *models.Mood `json:"today_mood"`
	Suggestions []string     `json:"suggestions"`
	Quote       string       `json:"quote"`
}

func BuildDashboard(ctx context.Context, db *sqlx.DB, userID string, today models.Date) (Dashboard, error) {
	dash := Dashboard{Date: today, Suggestions: []string{}, Quote: QuoteOfTheDay(today)}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		habits, err := TodayHabits(ctx, db, userID, today)
		dash.Habits = habits
		return err
	})
	g.Go(func() error {
		mood, err := TodayMood(ctx, db, userID, today)
		dash.TodayMood = mood
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	if dash.TodayMood != nil {
		dash.Suggestions = Suggestions(dash.TodayMood.MoodLevel)
	}
	return dash, nil
}
