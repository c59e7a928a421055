package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"horizon-field/internal/domain/session"
	"horizon-field/internal/domain/team"
	"horizon-field/internal/domain/tour"
)

func TestListTodayTeams(t *testing.T) {
	today := time.Now().UTC().Format("2006-01-02")
	yesterday := time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
	tomorrow := time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")

	mkTeam := func(id, name, status string) *team.Team {
		tm, err := team.NewTeam(id, name, "", status)
		if err != nil {
			t.Fatal(err)
		}
		return tm
	}
	mkTour := func(id, date string, status tour.Status, teamID string) *tour.Tour {
		tr, err := tour.NewTour(id, "Loop "+id, date, status, teamID)
		if err != nil {
			t.Fatal(err)
		}
		return tr
	}

	teams := []*team.Team{
		mkTeam("team-1", "North Crew", "ACTIVE"),   // planned tour today
		mkTeam("team-2", "Bench Crew", "INACTIVE"), // inactive, tour today
		mkTeam("team-3", "Late Crew", "ACTIVE"),    // only a completed tour today
		mkTeam("team-4", "Off Crew", "ACTIVE"),     // tours yesterday and tomorrow only
		mkTeam("team-5", "Road Crew", "ACTIVE"),    // tour already running today
	}
	tours := []*tour.Tour{
		mkTour("tour-1", today, tour.StatusPlanned, "team-1"),
		mkTour("tour-2", today, tour.StatusPlanned, "team-2"),
		mkTour("tour-3", today, tour.StatusCompleted, "team-3"),
		mkTour("tour-4", yesterday, tour.StatusPlanned, "team-4"),
		mkTour("tour-5", tomorrow, tour.StatusPlanned, "team-4"),
		mkTour("tour-6", today, tour.StatusInProgress, "team-5"),
	}

	store := &fakeStore{
		fetchTeamsFn: func(ctx context.Context) ([]*team.Team, error) { return teams, nil },
		fetchToursFn: func(ctx context.Context) ([]*tour.Tour, error) { return tours, nil },
	}
	svc := newTestService(t, store, newFakeChannel(), nil)
	ctx := context.Background()

	if _, err := svc.Login(ctx, "North Crew", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	views, err := svc.ListTodayTeams(ctx)
	if err != nil {
		t.Fatalf("ListTodayTeams: %v", err)
	}

	got := make(map[string]bool, len(views))
	for _, v := range views {
		got[v.TeamID] = true
	}
	want := map[string]bool{"team-1": true, "team-5": true}

	if len(views) != len(want) {
		t.Fatalf("teams = %v, want exactly %v", got, want)
	}
	for id := range want {
		if !got[id] {
			t.Errorf("team %s missing from today's list", id)
		}
	}
	if got["team-2"] {
		t.Error("inactive teams must be excluded")
	}
	if got["team-3"] {
		t.Error("a team whose only tour today is COMPLETED must be excluded")
	}
	if got["team-4"] {
		t.Error("teams without a tour dated today must be excluded")
	}
}

func TestListTodayTeamsRequiresLogin(t *testing.T) {
	svc := newTestService(t, &fakeStore{}, newFakeChannel(), nil)

	if _, err := svc.ListTodayTeams(context.Background()); !errors.Is(err, session.ErrInvalidState) {
		t.Fatalf("got %v, want ErrInvalidState", err)
	}
}
