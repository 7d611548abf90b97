package services

import (
	"testing"
	"time"

	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/models"
)

func testDay(date, start, end string, courts int) models.TournamentDay {
	return models.TournamentDay{
		ID:              "day-" + date,
		TournamentID:    "t1",
		Date:            date,
		StartTime:       start,
		EndTime:         end,
		CourtsAvailable: courts,
		IsActive:        true,
	}
}

func TestBuildSlotGrid(t *testing.T) {
	days := []models.TournamentDay{testDay("2026-06-01", "09:00", "12:00", 2)}
	slots, err := BuildSlotGrid("version-1", days, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 3 hours of 15-minute ticks on 2 courts.
	if len(slots) != 24 {
		t.Fatalf("slot count = %d, want 24", len(slots))
	}

	first := slots[0]
	if first.StartTime != "09:00" || first.EndTime != "09:15" {
		t.Fatalf("first slot window = %s-%s", first.StartTime, first.EndTime)
	}
	if first.BlockMinutes != models.SlotBlockMinutes {
		t.Fatalf("block minutes = %d", first.BlockMinutes)
	}
	if first.CourtLabel != "Court 1" {
		t.Fatalf("default court label = %q", first.CourtLabel)
	}

	// The window end is exclusive: no slot starts at 12:00.
	for _, s := range slots {
		if s.StartTime == "12:00" {
			t.Fatal("slot must not start at the day end")
		}
	}
}

func TestBuildSlotGridSkipsInactiveDays(t *testing.T) {
	inactive := testDay("2026-06-02", "09:00", "12:00", 2)
	inactive.IsActive = false
	days := []models.TournamentDay{testDay("2026-06-01", "09:00", "10:00", 1), inactive}

	slots, err := BuildSlotGrid("version-1", days, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 4 {
		t.Fatalf("slot count = %d, want 4", len(slots))
	}
}

func TestBuildSlotGridCourtLabels(t *testing.T) {
	day := testDay("2026-06-01", "09:00", "09:30", 2)
	day.CourtLabels = models.CourtLabels{"Center Court", "Grandstand"}

	slots, err := BuildSlotGrid("version-1", []models.TournamentDay{day}, time.Now())
	if err != nil {
		t.Fatal(err)
	}

	labels := make(map[string]bool)
	for _, s := range slots {
		labels[s.CourtLabel] = true
	}
	if !labels["Center Court"] || !labels["Grandstand"] {
		t.Fatalf("labels not applied: %v", labels)
	}
}

func TestBuildSlotGridRejectsBadWindow(t *testing.T) {
	days := []models.TournamentDay{testDay("2026-06-01", "12:00", "09:00", 1)}
	if _, err := BuildSlotGrid("version-1", days, time.Now()); err == nil {
		t.Fatal("inverted window must error")
	}
}

func TestBuildManualSlots(t *testing.T) {
	specs := []ManualDaySpec{{
		DayDate:      "2026-06-03",
		StartTime:    "10:00",
		EndTime:      "11:00",
		CourtNumbers: []int{1, 3},
		CourtLabels:  []string{"", "Show Court"},
	}}

	slots, err := BuildManualSlots("version-1", specs, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 8 {
		t.Fatalf("slot count = %d, want 8", len(slots))
	}

	byCourt := make(map[int]string)
	for _, s := range slots {
		byCourt[s.CourtNumber] = s.CourtLabel
	}
	if byCourt[1] != "Court 1" {
		t.Fatalf("court 1 label = %q", byCourt[1])
	}
	if byCourt[3] != "Show Court" {
		t.Fatalf("court 3 label = %q", byCourt[3])
	}
}
