package models

import "testing"

func TestSyncableEntities_Order(t *testing.T) {
	want := []EntityType{EntityTasks, EntitySubtasks, EntityHabits, EntityCompletions}
	got := SyncableEntities()
	if len(got) != len(want) {
		t.Fatalf("entities: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entity %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNormalizePriority(t *testing.T) {
	tests := []struct {
		in   string
		want Priority
	}{
		{"high", PriorityUrgentImportant},
		{"medium", PriorityNotUrgentImportant},
		{"low", PriorityNotUrgentNotImportant},
		{"urgent_important", PriorityUrgentImportant},
		{"not_urgent_not_important", PriorityNotUrgentNotImportant},
	}
	for _, tt := range tests {
		if got := NormalizePriority(tt.in); got != tt.want {
			t.Errorf("NormalizePriority(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsValidFrequency(t *testing.T) {
	for _, f := range []Frequency{FrequencyDaily, FrequencyWeekly, FrequencyCustom} {
		if !IsValidFrequency(f) {
			t.Errorf("IsValidFrequency(%q) = false, want true", f)
		}
	}
	if IsValidFrequency("monthly") {
		t.Error("IsValidFrequency(\"monthly\") = true, want false")
	}
}

func TestIsValidTargetDays(t *testing.T) {
	for _, n := range []int{1, 4, 7} {
		if !IsValidTargetDays(n) {
			t.Errorf("IsValidTargetDays(%d) = false, want true", n)
		}
	}
	for _, n := range []int{0, 8, -1} {
		if IsValidTargetDays(n) {
			t.Errorf("IsValidTargetDays(%d) = true, want false", n)
		}
	}
}
