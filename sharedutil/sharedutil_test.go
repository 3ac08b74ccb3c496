package sharedutil

import (
	"slices"
	"strconv"
	"testing"

	"github.com/harmonia-app/harmonia/backend/mediaprovider"
)

func Test_MapSlice(t *testing.T) {
	got := MapSlice([]int{1, 2, 3}, strconv.Itoa)
	want := []string{"1", "2", "3"}
	if !slices.Equal(got, want) {
		t.Errorf("MapSlice: got %v, want %v", got, want)
	}

	if MapSlice(nil, strconv.Itoa) != nil {
		t.Error("MapSlice: expected nil for nil input")
	}
}

func Test_FindTrackByID(t *testing.T) {
	tracks := []*mediaprovider.Track{
		{ID: "a"},
		{ID: "b"},
		{ID: "c"},
	}

	if tr := FindTrackByID("b", tracks); tr == nil || tr.ID != "b" {
		t.Errorf("FindTrackByID: got %v, want track b", tr)
	}
	if tr := FindTrackByID("z", tracks); tr != nil {
		t.Errorf("FindTrackByID: got %v, want nil", tr)
	}
}

func Test_TracksToIDs(t *testing.T) {
	tracks := []*mediaprovider.Track{
		{ID: "a"},
		{ID: "b"},
	}
	got := TracksToIDs(tracks)
	if !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("TracksToIDs: got %v", got)
	}
}
