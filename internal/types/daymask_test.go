package types

import (
	"testing"
	"time"
)

func TestDayMaskHasWith(t *testing.T) {
	var m DayMask
	if m.Valid() {
		t.Error("empty mask must be invalid")
	}

	m = m.With(time.Monday).With(time.Friday)
	if !m.Has(time.Monday) || !m.Has(time.Friday) {
		t.Errorf("expected Monday and Friday set, got %08b", uint8(m))
	}
	if m.Has(time.Sunday) || m.Has(time.Saturday) {
		t.Errorf("unexpected bits set: %08b", uint8(m))
	}
	if !m.Valid() {
		t.Error("non-empty mask within 7 bits must be valid")
	}
}

func TestDayMaskValidRejectsHighBit(t *testing.T) {
	if DayMask(0x80).Valid() {
		t.Error("bit 7 has no weekday, mask must be invalid")
	}
	if !DayMaskAll.Valid() {
		t.Error("all-days mask must be valid")
	}
}

func TestDayMaskDays(t *testing.T) {
	m := DayMask(0).With(time.Sunday).With(time.Wednesday).With(time.Saturday)
	got := m.Days()
	want := []time.Weekday{time.Sunday, time.Wednesday, time.Saturday}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("day %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDayMaskString(t *testing.T) {
	cases := []struct {
		mask DayMask
		want string
	}{
		{DayMaskAll, "every day"},
		{0, "never"},
		{DayMask(0).With(time.Monday).With(time.Tuesday), "Mon,Tue"},
	}
	for _, tc := range cases {
		if got := tc.mask.String(); got != tc.want {
			t.Errorf("mask %08b: got %q, want %q", uint8(tc.mask), got, tc.want)
		}
	}
}
