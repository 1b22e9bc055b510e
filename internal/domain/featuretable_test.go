package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

func rowBar(code, date string) *Bar {
	return &Bar{Code: code, Date: day(date), Close: 10, IsTradable: true}
}

func TestNewFeatureTable_GroupsAndSortsDates(t *testing.T) {
	table, err := NewFeatureTable([]*Bar{
		rowBar("000001", "2024-03-06"),
		rowBar("000001", "2024-03-04"),
		rowBar("600519", "2024-03-04"),
		rowBar("000001", "2024-03-05"),
	})
	require.NoError(t, err)

	dates := table.Dates()
	require.Len(t, dates, 3)
	assert.True(t, dates[0].Equal(day("2024-03-04")))
	assert.True(t, dates[2].Equal(day("2024-03-06")))

	assert.Len(t, table.Day(day("2024-03-04")), 2)
	assert.NotNil(t, table.Bar(day("2024-03-04"), "600519"))
	assert.Nil(t, table.Bar(day("2024-03-05"), "600519"))
	assert.Nil(t, table.Bar(day("2024-03-08"), "000001"))
}

func TestNewFeatureTable_RejectsDuplicates(t *testing.T) {
	_, err := NewFeatureTable([]*Bar{
		rowBar("000001", "2024-03-04"),
		rowBar("000001", "2024-03-04"),
		rowBar("000001", "2024-03-05"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestNewFeatureTable_NeedsTwoDays(t *testing.T) {
	_, err := NewFeatureTable([]*Bar{rowBar("000001", "2024-03-04")})
	require.Error(t, err)

	_, err = NewFeatureTable(nil)
	require.Error(t, err)
}

func TestSlice_Bounds(t *testing.T) {
	table, err := NewFeatureTable([]*Bar{
		rowBar("000001", "2024-03-04"),
		rowBar("000001", "2024-03-05"),
		rowBar("000001", "2024-03-06"),
		rowBar("000001", "2024-03-07"),
	})
	require.NoError(t, err)

	all := table.Slice(time.Time{}, time.Time{})
	assert.Len(t, all, 4)

	mid := table.Slice(day("2024-03-05"), day("2024-03-06"))
	require.Len(t, mid, 2)
	assert.True(t, mid[0].Equal(day("2024-03-05")))

	tail := table.Slice(day("2024-03-06"), time.Time{})
	assert.Len(t, tail, 2)

	assert.Empty(t, table.Slice(day("2024-04-01"), time.Time{}))
}

func TestBar_HasHotRank(t *testing.T) {
	assert.False(t, (&Bar{}).HasHotRank())
	assert.False(t, (&Bar{HotRank: 0}).HasHotRank())
	assert.True(t, (&Bar{HotRank: 1}).HasHotRank())
}

func TestBar_IsOneWordBoard(t *testing.T) {
	cases := []struct {
		name string
		bar  Bar
		want bool
	}{
		{"flat at the cap, flagged", Bar{Open: 11, High: 11, Low: 11, Close: 11, IsLimitUp: true}, true},
		{"flat near a rounded cap", Bar{Open: 11, High: 11, Low: 11, Close: 11, LimitUpPrice: 11.004}, true},
		{"flat but not at a cap", Bar{Open: 10, High: 10, Low: 10, Close: 10, LimitUpPrice: 11}, false},
		{"limit-up with two-sided trading", Bar{Open: 10.5, High: 11, Low: 10.4, Close: 11, IsLimitUp: true}, false},
		{"ordinary day", Bar{Open: 10, High: 10.5, Low: 9.9, Close: 10.2}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.bar.IsOneWordBoard())
		})
	}
}

func TestMissingFloat(t *testing.T) {
	assert.True(t, math.IsNaN(MissingFloat()))
}
