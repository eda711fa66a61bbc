package model

import (
	"testing"

	"github.com/stretchr/testify/require"

	"livedash/internal/evented"
	"livedash/pkg/types"
)

func TestQueryDefaultsAndParams(t *testing.T) {
	q, err := NewQuery(map[string]any{"id": "q1", "search": " obama "})
	require.NoError(t, err)
	require.Equal(t, "area", q.View())
	require.Equal(t, "obama", q.Search())
	require.Equal(t, float64(0), q.MinRT())
	require.Equal(t, types.Params{
		"query_id":  "q1",
		"search":    "obama",
		"author":    "",
		"rt":        false,
		"sentiment": "",
	}, q.Params())
}

func TestQueryAtomicValidation(t *testing.T) {
	q, err := NewQuery(nil)
	require.NoError(t, err)
	fired := 0
	q.On(evented.ChangeEvent, func(evented.Event) { fired++ })

	require.False(t, q.Set(map[string]any{"search": "x", "sentiment": "angry"}, false))
	require.Equal(t, "", q.Search())
	require.Contains(t, q.Invalid(), "sentiment")
	require.Zero(t, fired)

	require.False(t, q.SetMinRT(-3, false))
	require.True(t, q.SetMinRT("5", false))
	require.Equal(t, float64(5), q.MinRT())
	require.True(t, q.SetView("hidden", false))
	require.Equal(t, 2, fired)
}

func TestIntervalRejectsInvertedWindow(t *testing.T) {
	iv, err := NewInterval(map[string]any{"from": 10, "to": 20, "min": 0, "max": 100})
	require.NoError(t, err)

	require.False(t, iv.SetFrom(30, false))
	require.Equal(t, [2]float64{10, 20}, iv.Extent())
	require.False(t, iv.SetRange(50, 40))
	require.Equal(t, [2]float64{0, 100}, iv.RangeExtent())

	_, err = NewInterval(map[string]any{"from": 2, "to": 1})
	require.Error(t, err)
}

func TestIntervalCenterAround(t *testing.T) {
	cases := []struct {
		name string
		at   float64
		want [2]float64
	}{
		{"middle", 50, [2]float64{45, 55}},
		{"clamped low", 2, [2]float64{0, 10}},
		{"clamped high", 99, [2]float64{90, 100}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			iv, err := NewInterval(map[string]any{"from": 10, "to": 20, "min": 0, "max": 100})
			require.NoError(t, err)
			require.True(t, iv.CenterAround(tc.at))
			require.Equal(t, tc.want, iv.Extent())
		})
	}
}

func TestIntervalCenterAroundCapsWidth(t *testing.T) {
	iv, err := NewInterval(map[string]any{"from": 0, "to": 100, "min": 0, "max": 100})
	require.NoError(t, err)
	require.True(t, iv.SetRange(20, 60))
	require.True(t, iv.CenterAround(30))
	require.Equal(t, [2]float64{20, 60}, iv.Extent())
}

func TestIntervalChangeListsMovedFields(t *testing.T) {
	iv, err := NewInterval(map[string]any{"from": 10, "to": 20, "min": 0, "max": 100})
	require.NoError(t, err)
	var changed []string
	iv.On(evented.ChangeEvent, func(ev evented.Event) { changed = ev.Changed })
	require.True(t, iv.CenterAround(50))
	require.Equal(t, []string{"from", "to"}, changed)
}

func TestDisplayFocus(t *testing.T) {
	d, err := NewDisplay(nil)
	require.NoError(t, err)
	_, ok := d.Focus()
	require.False(t, ok)
	require.Equal(t, "simple", d.Mode())
	require.True(t, d.Annotations())

	require.True(t, d.SetFocus(1, false))
	i, ok := d.Focus()
	require.True(t, ok)
	require.Equal(t, 1, i)

	require.False(t, d.Set(map[string]any{"focus": 1.5}, false))
	require.False(t, d.Set(map[string]any{"focus": 1e300}, false))
	require.Equal(t, "invalid focus: 1e+300 is not a query index", d.Invalid())
	i, _ = d.Focus()
	require.Equal(t, 1, i)
	require.True(t, d.SetFocus(-1, false))
	_, ok = d.Focus()
	require.False(t, ok)

	require.False(t, d.SetMode("pie", false))
	require.True(t, d.SetMode("stack", false))
}

func TestQueryIDIsFixed(t *testing.T) {
	q, err := NewQuery(map[string]any{"id": "0"})
	require.NoError(t, err)
	require.False(t, q.Set(map[string]any{"id": "1"}, false))
	require.Equal(t, "0", q.ID())
	require.True(t, q.Set(map[string]any{"id": "0", "search": "obama"}, false))
	require.Equal(t, "obama", q.Search())
}

func TestUserSignInOut(t *testing.T) {
	u, err := NewUser(nil)
	require.NoError(t, err)
	require.False(t, u.SignedIn())

	var got []string
	u.On(SignedInEvent, func(ev evented.Event) { got = append(got, ev.Name+":"+ev.Args[0].(string)) })
	u.On(SignedOutEvent, func(ev evented.Event) { got = append(got, ev.Name) })

	require.False(t, u.SignIn(map[string]any{"name": 42}))
	require.True(t, u.SignIn(map[string]any{"name": "alice", "email": "a@example.com"}))
	require.True(t, u.SignedIn())
	u.SignOut()
	u.SignOut()
	require.False(t, u.SignedIn())
	require.Equal(t, []string{"signed-in:alice", "signed-out"}, got)
}
