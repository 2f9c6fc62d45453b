package queue

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matchforge/gamesync/internal/core"
)

func ratedLobby(region core.Region, rating, threshold int) core.Lobby {
	return core.Lobby{
		LobbyID:        core.NewID(),
		Params:         core.LobbyParams{Region: region, Mode: core.ModeCompetitive, Visibility: core.VisibilityPublic},
		Status:         core.StatusQueueing,
		PlayerRatings:  []int{rating},
		QueueThreshold: threshold,
	}
}

func TestCompetitiveTryMatch_WindowsIntersect(t *testing.T) {
	q := NewCompetitive()
	low := ratedLobby(core.RegionEU, 1000, 50)
	high := ratedLobby(core.RegionEU, 1080, 50)
	q.Add(core.RegionEU, low)
	q.Add(core.RegionEU, high)

	// low's window [950,1050] (t=50), high's window [1030,1130] (t=50) -> intersect
	a, b, ok := q.TryMatch(core.RegionEU, low.LobbyID)
	require.True(t, ok)
	require.Equal(t, low.LobbyID, a.LobbyID)
	require.Equal(t, high.LobbyID, b.LobbyID)
}

func TestCompetitiveTryMatch_WindowsDoNotIntersect(t *testing.T) {
	q := NewCompetitive()
	low := ratedLobby(core.RegionEU, 1000, 50)
	high := ratedLobby(core.RegionEU, 1500, 50)
	q.Add(core.RegionEU, low)
	q.Add(core.RegionEU, high)

	_, _, ok := q.TryMatch(core.RegionEU, low.LobbyID)
	require.False(t, ok)
}

// TestCompetitiveTryMatch_RequiresMutualConsent covers spec.md §8 scenario
// 3: requester A (avg 1000, t=50) against candidate B (avg 1070, t=10).
// A's window [950,1050] intersects a window built from A's threshold
// applied to B, but B's OWN window is [1060,1080], which does not
// intersect A's [950,1050] - so no match, because each side's window must
// be built from its own stored threshold, not the requester's.
func TestCompetitiveTryMatch_RequiresMutualConsent(t *testing.T) {
	q := NewCompetitive()
	a := ratedLobby(core.RegionNA, 1000, 50)
	b := ratedLobby(core.RegionNA, 1070, 10)
	q.Add(core.RegionNA, a)
	q.Add(core.RegionNA, b)

	_, _, ok := q.TryMatch(core.RegionNA, a.LobbyID)
	require.False(t, ok, "B's own window [1060,1080] must not intersect A's [950,1050]")
}

func TestCompetitiveTryMatch_MutualConsentGranted(t *testing.T) {
	q := NewCompetitive()
	a := ratedLobby(core.RegionNA, 1000, 50)
	b := ratedLobby(core.RegionNA, 1040, 50)
	q.Add(core.RegionNA, a)
	q.Add(core.RegionNA, b)

	// A's window [950,1050], B's window [990,1090] -> intersect both ways
	got, other, ok := q.TryMatch(core.RegionNA, a.LobbyID)
	require.True(t, ok)
	require.Equal(t, a.LobbyID, got.LobbyID)
	require.Equal(t, b.LobbyID, other.LobbyID)
}

func TestCompetitiveUpdateThreshold_ChangesWindowUsedByOthers(t *testing.T) {
	q := NewCompetitive()
	a := ratedLobby(core.RegionNA, 1000, 50)
	b := ratedLobby(core.RegionNA, 1070, 10)
	q.Add(core.RegionNA, a)
	q.Add(core.RegionNA, b)

	_, _, ok := q.TryMatch(core.RegionNA, a.LobbyID)
	require.False(t, ok)

	// B's leader widens its own threshold; now B's window [1010,1130]
	// intersects A's [950,1050].
	q.UpdateThreshold(core.RegionNA, b.LobbyID, 60)
	got, other, ok := q.TryMatch(core.RegionNA, a.LobbyID)
	require.True(t, ok)
	require.Equal(t, a.LobbyID, got.LobbyID)
	require.Equal(t, b.LobbyID, other.LobbyID)
}

func TestCompetitiveTryMatch_SaturatesAtZero(t *testing.T) {
	q := NewCompetitive()
	// rating 10 with threshold 100 would go negative; must clamp to 0.
	near := ratedLobby(core.RegionAS, 10, 100)
	other := ratedLobby(core.RegionAS, 90, 100)
	q.Add(core.RegionAS, near)
	q.Add(core.RegionAS, other)

	a, b, ok := q.TryMatch(core.RegionAS, near.LobbyID)
	require.True(t, ok)
	require.Equal(t, near.LobbyID, a.LobbyID)
	require.Equal(t, other.LobbyID, b.LobbyID)
}

func TestCompetitiveAdd_OrdersByAverageRatingWithInsertionTiebreak(t *testing.T) {
	q := NewCompetitive()
	first := ratedLobby(core.RegionMEA, 1000, 0)
	second := ratedLobby(core.RegionMEA, 1000, 0) // tie: inserted after first
	third := ratedLobby(core.RegionMEA, 900, 0)
	q.Add(core.RegionMEA, first)
	q.Add(core.RegionMEA, second)
	q.Add(core.RegionMEA, third)

	got := q.byRegion[core.RegionMEA]
	require.Len(t, got, 3)
	require.Equal(t, third.LobbyID, got[0].lobby.LobbyID, "lowest rating sorts first")
	require.Equal(t, first.LobbyID, got[1].lobby.LobbyID, "ties keep insertion order")
	require.Equal(t, second.LobbyID, got[2].lobby.LobbyID)
}

func TestCompetitiveTryMatch_UnknownLobbyLeavesQueueUntouched(t *testing.T) {
	q := NewCompetitive()
	q.Add(core.RegionNA, ratedLobby(core.RegionNA, 1000, 50))

	_, _, ok := q.TryMatch(core.RegionNA, core.NewID())
	require.False(t, ok)
	require.Equal(t, 1, q.Len(core.RegionNA))
}
