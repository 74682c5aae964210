package lineup_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apexfantasy/paddock/internal/domain/entity"
	"github.com/apexfantasy/paddock/internal/domain/lineup"
)

func pilot(id string, mode entity.SessionMode) entity.Entity {
	return entity.Entity{ID: id, Kind: entity.KindPilot, Mode: mode, Name: "Pilot " + id, TeamName: "Scuderia"}
}

func staff(id string, kind entity.Kind) entity.Entity {
	return entity.Entity{ID: id, Kind: kind, Name: "Staff " + id, TeamName: "Scuderia"}
}

func testRoster() []entity.Entity {
	return []entity.Entity{
		pilot("r1", entity.ModeRace),
		pilot("r2", entity.ModeRace),
		pilot("r3", entity.ModeRace),
		pilot("q1", entity.ModeQualifying),
		pilot("q2", entity.ModeQualifying),
		pilot("p1", entity.ModePractice),
		pilot("p2", entity.ModePractice),
		staff("tc1", entity.KindTeamConstructor),
		staff("ce1", entity.KindChiefEngineer),
		staff("te1", entity.KindTrackEngineer),
		staff("te2", entity.KindTrackEngineer),
		staff("te3", entity.KindTrackEngineer),
	}
}

func TestBoardAssignAndOverwrite(t *testing.T) {
	b := lineup.NewBoard(testRoster())

	require.NoError(t, b.Assign(lineup.CategoryRace, 0, "r1"))
	require.NoError(t, b.Assign(lineup.CategoryRace, 0, "r2"))

	slots := b.Slots()
	assert.Equal(t, []string{"r2", ""}, slots[lineup.CategoryRace])

	// the displaced pilot is selectable again
	avail, err := b.AvailableFor(lineup.CategoryRace)
	require.NoError(t, err)
	ids := entityIDs(avail)
	assert.Contains(t, ids, "r1")
	assert.NotContains(t, ids, "r2")
}

func TestBoardAssignMovesPlacedEntity(t *testing.T) {
	b := lineup.NewBoard(testRoster())

	require.NoError(t, b.Assign(lineup.CategoryTrackEngineer, 0, "te1"))
	require.NoError(t, b.Assign(lineup.CategoryTrackEngineer, 1, "te1"))

	slots := b.Slots()
	assert.Equal(t, []string{"", "te1"}, slots[lineup.CategoryTrackEngineer])
}

func TestBoardAssignAffinityMismatch(t *testing.T) {
	b := lineup.NewBoard(testRoster())
	require.NoError(t, b.Assign(lineup.CategoryRace, 0, "r1"))

	err := b.Assign(lineup.CategoryRace, 1, "q1")
	require.ErrorIs(t, err, lineup.ErrInvalidCategory)

	err = b.Assign(lineup.CategoryQualifying, 0, "tc1")
	require.ErrorIs(t, err, lineup.ErrInvalidCategory)

	// the failed assigns left the board untouched
	slots := b.Slots()
	assert.Equal(t, []string{"r1", ""}, slots[lineup.CategoryRace])
	assert.Equal(t, []string{"", ""}, slots[lineup.CategoryQualifying])
}

func TestBoardAssignUnknownInputs(t *testing.T) {
	b := lineup.NewBoard(testRoster())

	assert.ErrorIs(t, b.Assign(lineup.Category("sprint"), 0, "r1"), lineup.ErrUnknownCategory)
	assert.ErrorIs(t, b.Assign(lineup.CategoryRace, 2, "r1"), lineup.ErrInvalidPosition)
	assert.ErrorIs(t, b.Assign(lineup.CategoryRace, -1, "r1"), lineup.ErrInvalidPosition)
	assert.ErrorIs(t, b.Assign(lineup.CategoryRace, 0, "ghost"), lineup.ErrUnknownEntity)
}

func TestBoardUnassignIdempotent(t *testing.T) {
	b := lineup.NewBoard(testRoster())
	require.NoError(t, b.Assign(lineup.CategoryChiefEngineer, 0, "ce1"))

	require.NoError(t, b.Unassign(lineup.CategoryChiefEngineer, 0))
	require.NoError(t, b.Unassign(lineup.CategoryChiefEngineer, 0))

	slots := b.Slots()
	assert.Equal(t, []string{""}, slots[lineup.CategoryChiefEngineer])
}

func TestBoardAvailableForExcludesAnySlot(t *testing.T) {
	b := lineup.NewBoard(testRoster())

	// te1 placed in track_engineer, but uniqueness is board-wide
	require.NoError(t, b.Assign(lineup.CategoryTrackEngineer, 0, "te1"))

	avail, err := b.AvailableFor(lineup.CategoryTrackEngineer)
	require.NoError(t, err)
	assert.Equal(t, []string{"te2", "te3"}, entityIDs(avail))
}

func TestBoardAvailableForPreservesRosterOrder(t *testing.T) {
	b := lineup.NewBoard(testRoster())
	require.NoError(t, b.Assign(lineup.CategoryRace, 0, "r2"))

	avail, err := b.AvailableFor(lineup.CategoryRace)
	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "r3"}, entityIDs(avail))
}

func TestBoardAvailableForUnknownCategory(t *testing.T) {
	b := lineup.NewBoard(testRoster())
	_, err := b.AvailableFor(lineup.Category("sprint"))
	assert.ErrorIs(t, err, lineup.ErrUnknownCategory)
}

func TestBoardClear(t *testing.T) {
	b := lineup.NewBoard(testRoster())
	require.NoError(t, b.Assign(lineup.CategoryRace, 0, "r1"))
	require.NoError(t, b.Assign(lineup.CategoryTeamConstructor, 0, "tc1"))

	b.Clear()

	assert.Equal(t, lineup.BoardEmpty, b.State())
	avail, err := b.AvailableFor(lineup.CategoryRace)
	require.NoError(t, err)
	assert.Len(t, avail, 3)
}

func TestBoardSerializeCompacts(t *testing.T) {
	b := lineup.NewBoard(testRoster())
	require.NoError(t, b.Assign(lineup.CategoryRace, 0, "r1"))
	require.NoError(t, b.Assign(lineup.CategoryRace, 1, "r2"))
	require.NoError(t, b.Unassign(lineup.CategoryRace, 0))

	p := b.Serialize()
	assert.Equal(t, []string{"r2"}, p.RacePilots)
	assert.Empty(t, p.QualifyingPilots)
	assert.Nil(t, p.TeamConstructor)
}

func TestBoardSerializeSingletons(t *testing.T) {
	b := lineup.NewBoard(testRoster())
	require.NoError(t, b.Assign(lineup.CategoryTeamConstructor, 0, "tc1"))

	p := b.Serialize()
	require.NotNil(t, p.TeamConstructor)
	assert.Equal(t, "tc1", *p.TeamConstructor)
	assert.Nil(t, p.ChiefEngineer)
}

func TestBoardHydrateRoundTrip(t *testing.T) {
	b := lineup.NewBoard(testRoster())
	require.NoError(t, b.Assign(lineup.CategoryRace, 0, "r1"))
	require.NoError(t, b.Assign(lineup.CategoryRace, 1, "r2"))
	require.NoError(t, b.Assign(lineup.CategoryQualifying, 0, "q1"))
	require.NoError(t, b.Assign(lineup.CategoryPractice, 1, "p2"))
	require.NoError(t, b.Assign(lineup.CategoryTeamConstructor, 0, "tc1"))
	require.NoError(t, b.Assign(lineup.CategoryChiefEngineer, 0, "ce1"))
	require.NoError(t, b.Assign(lineup.CategoryTrackEngineer, 0, "te1"))

	p := b.Serialize()

	other := lineup.NewBoard(testRoster())
	require.NoError(t, other.Hydrate(p))

	assert.Equal(t, p, other.Serialize())
	assert.False(t, other.Dirty())
}

func TestBoardHydrateRejectsBadPayload(t *testing.T) {
	b := lineup.NewBoard(testRoster())

	err := b.Hydrate(lineup.Payload{RacePilots: []string{"ghost"}})
	assert.ErrorIs(t, err, lineup.ErrUnknownEntity)

	err = b.Hydrate(lineup.Payload{RacePilots: []string{"q1"}})
	assert.ErrorIs(t, err, lineup.ErrInvalidCategory)

	err = b.Hydrate(lineup.Payload{TrackEngineers: []string{"te1", "te2", "te3"}})
	assert.ErrorIs(t, err, lineup.ErrInvalidPosition)
}

func TestBoardState(t *testing.T) {
	b := lineup.NewBoard(testRoster())
	assert.Equal(t, lineup.BoardEmpty, b.State())

	require.NoError(t, b.Assign(lineup.CategoryRace, 0, "r1"))
	assert.Equal(t, lineup.BoardPartiallyFilled, b.State())

	require.NoError(t, b.Assign(lineup.CategoryRace, 1, "r2"))
	require.NoError(t, b.Assign(lineup.CategoryQualifying, 0, "q1"))
	require.NoError(t, b.Assign(lineup.CategoryQualifying, 1, "q2"))
	require.NoError(t, b.Assign(lineup.CategoryPractice, 0, "p1"))
	require.NoError(t, b.Assign(lineup.CategoryPractice, 1, "p2"))
	require.NoError(t, b.Assign(lineup.CategoryTeamConstructor, 0, "tc1"))
	require.NoError(t, b.Assign(lineup.CategoryChiefEngineer, 0, "ce1"))
	require.NoError(t, b.Assign(lineup.CategoryTrackEngineer, 0, "te1"))
	require.NoError(t, b.Assign(lineup.CategoryTrackEngineer, 1, "te2"))
	assert.Equal(t, lineup.BoardFilled, b.State())
}

func TestBoardDirtyTracking(t *testing.T) {
	b := lineup.NewBoard(testRoster())
	assert.False(t, b.Dirty())

	require.NoError(t, b.Assign(lineup.CategoryRace, 0, "r1"))
	assert.True(t, b.Dirty())

	b.MarkSaved()
	assert.False(t, b.Dirty())

	require.NoError(t, b.Unassign(lineup.CategoryRace, 0))
	assert.True(t, b.Dirty())
}

func entityIDs(entities []entity.Entity) []string {
	out := make([]string, 0, len(entities))
	for _, e := range entities {
		out = append(out, e.ID)
	}
	return out
}
