package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchup_Cycle(t *testing.T) {
	assert.Equal(t, 1, Matchup(FactionMagical, FactionFolk))
	assert.Equal(t, 1, Matchup(FactionWild, FactionMagical))
	assert.Equal(t, 1, Matchup(FactionFolk, FactionWild))

	assert.Equal(t, -1, Matchup(FactionFolk, FactionMagical))
	assert.Equal(t, -1, Matchup(FactionMagical, FactionWild))
	assert.Equal(t, -1, Matchup(FactionWild, FactionFolk))
}

func TestMatchup_AntisymmetricAndZeroOnSelf(t *testing.T) {
	all := []Faction{FactionFolk, FactionMagical, FactionWild}
	for _, a := range all {
		assert.Zero(t, Matchup(a, a), "%s vs itself", a)
		for _, b := range all {
			assert.Equal(t, -Matchup(b, a), Matchup(a, b), "%s vs %s", a, b)
		}
	}
}

func TestAttackDamage(t *testing.T) {
	// Advantage adds one.
	assert.Equal(t, 4, AttackDamage(3, FactionMagical, FactionFolk))
	// Disadvantage subtracts one but never drops below 1.
	assert.Equal(t, 2, AttackDamage(3, FactionFolk, FactionMagical))
	assert.Equal(t, 1, AttackDamage(1, FactionFolk, FactionMagical))
	assert.Equal(t, 1, AttackDamage(0, FactionFolk, FactionFolk))
}

func TestRetaliationDamage(t *testing.T) {
	// A defender with the advantage hits back harder.
	assert.Equal(t, 3, RetaliationDamage(2, FactionMagical, FactionFolk))
	// Retaliation may drop to zero.
	assert.Equal(t, 0, RetaliationDamage(0, FactionFolk, FactionMagical))
	assert.Equal(t, 0, RetaliationDamage(1, FactionFolk, FactionMagical))
}

func TestParseFaction(t *testing.T) {
	f, err := ParseFaction("magical")
	require.NoError(t, err)
	assert.Equal(t, FactionMagical, f)

	f, err = ParseFaction(" Wild ")
	require.NoError(t, err)
	assert.Equal(t, FactionWild, f)

	f, err = ParseFaction("")
	require.NoError(t, err)
	assert.Equal(t, FactionFolk, f)

	_, err = ParseFaction("undead")
	assert.ErrorIs(t, err, ErrBadFaction)
}
