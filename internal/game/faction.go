package game

// beats maps each faction to the faction it has the advantage over.
var beats = map[Faction]Faction{
	FactionMagical: FactionFolk,
	FactionWild:    FactionMagical,
	FactionFolk:    FactionWild,
}

// Matchup returns +1 when a has the advantage over b, -1 when b has the
// advantage over a, and 0 otherwise.
func Matchup(a, b Faction) int {
	switch {
	case a == b:
		return 0
	case beats[a] == b:
		return 1
	case beats[b] == a:
		return -1
	default:
		return 0
	}
}

// AttackDamage is the damage an attacker with the given attack deals to a
// defender: attack plus the matchup bonus, never below 1.
func AttackDamage(attack int, attacker, defender Faction) int {
	return max(1, attack+Matchup(attacker, defender))
}

// RetaliationDamage is the damage a defender deals back. The defender applies
// its own matchup bonus symmetrically, but may deal nothing.
func RetaliationDamage(attack int, defender, attacker Faction) int {
	return max(0, attack+Matchup(defender, attacker))
}
