package domain

import "slices"

var RankTiers = []string{
	"Beginner", "1st Dan", "2nd Dan", "Fighter", "Strategist", "Combatant", "Brawler", "Ranger",
	"Cavalry", "Warrior", "Assailant", "Dominator", "Vanquisher", "Destroyer", "Eliminator",
	"Garyu", "Shinryu", "Tenryu", "Mighty Ruler", "Flame Ruler", "Battle Ruler",
	"Fujin", "Raijin", "Kishin", "Bushin", "Tekken King", "Tekken Emperor",
	"Tekken God", "Tekken God Supreme", "God of Destruction",
}

// TierIndex returns the position of rank in RankTiers, or -1 when it is not a known tier.
func TierIndex(rank string) int {
	return slices.Index(RankTiers, rank)
}

func IsKnownTier(rank string) bool {
	return TierIndex(rank) >= 0
}
