package auth

import "strconv"

var rankNames = []string{
	"Private",
	"Corporal",
	"Sergeant",
	"Lieutenant",
	"Captain",
	"Major",
	"Colonel",
	"General",
}

// MaxRank is the highest rank with a display name.
var MaxRank = len(rankNames) - 1

// RankName returns the display name of rank.
func RankName(rank int) string {
	if rank < 0 || rank >= len(rankNames) {
		return "Rank " + strconv.Itoa(rank)
	}
	return rankNames[rank]
}
