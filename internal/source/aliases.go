package source

import "github.com/lucaskeller/crossfeed/internal/record"

// NBATeamAliases maps odds-feed team abbreviations to full franchise
// names, so "LAL @ BOS" and "Los Angeles Lakers vs Boston Celtics"
// tokenize comparably.
var NBATeamAliases = record.Aliases{
	"atl": "atlanta hawks",
	"bkn": "brooklyn nets",
	"bos": "boston celtics",
	"cha": "charlotte hornets",
	"chi": "chicago bulls",
	"cle": "cleveland cavaliers",
	"dal": "dallas mavericks",
	"den": "denver nuggets",
	"det": "detroit pistons",
	"gsw": "golden state warriors",
	"hou": "houston rockets",
	"ind": "indiana pacers",
	"lac": "los angeles clippers",
	"lal": "los angeles lakers",
	"mem": "memphis grizzlies",
	"mia": "miami heat",
	"mil": "milwaukee bucks",
	"min": "minnesota timberwolves",
	"nop": "new orleans pelicans",
	"nyk": "new york knicks",
	"okc": "oklahoma city thunder",
	"orl": "orlando magic",
	"phi": "philadelphia 76ers",
	"phx": "phoenix suns",
	"por": "portland trail blazers",
	"sac": "sacramento kings",
	"sas": "san antonio spurs",
	"tor": "toronto raptors",
	"uta": "utah jazz",
	"was": "washington wizards",
}
