package lcu

// Summoner is the subset of /lol-summoner/v1/current-summoner we care about.
type Summoner struct {
	SummonerID    int64  `json:"summonerId"`
	DisplayName   string `json:"displayName"`
	GameName      string `json:"gameName"`
	TagLine       string `json:"tagLine"`
	ProfileIconID int    `json:"profileIconId"`
	SummonerLevel int    `json:"summonerLevel"`
}

// RunePage mirrors the client's /lol-perks/v1/pages resource.
type RunePage struct {
	ID              int64  `json:"id,omitempty"`
	Name            string `json:"name"`
	PrimaryStyleID  int    `json:"primaryStyleId"`
	SubStyleID      int    `json:"subStyleId"`
	SelectedPerkIDs []int  `json:"selectedPerkIds"`
	Current         bool   `json:"current"`
}
