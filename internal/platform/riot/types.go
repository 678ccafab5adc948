package riot

import "strconv"

// Account is the Riot account-v1 response for a Riot ID lookup.
type Account struct {
	PUUID    string `json:"puuid"`
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
}

// Summoner is the summoner-v4 response for a PUUID lookup.
type Summoner struct {
	ID            string `json:"id"`
	AccountID     string `json:"accountId"`
	PUUID         string `json:"puuid"`
	SummonerLevel int    `json:"summonerLevel"`
}

// ActiveGame is the spectator-v5 response for a live game lookup.
type ActiveGame struct {
	GameID            int64  `json:"gameId"`
	GameType          string `json:"gameType"`
	GameStartTime     int64  `json:"gameStartTime"`
	PlatformID        string `json:"platformId"`
	GameMode          string `json:"gameMode"`
	GameQueueConfigID int64  `json:"gameQueueConfigId"`
}

// MatchID returns the platform-qualified match identifier in the same form
// match-v5 uses, e.g. "NA1_4811234567".
func (g ActiveGame) MatchID() string {
	return g.PlatformID + "_" + strconv.FormatInt(g.GameID, 10)
}

// Participant is one player's record inside a completed match.
type Participant struct {
	PUUID          string `json:"puuid"`
	SummonerName   string `json:"summonerName"`
	RiotIDGameName string `json:"riotIdGameName"`
	RiotIDTagline  string `json:"riotIdTagline"`
	ChampionName   string `json:"championName"`
	Win            bool   `json:"win"`
}

// Match is the match-v5 response for a completed match.
type Match struct {
	Metadata struct {
		MatchID      string   `json:"matchId"`
		Participants []string `json:"participants"`
	} `json:"metadata"`
	Info struct {
		GameEndTimestamp int64         `json:"gameEndTimestamp"`
		GameDuration     int64         `json:"gameDuration"`
		QueueID          int           `json:"queueId"`
		Participants     []Participant `json:"participants"`
	} `json:"info"`
}

// FindParticipant returns the participant record matching the given PUUID,
// or nil when the player is not in the match.
func (m *Match) FindParticipant(puuid string) *Participant {
	for i := range m.Info.Participants {
		if m.Info.Participants[i].PUUID == puuid {
			return &m.Info.Participants[i]
		}
	}
	return nil
}
