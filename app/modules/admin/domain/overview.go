package admindomain

import "time"

// Overview is the dashboard summary shown to admins.
type Overview struct {
	Users       int                `json:"users"`
	Scores      int                `json:"scores"`
	Photos      PhotoCounts        `json:"photos"`
	MolkkyGames map[string]int     `json:"molkkyGames"`
	Icebreaker  IcebreakerOverview `json:"icebreaker"`
	GeneratedAt time.Time          `json:"generatedAt"`
}

type PhotoCounts struct {
	Visible int `json:"visible"`
	Hidden  int `json:"hidden"`
}

type IcebreakerOverview struct {
	Enabled     bool `json:"enabled"`
	Assignments int  `json:"assignments"`
	Answers     int  `json:"answers"`
}

// Export sheet names, in workbook order.
const (
	SheetUsers  = "Users"
	SheetScores = "Scores"
	SheetMolkky = "Molkky"
)
