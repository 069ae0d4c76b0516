package telegram

// AgeBracket maps Telegram user ids up to MaxID to an approximate account age.
type AgeBracket struct {
	MaxID int64
	Years float64
}

// AgeTable estimates account age from the id. Ids are handed out roughly in
// sign-up order, so cumulative downloads per year bound the ids of that year.
type AgeTable []AgeBracket

var DefaultAgeTable = AgeTable{
	{MaxID: 35_000_000, Years: 11},
	{MaxID: 85_000_000, Years: 10},
	{MaxID: 165_000_000, Years: 9},
	{MaxID: 315_000_000, Years: 8},
	{MaxID: 515_000_000, Years: 7},
	{MaxID: 815_000_000, Years: 6},
	{MaxID: 1_215_000_000, Years: 5},
	{MaxID: 1_765_000_000, Years: 4},
	{MaxID: 2_465_000_000, Years: 3},
	{MaxID: 3_265_000_000, Years: 2},
	{MaxID: 4_165_000_000, Years: 1.5},
}

// AccountAge returns the estimated age in years, 1 for ids past the table.
func (t AgeTable) AccountAge(telegramID int64) float64 {
	for _, b := range t {
		if telegramID <= b.MaxID {
			return b.Years
		}
	}
	return 1
}
