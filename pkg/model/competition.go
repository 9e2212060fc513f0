package model

import "time"

const competitionDateLayout = "2006-01-02"

//nolint:tagliatelle // external API
type Competition struct {
	ID              string `json:"id"`
	Description     string `json:"description"`
	Location        string `json:"location"`
	Date            string `json:"date"` // yyyy-MM-dd
	IsActive        bool   `json:"is_active"`
	RegisteredCount int    `json:"registered_count"`
}

// FormattedDate renders the competition date as dd.MM.yyyy.
// Dates not matching yyyy-MM-dd are returned unchanged.
func (c *Competition) FormattedDate() string {
	t, err := time.Parse(competitionDateLayout, c.Date)
	if err != nil {
		return c.Date
	}
	return t.Format("02.01.2006")
}
