package competition

import "fmt"

// Competition is the canonical form of one TransferRoom competition record.
// TeamsData is the provider's team list carried as opaque JSON text.
type Competition struct {
	SourceID int64 `track:"-"`

	Name            string  `track:"competition_name"`
	CountrySourceID *int64  `track:"country_id"`
	CountryName     *string `track:"country_name"`
	DivisionLevel   *int    `track:"division_level"`
	TeamsData       *string `track:"teams_data"`

	AvgTeamRating    *float64 `track:"avg_team_rating" validate:"omitempty,gte=0,lte=100"`
	AvgStarterRating *float64 `track:"avg_starter_rating" validate:"omitempty,gte=0,lte=100"`

	IsActive bool `track:"is_active"`
}

func (c Competition) Validate() error {
	if c.SourceID <= 0 {
		return fmt.Errorf("competition source id is required")
	}
	if c.Name == "" {
		return fmt.Errorf("competition name is required")
	}

	return nil
}
