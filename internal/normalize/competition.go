package normalize

import (
	"github.com/ujpest-analytics/transferroom-sync/internal/domain/competition"
)

// NormalizeCompetition coerces one raw provider payload into the canonical
// competition record.
func NormalizeCompetition(raw map[string]any) (competition.Competition, error) {
	sourceID := getInt64(raw, "Id")
	if sourceID <= 0 {
		return competition.Competition{}, validationErrorf("Id", "missing or non-positive source id")
	}

	name := getString(raw, "CompetitionName")
	if name == "" {
		return competition.Competition{}, validationErrorf("CompetitionName", "missing competition name")
	}

	rec := competition.Competition{
		SourceID: sourceID,

		Name:            name,
		CountrySourceID: getInt64Ptr(raw, "CountryId"),
		CountryName:     getStringPtr(raw, "Country"),
		DivisionLevel:   getIntPtr(raw, "DivisionLevel"),
		TeamsData:       getJSONText(raw, "Teams"),

		AvgTeamRating:    getFloatPtr(raw, "AvgTeamRating"),
		AvgStarterRating: getFloatPtr(raw, "AvgStarterRating"),

		IsActive: true,
	}

	if err := checkBounds(rec); err != nil {
		return competition.Competition{}, err
	}
	return rec, nil
}
