package normalize

import "testing"

func rawCompetition() map[string]any {
	return map[string]any{
		"Id":              float64(31),
		"CompetitionName": "NB I",
		"Country":         "Hungary",
		"CountryId":       float64(348),
		"DivisionLevel":   float64(1),
		"Teams":           []any{map[string]any{"Id": float64(88), "Name": "Ujpest FC"}},
		"AvgTeamRating":   64.2,
	}
}

func TestNormalizeCompetition(t *testing.T) {
	t.Parallel()

	rec, err := NormalizeCompetition(rawCompetition())
	if err != nil {
		t.Fatalf("normalize competition: %v", err)
	}

	if rec.SourceID != 31 {
		t.Fatalf("unexpected source id: %d", rec.SourceID)
	}
	if rec.Name != "NB I" {
		t.Fatalf("unexpected name: %q", rec.Name)
	}
	if rec.CountryName == nil || *rec.CountryName != "Hungary" {
		t.Fatalf("unexpected country: %v", rec.CountryName)
	}
	if rec.TeamsData == nil || *rec.TeamsData != `[{"Id":88,"Name":"Ujpest FC"}]` {
		t.Fatalf("unexpected teams payload: %v", rec.TeamsData)
	}
	if !rec.IsActive {
		t.Fatalf("expected normalized record to be active")
	}
}

func TestNormalizeCompetition_TeamsAsJSONText(t *testing.T) {
	t.Parallel()

	raw := rawCompetition()
	raw["Teams"] = `[{"Id": 12, "Name": "Gyori ETO"}]`

	rec, err := NormalizeCompetition(raw)
	if err != nil {
		t.Fatalf("normalize competition: %v", err)
	}
	if rec.TeamsData == nil || *rec.TeamsData != `[{"Id":12,"Name":"Gyori ETO"}]` {
		t.Fatalf("unexpected teams payload: %v", rec.TeamsData)
	}
}

func TestNormalizeCompetition_InvalidTeamsDegrades(t *testing.T) {
	t.Parallel()

	raw := rawCompetition()
	raw["Teams"] = "[broken"

	rec, err := NormalizeCompetition(raw)
	if err != nil {
		t.Fatalf("normalize competition: %v", err)
	}
	if rec.TeamsData != nil {
		t.Fatalf("expected invalid teams payload to degrade to nil, got %q", *rec.TeamsData)
	}
}

func TestNormalizeCompetition_RejectsMissingIdentity(t *testing.T) {
	t.Parallel()

	raw := rawCompetition()
	delete(raw, "CompetitionName")

	_, err := NormalizeCompetition(raw)
	ve, ok := AsValidationError(err)
	if !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
	if ve.Field != "CompetitionName" {
		t.Fatalf("unexpected violating field: %q", ve.Field)
	}
}

func TestNormalizeCompetition_RejectsOutOfRangeRating(t *testing.T) {
	t.Parallel()

	raw := rawCompetition()
	raw["AvgStarterRating"] = float64(-3)

	_, err := NormalizeCompetition(raw)
	if _, ok := AsValidationError(err); !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
}
