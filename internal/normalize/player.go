package normalize

import (
	validator "github.com/go-playground/validator/v10"

	"github.com/ujpest-analytics/transferroom-sync/internal/domain/player"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// checkBounds runs tag-declared range validation over a canonical record and
// converts the first violation into a ValidationError.
func checkBounds(rec any) error {
	err := validate.Struct(rec)
	if err == nil {
		return nil
	}

	violations, ok := err.(validator.ValidationErrors)
	if !ok || len(violations) == 0 {
		return validationErrorf("record", "validation failed: %v", err)
	}

	first := violations[0]
	return validationErrorf(first.StructField(), "value %v violates %s=%s", first.Value(), first.Tag(), first.Param())
}

func positionPtr(code *string) *string {
	if code == nil {
		return nil
	}
	full := player.PositionFullName(*code)
	return &full
}

// NormalizePlayer coerces one raw provider payload into the canonical player
// record. It reads the input without mutating it and returns a ValidationError
// for records that cannot be represented.
func NormalizePlayer(raw map[string]any) (player.Player, error) {
	sourceID := getInt64(raw, "TR_ID")
	if sourceID <= 0 {
		return player.Player{}, validationErrorf("TR_ID", "missing or non-positive source id")
	}

	name := getString(raw, "Name")
	if name == "" {
		return player.Player{}, validationErrorf("Name", "missing player name")
	}

	birthDate, err := getDatePtr(raw, "BirthDate")
	if err != nil {
		return player.Player{}, err
	}
	contractExpiry, err := getDatePtr(raw, "ContractExpiry")
	if err != nil {
		return player.Player{}, err
	}

	firstPosition := getStringPtr(raw, "FirstPosition")
	secondPosition := getStringPtr(raw, "SecondPosition")

	rec := player.Player{
		SourceID: sourceID,

		WyscoutID: getInt64Ptr(raw, "wyscout_id"),
		TMarktID:  getInt64Ptr(raw, "trmarkt_id"),
		Name:      name,
		BirthDate: birthDate,

		ParentTeamSourceID:  getInt64Ptr(raw, "ParentTeamId"),
		CurrentTeamSourceID: getInt64Ptr(raw, "CurrentTeamId"),
		ParentTeam:          getStringPtr(raw, "ParentTeam"),
		CurrentTeam:         getStringPtr(raw, "CurrentTeam"),
		TeamHistory:         getHistory(raw, "TeamHistory"),

		Country:             getStringPtr(raw, "Country"),
		CountrySourceID:     getInt64Ptr(raw, "CountryId"),
		CompetitionSourceID: getInt64Ptr(raw, "CompetitionId"),
		Competition:         getStringPtr(raw, "Competition"),
		DivisionLevel:       getIntPtr(raw, "DivisionLevel"),

		Nationality1: getStringPtr(raw, "Nationality1"),
		Nationality2: getStringPtr(raw, "Nationality2"),

		FirstPosition:      firstPosition,
		SecondPosition:     secondPosition,
		FirstPositionFull:  positionPtr(firstPosition),
		SecondPositionFull: positionPtr(secondPosition),
		PlayingStyle:       getStringPtr(raw, "PlayingStyle"),
		PreferredFoot:      getStringPtr(raw, "PreferredFoot"),

		ContractExpiry:  contractExpiry,
		Agency:          getStringPtr(raw, "Agency"),
		AgencyVerified:  getBoolPtr(raw, "AgencyVerified"),
		EstimatedSalary: getFloatPtr(raw, "EstimatedSalary"),

		GBEScore:  getFloatPtr(raw, "GBEScore"),
		GBEResult: getStringPtr(raw, "GBEResult"),

		XTV:              getFloatPtr(raw, "xTV"),
		XTVChange6mPct:   getFloatPtr(raw, "xTVChange6mPerc"),
		XTVChange12mPct:  getFloatPtr(raw, "xTVChange12mPerc"),
		XTVHistory:       getHistory(raw, "xTVHistory"),
		BaseValue:        getFloatPtr(raw, "BaseValue"),
		BaseValueHistory: getHistory(raw, "BaseValueHistory"),

		Rating:    getFloatPtr(raw, "Rating"),
		Potential: getFloatPtr(raw, "Potential"),

		AvailableForSale: getBoolPtr(raw, "AvailableSale"),
		AskingPrice:      getFloatPtr(raw, "AvailableAskingPrice"),
		SellOnPct:        getFloatPtr(raw, "AvailableSellOn"),
		AvailableForLoan: getBoolPtr(raw, "AvailableLoan"),
		MonthlyLoanFee:   getFloatPtr(raw, "AvailableMonthlyLoanFee"),
		Currency:         getStringPtr(raw, "AvailableCurrency"),

		IsActive: true,
	}

	if err := checkBounds(rec); err != nil {
		return player.Player{}, err
	}
	return rec, nil
}
