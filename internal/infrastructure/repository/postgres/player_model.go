package postgres

import (
	"database/sql"
	"time"

	"github.com/ujpest-analytics/transferroom-sync/internal/domain/player"
)

// playerRow mirrors the transferroom_players columns the store reads and
// writes; id and created_at stay with the database.
type playerRow struct {
	SourceID int64 `db:"source_id"`

	WyscoutID sql.NullInt64  `db:"wyscout_id"`
	TMarktID  sql.NullInt64  `db:"trmarkt_id"`
	Name      string         `db:"name"`
	BirthDate sql.NullTime   `db:"birth_date"`

	ParentTeamSourceID  sql.NullInt64  `db:"parent_team_id"`
	CurrentTeamSourceID sql.NullInt64  `db:"current_team_id"`
	ParentTeam          sql.NullString `db:"parent_team"`
	CurrentTeam         sql.NullString `db:"current_team"`
	TeamHistory         sql.NullString `db:"team_history"`

	Country             sql.NullString `db:"country"`
	CountrySourceID     sql.NullInt64  `db:"country_id"`
	CompetitionSourceID sql.NullInt64  `db:"competition_id"`
	Competition         sql.NullString `db:"competition"`
	DivisionLevel       sql.NullInt64  `db:"division_level"`

	Nationality1 sql.NullString `db:"nationality1"`
	Nationality2 sql.NullString `db:"nationality2"`

	FirstPosition      sql.NullString `db:"first_position"`
	SecondPosition     sql.NullString `db:"second_position"`
	FirstPositionFull  sql.NullString `db:"first_position_full"`
	SecondPositionFull sql.NullString `db:"second_position_full"`
	PlayingStyle       sql.NullString `db:"playing_style"`
	PreferredFoot      sql.NullString `db:"preferred_foot"`

	ContractExpiry  sql.NullTime    `db:"contract_expiry"`
	Agency          sql.NullString  `db:"agency"`
	AgencyVerified  sql.NullBool    `db:"agency_verified"`
	EstimatedSalary sql.NullFloat64 `db:"estimated_salary"`

	GBEScore  sql.NullFloat64 `db:"gbe_score"`
	GBEResult sql.NullString  `db:"gbe_result"`

	XTV              sql.NullFloat64 `db:"xtv"`
	XTVChange6mPct   sql.NullFloat64 `db:"xtv_change_6m_perc"`
	XTVChange12mPct  sql.NullFloat64 `db:"xtv_change_12m_perc"`
	XTVHistory       sql.NullString  `db:"xtv_history"`
	BaseValue        sql.NullFloat64 `db:"base_value"`
	BaseValueHistory sql.NullString  `db:"base_value_history"`

	Rating    sql.NullFloat64 `db:"rating"`
	Potential sql.NullFloat64 `db:"potential"`

	AvailableForSale sql.NullBool    `db:"available_sale"`
	AskingPrice      sql.NullFloat64 `db:"available_asking_price"`
	SellOnPct        sql.NullFloat64 `db:"available_sell_on"`
	AvailableForLoan sql.NullBool    `db:"available_loan"`
	MonthlyLoanFee   sql.NullFloat64 `db:"available_monthly_loan_fee"`
	Currency         sql.NullString  `db:"available_currency"`

	IsActive     bool      `db:"is_active"`
	UpdatedAt    time.Time `db:"updated_at"`
	LastSyncedAt time.Time `db:"last_synced_at"`
}

func newPlayerRow(rec player.Player, now time.Time) (playerRow, error) {
	teamHistory, err := historyJSON(rec.TeamHistory)
	if err != nil {
		return playerRow{}, err
	}
	xtvHistory, err := historyJSON(rec.XTVHistory)
	if err != nil {
		return playerRow{}, err
	}
	baseValueHistory, err := historyJSON(rec.BaseValueHistory)
	if err != nil {
		return playerRow{}, err
	}

	return playerRow{
		SourceID: rec.SourceID,

		WyscoutID: nullInt64(rec.WyscoutID),
		TMarktID:  nullInt64(rec.TMarktID),
		Name:      rec.Name,
		BirthDate: nullTime(rec.BirthDate),

		ParentTeamSourceID:  nullInt64(rec.ParentTeamSourceID),
		CurrentTeamSourceID: nullInt64(rec.CurrentTeamSourceID),
		ParentTeam:          nullString(rec.ParentTeam),
		CurrentTeam:         nullString(rec.CurrentTeam),
		TeamHistory:         teamHistory,

		Country:             nullString(rec.Country),
		CountrySourceID:     nullInt64(rec.CountrySourceID),
		CompetitionSourceID: nullInt64(rec.CompetitionSourceID),
		Competition:         nullString(rec.Competition),
		DivisionLevel:       nullInt(rec.DivisionLevel),

		Nationality1: nullString(rec.Nationality1),
		Nationality2: nullString(rec.Nationality2),

		FirstPosition:      nullString(rec.FirstPosition),
		SecondPosition:     nullString(rec.SecondPosition),
		FirstPositionFull:  nullString(rec.FirstPositionFull),
		SecondPositionFull: nullString(rec.SecondPositionFull),
		PlayingStyle:       nullString(rec.PlayingStyle),
		PreferredFoot:      nullString(rec.PreferredFoot),

		ContractExpiry:  nullTime(rec.ContractExpiry),
		Agency:          nullString(rec.Agency),
		AgencyVerified:  nullBool(rec.AgencyVerified),
		EstimatedSalary: nullFloat(rec.EstimatedSalary),

		GBEScore:  nullFloat(rec.GBEScore),
		GBEResult: nullString(rec.GBEResult),

		XTV:              nullFloat(rec.XTV),
		XTVChange6mPct:   nullFloat(rec.XTVChange6mPct),
		XTVChange12mPct:  nullFloat(rec.XTVChange12mPct),
		XTVHistory:       xtvHistory,
		BaseValue:        nullFloat(rec.BaseValue),
		BaseValueHistory: baseValueHistory,

		Rating:    nullFloat(rec.Rating),
		Potential: nullFloat(rec.Potential),

		AvailableForSale: nullBool(rec.AvailableForSale),
		AskingPrice:      nullFloat(rec.AskingPrice),
		SellOnPct:        nullFloat(rec.SellOnPct),
		AvailableForLoan: nullBool(rec.AvailableForLoan),
		MonthlyLoanFee:   nullFloat(rec.MonthlyLoanFee),
		Currency:         nullString(rec.Currency),

		IsActive:     rec.IsActive,
		UpdatedAt:    now,
		LastSyncedAt: now,
	}, nil
}

func (r playerRow) toDomain() (player.Player, error) {
	teamHistory, err := historyFromJSON(r.TeamHistory)
	if err != nil {
		return player.Player{}, err
	}
	xtvHistory, err := historyFromJSON(r.XTVHistory)
	if err != nil {
		return player.Player{}, err
	}
	baseValueHistory, err := historyFromJSON(r.BaseValueHistory)
	if err != nil {
		return player.Player{}, err
	}

	return player.Player{
		SourceID: r.SourceID,

		WyscoutID: int64Ptr(r.WyscoutID),
		TMarktID:  int64Ptr(r.TMarktID),
		Name:      r.Name,
		BirthDate: timePtr(r.BirthDate),

		ParentTeamSourceID:  int64Ptr(r.ParentTeamSourceID),
		CurrentTeamSourceID: int64Ptr(r.CurrentTeamSourceID),
		ParentTeam:          stringPtr(r.ParentTeam),
		CurrentTeam:         stringPtr(r.CurrentTeam),
		TeamHistory:         teamHistory,

		Country:             stringPtr(r.Country),
		CountrySourceID:     int64Ptr(r.CountrySourceID),
		CompetitionSourceID: int64Ptr(r.CompetitionSourceID),
		Competition:         stringPtr(r.Competition),
		DivisionLevel:       intPtr(r.DivisionLevel),

		Nationality1: stringPtr(r.Nationality1),
		Nationality2: stringPtr(r.Nationality2),

		FirstPosition:      stringPtr(r.FirstPosition),
		SecondPosition:     stringPtr(r.SecondPosition),
		FirstPositionFull:  stringPtr(r.FirstPositionFull),
		SecondPositionFull: stringPtr(r.SecondPositionFull),
		PlayingStyle:       stringPtr(r.PlayingStyle),
		PreferredFoot:      stringPtr(r.PreferredFoot),

		ContractExpiry:  timePtr(r.ContractExpiry),
		Agency:          stringPtr(r.Agency),
		AgencyVerified:  boolPtr(r.AgencyVerified),
		EstimatedSalary: floatPtr(r.EstimatedSalary),

		GBEScore:  floatPtr(r.GBEScore),
		GBEResult: stringPtr(r.GBEResult),

		XTV:              floatPtr(r.XTV),
		XTVChange6mPct:   floatPtr(r.XTVChange6mPct),
		XTVChange12mPct:  floatPtr(r.XTVChange12mPct),
		XTVHistory:       xtvHistory,
		BaseValue:        floatPtr(r.BaseValue),
		BaseValueHistory: baseValueHistory,

		Rating:    floatPtr(r.Rating),
		Potential: floatPtr(r.Potential),

		AvailableForSale: boolPtr(r.AvailableForSale),
		AskingPrice:      floatPtr(r.AskingPrice),
		SellOnPct:        floatPtr(r.SellOnPct),
		AvailableForLoan: boolPtr(r.AvailableForLoan),
		MonthlyLoanFee:   floatPtr(r.MonthlyLoanFee),
		Currency:         stringPtr(r.Currency),

		IsActive: r.IsActive,
	}, nil
}
