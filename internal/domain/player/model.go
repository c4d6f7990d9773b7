package player

import (
	"fmt"
	"time"

	"github.com/ujpest-analytics/transferroom-sync/internal/domain/history"
)

// Player is the canonical, schema-shaped form of one TransferRoom player
// record. Pointer fields are optional upstream attributes; nil means the
// provider sent no value.
//
// The `track` tag names the field in diffs and change-log entries; fields
// tagged "-" are identity or bookkeeping and are excluded from change
// tracking.
type Player struct {
	SourceID int64 `track:"-"`

	WyscoutID *int64     `track:"wyscout_id"`
	TMarktID  *int64     `track:"trmarkt_id"`
	Name      string     `track:"name"`
	BirthDate *time.Time `track:"birth_date"`

	ParentTeamSourceID  *int64             `track:"parent_team_id"`
	CurrentTeamSourceID *int64             `track:"current_team_id"`
	ParentTeam          *string            `track:"parent_team"`
	CurrentTeam         *string            `track:"current_team"`
	TeamHistory         []history.Snapshot `track:"team_history"`

	Country             *string `track:"country"`
	CountrySourceID     *int64  `track:"country_id"`
	CompetitionSourceID *int64  `track:"competition_id"`
	Competition         *string `track:"competition"`
	DivisionLevel       *int    `track:"division_level"`

	Nationality1 *string `track:"nationality1"`
	Nationality2 *string `track:"nationality2"`

	FirstPosition      *string `track:"first_position"`
	SecondPosition     *string `track:"second_position"`
	FirstPositionFull  *string `track:"first_position_full"`
	SecondPositionFull *string `track:"second_position_full"`
	PlayingStyle       *string `track:"playing_style"`
	PreferredFoot      *string `track:"preferred_foot"`

	ContractExpiry  *time.Time `track:"contract_expiry"`
	Agency          *string    `track:"agency"`
	AgencyVerified  *bool      `track:"agency_verified"`
	EstimatedSalary *float64   `track:"estimated_salary" validate:"omitempty,gte=0"`

	GBEScore  *float64 `track:"gbe_score" validate:"omitempty,gte=0"`
	GBEResult *string  `track:"gbe_result"`

	XTV              *float64           `track:"xtv" validate:"omitempty,gte=0"`
	XTVChange6mPct   *float64           `track:"xtv_change_6m_perc"`
	XTVChange12mPct  *float64           `track:"xtv_change_12m_perc"`
	XTVHistory       []history.Snapshot `track:"xtv_history"`
	BaseValue        *float64           `track:"base_value" validate:"omitempty,gte=0"`
	BaseValueHistory []history.Snapshot `track:"base_value_history"`

	Rating    *float64 `track:"rating" validate:"omitempty,gte=0,lte=100"`
	Potential *float64 `track:"potential" validate:"omitempty,gte=0,lte=100"`

	AvailableForSale *bool    `track:"available_sale"`
	AskingPrice      *float64 `track:"available_asking_price" validate:"omitempty,gte=0"`
	SellOnPct        *float64 `track:"available_sell_on" validate:"omitempty,gte=0,lte=100"`
	AvailableForLoan *bool    `track:"available_loan"`
	MonthlyLoanFee   *float64 `track:"available_monthly_loan_fee" validate:"omitempty,gte=0"`
	Currency         *string  `track:"available_currency"`

	IsActive bool `track:"is_active"`
}

func (p Player) Validate() error {
	if p.SourceID <= 0 {
		return fmt.Errorf("player source id is required")
	}
	if p.Name == "" {
		return fmt.Errorf("player name is required")
	}

	return nil
}

// positionNames maps TransferRoom position codes to their full names.
var positionNames = map[string]string{
	"GK": "Goalkeeper",
	"CB": "Centre-Back",
	"LB": "Left-Back",
	"RB": "Right-Back",
	"DM": "Defensive-Midfield",
	"CM": "Central-Midfield",
	"AM": "Attacking-Midfield",
	"W":  "Winger",
	"F":  "Forward",
}

// PositionFullName resolves a position code to its full name, falling back to
// the code itself for values outside the known set.
func PositionFullName(code string) string {
	if full, ok := positionNames[code]; ok {
		return full
	}
	return code
}
