package leaguehub

import (
	"fmt"
	"strings"
	"time"

	"github.com/apexfantasy/paddock/internal/domain/entity"
	"github.com/apexfantasy/paddock/internal/domain/lineup"
	"github.com/apexfantasy/paddock/internal/domain/market"
)

// hubEntityDTO covers every item shape the hub emits. Older hub versions
// omit the kind discriminator, so the variant is resolved here, exactly
// once, before anything downstream sees the item.
type hubEntityDTO struct {
	ID          string        `json:"id"`
	Kind        string        `json:"kind"`
	SessionMode string        `json:"session_mode"`
	Role        string        `json:"role"`
	IsTeam      bool          `json:"is_team"`
	Name        string        `json:"name"`
	TeamName    string        `json:"team_name"`
	Value       int64         `json:"value"`
	Clause      *hubClauseDTO `json:"clause"`
}

type hubClauseDTO struct {
	Price     int64  `json:"price"`
	ExpiresAt string `json:"expires_at"`
}

func (d hubEntityDTO) toEntity() (entity.Entity, error) {
	kind, mode, err := d.resolveKind()
	if err != nil {
		return entity.Entity{}, err
	}

	e := entity.Entity{
		ID:       strings.TrimSpace(d.ID),
		Kind:     kind,
		Mode:     mode,
		Name:     strings.TrimSpace(d.Name),
		TeamName: strings.TrimSpace(d.TeamName),
		Value:    d.Value,
	}
	if err := e.Validate(); err != nil {
		return entity.Entity{}, err
	}
	return e, nil
}

func (d hubEntityDTO) resolveKind() (entity.Kind, entity.SessionMode, error) {
	if raw := strings.TrimSpace(d.Kind); raw != "" {
		kind, err := entity.ParseKind(raw)
		if err != nil {
			return "", "", err
		}
		if kind != entity.KindPilot {
			return kind, "", nil
		}
		mode, err := entity.ParseSessionMode(d.SessionMode)
		if err != nil {
			return "", "", err
		}
		return kind, mode, nil
	}

	// legacy shapes: pilots carry session_mode, engineers a role field,
	// constructors an is_team flag
	if strings.TrimSpace(d.SessionMode) != "" {
		mode, err := entity.ParseSessionMode(d.SessionMode)
		if err != nil {
			return "", "", err
		}
		return entity.KindPilot, mode, nil
	}
	switch strings.ToLower(strings.TrimSpace(d.Role)) {
	case "chief":
		return entity.KindChiefEngineer, "", nil
	case "track":
		return entity.KindTrackEngineer, "", nil
	}
	if d.IsTeam {
		return entity.KindTeamConstructor, "", nil
	}
	return "", "", fmt.Errorf("cannot resolve entity kind for item %q", d.ID)
}

func (d hubEntityDTO) toClause() *market.Clause {
	if d.Clause == nil {
		return nil
	}
	expiresAt, err := time.Parse(time.RFC3339, strings.TrimSpace(d.Clause.ExpiresAt))
	if err != nil {
		return nil
	}
	return &market.Clause{
		EntityID:  strings.TrimSpace(d.ID),
		Price:     d.Clause.Price,
		ExpiresAt: expiresAt.UTC(),
	}
}

type auctionDTO struct {
	ID         string       `json:"id"`
	Entity     hubEntityDTO `json:"entity"`
	CurrentBid int64        `json:"current_bid"`
	Value      int64        `json:"value"`
	FIAOffer   int64        `json:"fia_offer"`
	ExpiresAt  string       `json:"expires_at"`
}

type saveLineupBody struct {
	LeagueID string         `json:"league_id"`
	Payload  lineup.Payload `json:"lineup"`
	GPIndex  *int           `json:"gp_index,omitempty"`
}

type saveLineupResponse struct {
	GPName   string `json:"gp_name"`
	IsNextGP bool   `json:"is_next_gp"`
}

type historyItemDTO struct {
	GPIndex int            `json:"gp_index"`
	Lineup  lineup.Payload `json:"lineup"`
}

type pointsDTO struct {
	GPIndex  int              `json:"gp_index"`
	Total    int64            `json:"total"`
	ByEntity map[string]int64 `json:"by_entity"`
}

type elementPointsDTO struct {
	EntityID string           `json:"entity_id"`
	PerGP    map[string]int64 `json:"per_gp"`
	Total    int64            `json:"total"`
}

type placeBidBody struct {
	LeagueID  string `json:"league_id"`
	AuctionID string `json:"auction_id"`
	Amount    int64  `json:"amount"`
}
