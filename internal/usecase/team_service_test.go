package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apexfantasy/paddock/internal/domain/lineup"
	"github.com/apexfantasy/paddock/internal/domain/market"
)

func TestTeamServiceComposesPage(t *testing.T) {
	roster := stubRoster()
	roster[0].Clause = &market.Clause{EntityID: roster[0].Entity.ID, Price: 120, ExpiresAt: futureTime(time.Hour)}
	roster[1].Clause = &market.Clause{EntityID: roster[1].Entity.ID, Price: 90, ExpiresAt: futureTime(-time.Hour)}

	hub := &stubHub{
		roster:   roster,
		current:  lineup.Payload{RacePilots: []string{"r1"}},
		auctions: []market.Auction{stubAuction("a1", time.Hour)},
	}
	svc := NewTeamService(hub, nil)

	page, err := svc.TeamPage(context.Background(), stubSession(), "lg-1")
	require.NoError(t, err)
	assert.Len(t, page.Roster, 4)
	assert.Equal(t, []string{"r1"}, page.CurrentLineup.RacePilots)
	assert.Len(t, page.Auctions, 1)
	assert.Equal(t, 1, page.ActiveClauses)
}

func TestTeamServicePropagatesFirstError(t *testing.T) {
	hub := &stubHub{
		roster:    stubRoster(),
		marketErr: errors.New("hub down"),
	}
	svc := NewTeamService(hub, nil)

	_, err := svc.TeamPage(context.Background(), stubSession(), "lg-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch market")
}
