package market

import (
	"fmt"
	"time"

	"github.com/apexfantasy/paddock/internal/domain/entity"
)

// Auction is one marketable entity currently up for bidding. Expiry instants
// come from the league hub; the hub alone settles auctions.
type Auction struct {
	ID         string
	Entity     entity.Entity
	CurrentBid int64
	Value      int64
	FIAOffer   int64 // system-generated purchase offer, 0 when absent
	ExpiresAt  time.Time
}

func (a Auction) Expired(now time.Time) bool {
	return !a.ExpiresAt.After(now)
}

// CanBid reports whether the bid affordance is enabled. The gate is local
// and performs no I/O; disabled mirrors a caller-supplied flag such as an
// in-flight submission.
func (a Auction) CanBid(now time.Time, disabled bool) bool {
	return !disabled && !a.Expired(now)
}

func (a Auction) ValidateBasic() error {
	if a.ID == "" {
		return fmt.Errorf("auction id is required")
	}
	if err := a.Entity.Validate(); err != nil {
		return fmt.Errorf("auction entity: %w", err)
	}
	if a.ExpiresAt.IsZero() {
		return fmt.Errorf("auction expiry is required")
	}

	return nil
}

// Clause is a buyout window on an owned entity: anyone paying the clause
// price before expiry acquires the entity.
type Clause struct {
	EntityID  string
	Price     int64
	ExpiresAt time.Time
}

// Active reports whether the buyout window is still open.
func (c Clause) Active(now time.Time) bool {
	return c.ExpiresAt.After(now)
}

// Bid is a user's offer on an auction, forwarded to the hub as-is.
type Bid struct {
	AuctionID string
	Amount    int64
}

func (b Bid) ValidateBasic() error {
	if b.AuctionID == "" {
		return fmt.Errorf("auction id is required")
	}
	if b.Amount <= 0 {
		return fmt.Errorf("bid amount must be greater than zero")
	}

	return nil
}
