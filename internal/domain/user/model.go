package user

import (
	"fmt"
	"hash/fnv"
)

// Session carries the caller's identity for one request. The bearer token is
// captured from the Authorization header and forwarded to the league hub
// verbatim; this service never validates or mints tokens.
type Session struct {
	UserID string
	Token  string
}

func (s Session) ValidateBasic() error {
	if s.Token == "" {
		return fmt.Errorf("session token is required")
	}

	return nil
}

// Key derives a stable board-store key for the session within a league.
// Tokens never appear in keys; a short fnv digest stands in for identity
// when the hub did not supply a user id.
func (s Session) Key(leagueID string) string {
	id := s.UserID
	if id == "" {
		h := fnv.New64a()
		h.Write([]byte(s.Token))
		id = fmt.Sprintf("tok-%x", h.Sum64())
	}
	return id + "::" + leagueID
}
