package state

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/siertrichain/blockchain/foundation/blockchain/fractal"
	"github.com/siertrichain/blockchain/foundation/blockchain/territory"
)

// ClaimTerritory registers the triangle named by the address for the owner.
func (s *State) ClaimTerritory(address fractal.Address, owner string, stake decimal.Decimal) (territory.Territory, error) {
	tri, err := s.miner.Tree().Resolve(address)
	if err != nil {
		return territory.Territory{}, fmt.Errorf("%w: %w", territory.ErrAddressMismatch, err)
	}

	t, err := s.territory.Claim(tri, address, owner, stake)
	if err != nil {
		return territory.Territory{}, err
	}

	s.evHandler("viewer: territory: claimed: key[%s] address[%s] owner[%s] stake[%s]", t.Key, address, owner, stake)

	return t, nil
}

// DefendTerritory adds stake to a territory.
func (s *State) DefendTerritory(key string, stake decimal.Decimal) (territory.Territory, error) {
	t, err := s.territory.Defend(key, stake)
	if err != nil {
		return territory.Territory{}, err
	}

	s.evHandler("viewer: territory: defended: key[%s] stake[%s]", key, t.Stake)

	return t, nil
}

// ConquerTerritory hands a territory to the challenger when the stake beats
// the defender's.
func (s *State) ConquerTerritory(key string, challenger string, stake decimal.Decimal) (territory.Territory, error) {
	current, err := s.territory.Get(key)
	if err != nil {
		return territory.Territory{}, err
	}

	t, err := s.territory.Conquer(key, challenger, current.Triangle, stake)
	if err != nil {
		return territory.Territory{}, err
	}

	s.evHandler("viewer: territory: conquered: key[%s] owner[%s] stake[%s]", key, challenger, stake)

	return t, nil
}

// QueryTerritory returns the territory stored under the key.
func (s *State) QueryTerritory(key string) (territory.Territory, error) {
	return s.territory.Get(key)
}

// RetrieveTerritories returns every claimed territory.
func (s *State) RetrieveTerritories() []territory.Territory {
	return s.territory.List()
}
