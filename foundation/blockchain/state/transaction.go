package state

// UpsertTransaction accepts a transaction payload for inclusion in a future
// block and signals the worker to start mining.
func (s *State) UpsertTransaction(payload string) error {
	n, err := s.mempool.Upsert(payload)
	if err != nil {
		return err
	}

	s.evHandler("state: UpsertTransaction: mempool count[%d]", n)

	if s.Worker != nil {
		s.Worker.SignalStartMining()
	}

	return nil
}
