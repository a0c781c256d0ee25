// Package private maintains the group of handlers for node to node access.
package private

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/siertrichain/blockchain/business/web/errs"
	"github.com/siertrichain/blockchain/foundation/blockchain/database"
	"github.com/siertrichain/blockchain/foundation/blockchain/state"
	"github.com/siertrichain/blockchain/foundation/web"
)

// Handlers manages the set of node to node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
}

// ProposeBlock takes a block received from a peer, validates it and
// if that passes, adds the block to the local blockchain.
func (h Handlers) ProposeBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var block database.Block
	if err := web.Decode(r, &block); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	// Ask the state package to validate the proposed block. If the block
	// passes validation, it will be added to the blockchain database.
	if err := h.State.ProcessProposedBlock(block); err != nil {
		h.Log.Infow("propose block", "traceid", web.GetTraceID(ctx), "index", block.Index, "ERROR", err)
		return errs.NewTrusted(fmt.Errorf("block not accepted: %w", err), http.StatusNotAcceptable)
	}

	resp := struct {
		Status string `json:"status"`
		Index  uint64 `json:"index"`
	}{
		Status: "accepted",
		Index:  block.Index,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Status returns the current status of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	latest := h.State.RetrieveLatestBlock()

	resp := struct {
		Height      uint64  `json:"height"`
		LatestHash  string  `json:"latest_hash"`
		Depth       int     `json:"depth"`
		NextDepth   int     `json:"next_depth"`
		Uncommitted int     `json:"uncommitted"`
		Score       float64 `json:"score"`
	}{
		Height:      latest.Index,
		LatestHash:  latest.Hash,
		Depth:       latest.Depth(),
		NextDepth:   h.State.RequiredDepth(latest.Index + 1),
		Uncommitted: h.State.QueryMempoolLength(),
		Score:       h.State.ComplexityScore(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

