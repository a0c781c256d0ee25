// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/siertrichain/blockchain/business/web/errs"
	"github.com/siertrichain/blockchain/foundation/blockchain/database"
	"github.com/siertrichain/blockchain/foundation/blockchain/fractal"
	"github.com/siertrichain/blockchain/foundation/blockchain/mempool"
	"github.com/siertrichain/blockchain/foundation/blockchain/state"
	"github.com/siertrichain/blockchain/foundation/blockchain/territory"
	"github.com/siertrichain/blockchain/foundation/events"
	"github.com/siertrichain/blockchain/foundation/web"
)

// websocketPrefix selects the events forwarded to websocket clients.
const websocketPrefix = "viewer:"

// Handlers manages the set of public node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	// Need this to handle CORS on the websocket.
	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	// This upgrades the HTTP connection to a websocket connection.
	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	// This provides a channel for receiving events from the blockchain.
	ch := h.Evts.AcquirePrefix(v.TraceID, websocketPrefix)
	defer h.Evts.Release(v.TraceID)

	// Starting a ticker to send a ping message over the websocket.
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	// Block waiting for events from the blockchain or ticker.
	for {
		select {
		case msg, wd := <-ch:

			// If the channel is closed, release the websocket.
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.RetrieveGenesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// Blocks returns every block in the chain.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveBlocks(), http.StatusOK)
}

// BlockByIndex returns the block at the index.
func (h Handlers) BlockByIndex(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	index, err := strconv.ParseUint(web.Param(r, "index"), 10, 64)
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("invalid index: %w", err), http.StatusBadRequest)
	}

	block, err := h.State.RetrieveBlock(index)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return errs.NewTrusted(err, http.StatusNotFound)
		}
		return err
	}

	return web.Respond(ctx, w, block, http.StatusOK)
}

// Score returns the complexity score of the chain.
func (h Handlers) Score(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := score{
		Height: h.State.Height(),
		Score:  h.State.ComplexityScore(),
		Stats:  h.State.Stats(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Validate checks every block of the chain.
func (h Handlers) Validate(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := validity{Valid: true}
	if err := h.State.ValidateChain(); err != nil {
		resp = validity{Valid: false, Error: err.Error()}
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// RequiredDepth returns the depth a block at the height must be mined at.
func (h Handlers) RequiredDepth(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	height, err := strconv.ParseUint(web.Param(r, "height"), 10, 64)
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("invalid height: %w", err), http.StatusBadRequest)
	}

	resp := depth{
		Height: height,
		Depth:  h.State.RequiredDepth(height),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SignalMining signals to start a mining operation.
func (h Handlers) SignalMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if h.State.Worker == nil {
		return errs.NewTrusted(errors.New("mining is not running on this node"), http.StatusServiceUnavailable)
	}
	h.State.Worker.SignalStartMining()

	return web.Respond(ctx, w, status{Status: "mining signalled"}, http.StatusOK)
}

// SubmitTransaction adds a new transaction to the mempool.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var tx Tx
	if err := web.Decode(r, &tx); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	h.Log.Infow("add tran", "traceid", web.GetTraceID(ctx), "id", mempool.TxID(tx.Payload))

	if err := h.State.UpsertTransaction(tx.Payload); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	return web.Respond(ctx, w, status{Status: "transaction added to mempool"}, http.StatusOK)
}

// Mempool returns the set of uncommitted transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveMempool(), http.StatusOK)
}

// Territories returns every claimed territory.
func (h Handlers) Territories(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveTerritories(), http.StatusOK)
}

// Territory returns the territory stored under the key.
func (h Handlers) Territory(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	t, err := h.State.QueryTerritory(web.Param(r, "key"))
	if err != nil {
		return territoryError(err)
	}

	return web.Respond(ctx, w, t, http.StatusOK)
}

// ClaimTerritory registers the triangle at an address for the owner.
func (h Handlers) ClaimTerritory(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var claim Claim
	if err := web.Decode(r, &claim); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	address, err := fractal.ParseAddress(claim.Address)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	t, err := h.State.ClaimTerritory(address, claim.Owner, claim.Stake)
	if err != nil {
		return territoryError(err)
	}

	return web.Respond(ctx, w, t, http.StatusCreated)
}

// DefendTerritory adds stake to a territory.
func (h Handlers) DefendTerritory(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var defense Defense
	if err := web.Decode(r, &defense); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	t, err := h.State.DefendTerritory(web.Param(r, "key"), defense.Stake)
	if err != nil {
		return territoryError(err)
	}

	return web.Respond(ctx, w, t, http.StatusOK)
}

// ConquerTerritory hands a territory to a challenger with a larger stake.
func (h Handlers) ConquerTerritory(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var challenge Challenge
	if err := web.Decode(r, &challenge); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	t, err := h.State.ConquerTerritory(web.Param(r, "key"), challenge.Challenger, challenge.Stake)
	if err != nil {
		return territoryError(err)
	}

	return web.Respond(ctx, w, t, http.StatusOK)
}

// territoryError maps registry failures to trusted web errors.
func territoryError(err error) error {
	switch {
	case errors.Is(err, territory.ErrNotFound):
		return errs.NewTrusted(err, http.StatusNotFound)
	case errors.Is(err, territory.ErrAlreadyClaimed), errors.Is(err, territory.ErrInsufficientStake):
		return errs.NewTrusted(err, http.StatusConflict)
	case errors.Is(err, territory.ErrDegenerate), errors.Is(err, territory.ErrNotEquilateral), errors.Is(err, territory.ErrAddressMismatch), errors.Is(err, territory.ErrInvalidStake):
		return errs.NewTrusted(err, http.StatusBadRequest)
	}
	return err
}
