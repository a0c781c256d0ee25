// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/siertrichain/blockchain/app/services/node/handlers/v1/private"
	"github.com/siertrichain/blockchain/app/services/node/handlers/v1/public"
	"github.com/siertrichain/blockchain/foundation/blockchain/state"
	"github.com/siertrichain/blockchain/foundation/events"
	"github.com/siertrichain/blockchain/foundation/web"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	Evts  *events.Events
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodGet, version, "/genesis", pbl.Genesis)
	app.Handle(http.MethodGet, version, "/blocks/list", pbl.Blocks)
	app.Handle(http.MethodGet, version, "/blocks/:index", pbl.BlockByIndex)
	app.Handle(http.MethodGet, version, "/chain/score", pbl.Score)
	app.Handle(http.MethodGet, version, "/chain/validate", pbl.Validate)
	app.Handle(http.MethodGet, version, "/mining/depth/:height", pbl.RequiredDepth)
	app.Handle(http.MethodPost, version, "/mining/signal", pbl.SignalMining)
	app.Handle(http.MethodPost, version, "/tx/submit", pbl.SubmitTransaction)
	app.Handle(http.MethodGet, version, "/tx/uncommitted/list", pbl.Mempool)
	app.Handle(http.MethodGet, version, "/territory/list", pbl.Territories)
	app.Handle(http.MethodPost, version, "/territory/claim", pbl.ClaimTerritory)
	app.Handle(http.MethodGet, version, "/territory/:key", pbl.Territory)
	app.Handle(http.MethodPost, version, "/territory/:key/defend", pbl.DefendTerritory)
	app.Handle(http.MethodPost, version, "/territory/:key/conquer", pbl.ConquerTerritory)
}

// PrivateRoutes binds all the version 1 private routes.
func PrivateRoutes(app *web.App, cfg Config) {
	prv := private.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
	}

	app.Handle(http.MethodGet, version, "/node/status", prv.Status)
	app.Handle(http.MethodPost, version, "/node/block/propose", prv.ProposeBlock)
}
