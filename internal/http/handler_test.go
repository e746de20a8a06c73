package http

import (
	"context"
	"encoding/json"
	"errors"
	gohttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/futarchy-engine/internal/domain"
	"github.com/hxuan190/futarchy-engine/internal/futarchy"
	"github.com/hxuan190/futarchy-engine/internal/http/httputil"
	"github.com/hxuan190/futarchy-engine/internal/services/planner"
)

type fakeService struct {
	intent    domain.TradeIntent
	preflight planner.ProposalRequest
	err       error
	daos      []*domain.Dao
}

func (f *fakeService) Trade(_ context.Context, intent domain.TradeIntent) (*futarchy.TradeResult, error) {
	f.intent = intent
	if f.err != nil {
		return nil, f.err
	}
	ops := []domain.Operation{
		{Kind: domain.OpSplit, Split: &domain.SplitParams{Amount: 70_000_000}},
		{Kind: domain.OpSwap, Swap: &domain.SwapParams{InputAmount: 120_000_000}},
	}
	return &futarchy.TradeResult{
		Plan: &domain.TradePlan{
			Plan:           &domain.OperationPlan{ID: "plan-1", User: intent.User, Operations: ops},
			Intent:         intent,
			AmountIn:       120_000_000,
			ExpectedOutput: 1996,
			MinOutput:      1976,
			SplitAmount:    70_000_000,
			Balances: map[string]decimal.Decimal{
				domain.LegSpotQuote:        decimal.NewFromInt(200),
				domain.LegConditionalQuote: decimal.NewFromInt(50),
			},
		},
		Transaction: &domain.BuiltTransaction{Transaction: "AQID", LastValidBlockHeight: 99, InstructionCount: 5},
	}, nil
}

func (f *fakeService) Redeem(_ context.Context, market, user solana.PublicKey) (*futarchy.RedeemResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &futarchy.RedeemResult{
		Plan: &domain.RedeemPlan{
			Plan:         &domain.OperationPlan{ID: "plan-2", User: user},
			BaseBalance:  decimal.RequireFromString("12.5"),
			QuoteBalance: decimal.Zero,
		},
		Transaction: &domain.BuiltTransaction{Transaction: "AQID"},
	}, nil
}

func (f *fakeService) PreflightProposal(_ context.Context, req planner.ProposalRequest) (*domain.ProposalPreflight, error) {
	f.preflight = req
	if f.err != nil {
		return nil, f.err
	}
	return &domain.ProposalPreflight{Dao: req.Dao, Proposer: req.Proposer, RequiredBase: 10, RequiredQuote: 20}, nil
}

func (f *fakeService) GetDao(_ context.Context, id solana.PublicKey) (*domain.Dao, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Dao{Address: id}, nil
}

func (f *fakeService) ListDaos(context.Context) ([]*domain.Dao, error) {
	return f.daos, f.err
}

func (f *fakeService) GetProposal(_ context.Context, id solana.PublicKey) (*domain.Proposal, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Proposal{Address: id}, nil
}

func (f *fakeService) ListProposals(context.Context, solana.PublicKey) ([]*domain.Proposal, error) {
	return nil, f.err
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Kind    string          `json:"kind"`
	Details map[string]any  `json:"details"`
}

func newTestRouter(f *fakeService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := &HTTPService{
		futarchySvc: f,
		handlers: []httputil.IHttpHandler{
			NewProposalHandler(f),
			NewDaoHandler(f),
		},
	}
	return svc.newRouter()
}

func do(t *testing.T, r *gin.Engine, method, path, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %s %s: %v (%s)", method, path, err, w.Body.String())
	}
	return w.Code, env
}

var (
	testMarket = solana.NewWallet().PublicKey()
	testUser   = solana.NewWallet().PublicKey()
)

func TestBuyPass(t *testing.T) {
	f := &fakeService{}
	r := newTestRouter(f)

	code, env := do(t, r, gohttp.MethodPost, "/api/v1/proposals/"+testMarket.String()+"/buy-pass",
		`{"amount": 120, "user": "`+testUser.String()+`", "slippageBps": 50}`)
	if code != gohttp.StatusOK || !env.Success {
		t.Fatalf("got %d: %+v", code, env)
	}
	if f.intent.Side != domain.SidePass || f.intent.Direction != domain.DirectionBuy {
		t.Fatalf("intent routed to %s/%s", f.intent.Side, f.intent.Direction)
	}
	if !f.intent.Amount.Equal(decimal.NewFromInt(120)) || f.intent.SlippageBps != 50 || f.intent.Market != testMarket {
		t.Fatalf("intent: %+v", f.intent)
	}

	var resp TradeResponse
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if !resp.WithSplit || resp.SplitAmount != "70000000" || resp.ExpectedOutput != "1996" || resp.MinOutput != "1976" {
		t.Fatalf("response: %+v", resp)
	}
	if resp.Transaction != "AQID" || resp.LastValidBlockHeight != 99 || len(resp.Operations) != 2 {
		t.Fatalf("transaction: %+v", resp)
	}
	if resp.Operations[0].Kind != domain.OpSplit || resp.Balances[domain.LegSpotQuote] != "200" {
		t.Fatalf("operations/balances: %+v", resp)
	}
}

func TestTradeRoutes(t *testing.T) {
	tests := []struct {
		route string
		side  domain.Side
		dir   domain.Direction
	}{
		{"buy-fail", domain.SideFail, domain.DirectionBuy},
		{"sell-pass", domain.SidePass, domain.DirectionSell},
		{"sell-fail", domain.SideFail, domain.DirectionSell},
	}
	for _, tt := range tests {
		t.Run(tt.route, func(t *testing.T) {
			f := &fakeService{}
			r := newTestRouter(f)
			code, _ := do(t, r, gohttp.MethodPost, "/api/v1/proposals/"+testMarket.String()+"/"+tt.route,
				`{"amount": "1.5", "user": "`+testUser.String()+`"}`)
			if code != gohttp.StatusOK {
				t.Fatalf("got %d", code)
			}
			if f.intent.Side != tt.side || f.intent.Direction != tt.dir {
				t.Fatalf("routed to %s/%s", f.intent.Side, f.intent.Direction)
			}
		})
	}
}

func TestTradeBadRequests(t *testing.T) {
	r := newTestRouter(&fakeService{})
	tests := []struct {
		name string
		path string
		body string
	}{
		{"bad proposal id", "/api/v1/proposals/not-a-key/buy-pass", `{"amount": 1, "user": "` + testUser.String() + `"}`},
		{"bad user", "/api/v1/proposals/" + testMarket.String() + "/buy-pass", `{"amount": 1, "user": "nope"}`},
		{"missing user", "/api/v1/proposals/" + testMarket.String() + "/buy-pass", `{"amount": 1}`},
		{"bad amount", "/api/v1/proposals/" + testMarket.String() + "/buy-pass", `{"amount": "abc", "user": "` + testUser.String() + `"}`},
		{"malformed json", "/api/v1/proposals/" + testMarket.String() + "/sell-pass", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := do(t, r, gohttp.MethodPost, tt.path, tt.body)
			if code != gohttp.StatusBadRequest || env.Success {
				t.Fatalf("got %d: %+v", code, env)
			}
		})
	}
}

func TestPlanErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   domain.ErrorKind
	}{
		{
			name:   "insufficient funds",
			err:    domain.InsufficientFunds(domain.LegSpotQuote, decimal.NewFromInt(251), decimal.NewFromInt(250), nil),
			status: gohttp.StatusBadRequest,
			kind:   domain.KindInsufficientFunds,
		},
		{
			name:   "not found",
			err:    domain.NotFound("proposal", testMarket),
			status: gohttp.StatusNotFound,
			kind:   domain.KindNotFound,
		},
		{
			name:   "illiquid",
			err:    domain.IlliquidPool(0, 10),
			status: gohttp.StatusUnprocessableEntity,
			kind:   domain.KindIlliquidPool,
		},
		{
			name:   "upstream",
			err:    domain.Upstream("get_proposal", errors.New("dial tcp 10.0.0.1:8899")),
			status: gohttp.StatusBadGateway,
			kind:   domain.KindUpstreamUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(&fakeService{err: tt.err})
			code, env := do(t, r, gohttp.MethodPost, "/api/v1/proposals/"+testMarket.String()+"/buy-pass",
				`{"amount": 251, "user": "`+testUser.String()+`"}`)
			if code != tt.status || env.Kind != string(tt.kind) {
				t.Fatalf("got %d/%s, want %d/%s", code, env.Kind, tt.status, tt.kind)
			}
			if strings.Contains(env.Error, "10.0.0.1") {
				t.Fatalf("upstream detail leaked: %q", env.Error)
			}
		})
	}
}

func TestInsufficientFundsDetails(t *testing.T) {
	err := domain.InsufficientFunds(domain.LegSpotQuote, decimal.NewFromInt(251), decimal.NewFromInt(250), map[string]decimal.Decimal{
		domain.LegSpotQuote: decimal.NewFromInt(200),
	})
	r := newTestRouter(&fakeService{err: err})

	_, env := do(t, r, gohttp.MethodPost, "/api/v1/proposals/"+testMarket.String()+"/buy-pass",
		`{"amount": 251, "user": "`+testUser.String()+`"}`)
	if env.Details["leg"] != domain.LegSpotQuote || env.Details["shortfall"] != "1" || env.Details["requested"] != "251" {
		t.Fatalf("details: %+v", env.Details)
	}
}

func TestRedeem(t *testing.T) {
	r := newTestRouter(&fakeService{})
	code, env := do(t, r, gohttp.MethodPost, "/api/v1/proposals/"+testMarket.String()+"/redeem", `{"user": "`+testUser.String()+`"}`)
	if code != gohttp.StatusOK {
		t.Fatalf("got %d: %+v", code, env)
	}
	var resp RedeemResponse
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.BaseBalance != "12.5" || resp.QuoteBalance != "0" || resp.PlanID != "plan-2" {
		t.Fatalf("response: %+v", resp)
	}

	r = newTestRouter(&fakeService{err: domain.InvalidState(domain.ProposalStatePending)})
	code, env = do(t, r, gohttp.MethodPost, "/api/v1/proposals/"+testMarket.String()+"/redeem", `{"user": "`+testUser.String()+`"}`)
	if code != gohttp.StatusConflict || env.Kind != string(domain.KindInvalidState) {
		t.Fatalf("got %d/%s", code, env.Kind)
	}
}

func TestPreflightProposal(t *testing.T) {
	f := &fakeService{}
	r := newTestRouter(f)
	dao := solana.NewWallet().PublicKey()

	code, env := do(t, r, gohttp.MethodPost, "/api/v1/daos/"+dao.String()+"/proposals",
		`{"descriptionUrl": "https://example.com/p", "baseTokensToLP": "10", "quoteTokensToLP": 500}`)
	if code != gohttp.StatusOK {
		t.Fatalf("got %d: %+v", code, env)
	}
	if f.preflight.Dao != dao || !f.preflight.Proposer.IsZero() {
		t.Fatalf("request: %+v", f.preflight)
	}
	if !f.preflight.QuoteTokensToLP.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("quote tokens: %s", f.preflight.QuoteTokensToLP)
	}

	var resp ProposalPreflightResponse
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.RequiredBase != "10" || resp.RequiredQuote != "20" {
		t.Fatalf("response: %+v", resp)
	}

	code, _ = do(t, r, gohttp.MethodPost, "/api/v1/daos/"+dao.String()+"/proposals",
		`{"descriptionUrl": "https://example.com/p", "baseTokensToLP": 1, "quoteTokensToLP": 1, "proposer": "bad"}`)
	if code != gohttp.StatusBadRequest {
		t.Fatalf("bad proposer: got %d", code)
	}
}

func TestLookupRoutes(t *testing.T) {
	dao := &domain.Dao{Address: solana.NewWallet().PublicKey()}
	r := newTestRouter(&fakeService{daos: []*domain.Dao{dao}})

	code, env := do(t, r, gohttp.MethodGet, "/api/v1/daos", "")
	if code != gohttp.StatusOK {
		t.Fatalf("list daos: %d", code)
	}
	var daos []domain.Dao
	if err := json.Unmarshal(env.Data, &daos); err != nil || len(daos) != 1 || daos[0].Address != dao.Address {
		t.Fatalf("daos: %v %+v", err, daos)
	}

	if code, _ := do(t, r, gohttp.MethodGet, "/api/v1/daos/"+dao.Address.String(), ""); code != gohttp.StatusOK {
		t.Fatalf("get dao: %d", code)
	}
	if code, _ := do(t, r, gohttp.MethodGet, "/api/v1/proposals/"+testMarket.String(), ""); code != gohttp.StatusOK {
		t.Fatalf("get proposal: %d", code)
	}
	if code, _ := do(t, r, gohttp.MethodGet, "/api/v1/daos/xyz/proposals", ""); code != gohttp.StatusBadRequest {
		t.Fatalf("bad dao id: %d", code)
	}
}

func TestHealth(t *testing.T) {
	r := newTestRouter(&fakeService{})
	req := httptest.NewRequest(gohttp.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != gohttp.StatusOK || !strings.Contains(w.Body.String(), "ok") {
		t.Fatalf("health: %d %s", w.Code, w.Body.String())
	}
}

func TestUnknownRouteEnvelope(t *testing.T) {
	r := newTestRouter(&fakeService{})
	code, env := do(t, r, gohttp.MethodGet, "/api/v1/markets", "")
	if code != gohttp.StatusNotFound || env.Success || env.Error != "Not found" {
		t.Fatalf("unknown route: %d %+v", code, env)
	}
}
