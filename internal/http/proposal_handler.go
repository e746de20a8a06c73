package http

import (
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/futarchy-engine/internal/domain"
	"github.com/hxuan190/futarchy-engine/internal/http/httputil"
)

type ProposalHandler struct {
	svc FutarchyService
}

func NewProposalHandler(svc FutarchyService) *ProposalHandler {
	return &ProposalHandler{svc: svc}
}

func (h *ProposalHandler) Root() string {
	return "/proposals"
}

func (h *ProposalHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("/:id", h.getProposal)
	pub.POST("/:id/buy-pass", h.trade(domain.SidePass, domain.DirectionBuy))
	pub.POST("/:id/buy-fail", h.trade(domain.SideFail, domain.DirectionBuy))
	pub.POST("/:id/sell-pass", h.trade(domain.SidePass, domain.DirectionSell))
	pub.POST("/:id/sell-fail", h.trade(domain.SideFail, domain.DirectionSell))
	pub.POST("/:id/redeem", h.redeem)
}

// TradeRequest is the body of every buy/sell route.
type TradeRequest struct {
	// Human-readable amount of the token being spent: conditional quote
	// (e.g. USDC) for buys, conditional base tokens for sells.
	// Rounded down to the token's smallest unit.
	Amount decimal.Decimal `json:"amount" swaggertype:"string" example:"120"`

	// Wallet that will sign and pay for the transaction
	User string `json:"user" binding:"required" example:"9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"`

	// Slippage tolerance in basis points (1 bps = 0.01%)
	// Default: 100 bps (1%) if omitted or 0
	SlippageBps uint16 `json:"slippageBps" example:"100"`
}

type TradeResponse struct {
	PlanID    string `json:"planId" example:"3b7e1c0e-3f1d-4a51-9a43-1f2f0c1f3a9e"`
	Proposal  string `json:"proposal"`
	Side      string `json:"side" enums:"pass,fail"`
	Direction string `json:"direction" enums:"buy,sell"`

	// Amounts in smallest token units
	AmountIn       string `json:"amountIn" example:"120000000"`
	ExpectedOutput string `json:"expectedOutput" example:"1996"`
	MinOutput      string `json:"minOutput" example:"1976"`
	PriceImpactBps uint16 `json:"priceImpactBps" example:"25"`

	// WithSplit is true when spot tokens are split before the swap
	WithSplit   bool   `json:"withSplit"`
	SplitAmount string `json:"splitAmount,omitempty" example:"70000000"`

	// Balances used for sizing, human-readable
	Balances map[string]string `json:"balances"`

	Operations []domain.Operation `json:"operations"`

	// Unsigned base64 transaction carrying every operation in order
	Transaction          string `json:"transaction"`
	LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
}

type RedeemRequest struct {
	User string `json:"user" binding:"required" example:"9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"`
}

type RedeemResponse struct {
	PlanID   string `json:"planId"`
	Proposal string `json:"proposal"`

	// Conditional holdings per vault, human-readable
	BaseBalance  string `json:"baseBalance" example:"12.5"`
	QuoteBalance string `json:"quoteBalance" example:"0"`

	Operations           []domain.Operation `json:"operations"`
	Transaction          string             `json:"transaction"`
	LastValidBlockHeight uint64             `json:"lastValidBlockHeight"`
}

func parseKeyParam(c *gin.Context, name string) (solana.PublicKey, bool) {
	key, err := solana.PublicKeyFromBase58(c.Param(name))
	if err != nil {
		httputil.HandleBadRequest(c, "invalid "+name+": not a base58 public key")
		return solana.PublicKey{}, false
	}
	return key, true
}

func parseKey(c *gin.Context, field, value string) (solana.PublicKey, bool) {
	key, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		httputil.HandleBadRequest(c, "invalid "+field+" address")
		return solana.PublicKey{}, false
	}
	return key, true
}

// getProposal godoc
// @Summary Get proposal
// @Description Returns the decoded proposal: state, pass/fail AMMs and the base/quote conditional vaults.
// @Tags proposals
// @Produce json
// @Param id path string true "Proposal address"
// @Success 200 {object} httputil.Response{data=domain.Proposal}
// @Failure 400 {object} httputil.Response "Invalid proposal address"
// @Failure 404 {object} httputil.Response "Proposal not found"
// @Failure 502 {object} httputil.Response "Chain state unavailable"
// @Router /api/v1/proposals/{id} [get]
func (h *ProposalHandler) getProposal(c *gin.Context) {
	id, ok := parseKeyParam(c, "id")
	if !ok {
		return
	}
	proposal, err := h.svc.GetProposal(c.Request.Context(), id)
	if err != nil {
		httputil.HandlePlanError(c, err)
		return
	}
	httputil.HandleSuccess(c, proposal)
}

// trade godoc
// @Summary Buy or sell a conditional token
// @Description Plans a trade on the PASS or FAIL market of a proposal and returns one unsigned transaction.
// @Description
// @Description **Buys** spend conditional quote. When the conditional quote balance is short, the missing
// @Description amount is split from spot quote first, in the same transaction.
// @Description
// @Description **Sells** spend conditional base tokens and never split.
// @Description
// @Description Routes: `buy-pass`, `buy-fail`, `sell-pass`, `sell-fail`.
// @Tags trade
// @Accept json
// @Produce json
// @Param id path string true "Proposal address"
// @Param request body TradeRequest true "Trade parameters"
// @Success 200 {object} httputil.Response{data=TradeResponse}
// @Failure 400 {object} httputil.Response "ValidationError or InsufficientFunds"
// @Failure 404 {object} httputil.Response "NotFound or AccountNotFound"
// @Failure 422 {object} httputil.Response "IlliquidPool or InvalidMarket"
// @Failure 502 {object} httputil.Response "Chain state unavailable"
// @Router /api/v1/proposals/{id}/buy-pass [post]
func (h *ProposalHandler) trade(side domain.Side, dir domain.Direction) gin.HandlerFunc {
	return func(c *gin.Context) {
		market, ok := parseKeyParam(c, "id")
		if !ok {
			return
		}

		var req TradeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httputil.HandleBadRequest(c, "invalid request body: "+err.Error())
			return
		}
		user, ok := parseKey(c, "user", req.User)
		if !ok {
			return
		}

		res, err := h.svc.Trade(c.Request.Context(), domain.TradeIntent{
			Market:      market,
			Side:        side,
			Direction:   dir,
			Amount:      req.Amount,
			User:        user,
			SlippageBps: req.SlippageBps,
		})
		if err != nil {
			httputil.HandlePlanError(c, err)
			return
		}
		httputil.HandleSuccess(c, newTradeResponse(res.Plan, res.Transaction))
	}
}

func newTradeResponse(plan *domain.TradePlan, tx *domain.BuiltTransaction) *TradeResponse {
	balances := make(map[string]string, len(plan.Balances))
	for k, v := range plan.Balances {
		balances[k] = v.String()
	}
	resp := &TradeResponse{
		PlanID:               plan.Plan.ID,
		Proposal:             plan.Intent.Market.String(),
		Side:                 plan.Intent.Side.String(),
		Direction:            plan.Intent.Direction.String(),
		AmountIn:             strconv.FormatUint(plan.AmountIn, 10),
		ExpectedOutput:       strconv.FormatUint(plan.ExpectedOutput, 10),
		MinOutput:            strconv.FormatUint(plan.MinOutput, 10),
		PriceImpactBps:       plan.PriceImpactBps,
		WithSplit:            plan.Plan.HasSplit(),
		Balances:             balances,
		Operations:           plan.Plan.Operations,
		Transaction:          tx.Transaction,
		LastValidBlockHeight: tx.LastValidBlockHeight,
	}
	if resp.WithSplit {
		resp.SplitAmount = strconv.FormatUint(plan.SplitAmount, 10)
	}
	return resp
}

// redeem godoc
// @Summary Redeem conditional tokens
// @Description Redeems the user's conditional tokens of an executed proposal from both the base and the
// @Description quote vault. Fails with InvalidState before execution and NothingToRedeem when both holdings are empty.
// @Tags trade
// @Accept json
// @Produce json
// @Param id path string true "Proposal address"
// @Param request body RedeemRequest true "Redeemer"
// @Success 200 {object} httputil.Response{data=RedeemResponse}
// @Failure 400 {object} httputil.Response "ValidationError or NothingToRedeem"
// @Failure 404 {object} httputil.Response "Proposal or vault not found"
// @Failure 409 {object} httputil.Response "InvalidState: proposal not executed"
// @Failure 502 {object} httputil.Response "Chain state unavailable"
// @Router /api/v1/proposals/{id}/redeem [post]
func (h *ProposalHandler) redeem(c *gin.Context) {
	market, ok := parseKeyParam(c, "id")
	if !ok {
		return
	}

	var req RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	user, ok := parseKey(c, "user", req.User)
	if !ok {
		return
	}

	res, err := h.svc.Redeem(c.Request.Context(), market, user)
	if err != nil {
		httputil.HandlePlanError(c, err)
		return
	}
	httputil.HandleSuccess(c, &RedeemResponse{
		PlanID:               res.Plan.Plan.ID,
		Proposal:             market.String(),
		BaseBalance:          res.Plan.BaseBalance.String(),
		QuoteBalance:         res.Plan.QuoteBalance.String(),
		Operations:           res.Plan.Plan.Operations,
		Transaction:          res.Transaction.Transaction,
		LastValidBlockHeight: res.Transaction.LastValidBlockHeight,
	})
}
