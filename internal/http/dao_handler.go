package http

import (
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/futarchy-engine/internal/domain"
	"github.com/hxuan190/futarchy-engine/internal/http/httputil"
	"github.com/hxuan190/futarchy-engine/internal/services/planner"
)

type DaoHandler struct {
	svc FutarchyService
}

func NewDaoHandler(svc FutarchyService) *DaoHandler {
	return &DaoHandler{svc: svc}
}

func (h *DaoHandler) Root() string {
	return "/daos"
}

func (h *DaoHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("", h.listDaos)
	pub.GET("/:id", h.getDao)
	pub.GET("/:id/proposals", h.listProposals)
	pub.POST("/:id/proposals", h.preflightProposal)
}

// CreateProposalRequest describes the proposal a wallet intends to create.
type CreateProposalRequest struct {
	// Link to the proposal write-up; must be an absolute URL
	DescriptionURL string `json:"descriptionUrl" binding:"required" example:"https://hackmd.io/@metadao/proposal-1"`

	// Human-readable DAO tokens the proposer commits to the pass/fail pools
	BaseTokensToLP decimal.Decimal `json:"baseTokensToLP" swaggertype:"string" example:"10"`

	// Human-readable USDC the proposer commits to the pass/fail pools
	QuoteTokensToLP decimal.Decimal `json:"quoteTokensToLP" swaggertype:"string" example:"500"`

	// Proposer wallet. Defaults to the server's configured proposer
	Proposer string `json:"proposer,omitempty" example:"9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"`
}

type ProposalPreflightResponse struct {
	Dao            string `json:"dao"`
	Proposer       string `json:"proposer"`
	DescriptionURL string `json:"descriptionUrl"`

	// Required liquidity in smallest token units
	RequiredBase  string `json:"requiredBase" example:"10000000000"`
	RequiredQuote string `json:"requiredQuote" example:"500000000"`

	// Proposer balances, human-readable
	BaseBalance  string `json:"baseBalance" example:"25"`
	QuoteBalance string `json:"quoteBalance" example:"1200"`
}

// listDaos godoc
// @Summary List DAOs
// @Description Lists every DAO account owned by the autocrat program, ordered by address.
// @Tags daos
// @Produce json
// @Success 200 {object} httputil.Response{data=[]domain.Dao}
// @Failure 502 {object} httputil.Response "Chain state unavailable"
// @Router /api/v1/daos [get]
func (h *DaoHandler) listDaos(c *gin.Context) {
	daos, err := h.svc.ListDaos(c.Request.Context())
	if err != nil {
		httputil.HandlePlanError(c, err)
		return
	}
	httputil.HandleSuccess(c, daos)
}

// getDao godoc
// @Summary Get DAO
// @Tags daos
// @Produce json
// @Param id path string true "DAO address"
// @Success 200 {object} httputil.Response{data=domain.Dao}
// @Failure 400 {object} httputil.Response "Invalid DAO address"
// @Failure 404 {object} httputil.Response "DAO not found"
// @Router /api/v1/daos/{id} [get]
func (h *DaoHandler) getDao(c *gin.Context) {
	id, ok := parseKeyParam(c, "id")
	if !ok {
		return
	}
	dao, err := h.svc.GetDao(c.Request.Context(), id)
	if err != nil {
		httputil.HandlePlanError(c, err)
		return
	}
	httputil.HandleSuccess(c, dao)
}

// listProposals godoc
// @Summary List a DAO's proposals
// @Description Lists the DAO's proposals ordered by proposal number.
// @Tags daos
// @Produce json
// @Param id path string true "DAO address"
// @Success 200 {object} httputil.Response{data=[]domain.Proposal}
// @Failure 400 {object} httputil.Response "Invalid DAO address"
// @Failure 502 {object} httputil.Response "Chain state unavailable"
// @Router /api/v1/daos/{id}/proposals [get]
func (h *DaoHandler) listProposals(c *gin.Context) {
	id, ok := parseKeyParam(c, "id")
	if !ok {
		return
	}
	proposals, err := h.svc.ListProposals(c.Request.Context(), id)
	if err != nil {
		httputil.HandlePlanError(c, err)
		return
	}
	httputil.HandleSuccess(c, proposals)
}

// preflightProposal godoc
// @Summary Check proposal creation
// @Description Checks that the proposer holds the DAO token and USDC liquidity a new proposal would lock.
// @Description Nothing is built or submitted.
// @Tags daos
// @Accept json
// @Produce json
// @Param id path string true "DAO address"
// @Param request body CreateProposalRequest true "Proposal parameters"
// @Success 200 {object} httputil.Response{data=ProposalPreflightResponse}
// @Failure 400 {object} httputil.Response "ValidationError or InsufficientFunds"
// @Failure 404 {object} httputil.Response "DAO not found"
// @Failure 502 {object} httputil.Response "Chain state unavailable"
// @Router /api/v1/daos/{id}/proposals [post]
func (h *DaoHandler) preflightProposal(c *gin.Context) {
	dao, ok := parseKeyParam(c, "id")
	if !ok {
		return
	}

	var req CreateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	var proposer solana.PublicKey
	if req.Proposer != "" {
		if proposer, ok = parseKey(c, "proposer", req.Proposer); !ok {
			return
		}
	}

	res, err := h.svc.PreflightProposal(c.Request.Context(), planner.ProposalRequest{
		Dao:             dao,
		DescriptionURL:  req.DescriptionURL,
		BaseTokensToLP:  req.BaseTokensToLP,
		QuoteTokensToLP: req.QuoteTokensToLP,
		Proposer:        proposer,
	})
	if err != nil {
		httputil.HandlePlanError(c, err)
		return
	}
	httputil.HandleSuccess(c, newPreflightResponse(res))
}

func newPreflightResponse(p *domain.ProposalPreflight) *ProposalPreflightResponse {
	return &ProposalPreflightResponse{
		Dao:            p.Dao.String(),
		Proposer:       p.Proposer.String(),
		DescriptionURL: p.DescriptionURL,
		RequiredBase:   strconv.FormatUint(p.RequiredBase, 10),
		RequiredQuote:  strconv.FormatUint(p.RequiredQuote, 10),
		BaseBalance:    p.BaseBalance.String(),
		QuoteBalance:   p.QuoteBalance.String(),
	}
}
