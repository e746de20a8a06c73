package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type ErrorKind string

const (
	KindValidation          ErrorKind = "ValidationError"
	KindInsufficientFunds   ErrorKind = "InsufficientFunds"
	KindAccountNotFound     ErrorKind = "AccountNotFound"
	KindIlliquidPool        ErrorKind = "IlliquidPool"
	KindInvalidState        ErrorKind = "InvalidState"
	KindNothingToRedeem     ErrorKind = "NothingToRedeem"
	KindUpstreamUnavailable ErrorKind = "UpstreamUnavailable"
	KindNotFound            ErrorKind = "NotFound"
	KindInvalidMarket       ErrorKind = "InvalidMarket"
)

// Legs name the balance or account an error refers to.
const (
	LegSpotQuote        = "spotQuote"
	LegConditionalQuote = "conditionalQuote"
	LegConditionalBase  = "conditionalBase"
	LegBaseVault        = "baseVault"
	LegQuoteVault       = "quoteVault"
	LegDaoToken         = "daoToken"
	LegDaoUsdc          = "daoUsdc"
	LegPool             = "pool"
)

// Sentinels for errors.Is; a PlanError matches any sentinel of the same kind.
var (
	ErrValidation          = &PlanError{Kind: KindValidation}
	ErrInsufficientFunds   = &PlanError{Kind: KindInsufficientFunds}
	ErrAccountNotFound     = &PlanError{Kind: KindAccountNotFound}
	ErrIlliquidPool        = &PlanError{Kind: KindIlliquidPool}
	ErrInvalidState        = &PlanError{Kind: KindInvalidState}
	ErrNothingToRedeem     = &PlanError{Kind: KindNothingToRedeem}
	ErrUpstreamUnavailable = &PlanError{Kind: KindUpstreamUnavailable}
	ErrNotFound            = &PlanError{Kind: KindNotFound}
	ErrInvalidMarket       = &PlanError{Kind: KindInvalidMarket}
)

// PlanError is the tagged error every planning failure is reported as.
// Amounts are human-readable values.
type PlanError struct {
	Kind      ErrorKind
	Msg       string
	Leg       string
	Requested *decimal.Decimal
	Available *decimal.Decimal
	Shortfall *decimal.Decimal
	Fields    map[string]any
	Err       error
}

func (e *PlanError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Leg != "" {
		fmt.Fprintf(&b, " (leg=%s)", e.Leg)
	}
	if e.Requested != nil && e.Available != nil {
		fmt.Fprintf(&b, " requested=%s available=%s", e.Requested, e.Available)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *PlanError) Unwrap() error {
	return e.Err
}

func (e *PlanError) Is(target error) bool {
	t, ok := target.(*PlanError)
	return ok && t.Kind == e.Kind
}

// Details flattens the structured context for transport layers.
func (e *PlanError) Details() map[string]any {
	out := make(map[string]any, len(e.Fields)+4)
	for k, v := range e.Fields {
		out[k] = v
	}
	if e.Leg != "" {
		out["leg"] = e.Leg
	}
	if e.Requested != nil {
		out["requested"] = e.Requested.String()
	}
	if e.Available != nil {
		out["available"] = e.Available.String()
	}
	if e.Shortfall != nil {
		out["shortfall"] = e.Shortfall.String()
	}
	return out
}

// KindOf returns the kind of a PlanError anywhere in err's chain, or "".
func KindOf(err error) ErrorKind {
	var pe *PlanError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

func Validation(msg string) *PlanError {
	return &PlanError{Kind: KindValidation, Msg: msg}
}

// InsufficientFunds reports a requested amount above what the leg(s) hold.
// balances carries every contributing balance by name.
func InsufficientFunds(leg string, requested, available decimal.Decimal, balances map[string]decimal.Decimal) *PlanError {
	shortfall := requested.Sub(available)
	fields := make(map[string]any, len(balances))
	for k, v := range balances {
		fields[k] = v.String()
	}
	return &PlanError{
		Kind:      KindInsufficientFunds,
		Msg:       "insufficient balance",
		Leg:       leg,
		Requested: &requested,
		Available: &available,
		Shortfall: &shortfall,
		Fields:    fields,
	}
}

func AccountNotFound(leg string, owner, mint fmt.Stringer) *PlanError {
	return &PlanError{
		Kind: KindAccountNotFound,
		Msg:  "no token account for mint",
		Leg:  leg,
		Fields: map[string]any{
			"owner": owner.String(),
			"mint":  mint.String(),
		},
	}
}

func IlliquidPool(reserveIn, reserveOut uint64) *PlanError {
	return &PlanError{
		Kind: KindIlliquidPool,
		Msg:  "pool has an empty reserve",
		Leg:  LegPool,
		Fields: map[string]any{
			"reserveIn":  reserveIn,
			"reserveOut": reserveOut,
		},
	}
}

func InvalidState(state ProposalState) *PlanError {
	return &PlanError{
		Kind:   KindInvalidState,
		Msg:    "proposal must be in executed state to redeem tokens",
		Fields: map[string]any{"state": state.String()},
	}
}

func NothingToRedeem(base, quote decimal.Decimal) *PlanError {
	return &PlanError{
		Kind: KindNothingToRedeem,
		Msg:  "no tokens to redeem",
		Fields: map[string]any{
			"baseBalance":  base.String(),
			"quoteBalance": quote.String(),
		},
	}
}

func Upstream(op string, err error) *PlanError {
	return &PlanError{Kind: KindUpstreamUnavailable, Msg: op, Err: err}
}

func NotFound(what string, id fmt.Stringer) *PlanError {
	return &PlanError{
		Kind:   KindNotFound,
		Msg:    what + " not found",
		Fields: map[string]any{"address": id.String()},
	}
}

func InvalidMarket(msg string) *PlanError {
	return &PlanError{Kind: KindInvalidMarket, Msg: msg}
}
