package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/contactkeval/option-xray/internal/data"
	"github.com/contactkeval/option-xray/internal/instrument"
	"github.com/contactkeval/option-xray/internal/pricing"
	"github.com/contactkeval/option-xray/internal/scenario"
	"github.com/contactkeval/option-xray/internal/xray"
)

// writeError maps domain errors onto status codes and the API error shape.
func writeError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL_ERROR"
	switch {
	case errors.Is(err, pricing.ErrBracketing):
		status, code = http.StatusUnprocessableEntity, "BRACKETING_ERROR"
	case errors.Is(err, pricing.ErrInvalidInput):
		status, code = http.StatusBadRequest, "INVALID_INPUT"
	case errors.Is(err, xray.ErrMissingInput):
		status, code = http.StatusBadRequest, "MISSING_INPUT"
	case errors.Is(err, xray.ErrUnsupportedModel):
		status, code = http.StatusBadRequest, "UNSUPPORTED_MODEL"
	case errors.Is(err, data.ErrNoQuote):
		status, code = http.StatusNotFound, "NO_QUOTE"
	}
	_ = c.Error(err)
	c.JSON(status, ErrorResponse{Error: ErrorDetail{Code: code, Message: err.Error()}})
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: ErrorDetail{Code: "INVALID_REQUEST", Message: err.Error()},
		})
		return false
	}
	return true
}

// handleXRay handles POST /v1/xray
func (s *Server) handleXRay(c *gin.Context) {
	var req XRayRequest
	if !bindJSON(c, &req) {
		return
	}
	opt, err := req.Option.toOption()
	if err != nil {
		writeError(c, err)
		return
	}

	market := instrument.Market{}
	if req.MarketPrice != nil {
		market = instrument.NewMarket(*req.MarketPrice)
	} else if req.Quote != nil {
		price, err := s.lookupQuote(c, *req.Quote, &opt)
		if err != nil {
			writeError(c, err)
			return
		}
		market = instrument.NewMarket(price)
	}

	opts := []xray.Option{xray.WithSolver(s.cfg.Solver), xray.WithScenarioEngine(s.cfg.Engine)}
	if req.Vol != nil {
		opts = append(opts, xray.WithVol(*req.Vol))
	}

	scenarios := req.Scenarios
	if req.DefaultScenarios {
		scenarios = append(scenarios, scenario.DefaultSet()...)
	}

	model := req.Model
	if model == "" {
		model = s.cfg.Model
	}

	res, err := xray.New(opt, market, opts...).Run(xray.Model(model), scenarios)
	if err != nil {
		writeError(c, err)
		return
	}
	if res.Base.ImpliedVol != nil {
		s.cfg.Metrics.RecordImpliedVol(res.Base.IVIterations)
	}
	s.cfg.Metrics.RecordScenarioRows(len(res.Scenarios))

	c.JSON(http.StatusOK, res)
}

// lookupQuote fetches the contract's market price and sets opt.Maturity
// from the quote expiry.
func (s *Server) lookupQuote(c *gin.Context, q QuoteRequest, opt *instrument.Option) (float64, error) {
	if s.cfg.Quotes == nil {
		return 0, fmt.Errorf("%w: no quote provider configured", xray.ErrMissingInput)
	}
	expiry, err := time.Parse("2006-01-02", q.Expiry)
	if err != nil {
		return 0, fmt.Errorf("%w: expiry %q: %v", pricing.ErrInvalidInput, q.Expiry, err)
	}
	contract := data.Contract{Underlying: q.Underlying, Expiry: expiry, Strike: opt.Strike, Type: opt.Type}
	price, err := s.cfg.Quotes.GetOptionPrice(c.Request.Context(), contract)
	if err != nil {
		return 0, err
	}
	opt.Maturity = data.YearFraction(s.cfg.Now(), expiry)
	return price, nil
}

// handlePrice handles POST /v1/price
func (s *Server) handlePrice(c *gin.Context) {
	var req PriceRequest
	if !bindJSON(c, &req) {
		return
	}
	opt, err := req.Option.toOption()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, PriceResponse{
		Price:     pricing.Price(opt, *req.Vol),
		Intrinsic: pricing.Intrinsic(opt),
		Extrinsic: pricing.Extrinsic(opt, *req.Vol),
	})
}

// handleGreeks handles POST /v1/greeks
func (s *Server) handleGreeks(c *gin.Context) {
	var req PriceRequest
	if !bindJSON(c, &req) {
		return
	}
	opt, err := req.Option.toOption()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pricing.ComputeGreeks(opt, *req.Vol))
}

// handleImpliedVol handles POST /v1/implied-vol
func (s *Server) handleImpliedVol(c *gin.Context) {
	var req ImpliedVolRequest
	if !bindJSON(c, &req) {
		return
	}
	opt, err := req.Option.toOption()
	if err != nil {
		writeError(c, err)
		return
	}
	res, err := s.cfg.Solver.ImpliedVol(opt, req.MarketPrice)
	if err != nil {
		writeError(c, err)
		return
	}
	s.cfg.Metrics.RecordImpliedVol(res.Iterations)
	c.JSON(http.StatusOK, res)
}

// handleScenarios handles POST /v1/scenarios
func (s *Server) handleScenarios(c *gin.Context) {
	var req ScenariosRequest
	if !bindJSON(c, &req) {
		return
	}
	opt, err := req.Option.toOption()
	if err != nil {
		writeError(c, err)
		return
	}
	rows := s.cfg.Engine.Run(opt, *req.Vol, req.Scenarios)
	s.cfg.Metrics.RecordScenarioRows(len(rows))
	c.JSON(http.StatusOK, ScenariosResponse{Rows: rows, Ranked: scenario.Rank(rows)})
}
