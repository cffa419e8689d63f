package pricing

import (
	"errors"
	"fmt"

	"github.com/contactkeval/option-xray/internal/instrument"
	"github.com/contactkeval/option-xray/internal/logger"
)

var (
	// ErrInvalidInput is returned when the observed market price is not
	// strictly positive.
	ErrInvalidInput = errors.New("invalid input")

	// ErrBracketing is returned when the model price minus the market price
	// has the same sign at both ends of the volatility bracket, so the
	// observed price cannot be reached inside it.
	ErrBracketing = errors.New("market price outside vol bracket")
)

// ImpliedVolResult is the solved volatility and the iterations the root
// finder consumed. Iterations is diagnostic only.
type ImpliedVolResult struct {
	ImpliedVol float64 `json:"implied_vol"`
	Iterations int     `json:"iterations"`
}

// SolverOptions bound the implied volatility search.
type SolverOptions struct {
	VolLow  float64
	VolHigh float64
	Tol     float64
	MaxIter int
}

// DefaultSolverOptions returns a bracket of [1e-6, 5.0], tolerance 1e-8 and
// at most 200 iterations.
func DefaultSolverOptions() SolverOptions {
	return SolverOptions{
		VolLow:  1e-6,
		VolHigh: 5.0,
		Tol:     1e-8,
		MaxIter: 200,
	}
}

// Solver inverts Price for volatility using a configured RootFinder.
// A Solver holds no mutable state and may be shared between goroutines.
type Solver struct {
	finder RootFinder
	opts   SolverOptions
}

// NewSolver builds a Solver. A nil finder selects Brent.
func NewSolver(finder RootFinder, opts SolverOptions) *Solver {
	if finder == nil {
		finder = Brent{}
	}
	return &Solver{finder: finder, opts: opts}
}

// DefaultSolver is a Brent solver with DefaultSolverOptions.
func DefaultSolver() *Solver {
	return NewSolver(Brent{}, DefaultSolverOptions())
}

// Options returns the bracket and tolerance the solver was built with.
func (s *Solver) Options() SolverOptions {
	return s.opts
}

// ImpliedVol finds the volatility at which Price(o, vol) equals marketPrice.
//
// Parameters:
//   - o: the option whose observed price is being inverted
//   - marketPrice: observed premium, must be > 0
//
// Returns:
//   - ImpliedVolResult: solved vol and iteration count
//   - error: ErrInvalidInput for a non-positive price, ErrBracketing when
//     the price is unreachable within [VolLow, VolHigh]
//
// Price is monotonic in vol for vol > 0, so any valid bracket holds exactly
// one root and both root finders converge to it.
func (s *Solver) ImpliedVol(o instrument.Option, marketPrice float64) (ImpliedVolResult, error) {
	if marketPrice <= 0 {
		return ImpliedVolResult{}, fmt.Errorf("%w: market price must be positive, got %g", ErrInvalidInput, marketPrice)
	}

	objective := func(vol float64) float64 {
		return Price(o, vol) - marketPrice
	}

	lo, hi := s.opts.VolLow, s.opts.VolHigh
	flo, fhi := objective(lo), objective(hi)
	if flo*fhi > 0 {
		return ImpliedVolResult{}, fmt.Errorf(
			"%w: price %g not within [%g, %g] for vol in [%g, %g]",
			ErrBracketing, marketPrice, Price(o, lo), Price(o, hi), lo, hi,
		)
	}

	vol, iters := s.finder.FindRoot(objective, lo, hi, flo, fhi, s.opts.Tol, s.opts.MaxIter)
	logger.Tracef("implied vol solved: price=%g vol=%g iterations=%d finder=%T", marketPrice, vol, iters, s.finder)

	return ImpliedVolResult{ImpliedVol: vol, Iterations: iters}, nil
}

// ImpliedVol solves with DefaultSolver.
func ImpliedVol(o instrument.Option, marketPrice float64) (ImpliedVolResult, error) {
	return DefaultSolver().ImpliedVol(o, marketPrice)
}
