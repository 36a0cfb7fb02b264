package amm

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-amm-core/internal/curve"
)

// Stage is a step of the swap state machine. A SwapError carries the last
// stage that completed before the failure.
type Stage uint8

const (
	StageStart Stage = iota
	StagePreconditionsChecked
	StageAmountComputed
	StageSlippageChecked
	StageDeposited
	StageWithdrawn
	StageDone
)

var stageNames = [...]string{
	StageStart:                "start",
	StagePreconditionsChecked: "preconditions_checked",
	StageAmountComputed:       "amount_computed",
	StageSlippageChecked:      "slippage_checked",
	StageDeposited:            "deposited",
	StageWithdrawn:            "withdrawn",
	StageDone:                 "done",
}

func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("stage(%d)", uint8(s))
}

// SwapperConfig holds configuration for the swapper
type SwapperConfig struct {
	Logger *logrus.Logger
}

// Swapper sequences one trade end-to-end: preconditions, pricing, slippage,
// deposit, withdrawal. It holds no state between calls.
type Swapper struct {
	logger *logrus.Logger
}

// NewSwapper creates a swapper
func NewSwapper(cfg SwapperConfig) *Swapper {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Swapper{logger: cfg.Logger}
}

// Swap executes req against pool using custody for balances and transfers.
//
// Every failure before the deposit leg leaves custody untouched. A failure of
// the withdrawal leg is returned as a fatal SwapError and the caller must
// discard the deposit with the rest of its transaction.
func (s *Swapper) Swap(
	ctx context.Context,
	custody Custody,
	pool *Pool,
	accounts SwapAccounts,
	req SwapRequest,
) (*SwapResult, error) {
	stage := StageStart
	fail := func(err error) (*SwapResult, error) {
		return nil, &SwapError{Stage: stage, Fatal: stage >= StageDeposited, Err: err}
	}

	if pool == nil {
		return fail(ErrNilPool)
	}
	legs, err := req.Direction.legs(accounts)
	if err != nil {
		return fail(err)
	}

	// 1. Preconditions
	if pool.Locked {
		return fail(ErrPoolLocked)
	}
	if req.Amount == 0 {
		return fail(ErrInvalidAmount)
	}
	stage = StagePreconditionsChecked

	// 2. Live reserves, read once
	before, err := readReserves(ctx, custody, accounts.Vaults)
	if err != nil {
		return fail(err)
	}

	// 3. Counter-amount for the requested direction only
	amountOut, err := legs.counterDelta(before.X, before.Y, req.Amount)
	if err != nil {
		return fail(err)
	}
	reserveIn, _ := req.Direction.split(before)
	if _, err := curve.AddReserve(reserveIn, req.Amount); err != nil {
		return fail(err)
	}
	stage = StageAmountComputed

	// 4. Slippage, strictly before any transfer
	if amountOut < req.MinOutput {
		return fail(fmt.Errorf("%w: output %d below minimum %d", ErrSlippageExceeded, amountOut, req.MinOutput))
	}
	stage = StageSlippageChecked

	log := s.logger.WithFields(logrus.Fields{
		"pool":       pool.Seed,
		"trader":     accounts.Trader.String(),
		"direction":  req.Direction.String(),
		"amount_in":  req.Amount,
		"amount_out": amountOut,
	})

	// 5. Deposit leg, signed by the trader
	if err := custody.Transfer(ctx, legs.depositFrom, legs.depositTo, req.Amount, TraderAuthority(accounts.Trader)); err != nil {
		log.WithError(err).Debug("deposit leg failed")
		return fail(fmt.Errorf("deposit: %w", err))
	}
	stage = StageDeposited

	// 6. Withdrawal leg, signed by the pool credential
	credential := AuthorityCredential(pool.Seed, pool.Bump)
	if err := custody.Transfer(ctx, legs.withdrawFrom, legs.withdrawTo, amountOut, PoolAuthority(credential)); err != nil {
		log.WithError(err).Error("withdrawal leg failed after deposit")
		return fail(fmt.Errorf("withdraw: %w", err))
	}
	stage = StageWithdrawn

	result := &SwapResult{
		Direction:    req.Direction,
		InputAmount:  req.Amount,
		OutputAmount: amountOut,
		Before:       before,
		After:        req.Direction.apply(before, req.Amount, amountOut),
	}
	stage = StageDone

	log.WithField("stage", stage.String()).Debug("swap completed")
	return result, nil
}

// Quote prices a swap of amountIn against the current reserves without
// moving anything.
func (s *Swapper) Quote(ctx context.Context, balances BalanceReader, vaults Vaults, dir Direction, amountIn uint64) (*Quote, error) {
	legs, err := dir.legs(SwapAccounts{Vaults: vaults})
	if err != nil {
		return nil, err
	}
	if amountIn == 0 {
		return nil, ErrInvalidAmount
	}

	reserves, err := readReserves(ctx, balances, vaults)
	if err != nil {
		return nil, err
	}

	amountOut, err := legs.counterDelta(reserves.X, reserves.Y, amountIn)
	if err != nil {
		return nil, err
	}

	return newQuote(dir, reserves, amountIn, amountOut), nil
}

// QuoteExactOut returns the smallest input that releases at least amountOut.
func (s *Swapper) QuoteExactOut(ctx context.Context, balances BalanceReader, vaults Vaults, dir Direction, amountOut uint64) (*Quote, error) {
	if !dir.Valid() {
		return nil, ErrInvalidDirection
	}

	reserves, err := readReserves(ctx, balances, vaults)
	if err != nil {
		return nil, err
	}

	reserveIn, reserveOut := dir.split(reserves)
	amountIn, err := curve.AmountInForExactOut(reserveIn, reserveOut, amountOut)
	if err != nil {
		return nil, err
	}

	return newQuote(dir, reserves, amountIn, amountOut), nil
}

func newQuote(dir Direction, reserves Reserves, amountIn, amountOut uint64) *Quote {
	reserveIn, reserveOut := dir.split(reserves)
	return &Quote{
		Direction:   dir,
		AmountIn:    amountIn,
		AmountOut:   amountOut,
		Reserves:    reserves,
		PriceImpact: curve.PriceImpact(reserveIn, reserveOut, amountIn, amountOut),
	}
}

func readReserves(ctx context.Context, balances BalanceReader, vaults Vaults) (Reserves, error) {
	x, err := balances.Balance(ctx, vaults.X)
	if err != nil {
		return Reserves{}, fmt.Errorf("failed to read vault X balance: %w", err)
	}
	y, err := balances.Balance(ctx, vaults.Y)
	if err != nil {
		return Reserves{}, fmt.Errorf("failed to read vault Y balance: %w", err)
	}
	return Reserves{X: x, Y: y}, nil
}
