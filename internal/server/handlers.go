package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-amm-core/internal/amm"
	"github.com/aman-zulfiqar/solana-amm-core/internal/constants"
	"github.com/aman-zulfiqar/solana-amm-core/internal/curve"
	"github.com/aman-zulfiqar/solana-amm-core/internal/journal"
	"github.com/aman-zulfiqar/solana-amm-core/internal/ledger"
	"github.com/aman-zulfiqar/solana-amm-core/internal/poolstore"
)

// RecentSwapsReader reads the journal's recent swap list
type RecentSwapsReader interface {
	Recent(ctx context.Context, limit int) ([]journal.SwapRecord, error)
}

// Handlers contains all dependencies for API endpoint handlers
type Handlers struct {
	Host    *ledger.Host      // Executes swaps and quotes against the ledger
	Pools   poolstore.Store   // Pool records and lock flag
	Recent  RecentSwapsReader // Optional; nil disables /swaps/recent
	Metrics http.Handler      // Optional; nil disables /metrics
	DevMode bool              // Enable detailed error responses and dev routes
	Logger  *logrus.Logger
}

// err returns a standardized JSON error response
// In dev mode, includes additional error details for debugging
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

// fail maps a domain error to its status and writes it
func (h *Handlers) fail(c echo.Context, err error) error {
	code, msg := swapStatus(err)
	if code >= http.StatusInternalServerError {
		h.Logger.WithError(err).WithField("path", c.Path()).Error("request failed")
	}
	return h.err(c, code, msg, map[string]any{"err": err.Error()})
}

// withTimeout creates a context with timeout, defaulting to 10 seconds if duration <= 0
func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

func parseSeed(c echo.Context) (uint64, error) {
	return strconv.ParseUint(strings.TrimSpace(c.Param("seed")), 10, 64)
}

func parseUintQuery(c echo.Context, name string) (uint64, error) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return 0, errors.New("required")
	}
	return strconv.ParseUint(v, 10, 64)
}

// Health returns a simple health check endpoint
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{OK: true})
}

// poolResponse attaches vaults and reserves when the pool resolves in the
// ledger
func (h *Handlers) poolResponse(ctx context.Context, pool *amm.Pool) PoolResponse {
	resp := PoolResponse{Pool: pool}

	_, vaults, err := h.Host.PoolVaults(ctx, pool.Seed)
	if err != nil {
		return resp
	}
	resp.Vaults = &vaults

	if reserves, err := h.Host.Reserves(ctx, pool.Seed); err == nil {
		resp.Reserves = &reserves
	}
	return resp
}

// ListPools returns every configured pool
func (h *Handlers) ListPools(c echo.Context) error {
	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	pools, err := h.Pools.List(ctx)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to list pools", nil)
	}

	items := make([]PoolResponse, 0, len(pools))
	for _, p := range pools {
		items = append(items, h.poolResponse(ctx, p))
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// GetPool returns one pool with its reserves
func (h *Handlers) GetPool(c echo.Context) error {
	seed, err := parseSeed(c)
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid seed", map[string]any{"seed": "must be uint64"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	pool, err := h.Pools.Get(ctx, seed)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, h.poolResponse(ctx, pool))
}

// SetPoolLock toggles the pool lock flag. Pool parameters are otherwise
// read-only.
func (h *Handlers) SetPoolLock(c echo.Context) error {
	seed, err := parseSeed(c)
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid seed", map[string]any{"seed": "must be uint64"})
	}
	var req PoolLockRequest
	if err := c.Bind(&req); err != nil || req.Locked == nil {
		return h.err(c, http.StatusBadRequest, "invalid json", map[string]any{"locked": "required boolean"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	pool, err := h.Pools.SetLocked(ctx, seed, *req.Locked)
	if err != nil {
		return h.fail(c, err)
	}

	h.Logger.WithFields(logrus.Fields{"pool": seed, "locked": pool.Locked}).Info("pool lock updated")
	return c.JSON(http.StatusOK, pool)
}

// Quote prices an exact-in swap
// Accepts direction, amount and optional slippageBps (default 0, max 10000)
func (h *Handlers) Quote(c echo.Context) error {
	seed, err := parseSeed(c)
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid seed", map[string]any{"seed": "must be uint64"})
	}
	dir, err := amm.ParseDirection(c.QueryParam("direction"))
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid direction", map[string]any{"direction": "x_in or y_in"})
	}
	amount, err := parseUintQuery(c, "amount")
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid amount", map[string]any{"amount": "must be uint64"})
	}

	var slippageBps uint16
	if v := strings.TrimSpace(c.QueryParam("slippageBps")); v != "" {
		n, err := strconv.ParseUint(v, 10, 16)
		if err != nil || n > constants.MaxBps {
			return h.err(c, http.StatusBadRequest, "invalid slippageBps", map[string]any{"slippageBps": "0..10000"})
		}
		slippageBps = uint16(n)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	q, err := h.Host.Quote(ctx, seed, dir, amount)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(http.StatusOK, QuoteResponse{
		Quote:       q,
		SlippageBps: slippageBps,
		MinOutput:   curve.ApplySlippage(q.AmountOut, slippageBps),
	})
}

// QuoteExactOut returns the smallest input buying amountOut
func (h *Handlers) QuoteExactOut(c echo.Context) error {
	seed, err := parseSeed(c)
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid seed", map[string]any{"seed": "must be uint64"})
	}
	dir, err := amm.ParseDirection(c.QueryParam("direction"))
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid direction", map[string]any{"direction": "x_in or y_in"})
	}
	amountOut, err := parseUintQuery(c, "amountOut")
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid amountOut", map[string]any{"amountOut": "must be uint64"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	q, err := h.Host.QuoteExactOut(ctx, seed, dir, amountOut)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, q)
}

// Swap executes a swap for the trader in the request body
func (h *Handlers) Swap(c echo.Context) error {
	seed, err := parseSeed(c)
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid seed", map[string]any{"seed": "must be uint64"})
	}

	var req SwapRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", map[string]any{"err": err.Error()})
	}
	trader, err := solana.PublicKeyFromBase58(strings.TrimSpace(req.Trader))
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid trader", map[string]any{"trader": "base58 public key"})
	}
	if !req.Direction.Valid() {
		return h.err(c, http.StatusBadRequest, "invalid direction", map[string]any{"direction": "x_in or y_in"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	res, err := h.Host.Swap(ctx, seed, trader, amm.SwapRequest{
		Direction: req.Direction,
		Amount:    req.Amount,
		MinOutput: req.MinOutput,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Account returns the associated token account of (owner, mint)
func (h *Handlers) Account(c echo.Context) error {
	owner, err := solana.PublicKeyFromBase58(c.Param("owner"))
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid owner", nil)
	}
	mint, err := solana.PublicKeyFromBase58(c.Param("mint"))
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid mint", nil)
	}

	addr, _, err := ledger.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to derive account", nil)
	}
	acc, err := h.Host.Ledger().Account(addr)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, AccountResponse{Account: acc})
}

// DevMint credits tokens to (owner, mint), opening the account if needed
func (h *Handlers) DevMint(c echo.Context) error {
	var req DevMintRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	owner, err := solana.PublicKeyFromBase58(strings.TrimSpace(req.Owner))
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid owner", nil)
	}
	mint, err := solana.PublicKeyFromBase58(strings.TrimSpace(req.Mint))
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid mint", nil)
	}

	acc, err := h.Host.Ledger().Mint(owner, mint, req.Amount)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, AccountResponse{Account: acc})
}

// RecentSwaps returns the most recent journaled swaps
// Accepts limit query parameter (default: 50, range: 1-MaxRecentSwaps)
func (h *Handlers) RecentSwaps(c echo.Context) error {
	limit := 50
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "must be an integer"})
		}
		limit = n
	}
	if limit < 1 || limit > constants.MaxRecentSwaps {
		return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "min 1 max 100"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Recent.Recent(ctx, limit)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to get swaps", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}
