package constants

import "time"

// PDA seed prefixes
const (
	// ConfigSeedPrefix prefixes the pool config address seeds:
	// ["config", seed as u64 little-endian, bump]
	ConfigSeedPrefix = "config"
)

// Redis keys
const (
	RedisKeyPoolIndex   = "pools:index"
	RedisKeyPoolPrefix  = "pools:"
	RedisKeyRecentSwaps = "swaps:recent"
)

// Redis Pub/Sub channels
const (
	PubSubChannelSwaps      = "swaps:all"
	PubSubChannelPoolPrefix = "swaps:pool:"
)

// Limits
const (
	MaxRecentSwaps = 100
	MaxBps         = 10_000
)

// Timeouts
const (
	JournalTimeout = 3 * time.Second // per-record budget for best-effort journaling
)

// Well-known program addresses
var ProgramAddresses = map[string]string{
	"Token":                  "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA",
	"AssociatedTokenAccount": "ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL",
}
