package config

import "time"

const (
	DefaultHTTPPort          = "8080"
	DefaultShutdownTimeout   = 10 * time.Second
	DefaultFeedPoll          = 2 * time.Second
	DefaultRequestTimeout    = 3 * time.Second
	DefaultConfigAccountSize = 64
	DefaultSubmitQueue       = 64
	DefaultPGMaxConns        = 5
	DefaultPGMinConns        = 1
	DefaultSolanaRPC         = "https://api.mainnet-beta.solana.com"
	DefaultFakePrice         = 15_000_000_000
	DefaultFakeExponent      = -8
)
