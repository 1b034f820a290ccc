package server

import (
	"regexp"
	"strings"

	"tokenlens/internal/model"
	"tokenlens/logger"
)

var (
	hexAddressPattern    = regexp.MustCompile(`^0x[0-9a-fA-F]+`)
	base58AddressPattern = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)
)

// DetectChain classifies an address by shape. Hex with an 0x prefix is BSC,
// a base58 string of mint length is Solana, and anything else defaults to
// Solana with a warning so a malformed address still gets a deterministic
// route.
func DetectChain(address string) string {
	switch {
	case hexAddressPattern.MatchString(address):
		return model.ChainBsc
	case base58AddressPattern.MatchString(address):
		return model.ChainSolana
	default:
		logger.GetLogger().WithComponent("server").WithFields(logger.Fields{
			"address": address,
		}).Warn("address shape not recognized, defaulting to solana")
		return model.ChainSolana
	}
}

// SupportedChain reports whether the explicit chain path value is served.
func SupportedChain(chain string) bool {
	return chain == model.ChainBsc || chain == model.ChainSolana
}

// normalizeAddress lower-cases hex addresses for stable cache keys and
// upstream calls. Base58 addresses are case-sensitive and pass through
// unchanged.
func normalizeAddress(chain, address string) string {
	if chain == model.ChainBsc {
		return strings.ToLower(address)
	}
	return address
}
