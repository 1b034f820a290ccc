package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"tokenlens/internal/aggregate"
	"tokenlens/internal/cache"
	"tokenlens/internal/model"
	"tokenlens/logger"
)

type responseMeta struct {
	Chain     string `json:"chain"`
	Address   string `json:"address"`
	Timestamp string `json:"timestamp"`
}

type errorEntry struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (s *Server) handleTokenData(c *gin.Context) {
	chain := strings.ToLower(c.Param("chain"))
	address := c.Param("address")
	analyze := c.Query("analyze") == "true"
	lang := c.Query("lang")
	if lang != "zh" {
		lang = "en"
	}

	if !SupportedChain(chain) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   fmt.Sprintf("Unsupported chain: %s", chain),
		})
		return
	}

	log := s.log.WithComponent("server").WithFields(logger.Fields{
		"chain":   chain,
		"address": address,
	})

	// The address format is authoritative. A path chain that disagrees
	// with the detected one is corrected rather than rejected.
	if detected := DetectChain(address); detected != chain {
		log.WithFields(logger.Fields{"detected": detected}).Warn("chain param disagrees with address format, using detected chain")
		chain = detected
	}

	// Hex addresses are case-insensitive; base58 mints are not, so only
	// BSC addresses are normalized.
	address = normalizeAddress(chain, address)

	source := "cache"
	var bundle *model.TokenBundle
	key := cache.BundleKey(chain, address)
	if cached, ok := s.store.Get(key); ok {
		bundle, _ = cached.(*model.TokenBundle)
	}
	if bundle == nil {
		fetched, err := s.fetcher.FetchBundle(c.Request.Context(), chain, address)
		if err != nil || fetched == nil {
			if err != nil {
				log.WithError(err).Error("bundle fetch failed")
			}
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"message": "Token base data not found or failed to fetch.",
			})
			return
		}
		s.store.Set(key, fetched)
		bundle = fetched
		source = chain
	}

	responseData := bundle.Clone()
	if analyze {
		text, err := s.generator.GenerateBasicAnalysis(c.Request.Context(), bundle, lang)
		if err != nil {
			log.WithError(err).Warn("ai analysis failed")
			responseData.AIAnalysis = &model.AIAnalysis{BasicAnalysis: "Error: " + err.Error()}
		} else {
			responseData.AIAnalysis = &model.AIAnalysis{BasicAnalysis: text}
			source += "+ai"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    responseData,
		"source":  source,
		"meta": responseMeta{
			Chain:     chain,
			Address:   address,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func (s *Server) handleTokenAnalytics(c *gin.Context) {
	chain := strings.ToLower(c.Param("chain"))
	address := normalizeAddress(chain, c.Param("address"))

	if !SupportedChain(chain) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   fmt.Sprintf("Unsupported chain: %s", chain),
		})
		return
	}

	key := cache.AnalyticsKey(chain, address)
	if cached, ok := s.store.Get(key); ok {
		if report, ok := cached.(*aggregate.AnalyticsReport); ok {
			c.JSON(http.StatusOK, gin.H{"success": true, "data": report, "chain": chain})
			return
		}
	}

	report, err := s.fetcher.FetchAnalytics(c.Request.Context(), address)
	if err != nil {
		s.log.WithComponent("server").WithFields(logger.Fields{
			"chain":   chain,
			"address": address,
		}).WithError(err).Error("analytics fetch failed")
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"errors": []errorEntry{{
				Type:    "TokenAnalytics",
				Message: "Failed to fetch token analytics",
				Details: err.Error(),
			}},
		})
		return
	}

	s.store.SetWithTTL(key, report, s.analyticsTTL)
	c.JSON(http.StatusOK, gin.H{"success": true, "data": report, "chain": chain})
}

func (s *Server) handleTestBirdeye(c *gin.Context) {
	if s.prober == nil {
		c.JSON(http.StatusNotImplemented, gin.H{
			"success": false,
			"error":   "Service unavailable",
			"details": "Birdeye probe is disabled",
		})
		return
	}

	data, err := s.prober.Price(c.Request.Context(), probeAddress, "bsc")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Birdeye probe failed",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}
