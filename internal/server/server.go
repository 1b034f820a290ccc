// Package server exposes the HTTP surface: the token data bundle, the
// standalone trading analytics report, a provider probe, and liveness.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tokenlens/config"
	"tokenlens/internal/aggregate"
	"tokenlens/internal/cache"
	"tokenlens/internal/model"
	"tokenlens/logger"
)

// BundleFetcher assembles bundles and analytics reports per chain.
type BundleFetcher interface {
	FetchBundle(ctx context.Context, chain, address string) (*model.TokenBundle, error)
	FetchAnalytics(ctx context.Context, address string) (*aggregate.AnalyticsReport, error)
}

// NarrativeGenerator produces the AI analysis text for a bundle.
type NarrativeGenerator interface {
	GenerateBasicAnalysis(ctx context.Context, bundle *model.TokenBundle, lang string) (string, error)
}

// BirdeyeProber is the minimal surface the diagnostic probe needs.
type BirdeyeProber interface {
	Price(ctx context.Context, address, chain string) (interface{}, error)
}

// probeAddress is the WBNB contract, a token guaranteed to exist upstream.
const probeAddress = "0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c"

type Server struct {
	cfg          config.ServerConfig
	fetcher      BundleFetcher
	generator    NarrativeGenerator
	prober       BirdeyeProber
	store        *cache.Store
	analyticsTTL time.Duration
	log          *logger.Log
	httpServer   *http.Server
}

// New wires the HTTP server. A nil prober disables the diagnostic probe
// endpoint; that route then answers 501.
func New(cfg config.ServerConfig, fetcher BundleFetcher, generator NarrativeGenerator, prober BirdeyeProber, store *cache.Store, analyticsTTL time.Duration) *Server {
	return &Server{
		cfg:          cfg,
		fetcher:      fetcher,
		generator:    generator,
		prober:       prober,
		store:        store,
		analyticsTTL: analyticsTTL,
		log:          logger.GetLogger(),
	}
}

// Router builds the gin engine with all routes and middleware attached.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		s.log.WithComponent("server").WithFields(logger.Fields{"panic": fmt.Sprint(recovered)}).Error("handler panicked")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"errors": []errorEntry{{
				Type:    "Server",
				Message: "Internal server error",
			}},
		})
	}), requestID(), requestLog(s.log))
	if err := router.SetTrustedProxies(nil); err != nil {
		s.log.WithComponent("server").WithError(err).Warn("failed to reset trusted proxies")
	}

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Backend OK")
	})
	router.GET("/api/token-data/:chain/:address", s.handleTokenData)
	router.GET("/api/token-analytics/:chain/:address", s.handleTokenAnalytics)
	router.GET("/api/test-birdeye", s.handleTestBirdeye)

	return router
}

// Run serves until the context is canceled, then drains with the
// configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.Router(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.log.WithComponent("server").WithFields(logger.Fields{"addr": s.httpServer.Addr}).Info("http server listening")

	select {
	case <-ctx.Done():
		timeout := s.cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		return err
	}
}
