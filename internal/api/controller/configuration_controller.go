package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bassista/proto_cache/internal/config"
)

// ConfigurationResponse represents the configuration response structure for the API.
type ConfigurationResponse struct {
	UpstreamBaseURL string `json:"upstreamBaseUrl"`
	CacheTTLMs      int64  `json:"cacheTtlMs"`
	MaxSizeBytes    int64  `json:"maxSizeBytes"`
	RefreshPollMs   int64  `json:"refreshPollMs"`
}

// ConfigurationController handles configuration-related API endpoints.
type ConfigurationController struct {
	config *config.Config
}

// NewConfigurationController creates a new ConfigurationController.
func NewConfigurationController(cfg *config.Config) *ConfigurationController {
	return &ConfigurationController{
		config: cfg,
	}
}

// GetConfiguration returns the effective cache settings for clients.
func (cc *ConfigurationController) GetConfiguration(c *gin.Context) {
	response := ConfigurationResponse{
		UpstreamBaseURL: cc.config.Upstream.BaseURL,
		CacheTTLMs:      cc.config.Cache.TTL.Milliseconds(),
		MaxSizeBytes:    cc.config.Cache.MaxSizeBytes,
		RefreshPollMs:   cc.config.Cache.RefreshPoll.Milliseconds(),
	}
	c.JSON(http.StatusOK, response)
}
