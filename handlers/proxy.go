package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// DefaultImageAICallURL is the external endpoint behind the image-ai-call
// passthrough.
const DefaultImageAICallURL = "https://aa.jstang.cn/api/ai/call"

// ProxyHandler forwards multipart image-AI calls from the browser to an
// external vendor endpoint, passing the body and status through untouched.
type ProxyHandler struct {
	target string
	client *http.Client
}

// NewProxyHandler creates a proxy to target. An empty target selects the
// default endpoint.
func NewProxyHandler(target string) *ProxyHandler {
	if target == "" {
		target = DefaultImageAICallURL
	}
	return &ProxyHandler{
		target: target,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

// ImageAICall handles POST /api/image-ai-call
func (h *ProxyHandler) ImageAICall(c *gin.Context) {
	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodPost, h.target, c.Request.Body)
	if err != nil {
		log.Printf("Failed to build image-ai-call request: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Proxy failed: " + err.Error()})
		return
	}
	req.Header.Set("Content-Type", c.GetHeader("Content-Type"))

	resp, err := h.client.Do(req)
	if err != nil {
		log.Printf("image-ai-call proxy error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Proxy failed: " + err.Error()})
		return
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	c.DataFromReader(resp.StatusCode, resp.ContentLength, contentType, resp.Body, nil)
}
