package respond

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"interview-backend/internal/llm"
)

// LLMError writes the response for a model service or decode failure. It
// reports false when err is neither.
func LLMError(c *gin.Context, err error) bool {
	var svcErr *llm.ServiceError
	if errors.As(err, &svcErr) {
		if svcErr.Timeout {
			Error(c, http.StatusGatewayTimeout, "llm_timeout", "the model service timed out", gin.H{"provider": svcErr.Provider})
			return true
		}
		details := gin.H{"provider": svcErr.Provider}
		if svcErr.Status != 0 {
			details["status"] = svcErr.Status
		}
		Error(c, http.StatusBadGateway, "llm_unavailable", "the model service is unavailable", details)
		return true
	}
	var decErr *llm.DecodeError
	if errors.As(err, &decErr) {
		Error(c, http.StatusBadGateway, "llm_bad_output", "the model returned an unexpected reply", nil)
		return true
	}
	return false
}
