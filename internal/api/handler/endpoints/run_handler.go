package endpoints

import (
	"net/http"

	"engine"
	"engine/internal/api/handler/request"
	"engine/internal/api/handler/response"
	"engine/internal/flow"
	"engine/pkg"

	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type runHandler struct {
	logger   zerolog.Logger
	runner   *flow.Runner
	resolver flow.SecretResolver
}

func RunHandler(router *graceful.Graceful, runner *flow.Runner, resolver flow.SecretResolver) {
	h := &runHandler{
		logger:   engine.Logger,
		runner:   runner,
		resolver: resolver,
	}

	router.POST("/api/v1/runs", h.run)
}

// run executes one dependency chain. On failure the partial run result is
// returned alongside the classified failure so the builder can display the
// trace up to the failing step.
func (slf *runHandler) run(c *gin.Context) {
	var req request.RunRequest
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		slf.logger.Error().Err(err).Msg("Failed to parse run request")
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	result, err := slf.runner.Run(c.Request.Context(), req.Steps, slf.resolver, req.Context)
	if err != nil {
		if f, ok := flow.AsFailure(err); ok {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"failure": response.FromFailure(f),
				"partial": result,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, response.APIError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
