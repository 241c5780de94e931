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

type nodeHandler struct {
	logger     zerolog.Logger
	dispatcher *flow.Dispatcher
	resolver   flow.SecretResolver
}

func NodeHandler(router *graceful.Graceful, dispatcher *flow.Dispatcher, resolver flow.SecretResolver) {
	h := &nodeHandler{
		logger:     engine.Logger,
		dispatcher: dispatcher,
		resolver:   resolver,
	}

	routes := router.Group("/api/v1/nodes")
	{
		routes.GET("", h.list)
		routes.GET("/:name", h.get)
		routes.POST("/:name/execute", h.execute)
	}
}

func (slf *nodeHandler) list(c *gin.Context) {
	defs := slf.dispatcher.Registry().Nodes()
	out := make([]response.NodeResponse, 0, len(defs))
	for _, def := range defs {
		out = append(out, response.FromDefinition(def))
	}
	c.JSON(http.StatusOK, out)
}

func (slf *nodeHandler) get(c *gin.Context) {
	def, ok := slf.dispatcher.Registry().Lookup(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, response.APIError{Message: "unknown node " + c.Param("name")})
		return
	}
	c.JSON(http.StatusOK, response.FromDefinition(def))
}

func (slf *nodeHandler) execute(c *gin.Context) {
	var req request.ExecuteNodeRequest
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		slf.logger.Error().Err(err).Msg("Failed to parse execute request")
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	result, err := slf.dispatcher.Execute(c.Request.Context(), flow.Request{
		Node:           c.Param("name"),
		Properties:     req.Properties,
		InputVariables: req.InputVariables,
		Resolver:       slf.resolver,
		Context:        flow.NewRunContext(req.Context),
	})
	if err != nil {
		writeFailure(c, slf.logger, err)
		return
	}

	c.JSON(http.StatusOK, response.ExecuteResponse{Result: result})
}

// writeFailure maps the failure taxonomy onto HTTP statuses. Execution-time
// failures surface as 502 so callers can tell them apart from their own
// input errors.
func writeFailure(c *gin.Context, logger zerolog.Logger, err error) {
	f, ok := flow.AsFailure(err)
	if !ok {
		logger.Error().Err(err).Msg("Unclassified execution error")
		c.JSON(http.StatusInternalServerError, response.APIError{Message: err.Error()})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case f.Kind == flow.FailureNotFound:
		status = http.StatusNotFound
	case f.Kind == flow.FailureInvalidInput:
		status = http.StatusBadRequest
	case f.Kind == flow.FailureMissingSecret:
		status = http.StatusUnprocessableEntity
	case f.Kind.IsExecutionFailure():
		status = http.StatusBadGateway
	}

	c.JSON(status, response.FromFailure(f))
}
