package gqlapi

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
	"go.uber.org/zap"

	"github.com/spec-kit/feed-service/internal/validation"
	apperrors "github.com/spec-kit/feed-service/pkg/util/errorutil"
)

const codeBadRequest = "BAD_REQUEST"

type request struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables"`
	OperationName string                 `json:"operationName"`
}

// Error is the client-facing shape of a GraphQL error.
type Error struct {
	Message    string        `json:"message"`
	Code       string        `json:"code"`
	Status     int           `json:"status"`
	StatusCode int           `json:"statusCode"`
	Data       any           `json:"data,omitempty"`
	Path       []interface{} `json:"path,omitempty"`
}

type response struct {
	Data   interface{} `json:"data"`
	Errors []Error     `json:"errors,omitempty"`
}

// Handler serves POST /graphql.
type Handler struct {
	schema graphql.Schema
	logger *zap.Logger
}

// NewHandler builds the schema over resolver.
func NewHandler(resolver *Resolver, logger *zap.Logger) (*Handler, error) {
	schema, err := NewSchema(resolver)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{schema: schema, logger: logger}, nil
}

// Serve executes one operation. The identity, when present, already travels
// in the user context.
func (h *Handler) Serve(c *fiber.Ctx) error {
	var req request
	if err := c.BodyParser(&req); err != nil || req.Query == "" {
		return validation.Failed()
	}

	result := graphql.Do(graphql.Params{
		Schema:         h.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        c.UserContext(),
	})

	out := response{Data: result.Data}
	for _, fe := range result.Errors {
		out.Errors = append(out.Errors, h.format(fe))
	}
	return c.Status(http.StatusOK).JSON(out)
}

func (h *Handler) format(fe gqlerrors.FormattedError) Error {
	orig := fe.OriginalError()
	for {
		located, ok := orig.(*gqlerrors.Error)
		if !ok || located.OriginalError == nil {
			break
		}
		orig = located.OriginalError
	}
	if _, ok := orig.(*gqlerrors.Error); ok || orig == nil {
		// parse and schema validation errors
		return Error{
			Message:    fe.Message,
			Code:       codeBadRequest,
			Status:     http.StatusBadRequest,
			StatusCode: http.StatusBadRequest,
			Path:       fe.Path,
		}
	}

	de := apperrors.ToDomainError(orig)
	if de.HTTPStatus >= http.StatusInternalServerError {
		h.logger.Error("graphql resolver failed", zap.Any("path", fe.Path), zap.Error(orig))
	}
	return Error{
		Message:    de.Message,
		Code:       de.Code,
		Status:     de.HTTPStatus,
		StatusCode: de.HTTPStatus,
		Data:       de.Data,
		Path:       fe.Path,
	}
}
