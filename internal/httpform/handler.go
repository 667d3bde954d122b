package httpform

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"forminput/internal/forms"
	"forminput/internal/input"
	"forminput/internal/logging"
	"forminput/internal/util"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// Response is the body of every validation reply.
type Response struct {
	Valid     bool                   `json:"valid"`
	Errors    map[string][]string    `json:"errors,omitempty"`
	Input     map[string]interface{} `json:"input,omitempty"`
	Error     string                 `json:"error,omitempty"`
	RequestID string                 `json:"requestId"`
}

type handler struct {
	registry *forms.Registry
	engine   input.Validator
}

// Handler returns a router serving
//
//	POST /forms/:name/validate       create submissions
//	PUT  /forms/:name/validate/:id   update submissions, :id excluded from unique checks
//
// A passing submission answers 200 with the cast input; a failing one 422
// with the messages per field.
func Handler(registry *forms.Registry, engine input.Validator) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID())
	Register(r, registry, engine)
	return r
}

// Register adds the validation routes to an existing router.
func Register(r gin.IRoutes, registry *forms.Registry, engine input.Validator) {
	h := &handler{registry: registry, engine: engine}
	r.POST("/forms/:name/validate", h.validate)
	r.PUT("/forms/:name/validate/:id", h.validate)
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDHeader, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func (h *handler) validate(c *gin.Context) {
	resp := Response{RequestID: c.GetString(RequestIDHeader)}
	if resp.RequestID == "" {
		resp.RequestID = uuid.NewString()
	}
	name := c.Param("name")

	raw, err := Fields(c)
	if err != nil {
		resp.Error = err.Error()
		c.JSON(http.StatusBadRequest, resp)
		return
	}
	if err := CheckID(raw); err != nil {
		resp.Errors = map[string][]string{"id": {"The id must be a single value without ',' or '|'."}}
		logging.Logf(logging.Debug, "httpform: [%s] form '%s': %v", resp.RequestID, name, err)
		c.JSON(http.StatusUnprocessableEntity, resp)
		return
	}

	p, err := h.registry.Processor(name, raw, h.engine)
	if errors.Is(err, forms.ErrUnknownForm) {
		resp.Error = err.Error()
		c.JSON(http.StatusNotFound, resp)
		return
	}
	if err != nil {
		h.fail(c, resp, name, err)
		return
	}

	failure, err := p.Validation()
	if err != nil {
		h.fail(c, resp, name, err)
		return
	}
	if failure != nil {
		resp.Errors = failure.Errors
		resp.Input = maskedInput(p)
		logging.Logf(logging.Debug, "httpform: [%s] form '%s' rejected fields %v", resp.RequestID, name, failure.Fields())
		c.JSON(http.StatusUnprocessableEntity, resp)
		return
	}

	values, err := p.Input(true)
	if errors.Is(err, input.ErrInvalidCast) {
		h.fail(c, resp, name, err)
		return
	}
	if err != nil {
		// Unparsable timestamp under a timestamp cast.
		resp.Error = err.Error()
		resp.Input = maskedInput(p)
		c.JSON(http.StatusUnprocessableEntity, resp)
		return
	}
	resp.Valid = true
	resp.Input = values
	logging.Logf(logging.Debug, "httpform: [%s] form '%s' accepted %v", resp.RequestID, name, util.MaskSensitiveData(values))
	c.JSON(http.StatusOK, resp)
}

func (h *handler) fail(c *gin.Context, resp Response, name string, err error) {
	logging.Logf(logging.Error, "httpform: [%s] form '%s': %v", resp.RequestID, name, err)
	resp.Error = "internal validation error"
	c.JSON(http.StatusInternalServerError, resp)
}

// maskedInput is the uncast input of a rejected submission, safe to echo.
func maskedInput(p *input.Processor) map[string]interface{} {
	values, _ := p.Input(false)
	return util.MaskSensitiveData(values)
}
