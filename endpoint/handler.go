package endpoint

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/forbearing/jvspatial/entity"
	"github.com/forbearing/jvspatial/logger"
	"github.com/forbearing/jvspatial/response"
	"github.com/forbearing/jvspatial/walker"
)

// gin.HandlerFunc for reg, dispatching either a walker or a plain
// function, per spec.md §4.F's "On request: decode body into a new
// walker instance, call spawn(start_node)... After drain, serialize
// walker.response as JSON."
func (reg *Registration) handler() gin.HandlerFunc {
	switch reg.Kind {
	case KindWalker:
		return reg.walkerHandler()
	default:
		return reg.funcHandler()
	}
}

func decodeJSONBody(c *gin.Context) (map[string]any, error) {
	body := map[string]any{}
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return body, nil
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}
	return body, nil
}

func (reg *Registration) walkerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if reg.Webhook {
			reg.webhookDispatch(c)
			return
		}

		body, err := decodeJSONBody(c)
		if err != nil {
			response.BadRequest(c, "malformed request body", nil)
			return
		}

		w, start, verr := reg.buildWalker(c, body)
		if verr != nil {
			response.UnprocessableEntity(c, verr.Error(), nil)
			return
		}

		ctx, cancel := reg.withTimeout(c.Request.Context(), reg.Timeout)
		defer cancel()
		logEndpointAccess(reg.Path, c.GetString("request_id"))
		resp := walker.Spawn(ctx, w, start)
		writeWalkerResponse(c, resp)
	}
}

// buildWalker decodes body against reg.schema, constructs a fresh
// walker instance, and resolves start_node (defaulting to Root per
// spec.md §4.F).
func (reg *Registration) buildWalker(c *gin.Context, body map[string]any) (walker.Walker, entity.Ref, error) {
	w := reg.WalkerNew()
	if reg.schema != nil {
		v, err := reg.schema.Decode(body)
		if err != nil {
			return nil, entity.Ref{}, err
		}
		w = v.Interface().(walker.Walker)
	}

	startID := entity.RootID
	if v, ok := body["start_node"].(string); ok && v != "" {
		startID = v
	}
	kind, class, ok := entity.ParseID(startID)
	if !ok {
		return nil, entity.Ref{}, errInvalidStartNode
	}
	return w, entity.Ref{ID: startID, Class: class, Kind: entityKindOf(kind)}, nil
}

var errInvalidStartNode = walkerFieldError("start_node must be a <kind>:<ClassName>:<uuid> id")

type walkerFieldError string

func (e walkerFieldError) Error() string { return string(e) }

func entityKindOf(kindPrefix string) string {
	if kindPrefix == "e" {
		return "edge"
	}
	return "node"
}

func writeWalkerResponse(c *gin.Context, resp *walker.Response) {
	if resp.Error != nil {
		// WalkerLimitExceeded: 200, the walker ran successfully up to
		// its configured cap, per spec.md §7.
		response.Success(c, resp, "", nil)
		return
	}
	if resp.Err != "" {
		response.Internal(c, errWalkerFailed(resp.Err))
		return
	}
	response.Success(c, resp, "", nil)
}

type errWalkerFailed string

func (e errWalkerFailed) Error() string { return string(e) }

func (reg *Registration) funcHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if reg.Webhook {
			reg.webhookDispatch(c)
			return
		}
		body, err := decodeJSONBody(c)
		if err != nil {
			response.BadRequest(c, "malformed request body", nil)
			return
		}
		ctx, cancel := reg.withTimeout(c.Request.Context(), reg.Timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		logEndpointAccess(reg.Path, c.GetString("request_id"))
		if err := reg.Func(c, body); err != nil {
			statusErr(c, err)
		}
	}
}

// statusErr maps a handler-returned error through the taxonomy in
// errors.go onto its HTTP status, writing the error body directly and
// aborting the rest of the handler chain.
func statusErr(c *gin.Context, err error) {
	status := statusFor(err)
	c.AbortWithStatusJSON(status, response.Body{ErrorCode: "error", Message: err.Error()})
}

// withTimeout applies reg's per-endpoint execution deadline (spec.md
// §4.F "Timeouts"), falling back to ctx's existing deadline if none is
// configured.
func (reg *Registration) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func logEndpointAccess(route, requestID string) {
	if logger.Endpoint == nil {
		return
	}
	logger.Endpoint.WithEndpointContext(route, requestID).Debug("dispatched")
}
