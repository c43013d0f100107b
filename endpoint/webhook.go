package endpoint

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"

	"github.com/forbearing/jvspatial/entity"
	"github.com/forbearing/jvspatial/logger"
	"github.com/forbearing/jvspatial/response"
	"github.com/forbearing/jvspatial/walker"
	"github.com/forbearing/jvspatial/webhook"
)

var (
	idempotency *webhook.Idempotency
	dispatcher  *webhook.Dispatcher
)

// InitWebhooks wires the shared idempotency cache and async dispatch
// pool every webhook=true registration uses; call once at startup.
func InitWebhooks(idem *webhook.Idempotency, disp *webhook.Dispatcher) {
	idempotency, dispatcher = idem, disp
}

// bodyRecorder buffers a handler's response instead of writing it
// straight to the wire, so webhookDispatch can cache the exact bytes
// an idempotent replay must return verbatim.
type bodyRecorder struct {
	gin.ResponseWriter
	buf        bytes.Buffer
	statusCode int
}

func (w *bodyRecorder) Write(b []byte) (int, error) { return w.buf.Write(b) }
func (w *bodyRecorder) WriteString(s string) (int, error) {
	return w.buf.WriteString(s)
}
func (w *bodyRecorder) WriteHeader(code int) { w.statusCode = code }

// webhookDispatch implements spec.md §4.F's "Webhook handling": HMAC
// verification, idempotent replay, and optional async processing,
// wrapping whichever underlying handler (walker or func) reg declares.
func (reg *Registration) webhookDispatch(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.BadRequest(c, "failed to read request body", nil)
		return
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(raw))

	if reg.HMACSecret != "" {
		sig := c.GetHeader("X-Signature")
		if sig == "" || !webhook.VerifySignature([]byte(reg.HMACSecret), raw, sig) {
			response.Unauthorized(c, "invalid webhook signature")
			return
		}
	}

	idemKey := c.GetHeader("X-Idempotency-Key")
	if idemKey != "" && idempotency != nil {
		if cached, err := idempotency.Lookup(c.Request.Context(), reg.Path, idemKey); err == nil && cached != nil {
			c.Data(cached.Status, "application/json", cached.Body)
			return
		}
	}

	if reg.AsyncProcessing && dispatcher != nil {
		ctx := context.WithoutCancel(c.Request.Context())
		body, _ := decodeJSONBody(c)
		if err := dispatcher.Submit(func() error {
			status, respBody := reg.runSync(ctx, body)
			if idemKey != "" && idempotency != nil {
				_ = idempotency.Store(ctx, reg.Path, idemKey, status, respBody, reg.IdempotencyTTL)
			}
			return nil
		}, func(err error) {
			logger.Webhook.Errorw("async webhook handler failed", "path", reg.Path, "error", err.Error())
		}); err != nil {
			response.Internal(c, err)
			return
		}
		c.Status(http.StatusAccepted)
		return
	}

	rec := &bodyRecorder{ResponseWriter: c.Writer, statusCode: http.StatusOK}
	c.Writer = rec
	body, _ := decodeJSONBody(c)
	c.Request.Body = io.NopCloser(bytes.NewReader(raw))
	reg.dispatchBody(c, body)

	status, respBody := rec.statusCode, rec.buf.Bytes()
	if idemKey != "" && idempotency != nil {
		_ = idempotency.Store(c.Request.Context(), reg.Path, idemKey, status, respBody, reg.IdempotencyTTL)
	}
	c.Writer = rec.ResponseWriter
	c.Writer.WriteHeader(status)
	_, _ = c.Writer.Write(respBody)
}

// runSync executes reg's underlying handler against body off the
// request's context, outside any gin.Context, capturing the status
// and body a synchronous call would have written — used by the async
// pool where no live gin.Context survives past the initial 202.
func (reg *Registration) runSync(ctx context.Context, body map[string]any) (int, []byte) {
	switch reg.Kind {
	case KindWalker:
		w, start, err := reg.buildWalkerFrom(body)
		if err != nil {
			return http.StatusUnprocessableEntity, []byte(`{"error_code":"unprocessable_entity","message":"` + err.Error() + `"}`)
		}
		resp := walker.Spawn(ctx, w, start)
		if resp.Err != "" {
			return http.StatusInternalServerError, []byte(`{"error_code":"internal_error","message":"` + resp.Err + `"}`)
		}
		b, err := json.Marshal(resp)
		if err != nil {
			return http.StatusInternalServerError, []byte(`{"error_code":"internal_error","message":"failed to encode response"}`)
		}
		return http.StatusOK, b
	default:
		// Plain function webhooks run against a detached gin.Context
		// whose recorder captures the status and body they write.
		rec := httptest.NewRecorder()
		gc, _ := gin.CreateTestContext(rec)
		gc.Request = httptest.NewRequest(http.MethodPost, reg.Path, nil).WithContext(ctx)
		if err := reg.Func(gc, body); err != nil {
			statusErr(gc, err)
		}
		return rec.Code, rec.Body.Bytes()
	}
}

// dispatchBody runs reg's handler synchronously against the live
// gin.Context c whose Writer has been swapped for a bodyRecorder.
func (reg *Registration) dispatchBody(c *gin.Context, body map[string]any) {
	switch reg.Kind {
	case KindWalker:
		w, start, err := reg.buildWalker(c, body)
		if err != nil {
			response.UnprocessableEntity(c, err.Error(), nil)
			return
		}
		resp := walker.Spawn(c.Request.Context(), w, start)
		writeWalkerResponse(c, resp)
	default:
		if err := reg.Func(c, body); err != nil {
			statusErr(c, err)
		}
	}
}

// buildWalkerFrom is buildWalker's gin.Context-free counterpart, used
// when the webhook dispatch already ran off the request goroutine
// (async processing).
func (reg *Registration) buildWalkerFrom(body map[string]any) (walker.Walker, entity.Ref, error) {
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
