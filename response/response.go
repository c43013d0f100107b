// Package response centralizes the handler-facing helpers that shape
// every HTTP body the dispatcher writes. The status/message mapping
// is grounded on the ancestor project's Code/CodeInstance table
// (response/response.go), trimmed from its numeric business-code
// catalog down to the fixed error_code/message/details envelope the
// endpoint dispatcher requires.
package response

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Code is a stable machine-readable error identifier; Msg/Status give
// its default human message and HTTP status, overridable per call.
type Code string

const (
	CodeBadRequest          Code = "bad_request"
	CodeUnauthorized        Code = "unauthorized"
	CodeForbidden           Code = "forbidden"
	CodeNotFound            Code = "not_found"
	CodeConflict            Code = "conflict"
	CodeUnprocessableEntity Code = "unprocessable_entity"
	CodeTooManyRequests     Code = "too_many_requests"
	CodeInternal            Code = "internal_error"
	CodeTimeout             Code = "request_timeout"
	CodePayloadTooLarge     Code = "payload_too_large"
)

type codeValue struct {
	Status int
	Msg    string
}

var defaultCodeValueMap = map[Code]codeValue{
	CodeBadRequest:          {http.StatusBadRequest, "malformed or illegal request"},
	CodeUnauthorized:        {http.StatusUnauthorized, "authentication required"},
	CodeForbidden:           {http.StatusForbidden, "insufficient privileges for the requested operation"},
	CodeNotFound:            {http.StatusNotFound, "requested resource not found"},
	CodeConflict:            {http.StatusConflict, "resource already exists"},
	CodeUnprocessableEntity: {http.StatusUnprocessableEntity, "request failed validation"},
	CodeTooManyRequests:     {http.StatusTooManyRequests, "too many requests, please try again later"},
	CodeInternal:            {http.StatusInternalServerError, "internal error"},
	CodeTimeout:             {http.StatusGatewayTimeout, "request timed out"},
	CodePayloadTooLarge:     {http.StatusRequestEntityTooLarge, "request payload exceeds the allowed size"},
}

func (c Code) Msg() string {
	if v, ok := defaultCodeValueMap[c]; ok {
		return v.Msg
	}
	return "error"
}

func (c Code) Status() int {
	if v, ok := defaultCodeValueMap[c]; ok {
		return v.Status
	}
	return http.StatusBadRequest
}

// Body is the structured envelope every handler route writes; success
// responses omit ErrorCode.
type Body struct {
	ErrorCode string `json:"error_code,omitempty"`
	Message   string `json:"message,omitempty"`
	Details   any    `json:"details,omitempty"`
	Data      any    `json:"data,omitempty"`
}

// Success writes a 200 with data and an optional message/headers.
func Success(c *gin.Context, data any, message string, headers map[string]string) {
	writeHeaders(c, headers)
	c.JSON(http.StatusOK, Body{Message: message, Data: data})
}

// Created writes a 201 with data.
func Created(c *gin.Context, data any, headers map[string]string) {
	writeHeaders(c, headers)
	c.JSON(http.StatusCreated, Body{Data: data})
}

// NoContent writes a 204 with an empty body.
func NoContent(c *gin.Context, headers map[string]string) {
	writeHeaders(c, headers)
	c.Status(http.StatusNoContent)
}

// Error writes code's default status/message, optionally overridden by
// message, with details attached.
func Error(c *gin.Context, code Code, message string, details any, headers map[string]string) {
	if message == "" {
		message = code.Msg()
	}
	writeHeaders(c, headers)
	c.AbortWithStatusJSON(code.Status(), Body{ErrorCode: string(code), Message: message, Details: details})
}

func BadRequest(c *gin.Context, message string, details any) {
	Error(c, CodeBadRequest, message, details, nil)
}

func Unauthorized(c *gin.Context, message string) { Error(c, CodeUnauthorized, message, nil, nil) }

func Forbidden(c *gin.Context, message string) { Error(c, CodeForbidden, message, nil, nil) }

func NotFound(c *gin.Context, message string) { Error(c, CodeNotFound, message, nil, nil) }

func Conflict(c *gin.Context, message string) { Error(c, CodeConflict, message, nil, nil) }

func UnprocessableEntity(c *gin.Context, message string, details any) {
	Error(c, CodeUnprocessableEntity, message, details, nil)
}

// TooManyRequests writes 429 with a Retry-After header; the
// X-RateLimit-* headers are set by the caller.
func TooManyRequests(c *gin.Context, message string, retryAfterSeconds int, headers map[string]string) {
	if headers == nil {
		headers = map[string]string{}
	}
	headers["Retry-After"] = strconv.Itoa(retryAfterSeconds)
	Error(c, CodeTooManyRequests, message, nil, headers)
}

// Internal writes a generic 500, hiding err's detail from the caller.
func Internal(c *gin.Context, err error) {
	Error(c, CodeInternal, "", nil, nil)
	_ = err
}

func writeHeaders(c *gin.Context, headers map[string]string) {
	for k, v := range headers {
		c.Header(k, v)
	}
}
