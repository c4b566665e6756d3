package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareWithStructuredError(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	HTTPErrorsTotal.Reset()

	handler := Middleware()(func(c echo.Context) error {
		return ValidationError("invalid vote value")
	})

	err := handler(c)
	require.NoError(t, err) // Middleware handles the error, doesn't return it

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "invalid vote value", resp.Error)
	assert.Equal(t, TypeValidation, resp.Type)

	metricValue := getCounterValue(HTTPErrorsTotal.WithLabelValues("validation"))
	assert.Equal(t, 1.0, metricValue)
}

func TestMiddlewareWithStandardError(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	HTTPErrorsTotal.Reset()

	handler := Middleware()(func(c echo.Context) error {
		return fmt.Errorf("standard error")
	})

	err := handler(c)
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "internal server error", resp.Error)
	assert.Equal(t, TypeInternal, resp.Type)

	metricValue := getCounterValue(HTTPErrorsTotal.WithLabelValues("internal"))
	assert.Equal(t, 1.0, metricValue)
}

func TestMiddlewareWithNoError(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	HTTPErrorsTotal.Reset()

	handler := Middleware()(func(c echo.Context) error {
		return c.String(http.StatusOK, "success")
	})

	err := handler(c)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", rec.Body.String())

	metricValue := getCounterValue(HTTPErrorsTotal.WithLabelValues("validation"))
	assert.Equal(t, 0.0, metricValue)
}

func TestMiddlewareWithContext(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("deviceID", "device-abc")

	HTTPErrorsTotal.Reset()

	handler := Middleware()(func(c echo.Context) error {
		return NotFoundError("event not found").
			WithContext("event_id", "ev-123").
			WithContext("city", "mumbai")
	})

	err := handler(c)
	require.NoError(t, err)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "event not found", resp.Error)
	assert.Equal(t, TypeNotFound, resp.Type)
	assert.Len(t, resp.Context, 2)
	assert.Equal(t, "ev-123", resp.Context["event_id"])
	assert.Equal(t, "mumbai", resp.Context["city"])
}

func TestMiddlewareAllErrorTypes(t *testing.T) {
	tests := []struct {
		name       string
		err        *Error
		wantStatus int
		wantType   ErrorType
	}{
		{
			name:       "validation",
			err:        ValidationError("invalid"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
		},
		{
			name:       "not_found",
			err:        NotFoundError("missing"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeNotFound,
		},
		{
			name:       "conflict",
			err:        ConflictError("duplicate"),
			wantStatus: http.StatusConflict,
			wantType:   TypeConflict,
		},
		{
			name:       "rate_limited",
			err:        RateLimitedError("slow down"),
			wantStatus: http.StatusTooManyRequests,
			wantType:   TypeRateLimited,
		},
		{
			name:       "internal",
			err:        InternalError("failed", fmt.Errorf("cause")),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
		{
			name:       "external",
			err:        ExternalError("feed failed", fmt.Errorf("timeout")),
			wantStatus: http.StatusBadGateway,
			wantType:   TypeExternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			HTTPErrorsTotal.Reset()

			handler := Middleware()(func(c echo.Context) error {
				return tt.err
			})

			err := handler(c)
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantType, resp.Type)

			metricValue := getCounterValue(HTTPErrorsTotal.WithLabelValues(string(tt.wantType)))
			assert.Equal(t, 1.0, metricValue)
		})
	}
}

func TestHandleError(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	HTTPErrorsTotal.Reset()

	err := HandleError(c, ValidationError("test"))
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "test", resp.Error)
	assert.Equal(t, TypeValidation, resp.Type)
}

func TestHandleErrorWithNil(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := HandleError(c, nil)
	assert.NoError(t, err)
}

func TestWrapHTTPError(t *testing.T) {
	tests := []struct {
		name     string
		httpErr  *echo.HTTPError
		wantType ErrorType
	}{
		{
			name:     "bad_request",
			httpErr:  echo.NewHTTPError(http.StatusBadRequest, "bad request"),
			wantType: TypeValidation,
		},
		{
			name:     "not_found",
			httpErr:  echo.NewHTTPError(http.StatusNotFound, "not found"),
			wantType: TypeNotFound,
		},
		{
			name:     "conflict",
			httpErr:  echo.NewHTTPError(http.StatusConflict, "conflict"),
			wantType: TypeConflict,
		},
		{
			name:     "too_many_requests",
			httpErr:  echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded"),
			wantType: TypeRateLimited,
		},
		{
			name:     "bad_gateway",
			httpErr:  echo.NewHTTPError(http.StatusBadGateway, "bad gateway"),
			wantType: TypeExternal,
		},
		{
			name:     "internal_server_error",
			httpErr:  echo.NewHTTPError(http.StatusInternalServerError, "internal error"),
			wantType: TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := WrapHTTPError(tt.httpErr)
			assert.Equal(t, tt.wantType, err.Type)
		})
	}
}

func TestWrapHTTPErrorWithInternalCause(t *testing.T) {
	cause := fmt.Errorf("underlying cause")
	httpErr := echo.NewHTTPError(http.StatusInternalServerError, "wrapped")
	httpErr.Internal = cause

	err := WrapHTTPError(httpErr)

	assert.Equal(t, TypeInternal, err.Type)
	assert.Equal(t, cause, err.Cause)
}

func TestWrapHTTPErrorWithNonStringMessage(t *testing.T) {
	httpErr := echo.NewHTTPError(http.StatusBadRequest, 12345)

	err := WrapHTTPError(httpErr)

	assert.Equal(t, "internal server error", err.Message) // Fallback message
	assert.Equal(t, TypeValidation, err.Type)
}

// Helper function to get counter value from Prometheus metric
func getCounterValue(counter prometheus.Counter) float64 {
	ch := make(chan prometheus.Metric, 1)
	counter.Collect(ch)
	close(ch)

	metric := <-ch
	m := &dto.Metric{}
	_ = metric.Write(m)
	return m.GetCounter().GetValue()
}
