package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/conductor/internal/apperr"
)

func TestOptionalTellsNullFromAbsent(t *testing.T) {
	var body workHourBody
	require.NoError(t, json.Unmarshal([]byte(`{"task_id":null,"end_time":"17:30"}`), &body))
	assert.True(t, body.TaskID.cleared())
	assert.False(t, body.EndTime.cleared())
	require.NotNil(t, body.EndTime.Value)
	assert.Equal(t, "17:30:00", body.EndTime.Value.String())

	body = workHourBody{}
	require.NoError(t, json.Unmarshal([]byte(`{}`), &body))
	assert.False(t, body.TaskID.Set)
	assert.False(t, body.TaskID.cleared())
}

func TestProjectBudgetPatch(t *testing.T) {
	var b projectBody
	assert.Nil(t, b.budget())

	require.NoError(t, json.Unmarshal([]byte(`{"budget":null}`), &b))
	got := b.budget()
	require.NotNil(t, got)
	assert.False(t, got.Valid)

	b = projectBody{}
	require.NoError(t, json.Unmarshal([]byte(`{"budget":"120.5"}`), &b))
	got = b.budget()
	require.NotNil(t, got)
	assert.True(t, got.Valid)
	assert.Equal(t, "120.5", got.Decimal.String())
}

func TestValidatorListsEveryViolation(t *testing.T) {
	err := NewValidator().Validate(&paymentReq{MonthlyPayment: paymentBody{PaymentStatus: ptr("overdue")}})
	e, ok := apperr.From(err)
	require.True(t, ok)
	assert.Equal(t, apperr.Validation, e.Kind)
	assert.Equal(t, []string{"Payment status is not included in the list"}, e.Details)

	assert.NoError(t, NewValidator().Validate(&paymentReq{MonthlyPayment: paymentBody{PaymentStatus: ptr("paid")}}))
}

func serveError(t *testing.T, err error) (int, map[string]any) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	ErrorHandler(zap.NewNop())(err, c)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestErrorHandlerRendering(t *testing.T) {
	code, body := serveError(t, apperr.Invalid("Title can't be blank"))
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, []any{"Title can't be blank"}, body["details"])

	code, body = serveError(t, apperr.NotFoundf("Task"))
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Task not found", body["error"])

	code, body = serveError(t, echo.ErrMethodNotAllowed)
	assert.Equal(t, http.StatusMethodNotAllowed, code)
	assert.Equal(t, "Method Not Allowed", body["error"])

	// internals never leak, only the error type
	code, body = serveError(t, errors.New("dial tcp 10.0.0.3:3306: refused"))
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, MsgInternal, body["error"])
	assert.Equal(t, "*errors.errorString", body["type"])
}

func ptr[T any](v T) *T { return &v }
