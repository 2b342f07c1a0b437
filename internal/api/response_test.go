package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skysentry/internal/types"
)

func TestJSONEnvelope(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, http.StatusCreated, map[string]string{"id": "alm_1"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var envelope struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "alm_1", envelope.Data["id"])
}

func TestErrorMapsAppErrorCode(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "not found",
			err:        types.NewAppError(types.ErrCodeNotFoundAlarm, "alarm not found", nil),
			wantStatus: http.StatusNotFound,
			wantCode:   "not_found_alarm",
		},
		{
			name:       "validation",
			err:        types.NewAppError(types.ErrCodeValidationDayMask, "empty day mask", nil),
			wantStatus: http.StatusBadRequest,
			wantCode:   "validation_day_mask_invalid",
		},
		{
			name:       "persistence",
			err:        types.PersistenceError("save alarm", errors.New("conn refused")),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "internal_persistence_error",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			Error(w, tc.err)

			assert.Equal(t, tc.wantStatus, w.Code)
			var envelope APIErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
			assert.Equal(t, tc.wantCode, envelope.Error.Code)
		})
	}
}

func TestErrorHidesInternalDetails(t *testing.T) {
	w := httptest.NewRecorder()
	Error(w, errors.New("pq: relation kv_entries does not exist"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var envelope APIErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, string(types.ErrCodeInternal), envelope.Error.Code)
	assert.NotContains(t, envelope.Error.Message, "kv_entries")
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"title":"x","bogus":1}`))

	var dst struct {
		Title string `json:"title"`
	}
	err := DecodeJSON(r, &dst)
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeValidationMissingField, appErr.Code)
}

func TestDecodeJSONMalformedBody(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"title":`))

	var dst struct{}
	assert.Error(t, DecodeJSON(r, &dst))
}
