package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"whisky-collection/internal/middleware"
	"whisky-collection/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockWhiskyService is a mock implementation of WhiskyService.
type MockWhiskyService struct {
	mock.Mock
}

func (m *MockWhiskyService) GetAll(ctx context.Context) ([]model.Whisky, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Whisky), args.Error(1)
}

func (m *MockWhiskyService) GetByID(ctx context.Context, id int64) (*model.Whisky, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Whisky), args.Error(1)
}

func (m *MockWhiskyService) Create(ctx context.Context, req *model.WhiskyRequest) (*model.Whisky, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Whisky), args.Error(1)
}

func (m *MockWhiskyService) Update(ctx context.Context, id int64, req *model.WhiskyRequest) (*model.Whisky, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Whisky), args.Error(1)
}

func (m *MockWhiskyService) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// withID attaches a chi route parameter the way the router would.
func withID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) model.ErrorResponse {
	t.Helper()
	var resp model.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestWhiskyHandler_GetAll(t *testing.T) {
	logger := zerolog.Nop()

	testWhiskies := []model.Whisky{
		{ID: 1, Name: "Bowmore 15 Years Laimrig", Origin: "Scotland, Islay"},
		{ID: 2, Name: "Talisker 57° North", Origin: "Scotland, Island"},
	}

	tests := []struct {
		name           string
		mockReturn     []model.Whisky
		mockError      error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "Success",
			mockReturn:     testWhiskies,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Empty collection encodes as array",
			mockReturn:     []model.Whisky{},
			expectedStatus: http.StatusOK,
			expectedBody:   "[]\n",
		},
		{
			name:           "Store unavailable",
			mockError:      fmt.Errorf("failed to list whiskies: %w", model.ErrStoreUnavailable),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockWhiskyService)
			handler := NewWhiskyHandler(mockService, logger)

			mockService.On("GetAll", mock.Anything).Return(tt.mockReturn, tt.mockError)

			req := httptest.NewRequest(http.MethodGet, "/api/whiskies", nil)
			w := httptest.NewRecorder()

			handler.GetAll(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, contentTypeJSON, w.Header().Get("Content-Type"))
			if tt.expectedBody != "" {
				assert.Equal(t, tt.expectedBody, w.Body.String())
			}
			if tt.mockError != nil {
				assert.Equal(t, model.ErrCodeStoreUnavailable, decodeError(t, w).Error)
			} else {
				var got []model.Whisky
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
				assert.Equal(t, tt.mockReturn, got)
			}

			mockService.AssertExpectations(t)
		})
	}
}

func TestWhiskyHandler_GetByID(t *testing.T) {
	logger := zerolog.Nop()

	testWhisky := &model.Whisky{ID: 1, Name: "Bowmore 15 Years Laimrig", Origin: "Scotland, Islay"}

	tests := []struct {
		name           string
		id             string
		expectService  bool
		serviceID      int64
		mockReturn     *model.Whisky
		mockError      error
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "Success",
			id:             "1",
			expectService:  true,
			serviceID:      1,
			mockReturn:     testWhisky,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Not found",
			id:             "42",
			expectService:  true,
			serviceID:      42,
			mockError:      model.ErrWhiskyNotFound,
			expectedStatus: http.StatusNotFound,
			expectedCode:   model.ErrCodeWhiskyNotFound,
		},
		{
			name:           "Non-numeric ID",
			id:             "abc",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidID,
		},
		{
			name:           "Zero ID",
			id:             "0",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidID,
		},
		{
			name:           "Negative ID",
			id:             "-3",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidID,
		},
		{
			name:           "Missing ID",
			id:             "",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockWhiskyService)
			handler := NewWhiskyHandler(mockService, logger)

			if tt.expectService {
				mockService.On("GetByID", mock.Anything, tt.serviceID).Return(tt.mockReturn, tt.mockError)
			}

			req := withID(httptest.NewRequest(http.MethodGet, "/api/whiskies/"+tt.id, nil), tt.id)
			w := httptest.NewRecorder()

			handler.GetByID(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decodeError(t, w).Error)
			} else {
				var got model.Whisky
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
				assert.Equal(t, *tt.mockReturn, got)
			}

			mockService.AssertExpectations(t)
		})
	}
}

func TestWhiskyHandler_Create(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name           string
		body           string
		expectService  bool
		mockReturn     *model.Whisky
		mockError      error
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "Success",
			body:           `{"name":"Lagavulin 16","origin":"Scotland, Islay"}`,
			expectService:  true,
			mockReturn:     &model.Whisky{ID: 3, Name: "Lagavulin 16", Origin: "Scotland, Islay"},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Client supplied ID is ignored",
			body:           `{"id":99,"name":"Lagavulin 16","origin":"Scotland, Islay"}`,
			expectService:  true,
			mockReturn:     &model.Whisky{ID: 3, Name: "Lagavulin 16", Origin: "Scotland, Islay"},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Missing field",
			body:           `{"name":"Lagavulin 16"}`,
			expectService:  true,
			mockError:      model.ErrMissingField,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeMissingField,
		},
		{
			name:           "Malformed JSON",
			body:           `{"name":`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidJSON,
		},
		{
			name:           "Trailing data after object",
			body:           `{"name":"a","origin":"b"} garbage`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidJSON,
		},
		{
			name:           "Second object in body",
			body:           `{"name":"a","origin":"b"}{"name":"c","origin":"d"}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidJSON,
		},
		{
			name:           "Trailing newline is accepted",
			body:           "{\"name\":\"Lagavulin 16\",\"origin\":\"Scotland, Islay\"}\n",
			expectService:  true,
			mockReturn:     &model.Whisky{ID: 3, Name: "Lagavulin 16", Origin: "Scotland, Islay"},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Field too long",
			body:           `{"name":"Lagavulin 16","origin":"Scotland, Islay"}`,
			expectService:  true,
			mockError:      model.ErrFieldTooLong,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeFieldTooLong,
		},
		{
			name:           "Empty body",
			body:           "",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidJSON,
		},
		{
			name:           "Store unavailable",
			body:           `{"name":"Lagavulin 16","origin":"Scotland, Islay"}`,
			expectService:  true,
			mockError:      fmt.Errorf("failed to create whisky: %w", model.ErrStoreUnavailable),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   model.ErrCodeStoreUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockWhiskyService)
			handler := NewWhiskyHandler(mockService, logger)

			if tt.expectService {
				mockService.On("Create", mock.Anything, mock.AnythingOfType("*model.WhiskyRequest")).
					Return(tt.mockReturn, tt.mockError)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/whiskies", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.Create(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decodeError(t, w).Error)
			} else {
				var got model.Whisky
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
				assert.Equal(t, *tt.mockReturn, got)
			}

			mockService.AssertExpectations(t)
		})
	}
}

func TestWhiskyHandler_Update(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name           string
		id             string
		body           string
		expectService  bool
		mockReturn     *model.Whisky
		mockError      error
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "Success",
			id:             "1",
			body:           `{"name":"Bowmore 18","origin":"Scotland, Islay"}`,
			expectService:  true,
			mockReturn:     &model.Whisky{ID: 1, Name: "Bowmore 18", Origin: "Scotland, Islay"},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Not found",
			id:             "404",
			body:           `{"name":"Bowmore 18","origin":"Scotland, Islay"}`,
			expectService:  true,
			mockError:      model.ErrWhiskyNotFound,
			expectedStatus: http.StatusNotFound,
			expectedCode:   model.ErrCodeWhiskyNotFound,
		},
		{
			name:           "Invalid ID",
			id:             "one",
			body:           `{"name":"Bowmore 18","origin":"Scotland, Islay"}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidID,
		},
		{
			name:           "Malformed JSON",
			id:             "1",
			body:           `not json`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidJSON,
		},
		{
			name:           "Trailing data after object",
			id:             "1",
			body:           `{"name":"Bowmore 18","origin":"Scotland, Islay"} garbage`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidJSON,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockWhiskyService)
			handler := NewWhiskyHandler(mockService, logger)

			if tt.expectService {
				mockService.On("Update", mock.Anything, mock.AnythingOfType("int64"), mock.AnythingOfType("*model.WhiskyRequest")).
					Return(tt.mockReturn, tt.mockError)
			}

			req := httptest.NewRequest(http.MethodPut, "/api/whiskies/"+tt.id, strings.NewReader(tt.body))
			req = withID(req, tt.id)
			w := httptest.NewRecorder()

			handler.Update(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decodeError(t, w).Error)
			} else {
				var got model.Whisky
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
				assert.Equal(t, *tt.mockReturn, got)
			}

			mockService.AssertExpectations(t)
		})
	}
}

func TestWhiskyHandler_Delete(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name           string
		id             string
		expectService  bool
		mockError      error
		expectedStatus int
	}{
		{
			name:           "Success",
			id:             "1",
			expectService:  true,
			expectedStatus: http.StatusNoContent,
		},
		{
			name:           "Unknown ID still succeeds",
			id:             "999",
			expectService:  true,
			expectedStatus: http.StatusNoContent,
		},
		{
			name:           "Invalid ID",
			id:             "x",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Store unavailable",
			id:             "1",
			expectService:  true,
			mockError:      fmt.Errorf("failed to delete whisky: %w", model.ErrStoreUnavailable),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockWhiskyService)
			handler := NewWhiskyHandler(mockService, logger)

			if tt.expectService {
				mockService.On("Delete", mock.Anything, mock.AnythingOfType("int64")).Return(tt.mockError)
			}

			req := withID(httptest.NewRequest(http.MethodDelete, "/api/whiskies/"+tt.id, nil), tt.id)
			w := httptest.NewRecorder()

			handler.Delete(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusNoContent {
				assert.Empty(t, w.Body.String())
			}

			mockService.AssertExpectations(t)
		})
	}
}

func TestWriteError_IncludesCorrelationID(t *testing.T) {
	var captured *http.Request
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r
		writeDomainError(w, r, model.ErrWhiskyNotFound, zerolog.Nop())
	})

	req := httptest.NewRequest(http.MethodGet, "/api/whiskies/7", nil)
	req.Header.Set(middleware.CorrelationIDHeader, "corr-123")
	w := httptest.NewRecorder()

	middleware.CorrelationID(inner).ServeHTTP(w, req)

	require.NotNil(t, captured)
	resp := decodeError(t, w)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, model.ErrCodeWhiskyNotFound, resp.Error)
	assert.Equal(t, "corr-123", resp.CorrelationID)
}

func TestWriteDomainError_UnknownError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	writeDomainError(w, req, assert.AnError, zerolog.Nop())

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, model.ErrCodeInternalError, resp.Error)
	assert.Equal(t, "internal server error", resp.Message)
}
