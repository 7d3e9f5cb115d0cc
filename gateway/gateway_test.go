package gateway_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/sweetshop/gateway"
	"github.com/example/sweetshop/pkg/config"
	"github.com/example/sweetshop/pkg/models"
	"github.com/example/sweetshop/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestGateway(handle store.Handle) *gateway.Gateway {
	cfg := &config.Config{}
	st := store.New(handle, zap.NewNop())
	gw := gateway.NewGateway(cfg, zap.NewNop(), st, nil)
	gw.SetupRoutes()
	return gw
}

func doJSON(t *testing.T, gw *gateway.Gateway, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	gw.Router().ServeHTTP(rr, req)
	return rr
}

func TestHealth(t *testing.T) {
	gw := newTestGateway(store.NewMemoryHandle())

	rr := doJSON(t, gw, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, true, resp["database"])
}

func TestHealth_Degraded(t *testing.T) {
	gw := newTestGateway(nil)

	rr := doJSON(t, gw, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["database"])
}

func TestPlaceOrder(t *testing.T) {
	handle := store.NewMemoryHandle()
	gw := newTestGateway(handle)

	rr := doJSON(t, gw, http.MethodPost, "/api/v1/orders", map[string]interface{}{
		"customerName": "Asha",
		"total":        "12.5",
		"items": []map[string]interface{}{
			{"sweetName": "Ladoo", "quantity": 2, "price": 3},
		},
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, 1, handle.Len())
}

func TestPlaceOrder_BadJSON(t *testing.T) {
	gw := newTestGateway(store.NewMemoryHandle())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader([]byte("{broken")))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	gw.Router().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPlaceOrder_Unavailable(t *testing.T) {
	gw := newTestGateway(nil)

	rr := doJSON(t, gw, http.MethodPost, "/api/v1/orders", map[string]interface{}{"customerName": "Asha"})
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "database not connected", resp["error"])
}

func TestListOrders(t *testing.T) {
	handle := store.NewMemoryHandle()
	require.NoError(t, handle.Insert(context.Background(), bson.M{"customerName": "Asha", "createdAt": time.Now()}))
	gw := newTestGateway(handle)

	rr := doJSON(t, gw, http.MethodGet, "/api/v1/orders", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Orders []map[string]interface{} `json:"orders"`
		Total  int                      `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	require.Len(t, resp.Orders, 1)
	assert.Equal(t, "Asha", resp.Orders[0]["customerName"])
}

func TestListOrders_Unavailable(t *testing.T) {
	gw := newTestGateway(nil)

	rr := doJSON(t, gw, http.MethodGet, "/api/v1/orders", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Total)
}

func TestDailySummary_Unavailable(t *testing.T) {
	gw := newTestGateway(nil)

	rr := doJSON(t, gw, http.MethodGet, "/api/v1/orders/summary", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var summary models.DailySummary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &summary))
	assert.Equal(t, 0, summary.TotalOrders)
	assert.Empty(t, summary.PopularSweets)
	assert.Empty(t, summary.Orders)
}

func TestDailySummary(t *testing.T) {
	handle := store.NewMemoryHandle()
	require.NoError(t, handle.Insert(context.Background(), bson.M{
		"orderDate": time.Now().Format("2006-01-02"),
		"total":     9.0,
		"createdAt": time.Now(),
		"items": []interface{}{
			bson.M{"sweetName": "Ladoo", "quantity": 3.0, "price": 3.0},
		},
	}))
	gw := newTestGateway(handle)

	rr := doJSON(t, gw, http.MethodGet, "/api/v1/orders/summary", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var summary models.DailySummary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.TotalOrders)
	assert.Equal(t, 9.0, summary.TotalRevenue)
	assert.Equal(t, 3.0, summary.TotalItemsSold)
	require.Len(t, summary.PopularSweets, 1)
	assert.Equal(t, "Ladoo", summary.PopularSweets[0].Name)
}

func TestUpdateOrderStatus(t *testing.T) {
	handle := store.NewMemoryHandle()
	id := primitive.NewObjectID()
	require.NoError(t, handle.Insert(context.Background(), bson.M{
		"_id": id, "customerName": "Asha", "status": "pending", "createdAt": time.Now(),
	}))
	gw := newTestGateway(handle)

	rr := doJSON(t, gw, http.MethodPut, "/api/v1/orders/"+id.Hex()+"/status",
		map[string]string{"status": "delivered"})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "delivered", resp["status"])
	assert.Equal(t, id.Hex(), resp["_id"])
}

func TestUpdateOrderStatus_MissingStatus(t *testing.T) {
	gw := newTestGateway(store.NewMemoryHandle())

	rr := doJSON(t, gw, http.MethodPut, "/api/v1/orders/"+primitive.NewObjectID().Hex()+"/status",
		map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUpdateOrderStatus_NotFound(t *testing.T) {
	gw := newTestGateway(store.NewMemoryHandle())

	rr := doJSON(t, gw, http.MethodPut, "/api/v1/orders/bad-id/status",
		map[string]string{"status": "delivered"})
	require.Equal(t, http.StatusNotFound, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "order not found", resp["error"])
}

func TestUpdateOrderStatus_Unavailable(t *testing.T) {
	gw := newTestGateway(nil)

	rr := doJSON(t, gw, http.MethodPut, "/api/v1/orders/"+primitive.NewObjectID().Hex()+"/status",
		map[string]string{"status": "delivered"})
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestEditOrder(t *testing.T) {
	handle := store.NewMemoryHandle()
	id := primitive.NewObjectID()
	require.NoError(t, handle.Insert(context.Background(), bson.M{
		"_id": id, "customerName": "Asha", "mobile": "1111", "createdAt": time.Now(),
	}))
	gw := newTestGateway(handle)

	rr := doJSON(t, gw, http.MethodPatch, "/api/v1/orders/"+id.Hex(),
		map[string]interface{}{"contact": "555", "amount": "12.5"})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "555", resp["mobile"])
	assert.Equal(t, 12.5, resp["total"])
	_, hasContact := resp["contact"]
	assert.False(t, hasContact)
}

func TestEditOrder_NotFound(t *testing.T) {
	gw := newTestGateway(store.NewMemoryHandle())

	rr := doJSON(t, gw, http.MethodPatch, "/api/v1/orders/"+primitive.NewObjectID().Hex(),
		map[string]interface{}{"status": "delivered"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestEditOrder_Unavailable(t *testing.T) {
	gw := newTestGateway(nil)

	rr := doJSON(t, gw, http.MethodPatch, "/api/v1/orders/"+primitive.NewObjectID().Hex(),
		map[string]interface{}{"status": "delivered"})
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
