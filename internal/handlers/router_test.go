package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chachabrian/courier-backend/internal/config"
	"github.com/chachabrian/courier-backend/internal/database"
	"github.com/chachabrian/courier-backend/internal/handlers"
	"github.com/chachabrian/courier-backend/internal/mocks"
	"github.com/chachabrian/courier-backend/internal/services"
)

type testServer struct {
	router  *gin.Engine
	auth    *services.AuthService
	repo    *database.Repository
	gateway *mocks.MockPaymentGateway
	mailer  *mocks.MockMailer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.InitDB(config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "courier.db"),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	ctrl := gomock.NewController(t)
	repo := database.NewRepository(db)
	sessions := services.NewMemorySessionStore(time.Hour)
	gateway := mocks.NewMockPaymentGateway(ctrl)
	mailer := mocks.NewMockMailer(ctrl)

	hub := services.NewTrackingHub()
	stop := make(chan struct{})
	go hub.Run(stop)
	t.Cleanup(func() { close(stop) })

	auth := services.NewAuthService(repo, sessions, "test-secret", time.Hour)
	booking := services.NewBookingService(repo, repo, sessions, gateway, services.NewNotifier(mailer, hub), "usd")

	return &testServer{
		router: handlers.NewRouter(handlers.RouterDeps{
			Auth:            auth,
			Booking:         booking,
			Users:           repo,
			Hub:             hub,
			StripePublicKey: "pk_test_123",
		}),
		auth:    auth,
		repo:    repo,
		gateway: gateway,
		mailer:  mailer,
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
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
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w.Code, resp
}

func (s *testServer) registerAndLogin(t *testing.T, username, email string) string {
	t.Helper()
	code, _ := s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": username,
		"email":    email,
		"password": "secret1",
	})
	require.Equal(t, http.StatusCreated, code)

	code, resp := s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    email,
		"password": "secret1",
	})
	require.Equal(t, http.StatusOK, code)
	return resp["token"].(string)
}

func bookingBody() gin.H {
	return gin.H{
		"senderName":           "Ada Obi",
		"senderAddress":        "1 Marina Road, Lagos",
		"senderPhone":          "08030000000",
		"recipientName":        "Bola Ade",
		"recipientAddress":     "2 Allen Avenue, Ikeja",
		"recipientPhone":       "08040000000",
		"parcelWeight":         2,
		"parcelSize":           "10",
		"deliveryInstructions": "Leave at the gate",
	}
}

func TestBookPayTrackDispatch(t *testing.T) {
	s := newTestServer(t)
	userToken := s.registerAndLogin(t, "ada", "ada@example.com")

	// paying before booking points back at the booking step
	code, resp := s.do(t, http.MethodGet, "/api/payment", userToken, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "/api/parcels/book", resp["redirect"])

	code, resp = s.do(t, http.MethodPost, "/api/parcels/book", userToken, bookingBody())
	require.Equal(t, http.StatusCreated, code)
	staged := resp["booking"].(map[string]interface{})
	assert.Equal(t, 13.50, staged["cost"])

	code, resp = s.do(t, http.MethodGet, "/api/payment", userToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1350), resp["amount"])
	assert.Equal(t, "pk_test_123", resp["publicKey"])

	s.gateway.EXPECT().CreateCustomer(gomock.Any(), "ada@example.com", "tok_visa", gomock.Any()).Return("cus_1", nil)
	s.gateway.EXPECT().Charge(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req services.ChargeRequest) (*services.ChargeResult, error) {
			assert.Equal(t, int64(1350), req.AmountMinor)
			return &services.ChargeResult{ID: "ch_1", Paid: true}, nil
		})
	s.mailer.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil)

	code, resp = s.do(t, http.MethodPost, "/api/payment", userToken, gin.H{"stripeToken": "tok_visa"})
	require.Equal(t, http.StatusCreated, code)
	trackingNumber := resp["trackingNumber"].(string)
	assert.Regexp(t, `^[0-9a-f]{16}$`, trackingNumber)

	code, _ = s.do(t, http.MethodGet, "/api/parcels/book", userToken, nil)
	assert.Equal(t, http.StatusConflict, code, "staged booking is cleared after payment")

	code, resp = s.do(t, http.MethodGet, "/api/track?tracking_number="+trackingNumber, "", nil)
	require.Equal(t, http.StatusOK, code)
	parcel := resp["parcel"].(map[string]interface{})
	assert.Equal(t, "Received", parcel["status"])
	assert.Equal(t, 13.50, parcel["cost"])
	assert.NotContains(t, parcel, "chargeId")

	// non-admin is denied and nothing changes
	code, _ = s.do(t, http.MethodPost, "/api/admin/parcels/"+trackingNumber+"/dispatch", userToken, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, resp = s.do(t, http.MethodGet, "/api/track?tracking_number="+trackingNumber, "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Received", resp["parcel"].(map[string]interface{})["status"])

	adminToken := s.registerAndLogin(t, "root", "admin@example.com")
	require.NoError(t, s.auth.PromoteToAdmin(context.Background(), "admin@example.com"))

	s.mailer.EXPECT().Send(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msg services.Message) error {
			assert.Equal(t, "ada@example.com", msg.To)
			assert.Equal(t, "Parcel Dispatched", msg.Subject)
			return nil
		}).Times(1)

	code, resp = s.do(t, http.MethodPost, "/api/admin/parcels/"+trackingNumber+"/dispatch", adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Dispatched", resp["parcel"].(map[string]interface{})["status"])

	code, resp = s.do(t, http.MethodGet, "/api/track?tracking_number="+trackingNumber, "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Dispatched", resp["parcel"].(map[string]interface{})["status"])
	assert.Len(t, resp["history"], 2)

	code, resp = s.do(t, http.MethodGet, "/api/dashboard", userToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, resp["parcels"], 1)

	code, resp = s.do(t, http.MethodGet, "/api/admin/dashboard", adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), resp["byStatus"].(map[string]interface{})["Dispatched"])
}

func TestPaymentDeclined(t *testing.T) {
	s := newTestServer(t)
	token := s.registerAndLogin(t, "ada", "ada@example.com")

	code, _ := s.do(t, http.MethodPost, "/api/parcels/book", token, bookingBody())
	require.Equal(t, http.StatusCreated, code)

	s.gateway.EXPECT().CreateCustomer(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return("cus_1", nil)
	s.gateway.EXPECT().Charge(gomock.Any(), gomock.Any()).
		Return(nil, &services.GatewayError{Message: "Your card was declined."})

	code, resp := s.do(t, http.MethodPost, "/api/payment", token, gin.H{"stripeToken": "tok_chargeDeclined"})
	assert.Equal(t, http.StatusPaymentRequired, code)
	assert.Equal(t, "Your card was declined.", resp["error"])

	code, _ = s.do(t, http.MethodGet, "/api/parcels/book", token, nil)
	assert.Equal(t, http.StatusOK, code, "staged booking survives a declined card")
}

func TestTrackUnknownParcel(t *testing.T) {
	s := newTestServer(t)

	code, resp := s.do(t, http.MethodGet, "/api/track?tracking_number=ffffffffffffffff", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Nil(t, resp["parcel"])
}

func TestBookParcelValidation(t *testing.T) {
	s := newTestServer(t)
	token := s.registerAndLogin(t, "ada", "ada@example.com")

	body := bookingBody()
	body["parcelSize"] = "huge"
	code, _ := s.do(t, http.MethodPost, "/api/parcels/book", token, body)
	assert.Equal(t, http.StatusBadRequest, code)

	body = bookingBody()
	delete(body, "recipientName")
	code, _ = s.do(t, http.MethodPost, "/api/parcels/book", token, body)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPost, "/api/parcels/book", "", bookingBody())
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)
	token := s.registerAndLogin(t, "ada", "ada@example.com")

	code, _ := s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "ada", "email": "ada@example.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "ada@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, resp := s.do(t, http.MethodGet, "/api/profile", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ada@example.com", resp["email"])
	assert.Equal(t, "user", resp["role"])

	code, _ = s.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = s.do(t, http.MethodGet, "/api/profile", token, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAdminTransitionErrors(t *testing.T) {
	s := newTestServer(t)
	adminToken := s.registerAndLogin(t, "root", "admin@example.com")
	require.NoError(t, s.auth.PromoteToAdmin(context.Background(), "admin@example.com"))

	code, _ := s.do(t, http.MethodPost, "/api/admin/parcels/ffffffffffffffff/deliver", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, code)
}
