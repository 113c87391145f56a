package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/garage-service/internal/config"
	"github.com/ukydev/garage-service/internal/mail"
	"github.com/ukydev/garage-service/internal/workshop"
)

const sendBody = `{
	"service": {"id": "s1", "vehicle_id": "v1", "date": "2024-06-12", "odometer": 45000,
		"service_types": ["Oil change"], "oil_type": "Mineral", "cost": 1800, "mechanic": "Luis", "state": "completed"},
	"vehicle": {"id": "v1", "plate": "SAB 1234", "make": "Toyota", "model": "Corolla", "year": 2018},
	"cliente": {"id": "c1", "name": "Ana Pérez", "phone": "099 123 456", "email": "ana@example.com"}
}`

func newSendHandler(sender mail.Sender) *NotificationsHandler {
	logger, _ := test.NewNullLogger()
	shop := workshop.New(workshop.Deps{Mailer: sender, Branding: config.DefaultBranding(), Logger: logger})
	return NewNotificationsHandler(shop, logger)
}

func postSend(h *NotificationsHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/notifications/send", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	h.Send(w, req)
	return w
}

func TestNotificationsHandler_Send(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		sender := new(MockSender)
		sender.On("Send", mock.Anything, mock.MatchedBy(func(e mail.Email) bool {
			return e.To == "ana@example.com" &&
				len(e.Attachments) == 1 &&
				e.Attachments[0].Filename == "Invoice-SAB1234-2024-06-12.pdf" &&
				bytes.Contains([]byte(e.Text), []byte("50.000 km"))
		})).Return("msg-1", nil)

		w := postSend(newSendHandler(sender), sendBody)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true}`, w.Body.String())
		sender.AssertExpectations(t)
	})

	t.Run("missing fields", func(t *testing.T) {
		sender := new(MockSender)
		w := postSend(newSendHandler(sender), `{"service": {"id": "s1"}, "vehicle": {"id": "v1"}}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp["error"])
		sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		w := postSend(newSendHandler(new(MockSender)), "not json")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("client without email", func(t *testing.T) {
		body := bytes.Replace([]byte(sendBody), []byte(`"email": "ana@example.com"`), []byte(`"email": ""`), 1)
		w := postSend(newSendHandler(new(MockSender)), string(body))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "no email recipient")
	})

	t.Run("delivery failure", func(t *testing.T) {
		sender := new(MockSender)
		sender.On("Send", mock.Anything, mock.Anything).Return("", errors.New("domain not verified"))

		w := postSend(newSendHandler(sender), sendBody)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "delivery failed", resp.Error)
		assert.Contains(t, resp.Details, "domain not verified")
	})

	t.Run("delivery not configured", func(t *testing.T) {
		w := postSend(newSendHandler(nil), sendBody)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Contains(t, resp.Details, "not configured")
	})

	t.Run("method not allowed", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/notifications/send", nil)
		w := httptest.NewRecorder()
		newSendHandler(nil).Send(w, req)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}
