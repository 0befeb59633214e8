package push

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFCMGateway_Send(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key=test-key", r.Header.Get("Authorization"))

		var req fcmRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "device-token-1", req.To)
		assert.Equal(t, "서류 제출 안내", req.Notification.Title)

		json.NewEncoder(w).Encode(fcmResponse{
			Success: 1,
			Results: []struct {
				MessageID string `json:"message_id"`
				Error     string `json:"error"`
			}{{MessageID: "msg-123"}},
		})
	}))
	defer server.Close()

	gateway := NewFCMGateway(FCMConfig{APIURL: server.URL, ServerKey: "test-key"})

	msgID, err := gateway.Send("device-token-1", "서류 제출 안내", "제출 마감일이 3일 남았습니다.")
	require.NoError(t, err)
	assert.Equal(t, "msg-123", msgID)
}

func TestFCMGateway_SendFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(fcmResponse{
			Failure: 1,
			Results: []struct {
				MessageID string `json:"message_id"`
				Error     string `json:"error"`
			}{{Error: "NotRegistered"}},
		})
	}))
	defer server.Close()

	gateway := NewFCMGateway(FCMConfig{APIURL: server.URL, ServerKey: "test-key"})

	_, err := gateway.Send("stale-token", "t", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NotRegistered")
}

func TestFCMGateway_MissingServerKey(t *testing.T) {
	gateway := NewFCMGateway(FCMConfig{})

	_, err := gateway.Send("token", "t", "b")
	assert.Error(t, err)
}

func TestDevGateway_RecordsSends(t *testing.T) {
	gateway := NewDevGateway(nil)

	_, err := gateway.Send("token-1", "title", "body")
	require.NoError(t, err)
	require.Len(t, gateway.Sent, 1)
	assert.Equal(t, "token-1", gateway.Sent[0].Token)
	assert.Equal(t, "dev", gateway.GetName())
}
