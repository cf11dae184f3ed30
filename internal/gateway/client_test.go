package gateway_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/safehost/go-provider/internal/gateway"
)

func TestGetTransactionDetails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chains/1/transactions/0xsafetxhash", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"safeAddress": "0x57CB13cbef735FbDD65f5f2866638c546464E45F",
			"txId": "multisig_0xsafetxhash",
			"txStatus": "AWAITING_CONFIRMATIONS",
			"txHash": "",
			"detailedExecutionInfo": {
				"type": "MULTISIG",
				"safeTxHash": "0xsafetxhash",
				"nonce": 7,
				"confirmationsRequired": 2,
				"confirmations": [
					{"signer": {"value": "0x0000000000000000000000000000000000000001"}, "signature": "0xsig"}
				]
			}
		}`)
	}))
	defer srv.Close()

	svc := gateway.NewService(srv.URL, 5*time.Second)

	details, err := svc.GetTransactionDetails(context.Background(), 1, "0xsafetxhash")
	require.NoError(t, err)

	assert.Equal(t, "multisig_0xsafetxhash", details.TxID)
	assert.Equal(t, gateway.TxStatusAwaitingConfirmations, details.TxStatus)
	assert.Empty(t, details.TxHash)

	require.NotNil(t, details.DetailedExecutionInfo)
	assert.Equal(t, int64(2), details.DetailedExecutionInfo.ConfirmationsRequired)
	require.Len(t, details.DetailedExecutionInfo.Confirmations, 1)
	assert.Equal(t, "0x0000000000000000000000000000000000000001", details.DetailedExecutionInfo.Confirmations[0].Signer.Value)
}

func TestGetTransactionDetailsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	svc := gateway.NewService(srv.URL, 5*time.Second)

	_, err := svc.GetTransactionDetails(context.Background(), 1, "0xunknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
