package signing

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testCreds = Credentials{
		AccessKey: "AKIDEXAMPLE",
		SecretKey: "wJalrXUtnFEMI",
		Region:    "us-east-1",
		Service:   "ProductAdvertisingAPI",
	}
	testTime = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
)

func testRequest() Request {
	return Request{
		Method: "POST",
		Path:   "/paapi5/searchitems",
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
			"Host":         "webservices.amazon.com",
			"X-Amz-Date":   "20240315T103000Z",
		},
		Payload: []byte(`{"Keywords":"widget"}`),
	}
}

func TestSignIsDeterministic(t *testing.T) {
	first := Sign(testRequest(), testCreds, testTime)
	second := Sign(testRequest(), testCreds, testTime)

	assert.Equal(t, first, second)
}

func TestSignShape(t *testing.T) {
	sig := Sign(testRequest(), testCreds, testTime)

	assert.Equal(t, "20240315T103000Z", sig.AmzDate)
	assert.Equal(t, "content-type;host;x-amz-date", sig.SignedHeaders)

	sum := sha256.Sum256([]byte(`{"Keywords":"widget"}`))
	assert.Equal(t, hex.EncodeToString(sum[:]), sig.PayloadHash)

	prefix := fmt.Sprintf(
		"AWS4-HMAC-SHA256 Credential=AKIDEXAMPLE/20240315/us-east-1/ProductAdvertisingAPI/aws4_request, SignedHeaders=%s, Signature=",
		sig.SignedHeaders,
	)
	require.Contains(t, sig.Authorization, prefix)
	signature := sig.Authorization[len(prefix):]
	assert.Len(t, signature, 64, "signature is a hex SHA-256")
}

func TestSignSensitivity(t *testing.T) {
	base := Sign(testRequest(), testCreds, testTime)

	t.Run("secret changes signature", func(t *testing.T) {
		creds := testCreds
		creds.SecretKey = "other"
		got := Sign(testRequest(), creds, testTime)
		assert.NotEqual(t, base.Authorization, got.Authorization)
	})

	t.Run("timestamp changes signature", func(t *testing.T) {
		got := Sign(testRequest(), testCreds, testTime.Add(time.Second))
		assert.NotEqual(t, base.Authorization, got.Authorization)
	})

	t.Run("payload changes signature", func(t *testing.T) {
		req := testRequest()
		req.Payload = []byte(`{"Keywords":"gadget"}`)
		got := Sign(req, testCreds, testTime)
		assert.NotEqual(t, base.Authorization, got.Authorization)
		assert.NotEqual(t, base.PayloadHash, got.PayloadHash)
	})
}

func TestSignHeaderCaseInsensitive(t *testing.T) {
	req := testRequest()
	req.Headers = map[string]string{
		"content-type": "application/json; charset=utf-8",
		"HOST":         "webservices.amazon.com",
		"x-amz-date":   " 20240315T103000Z ",
	}

	assert.Equal(t, Sign(testRequest(), testCreds, testTime), Sign(req, testCreds, testTime))
}
