package internal

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const testSecret = "SAIPPUAKAUPPIAS"

var upperHex = regexp.MustCompile(`^[0-9A-F]+$`)

func TestValueStringKeepsOrder(t *testing.T) {
	values := []string{"0001", "123", "", "1000"}
	first := ValueString(values, "+")
	assert.Equal(t, "0001+123++1000", first)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ValueString(values, "+"))
	}
}

func TestLegacyMac(t *testing.T) {
	mac := NewEncryptor(testSecret).LegacyMac("0001", "123", "1000")
	assert.Equal(t, "1702E2427555DA0739BDD567D59E6DD8", mac)
	assert.Len(t, mac, 32)
	assert.Regexp(t, upperHex, mac)
}

func TestSignPayload(t *testing.T) {
	payload := []byte(`{"stamp":"123","reference":"12344","amount":1000,"currency":"EUR"}`)
	assert.Equal(t, "eyJzdGFtcCI6IjEyMyIsInJlZmVyZW5jZSI6IjEyMzQ0IiwiYW1vdW50IjoxMDAwLCJjdXJyZW5jeSI6IkVVUiJ9", Base64(payload))

	sign := NewEncryptor(testSecret).SignPayload(payload)
	assert.Equal(t, "B538A6420F0A81BC43A9F5BFC6E6B17302762769D53923EF5CF2102BD2178A88", sign)
	assert.Len(t, sign, 64)
	assert.Regexp(t, upperHex, sign)
}

func TestVerifyPayloadSymmetric(t *testing.T) {
	payloads := [][]byte{
		[]byte(`{}`),
		[]byte(`{"totalAmount":100,"items":[{"amount":100}]}`),
		[]byte(`{"stamp":"ä","reference":"12344"}`),
	}
	secrets := []string{testSecret, "x", "another secret"}

	for _, secret := range secrets {
		encryptor := NewEncryptor(secret)
		for _, payload := range payloads {
			sign := encryptor.SignPayload(payload)
			assert.True(t, encryptor.VerifyPayload(payload, sign))

			flipped := append([]byte{}, payload...)
			flipped[len(flipped)-1] ^= 0x01
			assert.False(t, encryptor.VerifyPayload(flipped, sign))

			assert.False(t, NewEncryptor(secret+"!").VerifyPayload(payload, sign))
		}
	}
}

func TestVerifyPayloadRejectsEmptyAndLowercase(t *testing.T) {
	encryptor := NewEncryptor(testSecret)
	payload := []byte(`{"a":1}`)
	sign := encryptor.SignPayload(payload)

	assert.False(t, encryptor.VerifyPayload(payload, ""))
	assert.False(t, encryptor.VerifyPayload(payload, sign[:63]))
	if lower := strings.ToLower(sign); lower != sign {
		assert.False(t, encryptor.VerifyPayload(payload, lower))
	}
}
