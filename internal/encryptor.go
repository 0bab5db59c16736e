package internal

import (
	"crypto/hmac"
	"strings"

	"gitee.com/golang-module/dongle"
)

const valueCombiner = "+"

// Encryptor signs payloads with the shared secret of one merchant.
//
// Two schemes exist and stay bound to their endpoints: the MD5 digest over '+' joined
// values used by the legacy forms, and HMAC-SHA256 over a base64 payload used by the
// client API and the refund endpoint.
type Encryptor struct {
	secret string
}

func NewEncryptor(secret string) *Encryptor {
	return &Encryptor{
		secret: secret,
	}
}

// ValueString joins the values in the given order.
func ValueString(values []string, combiner string) string {
	return strings.Join(values, combiner)
}

// LegacyMac returns the uppercase MD5 of the values joined with '+', secret last.
func (e *Encryptor) LegacyMac(values ...string) string {
	signed := make([]string, 0, len(values)+1)
	signed = append(signed, values...)
	signed = append(signed, e.secret)
	return md5Upper(ValueString(signed, valueCombiner))
}

// Hmac returns the uppercase hex HMAC-SHA256 of the message keyed with the secret.
func (e *Encryptor) Hmac(message string) string {
	return strings.ToUpper(dongle.Encrypt.FromString(message).ByHmacSha256(e.secret).ToHexString())
}

// SignPayload signs base64(payload).
func (e *Encryptor) SignPayload(payload []byte) string {
	return e.Hmac(Base64(payload))
}

// VerifyPayload checks a client signature in constant time.
func (e *Encryptor) VerifyPayload(payload []byte, signature string) bool {
	if signature == "" {
		return false
	}
	expected := e.SignPayload(payload)
	return hmac.Equal([]byte(expected), []byte(signature))
}

func Base64(data []byte) string {
	return dongle.Encode.FromBytes(data).ByBase64().ToString()
}

func md5Upper(message string) string {
	return strings.ToUpper(dongle.Encrypt.FromString(message).ByMd5().ToHexString())
}
