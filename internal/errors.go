package internal

import (
	"errors"
	"net/http"
	"overlay/entity"
)

// Error templates. They are never handed out directly, the constructors below return copies.
var (
	errInvalidHmac = entity.ClientError{
		Http:    http.StatusBadRequest,
		Code:    "21001",
		Message: "Incorrectly calculated HMAC.",
	}
	errMissingProperties = entity.ClientError{
		Http:    http.StatusBadRequest,
		Code:    "21002",
		Message: "Missing properties from payment body.",
	}
	errInvalidProperties = entity.ClientError{
		Http:    http.StatusBadRequest,
		Code:    "21003",
		Message: "Invalid body parameters, failed property validation.",
	}
	errLegacyAmount = entity.ClientError{
		Http:    http.StatusBadRequest,
		Code:    "11001",
		Message: "Amount if not allowed to be 0 or less.",
	}
	errLegacyOverlay = entity.ClientError{
		Http:    http.StatusBadRequest,
		Code:    "11100",
		Message: "General error from v1 that has not been configured into overlay yet. Check rawError for details.",
	}
	errLegacyGateway = entity.ClientError{
		Http:    http.StatusBadGateway,
		Code:    "11200",
		Message: "Error in v1, check rawError for details.",
	}
	errGeneral = entity.ClientError{
		Http:    http.StatusBadGateway,
		Code:    "29999",
		Message: "We have no idea what went wrong, contact support.",
	}
)

func ErrInvalidHmac() *entity.ClientError {
	return errInvalidHmac.WithRaw(nil)
}

func ErrMissingProperties(properties []string) *entity.ClientError {
	return errMissingProperties.WithRaw(map[string][]string{"missingProperties": properties})
}

func ErrInvalidProperties(properties []string) *entity.ClientError {
	return errInvalidProperties.WithRaw(map[string][]string{"invalidProperties": properties})
}

// ErrLegacyValidation reports checks the legacy gateway would fail. A single failure is
// returned as is, several are listed under an invalid properties error.
func ErrLegacyValidation(found []*entity.ClientError) *entity.ClientError {
	if len(found) == 1 {
		return found[0]
	}
	return errInvalidProperties.WithRaw(found)
}

func ErrLegacyAmount() *entity.ClientError {
	return errLegacyAmount.WithRaw(nil)
}

func ErrLegacyOverlay(raw string) *entity.ClientError {
	return errLegacyOverlay.WithRaw(raw)
}

func ErrLegacyGateway(raw interface{}) *entity.ClientError {
	return errLegacyGateway.WithRaw(raw)
}

func ErrGeneral() *entity.ClientError {
	return errGeneral.WithRaw(nil)
}

// ToClientError maps any processing error into the client error taxonomy.
func ToClientError(err error) *entity.ClientError {
	if err == nil {
		return nil
	}
	var clientError *entity.ClientError
	if errors.As(err, &clientError) {
		return clientError
	}
	var statusError *GatewayStatusError
	if errors.As(err, &statusError) {
		return ErrLegacyGateway(string(statusError.Body))
	}
	var transportError *GatewayTransportError
	if errors.As(err, &transportError) {
		return ErrLegacyGateway(transportError.Err.Error())
	}
	return ErrGeneral()
}
