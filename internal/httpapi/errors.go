package httpapi

import (
	"errors"
	"net/http"

	accountdomain "libmanage/backend/internal/account/domain"
	"libmanage/backend/internal/authn"
	maintenancedomain "libmanage/backend/internal/maintenance/domain"
	otpdomain "libmanage/backend/internal/otp/domain"
	"libmanage/backend/internal/security"
	sessiondomain "libmanage/backend/internal/session/domain"
)

// ErrorCode is one row of the public error table: numeric code, message and HTTP status.
type ErrorCode struct {
	Code    int
	Message string
	Status  int
}

// Public error codes. Numbers and messages are part of the client contract.
var (
	CodeUncategorized      = ErrorCode{9999, "Uncategorized error", http.StatusInternalServerError}
	CodeLoginError         = ErrorCode{9997, "Login failed, please double-check your email and password.", http.StatusUnauthorized}
	CodeInvalidRequest     = ErrorCode{1001, "Invalid request", http.StatusBadRequest}
	CodeUserExisted        = ErrorCode{1002, "User existed", http.StatusBadRequest}
	CodeEmailInvalid       = ErrorCode{1003, "Invalid email address", http.StatusBadRequest}
	CodeInvalidPassword    = ErrorCode{1004, "The password must be at least 8 characters long and include letters, numbers, and special characters!", http.StatusBadRequest}
	CodeUserNotExisted     = ErrorCode{1005, "User not existed", http.StatusNotFound}
	CodeUnauthenticated    = ErrorCode{1006, "Unauthenticated", http.StatusUnauthorized}
	CodeUnauthorized       = ErrorCode{1007, "You do not have permission", http.StatusForbidden}
	CodeOTPNotExisted      = ErrorCode{1011, "Otp not existed", http.StatusBadRequest}
	CodeOTPExpired         = ErrorCode{1012, "OTP has expired", http.StatusBadRequest}
	CodePasswordNotMatch   = ErrorCode{1013, "New password and confirm password are not match", http.StatusBadRequest}
	CodePasswordDuplicated = ErrorCode{1014, "New password must be different from old password", http.StatusBadRequest}
	CodeJWTInvalid         = ErrorCode{1026, "JWT Token invalid", http.StatusUnauthorized}
	CodeJWTExpired         = ErrorCode{1031, "JWT token has expired.", http.StatusUnauthorized}
	CodeMailExisted        = ErrorCode{1037, "Mail existed", http.StatusBadRequest}
	CodeJTIExisted         = ErrorCode{1039, "JTI Token is existed", http.StatusBadRequest}
	CodeLoginDetailMissing = ErrorCode{1040, "Don't found login detail", http.StatusNotFound}
	CodePhoneInvalid       = ErrorCode{1041, "Phone number must be at least 10 characters", http.StatusBadRequest}
	CodeOTPInvalid         = ErrorCode{1042, "OTP is invalid", http.StatusBadRequest}
	CodeOTPDuplicated      = ErrorCode{1043, "OTP is duplicated", http.StatusBadRequest}
	CodeUserNotVerified    = ErrorCode{1044, "User has not verified email or phone number", http.StatusForbidden}
	CodePhoneExisted       = ErrorCode{1045, "Phone existed", http.StatusBadRequest}
	CodeCannotDeleteAdmin  = ErrorCode{1047, "You can not delete admin!", http.StatusBadRequest}
	CodeMaintenance        = ErrorCode{503, "The system is under maintenance. Please try again later.", http.StatusServiceUnavailable}
	CodeTooManyRequests    = ErrorCode{429, "Too many requests, please slow down.", http.StatusTooManyRequests}
)

var errorTable = []struct {
	err  error
	code ErrorCode
}{
	{maintenancedomain.ErrMaintenanceModeActive, CodeMaintenance},

	{security.ErrTokenExpired, CodeJWTExpired},
	{security.ErrMalformedToken, CodeJWTInvalid},
	{security.ErrInvalidSignature, CodeJWTInvalid},
	{authn.ErrWrongTokenPurpose, CodeJWTInvalid},
	{authn.ErrSessionRevoked, CodeUnauthenticated},
	{authn.ErrUnauthenticated, CodeUnauthenticated},
	{authn.ErrUnauthorized, CodeUnauthorized},

	{accountdomain.ErrInvalidCredentials, CodeLoginError},
	{accountdomain.ErrNotFound, CodeUserNotExisted},
	{accountdomain.ErrNotVerified, CodeUserNotVerified},
	{accountdomain.ErrAccountExists, CodeUserExisted},
	{accountdomain.ErrEmailTaken, CodeMailExisted},
	{accountdomain.ErrPhoneTaken, CodePhoneExisted},
	{accountdomain.ErrInvalidEmail, CodeEmailInvalid},
	{accountdomain.ErrInvalidPhone, CodePhoneInvalid},
	{accountdomain.ErrWeakPassword, CodeInvalidPassword},
	{accountdomain.ErrPasswordNotMatch, CodePasswordNotMatch},
	{accountdomain.ErrPasswordDuplicated, CodePasswordDuplicated},
	{accountdomain.ErrCannotDeleteAdmin, CodeCannotDeleteAdmin},

	{otpdomain.ErrNotFound, CodeOTPNotExisted},
	{otpdomain.ErrInvalid, CodeOTPInvalid},
	{otpdomain.ErrExpired, CodeOTPExpired},
	{otpdomain.ErrAlreadyExists, CodeOTPDuplicated},
	{otpdomain.ErrUnknownPurpose, CodeInvalidRequest},

	{sessiondomain.ErrNotFound, CodeLoginDetailMissing},
	{sessiondomain.ErrIDConflict, CodeJTIExisted},
}

// Lookup maps err to its public code. The second result is false for errors that are
// not part of the table; those are reported as uncategorized.
func Lookup(err error) (ErrorCode, bool) {
	for _, row := range errorTable {
		if errors.Is(err, row.err) {
			return row.code, true
		}
	}
	return CodeUncategorized, false
}
