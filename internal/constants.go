package internal

const (
	COOKIE_ACCESS_TOKEN_NAME = "contratos_access_token"
	COOKIE_REDIRECT_NAME     = "contratos_redirect"

	HEADER_REQUEST_ID = "X-Request-ID"
)
