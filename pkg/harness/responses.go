package harness

import "github.com/getmockd/oidctest/pkg/oauth"

// Responses holds canned bodies the provider is expected to send.
type Responses struct {
	// ServerErrorBody is the body of every 500 response.
	ServerErrorBody oauth.ErrorResponse
}

func defaultResponses() Responses {
	return Responses{
		ServerErrorBody: oauth.ErrorResponse{
			Error:            oauth.ErrServerError,
			ErrorDescription: oauth.ServerErrorDescription,
		},
	}
}
