package api

import "net/http"

const AcknowledgementBody = "Remediation complete"

// Response is the fixed acknowledgement returned for every processed event.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

func Acknowledgement() Response {
	return Response{StatusCode: http.StatusOK, Body: AcknowledgementBody}
}

type Strategy struct {
	ResourceType string `json:"resource_type"`
	Action       string `json:"action"`
}
