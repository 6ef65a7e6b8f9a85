package handler

// Public paths. Kept in one place so handlers, docs and tests cannot drift.
const (
	RootPath    = "/"
	UsersPath   = "/users/"
	LivePath    = "/live"
	ReadyPath   = "/ready"
	OpenAPIYAML = "/openapi.yaml"
	OpenAPIJSON = "/openapi.json"
	DocsPath    = "/docs"
)

// RequestIDHeader carries the request id in and out.
const RequestIDHeader = "X-Request-ID"

const greetingText = "Welcome to EduTrack!"
