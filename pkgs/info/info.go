package info

// Info describes a running server. It is served
// on the /_info endpoint of the HTTP server.
type Info struct {
	Server           string   `json:"server"`
	Version          string   `json:"version"`
	Transports       []string `json:"transports"`
	Tools            []string `json:"tools"`
	ProtocolVersions []string `json:"protocolVersions"`
	AuthRequired     bool     `json:"authRequired"`
}
