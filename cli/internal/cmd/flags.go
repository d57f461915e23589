package cmd

import (
	"github.com/spf13/pflag"
)

var (
	fTLSClient = pflag.NewFlagSet("tlsclient", pflag.ExitOnError)
	fTLSServer = pflag.NewFlagSet("tlsserver", pflag.ExitOnError)
	fHealth    = pflag.NewFlagSet("health", pflag.ExitOnError)
	fCORS      = pflag.NewFlagSet("cors", pflag.ExitOnError)
	fAgentAuth = pflag.NewFlagSet("agentauth", pflag.ExitOnError)
	fFetch     = pflag.NewFlagSet("fetch", pflag.ExitOnError)

	initialized = false
)

func initSharedFlagSet() {

	if initialized {
		return
	}

	initialized = true

	fTLSServer.StringP("tls-server-cert", "c", "", "path to the server certificate for incoming HTTPS connections.")
	fTLSServer.StringP("tls-server-key", "k", "", "path to the key for the server certificate.")
	fTLSServer.StringP("tls-server-key-pass", "p", "", "passphrase for the server certificate key.")
	fTLSServer.String("tls-server-client-ca", "", "path to a CA to validate incoming client certificate. When enabled clients must send a valid certificate.")

	fTLSClient.StringP("tls-client-cert", "C", "", "path to the client certificate to authenticate against the server.")
	fTLSClient.StringP("tls-client-key", "K", "", "path to the key for the client certificate.")
	fTLSClient.StringP("tls-client-key-pass", "P", "", "passphrase for the client certificate key.")
	fTLSClient.String("tls-client-server-ca", "", "path to a CA to validate the server certificates.")
	fTLSClient.Bool("tls-client-insecure-skip-verify", false, "skip server certificates validation. Do not do this.")

	fHealth.String("health-listen", "", "listen address of the health server. Disabled when empty.")

	fCORS.String("cors-origin", "*", "sets the valid HTTP Origin for CORS responses. Use 'mirror' to mirror the request Origin.")

	fAgentAuth.StringP("agent-token", "t", "", "bearer token agents must send in their Authorization header.")
	fAgentAuth.String("agent-user", "", "basic auth user agents must send in their Authorization header.")
	fAgentAuth.String("agent-pass", "", "basic auth password agents must send in their Authorization header.")

	fFetch.String("fetch-user-agent", "", "overrides the User-Agent sent by the fetch tool.")
}
