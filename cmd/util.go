package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/openfabric/tokenbridge/pkg/client"
)

func getClient() (*client.Client, error) {
	// we need the user to provide some server address first
	server := viper.GetString(BridgeAddrKey)
	if server == "" {
		return nil, fmt.Errorf("server address not configured, provide via --server or env")
	}

	// admin endpoints need a bearer token
	adminToken := os.Getenv("TOKENBRIDGE_TOKEN")

	return client.New(server, client.WithAuthToken(adminToken)), nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
