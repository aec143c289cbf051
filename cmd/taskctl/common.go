package main

import (
	"github.com/cuemby/taskctl/pkg/cloudapi"
	"github.com/spf13/cobra"
)

// credentialsFrom, regionFrom and threadsFrom read the persistent
// --key/--secret/--region/--threads-count flags shared by every subcommand.
func credentialsFrom(cmd *cobra.Command) cloudapi.Credentials {
	key, _ := cmd.Flags().GetString("key")
	secret, _ := cmd.Flags().GetString("secret")
	return cloudapi.Credentials{AccessKeyID: key, SecretAccessKey: secret}
}

func regionFrom(cmd *cobra.Command) string {
	region, _ := cmd.Flags().GetString("region")
	return region
}

func threadsFrom(cmd *cobra.Command) int {
	n, _ := cmd.Flags().GetInt("threads-count")
	return n
}
