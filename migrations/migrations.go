// Package migrations embeds the SQL schema for the vehicle catalog and learned mappings.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
