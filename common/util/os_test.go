package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilterOSArgs(t *testing.T) {
	var whitelist = []string{
		"public_url",
		"credential_store",
		"key_manager_type",
	}

	var in = []string{
		"/usr/bin/devboard-server",
		"serve",
		"--public_url",
		"https://devboard.example.com",
		"--key_manager_local_master_key",
		"0123456789abcdef",
		"--credential_store=redis",
		"--redis_password=hunter2",
		"--dev_include_error_detail",
		"--KEY_MANAGER_TYPE",
		"LOCAL",
	}

	var expected = []string{
		"/usr/bin/devboard-server",
		"serve",
		"--public_url",
		"https://devboard.example.com",
		"--key_manager_local_master_key",
		"****************",
		"--credential_store=redis",
		"--redis_password=*******",
		"--dev_include_error_detail",
		"--KEY_MANAGER_TYPE",
		"LOCAL",
	}

	require.Equal(t, expected, FilterOSArgs(in, whitelist))
}

func TestTruncateStringToMaxLength(t *testing.T) {
	require.Equal(t, "short", TruncateStringToMaxLength("short", 10))
	require.Equal(t, "abcdefg...", TruncateStringToMaxLength("abcdefghijklmnop", 10))
	require.Equal(t, "ab", TruncateStringToMaxLength("abcdef", 2))
	require.Equal(t, "héllo...", TruncateStringToMaxLength("héllo wörld", 8))
}
