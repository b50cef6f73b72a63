// Package config loads and validates the hostlook configuration file.
//
// Configuration lives in a YAML file under the user's home directory
// (~/.hostlook/config.yaml by default). When the file is missing, Default()
// values are used so the tool works out of the box.
//
// # File format
//
//	dns:
//	  servers:
//	    - 1.1.1.1:53
//	    - 8.8.8.8:53
//	  timeout: 5s
//	  retries: 1
//
// All fields are optional. Omitted fields fall back to their defaults:
// no explicit servers (the DNS client's built-in default applies), a 5
// second per-query timeout, and one extra attempt per query.
//
// # Validation
//
// Load rejects configurations where the timeout is below one second, the
// retry count exceeds MaxRetries, or a server entry is not a host:port pair.
// Validation failures wrap ErrInvalidConfig so callers can test for them
// with errors.Is.
//
// # Testing
//
// The loader takes a filesys.ReadWriteFS, so tests inject an in-memory
// implementation instead of touching the real disk:
//
//	provider := config.NewWithPath(fakeFS, "test/config.yaml")
//	cfg, err := provider.Load()
package config
