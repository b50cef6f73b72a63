// Package dnsquery resolves hostnames to IP addresses with concurrent IPv4
// and IPv6 lookups.
//
// The package is the name-resolution subsystem behind the resolution
// service: the service submits one lookup at a time, and this client talks
// to the configured upstream servers over github.com/miekg/dns.
//
// # Features
//
//   - Concurrent A and AAAA record resolution
//   - Configurable timeout and retry mechanisms
//   - Support for multiple upstream servers with random selection
//   - Response-code errors that carry the numeric status and server
//   - Proper error aggregation and handling
//
// # Basic Usage
//
// Create a new client with default settings:
//
//	client := dnsquery.New(5 * time.Second)
//	ips, err := client.LookupHost(ctx, "example.com")
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, ip := range ips {
//		fmt.Printf("Resolved IP: %s\n", ip.String())
//	}
//
// Configure the client with custom options:
//
//	client := dnsquery.New(
//		5 * time.Second,
//		dnsquery.WithServers([]string{
//			"1.1.1.1:53",
//			"8.8.8.8:53",
//		}),
//		dnsquery.WithRetries(2),
//	)
//
// # Concurrent Resolution
//
// A and AAAA lookups run concurrently: both queries are initiated
// simultaneously, results are collected as they arrive, and every
// successful answer is returned even if the other query fails. When both
// fail, the individual errors are aggregated with go.uber.org/multierr.
//
// # Error Handling
//
// The package defines several error values:
//   - ErrNoRecords: no DNS records found for the hostname
//   - ErrEmptyMsg: empty DNS response received
//   - ErrEmptyHostname: empty hostname provided
//   - *QueryError: the upstream answered with a non-success response code
//     (NXDOMAIN, SERVFAIL, …); carries the code and the server address
//
// Response-code failures are authoritative and are not retried; transport
// errors and unparseable responses are retried up to the configured count.
//
// # Thread Safety
//
// The client is safe for concurrent use. Shared result slices are guarded
// by an internal mutex while the A and AAAA goroutines merge their answers.
package dnsquery
