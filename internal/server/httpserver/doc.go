// Package httpserver is peerhub's HTTP/1.1 server, built on raw TCP
// connections.
//
// One goroutine serves each accepted connection through a fixed pipeline:
//
//   - framer.go: read one complete request (headers + Content-Length body)
//   - request.go: parse the request line, headers, cookies and query
//   - router.go: dispatch (method, path) to a handler
//   - response.go: serialize exactly one response, then close
//
// Keep-alive, pipelining, chunked encoding and TLS are not supported.
package httpserver
