// Package keepalive provides the Go client for the webgui keep-alive heartbeat.
//
// A locally running companion server (for example a flaskwebgui backend) shuts itself
// down when no client has signaled liveness for a while. This library sends that signal:
//   1. Heartbeat Timer - armed once, fires every interval (15s default), first fire one interval after arming
//   2. Ping - fire-and-forget GET <origin>/flaskwebgui-keep-server-alive with caching disabled
//   3. Outcome tracking - failures are logged at debug level and counted, never retried or returned
//
// The returned *Client is the only handle to the timer; Stop disarms it for good.
package keepalive

// Version is sent in the User-Agent of every ping.
const Version = "1.0.0"
