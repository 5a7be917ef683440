// Package live serves a trellis document to browsers.
//
// One shared document is rendered on the server. Every flush publishes the
// serialized document as a numbered frame over WebSocket, and browser
// events come back as element paths that are dispatched into the server
// tree.
//
// # Wire format
//
// Server to browser:
//
//	{"seq": 12, "html": "<div>...</div>"}
//
// Browser to server:
//
//	{"path": [0, 1, 2], "type": "click"}
//	{"path": [0, 0, 1], "type": "input", "value": "milk"}
//
// Paths index element children only, starting below the #app container.
package live
