// Package events streams change notifications to the review UI over a
// WebSocket so analytics views can refresh without polling.
//
// Every successful mutating command publishes one Event. Clients only
// receive; anything they send is discarded. A client whose send buffer is
// full is disconnected rather than allowed to stall the hub.
package events
