// Command kvserver serves a storage.Store over HTTP, to be used through
// storage.RemoteStore, e.g., as the "remote" store of text2kv or as the slow
// half of a "paired" one. See storage.NewRemoteHandler for the protocol.
//
// The served store is configured like text2kv's, in the rjson file given by
// -config:
//
//	{
//		listen: ":6661"
//		store: {
//			type: "badger"
//			path: "$HOME/lib/text2kv/kvserver"
//		}
//	}
//
// The server does no authentication and should only listen on trusted
// networks.
package main // import "github.com/nicolagi/text2kv/cmd/kvserver"
