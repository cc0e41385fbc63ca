// Command text2kv serves named text entries out of a key-value store over
// HTTP. Every request must carry the configured secret in its token query
// parameter.
//
// GET /NAME?token=T returns the entry, or 404. Adding text=CONTENT, or
// b64=BASE64, or posting a form with a file field, writes the entry first:
// the content is stored, read back and compared, and the response is the
// content read back. Names are case-insensitive.
//
// /config (or /) is a page with instructions; /config/update.sh and
// /config/update.bat are upload scripts for POSIX shells and Windows.
//
// Configuration comes from an rjson file, by default
// $HOME/lib/text2kv/text2kv.config, for example:
//
//	{
//		listen: ":8080"
//		token: "change me"
//		store: {
//			type: "bolt"
//			path: "$HOME/lib/text2kv/entries.db"
//			cache_ttl: "60s"
//		}
//	}
//
// A store given in the file replaces the default store, disk under
// $HOME/lib/text2kv/data with a 60s cache, as a whole: settings it omits,
// cache_ttl included, are unset.
//
// The token and listen address can be overridden with flags or the
// TEXT2KV_TOKEN and TEXT2KV_LISTEN environment variables.
package main // import "github.com/nicolagi/text2kv/cmd/text2kv"
