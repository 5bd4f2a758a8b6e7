// Package urlpath provides URL classification and the normalized (host, path)
// identity used to index and look up navigation nodes.
package urlpath
