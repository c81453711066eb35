// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package geo loads the external pincode-to-coordinate reference used by the
dashboard map.

The reference is optional. Loader.Load never returns an error; it returns a
Lookup whose Available method reports whether coordinates could be loaded:

	lookup := loader.Load(ctx)
	if !lookup.Available() {
		// degrade to non-geospatial views
		log.Println(lookup.Reason())
	}

Sources may be an http(s) URL or a local file path. "off" disables the
reference. Successful loads are cached for the configured TTL; failures are
remembered for Loader.RetryAfter.
*/
package geo
